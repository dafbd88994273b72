package grid

import (
	"errors"
	"fmt"
	"time"
)

// Time errors.
var (
	ErrInvalidTimeFormat = errors.New("time must be in HH:MM format")
	ErrPastMidnight      = errors.New("end time crosses midnight")
	ErrInvalidDuration   = errors.New("duration must be positive")
)

const minutesPerDay = 24 * 60

// TimeToMinutes converts "HH:MM" to minutes since midnight.
// Returns 0 for invalid input.
func TimeToMinutes(t string) int {
	if len(t) < 5 {
		return 0
	}
	hours := int(t[0]-'0')*10 + int(t[1]-'0')
	mins := int(t[3]-'0')*10 + int(t[4]-'0')
	return hours*60 + mins
}

// MinutesToTime converts minutes since midnight to "HH:MM" format.
// 1440 is rendered as "24:00" so a block ending at midnight stays on its day.
func MinutesToTime(m int) string {
	if m < 0 {
		m = 0
	}
	if m > minutesPerDay {
		m = minutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ValidateTime checks that s is a real HH:MM clock time.
func ValidateTime(s string) error {
	if len(s) != 5 {
		return ErrInvalidTimeFormat
	}
	if _, err := time.Parse("15:04", s); err != nil {
		return ErrInvalidTimeFormat
	}
	return nil
}

// ComputeEndMinutes adds a duration to a start offset, both in minutes.
// The result never wraps to the next day.
func ComputeEndMinutes(startMinutes, durationMinutes int) (int, error) {
	if durationMinutes <= 0 {
		return 0, ErrInvalidDuration
	}
	end := startMinutes + durationMinutes
	if end > minutesPerDay {
		return 0, fmt.Errorf("%w: %s + %dm", ErrPastMidnight, MinutesToTime(startMinutes), durationMinutes)
	}
	return end, nil
}

// ComputeEndTime returns the HH:MM end of a block that starts at start and
// lasts durationHours. Minutes carry into hours, so "09:30" + 2 is "11:30".
func ComputeEndTime(start string, durationHours int) (string, error) {
	if err := ValidateTime(start); err != nil {
		return "", fmt.Errorf("start time: %w", err)
	}
	end, err := ComputeEndMinutes(TimeToMinutes(start), durationHours*60)
	if err != nil {
		return "", err
	}
	return MinutesToTime(end), nil
}

// OverlapMinutes calculates the overlapping minutes between two time ranges.
// Returns 0 if there is no overlap.
func OverlapMinutes(start1, end1, start2, end2 string) int {
	s1 := TimeToMinutes(start1)
	e1 := TimeToMinutes(end1)
	s2 := TimeToMinutes(start2)
	e2 := TimeToMinutes(end2)

	overlapStart := max(s1, s2)
	overlapEnd := min(e1, e2)

	if overlapEnd <= overlapStart {
		return 0
	}
	return overlapEnd - overlapStart
}

// TimesOverlap returns true if two time ranges overlap.
// Two time ranges overlap if: start1 < end2 AND start2 < end1
func TimesOverlap(start1, end1, start2, end2 string) bool {
	return start1 < end2 && start2 < end1
}
