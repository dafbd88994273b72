package period

import (
	"errors"
	"testing"
	"time"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Period
		wantErr error
	}{
		{input: "2025-I", want: Period{2025, TermI}},
		{input: "2025-ii", want: Period{2025, TermII}},
		{input: "2024-2", want: Period{2024, TermII}},
		{input: "2025", wantErr: ErrInvalidPeriod},
		{input: "abcd-I", wantErr: ErrInvalidPeriod},
		{input: "2025-III", wantErr: ErrInvalidTerm},
		{input: "1999-I", wantErr: ErrInvalidYear},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Parse(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseRelative_EmptyUsesCurrent(t *testing.T) {
	got, err := ParseRelative("", time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "2025-II" {
		t.Errorf("got %s, want 2025-II", got)
	}
}

func TestCurrent(t *testing.T) {
	if p := Current(time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)); p.Term != TermI {
		t.Errorf("June term = %s, want I", p.Term)
	}
	if p := Current(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)); p.Term != TermII {
		t.Errorf("July term = %s, want II", p.Term)
	}
}

func TestActiveCycles(t *testing.T) {
	odd := Period{2025, TermI}.ActiveCycles()
	even := Period{2025, TermII}.ActiveCycles()

	wantOdd := []int{1, 3, 5, 7, 9}
	wantEven := []int{2, 4, 6, 8, 10}
	for i := range wantOdd {
		if odd[i] != wantOdd[i] {
			t.Errorf("term I cycles = %v, want %v", odd, wantOdd)
			break
		}
	}
	for i := range wantEven {
		if even[i] != wantEven[i] {
			t.Errorf("term II cycles = %v, want %v", even, wantEven)
			break
		}
	}

	p := Period{2025, TermI}
	if !p.IsActiveCycle(3) || p.IsActiveCycle(4) || p.IsActiveCycle(11) || p.IsActiveCycle(0) {
		t.Error("IsActiveCycle mismatch for term I")
	}
}
