// Package period provides academic period (year + term) parsing and the
// curriculum cycles each term offers.
package period

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Validation errors.
var (
	ErrInvalidTerm   = errors.New("term must be I or II")
	ErrInvalidYear   = errors.New("year must be between 2000 and 2100")
	ErrInvalidPeriod = errors.New("period must be in YYYY-TERM format (e.g. 2025-I)")
)

// Cycle bounds of the curriculum.
const (
	FirstCycle = 1
	LastCycle  = 10
)

// Term is the half-year offering window.
type Term string

const (
	TermI  Term = "I"
	TermII Term = "II"
)

// ParseTerm accepts "I", "II", "1" or "2" (case-insensitive).
func ParseTerm(s string) (Term, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "I", "1":
		return TermI, nil
	case "II", "2":
		return TermII, nil
	default:
		return "", ErrInvalidTerm
	}
}

// Valid returns true if the term is I or II.
func (t Term) Valid() bool {
	return t == TermI || t == TermII
}

// Period identifies one timetable window.
type Period struct {
	Year int
	Term Term
}

// New validates and builds a Period.
func New(year int, term Term) (Period, error) {
	p := Period{Year: year, Term: term}
	if err := p.Validate(); err != nil {
		return Period{}, err
	}
	return p, nil
}

// Parse parses "2025-I" or "2025-2". An empty string returns the current period.
func Parse(s string) (Period, error) {
	return ParseRelative(s, time.Now())
}

// ParseRelative is like Parse but resolves the empty string against now.
func ParseRelative(s string, now time.Time) (Period, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Current(now), nil
	}
	yearStr, termStr, ok := strings.Cut(s, "-")
	if !ok {
		return Period{}, ErrInvalidPeriod
	}
	year, err := strconv.Atoi(yearStr)
	if err != nil {
		return Period{}, ErrInvalidPeriod
	}
	term, err := ParseTerm(termStr)
	if err != nil {
		return Period{}, err
	}
	return New(year, term)
}

// Current returns the period containing now: January-June is term I,
// July-December is term II.
func Current(now time.Time) Period {
	term := TermI
	if now.Month() > time.June {
		term = TermII
	}
	return Period{Year: now.Year(), Term: term}
}

// Validate checks year range and term.
func (p Period) Validate() error {
	if p.Year < 2000 || p.Year > 2100 {
		return ErrInvalidYear
	}
	if !p.Term.Valid() {
		return ErrInvalidTerm
	}
	return nil
}

// String returns "2025-I".
func (p Period) String() string {
	return fmt.Sprintf("%d-%s", p.Year, p.Term)
}

// ActiveCycles returns the cycles offered in this term: odd cycles in I,
// even cycles in II.
func (p Period) ActiveCycles() []int {
	first := FirstCycle
	if p.Term == TermII {
		first = FirstCycle + 1
	}
	cycles := make([]int, 0, (LastCycle-FirstCycle)/2+1)
	for c := first; c <= LastCycle; c += 2 {
		cycles = append(cycles, c)
	}
	return cycles
}

// IsActiveCycle reports whether cycle is taught in this term.
func (p Period) IsActiveCycle(cycle int) bool {
	if cycle < FirstCycle || cycle > LastCycle {
		return false
	}
	if p.Term == TermII {
		return cycle%2 == 0
	}
	return cycle%2 == 1
}
