// Package clock is the single source of truth for "today" and "now".
// Calendar dates are canonical YYYY-MM-DD strings in local time; because
// the format is fixed-width and zero-padded, lexicographic comparison of
// two dates is equivalent to chronological comparison.
package clock

import "time"

// DateLayout is the canonical calendar date format.
const DateLayout = "2006-01-02"

// Clock provides the current time and calendar date.
type Clock interface {
	Now() time.Time
	Today() string
}

// System reads the wall clock in local time.
type System struct{}

func (System) Now() time.Time { return time.Now() }

func (s System) Today() string { return DateOf(s.Now()) }

// Fixed always reports the same instant. Intended for tests.
type Fixed struct {
	T time.Time
}

func (f Fixed) Now() time.Time { return f.T }

func (f Fixed) Today() string { return DateOf(f.T) }

// DateOf formats t as a canonical calendar date.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}

// ValidDate reports whether s is a well-formed canonical calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// Before reports whether date a is strictly earlier than date b.
// Both must be canonical dates; comparison is lexicographic.
func Before(a, b string) bool {
	return a < b
}
