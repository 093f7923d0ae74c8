// Package datetime provides date and time utility functions.
package datetime

import (
	"time"

	"github.com/finhaus/cpf-forecast/pkg/constants"
)

const (
	// DateTimeLayout is the month format expected in config files and is also
	// the output date format.
	DateTimeLayout = constants.DateTimeLayout
)

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// OffsetMonth returns the given month offset by months, normalized to the
// first of the month.
func OffsetMonth(t time.Time, months int) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, months, 0)
}

// AgeAt returns the age in whole years at the given date for someone born on
// dob. The comparison is month-granular because simulated dates carry no day
// component; a birthday during the simulated month counts for that month.
func AgeAt(dob, date time.Time) int {
	age := date.Year() - dob.Year()
	if date.Month() < dob.Month() {
		age--
	}
	if age < 0 {
		age = 0
	}
	return age
}
