// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package temporal parses extracted deadline dates and rolls past dates
// forward by whole years so that a reported deadline is never in the past.
//
// All arithmetic works on calendar days in UTC: a deadline falling on the
// current day is kept as is.
package temporal

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/pdiddy/exchange-scout/pkg/types"
)

// Normalized is a date rolled forward to today or later.
type Normalized struct {
	Date       time.Time
	YearsAdded int
}

// Adjusted reports whether the date was moved.
func (n Normalized) Adjusted() bool { return n.YearsAdded > 0 }

// Normalize returns the minimal n >= 0 such that date + n years falls on or
// after now, together with that date. date + n years is always computed from
// the original date, so a Feb 29 deadline lands on Feb 28 in common years and
// returns to Feb 29 in leap years.
func Normalize(date, now time.Time) Normalized {
	d := Day(date)
	today := Day(now)

	n := today.Year() - d.Year() - 1
	if n < 0 {
		n = 0
	}
	for AddYears(d, n).Before(today) {
		n++
	}
	return Normalized{Date: AddYears(d, n), YearsAdded: n}
}

// Day truncates t to midnight UTC of its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// statedDay keeps the calendar day t was written with, ignoring any offset.
func statedDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AddYears adds n years to the calendar date of t, clamping Feb 29 to Feb 28
// when the target year is not a leap year.
func AddYears(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	y += n
	if m == time.February && d == 29 && !isLeap(y) {
		d = 28
	}
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

// datedLayouts are tried in order for inputs that carry a year. Slash and dot
// forms are read day-first.
var datedLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006/01/02",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"January 2 2006",
	"Jan 2 2006",
	"Monday, 2 January 2006",
	"Monday, January 2, 2006",
	"02.01.2006",
	"2.1.2006",
	"02/01/2006",
	"2/1/2006",
}

// yearlessLayouts are tried when no layout with a year matches; the year of
// now is assumed.
var yearlessLayouts = []string{
	"2 January",
	"2 Jan",
	"January 2",
	"Jan 2",
}

var ordinalSuffix = regexp.MustCompile(`(?i)\b(\d{1,2})(st|nd|rd|th)\b`)

// ParseDate reads an extracted deadline date. Ordinal suffixes ("31st") and
// surrounding whitespace are ignored. A date without a year takes the year of
// now and is left for Normalize to roll forward. Text that matches no known
// layout yields an error wrapping types.ErrDateUnparsable.
func ParseDate(s string, now time.Time) (time.Time, error) {
	clean := strings.TrimSpace(ordinalSuffix.ReplaceAllString(s, "$1"))
	clean = strings.Join(strings.Fields(clean), " ")
	if clean == "" {
		return time.Time{}, fmt.Errorf("%w: empty date", types.ErrDateUnparsable)
	}

	for _, layout := range datedLayouts {
		if t, err := time.Parse(layout, clean); err == nil {
			return statedDay(t), nil
		}
	}
	for _, layout := range yearlessLayouts {
		if t, err := time.Parse(layout, clean); err == nil {
			return AddYears(t, now.UTC().Year()-t.Year()), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", types.ErrDateUnparsable, s)
}
