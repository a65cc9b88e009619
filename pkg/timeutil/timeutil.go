// Package timeutil provides the time conventions shared across the service:
// all ledger timestamps and report dates are UTC, calendar days are whole
// UTC days, and school-day checks drive notification dispatch windows.
// No external dependencies - uses only standard library.
package timeutil

import (
	"time"
)

// DateLayout is the calendar-day format used in ledger entries and exports.
const DateLayout = "2006-01-02"

// ReportDateLayout is the human-readable date used in notification emails,
// e.g. "January 02, 2006".
const ReportDateLayout = "January 02, 2006"

// Now returns the current time in UTC.
func Now() time.Time {
	return time.Now().UTC()
}

// DateString formats a time as a calendar day in UTC.
func DateString(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ReportDate formats a time for human-facing reports in UTC.
func ReportDate(t time.Time) string {
	return t.UTC().Format(ReportDateLayout)
}

// StartOfDay returns 00:00:00 UTC of the given time's day.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// WholeDays returns the number of complete 24-hour periods between from and
// to. Truncates toward zero: 47 hours apart is 1 day.
func WholeDays(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// DaysSince returns the number of whole calendar days from t to now.
func DaysSince(t time.Time) int {
	return int(StartOfDay(Now()).Sub(StartOfDay(t)).Hours() / 24)
}

// SameDay reports whether two times fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	au, bu := a.UTC(), b.UTC()
	return au.Year() == bu.Year() && au.YearDay() == bu.YearDay()
}

// School hours used for notification dispatch windows.
const (
	// SchoolDayStart is when staff start reading email (7:00 AM).
	SchoolDayStart = 7
	// SchoolDayEnd is when dispatch pauses for the day (6:00 PM).
	SchoolDayEnd = 18
)

// IsSchoolHours checks if the given time is within the dispatch window.
func IsSchoolHours(t time.Time) bool {
	hour := t.UTC().Hour()
	return hour >= SchoolDayStart && hour < SchoolDayEnd
}

// IsWeekend checks if the given time is on a weekend.
func IsWeekend(t time.Time) bool {
	weekday := t.UTC().Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// IsSchoolDay checks if the given time is on a school day (Mon-Fri).
func IsSchoolDay(t time.Time) bool {
	return !IsWeekend(t)
}

// NextSchoolDay returns the start of the next school day, skipping weekends.
func NextSchoolDay(t time.Time) time.Time {
	next := StartOfDay(t).AddDate(0, 0, 1)
	for IsWeekend(next) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
