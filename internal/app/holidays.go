package app

import (
	"fmt"
	"time"
)

// NationalHolidays returns the Brazilian national holidays of the given
// year, keyed by yyyy-mm-dd. The scheduling UI uses them to flag
// non-working days in the calendar view.
func NationalHolidays(year int) map[string]string {
	holidays := make(map[string]string)

	// Fixed holidays
	holidays[formatDate(year, 1, 1)] = "New Year's Day"
	holidays[formatDate(year, 4, 21)] = "Tiradentes Day"
	holidays[formatDate(year, 5, 1)] = "Labour Day"
	holidays[formatDate(year, 9, 7)] = "Independence Day"
	holidays[formatDate(year, 10, 12)] = "Our Lady of Aparecida"
	holidays[formatDate(year, 11, 2)] = "All Souls' Day"
	holidays[formatDate(year, 11, 15)] = "Republic Day"
	holidays[formatDate(year, 12, 25)] = "Christmas Day"

	// Easter-based holidays (movable)
	easter := calculateEaster(year)

	// Carnival Tuesday: Easter - 47 days
	holidays[formatDateFromTime(easter.AddDate(0, 0, -47))] = "Carnival"

	// Good Friday: Easter - 2 days
	holidays[formatDateFromTime(easter.AddDate(0, 0, -2))] = "Good Friday"

	// Corpus Christi: Easter + 60 days
	holidays[formatDateFromTime(easter.AddDate(0, 0, 60))] = "Corpus Christi"

	return holidays
}

// calculateEaster calculates Easter Sunday using the Meeus/Jones/Butcher
// algorithm.
func calculateEaster(year int) time.Time {
	a := year % 19
	b := year / 100
	c := year % 100
	d := b / 4
	e := b % 4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i := c / 4
	k := c % 4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := ((h + l - 7*m + 114) % 31) + 1

	// Noon avoids timezone edge cases when formatting to yyyy-mm-dd.
	return time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.UTC)
}

func formatDate(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

func formatDateFromTime(t time.Time) string {
	return t.Format(DateLayout)
}
