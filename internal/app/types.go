package app

import (
	"fmt"
	"time"
)

// Identifier types for the four collections. Sessions reference the other
// three through typed foreign keys so that a workshop id can never be
// compared against an educator id by accident.
type (
	WorkshopID int64
	EducatorID int64
	ClassID    int64
	SessionID  int64
)

// Workshop is a bookable activity with a nominal hours load.
type Workshop struct {
	ID          WorkshopID `json:"id"`
	Name        string     `json:"name"`
	HoursLoad   float64    `json:"hoursLoad"`
	Description string     `json:"description,omitempty"`
}

// Educator is the scarce resource of the scheduler: no educator may be
// booked into two overlapping sessions on the same date.
type Educator struct {
	ID    EducatorID `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email,omitempty"`
	Phone string     `json:"phone,omitempty"`
}

// Class is a cohort of participants attending sessions.
type Class struct {
	ID     ClassID `json:"id"`
	Name   string  `json:"name"`
	Period string  `json:"period,omitempty"`
	Notes  string  `json:"notes,omitempty"`
}

// Session binds a workshop, an educator and a class to one calendar day
// and a [StartTime, EndTime) slot. Date is yyyy-mm-dd, times are
// zero-padded HH:MM, so both order lexicographically.
type Session struct {
	ID         SessionID  `json:"id"`
	WorkshopID WorkshopID `json:"workshopId"`
	EducatorID EducatorID `json:"educatorId"`
	ClassID    ClassID    `json:"classId"`
	Date       string     `json:"date"`
	StartTime  string     `json:"startTime"`
	EndTime    string     `json:"endTime"`
	Notes      string     `json:"notes,omitempty"`
}

// Data is the full persisted document: four named arrays, nothing else.
type Data struct {
	Workshops []Workshop `json:"workshops"`
	Educators []Educator `json:"educators"`
	Classes   []Class    `json:"classes"`
	Sessions  []Session  `json:"sessions"`
}

// Date and time layouts used throughout.
const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

// StartInstant combines Date and StartTime into a local-time instant.
func (s Session) StartInstant() (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+ClockLayout, s.Date+" "+s.StartTime, time.Local)
}

// EndInstant combines Date and EndTime into a local-time instant.
func (s Session) EndInstant() (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+ClockLayout, s.Date+" "+s.EndTime, time.Local)
}

// DurationMinutes returns the scheduled minutes of the session, or 0 when
// the time range is empty or inverted.
func (s Session) DurationMinutes() int {
	start, err1 := time.Parse(ClockLayout, s.StartTime)
	end, err2 := time.Parse(ClockLayout, s.EndTime)
	if err1 != nil || err2 != nil || !start.Before(end) {
		return 0
	}
	return int(end.Sub(start).Minutes())
}

// sortKey orders sessions by (date, start time); both fields are
// fixed-width so plain concatenation is a valid combined key.
func (s Session) sortKey() string {
	return s.Date + "T" + s.StartTime
}

// ValidDate reports whether s is a well-formed yyyy-mm-dd calendar day.
func ValidDate(s string) bool {
	if len(s) != len(DateLayout) {
		return false
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ValidClock reports whether s is a well-formed zero-padded HH:MM time.
func ValidClock(s string) bool {
	if len(s) != len(ClockLayout) {
		return false
	}
	_, err := time.Parse(ClockLayout, s)
	return err == nil
}

// Period selects the time window of a session query.
type Period string

const (
	PeriodAll    Period = "all"
	PeriodFuture Period = "future"
	PeriodPast   Period = "past"
	PeriodWeek   Period = "week"
	PeriodMonth  Period = "month"
)

// ParsePeriod maps the wire form to a Period. The empty string means all.
func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodAll:
		return PeriodAll, nil
	case PeriodFuture, PeriodPast, PeriodWeek, PeriodMonth:
		return Period(s), nil
	}
	return "", fmt.Errorf("unknown period %q", s)
}

// EntityKind names one of the three referenced collections for the
// referential integrity guard.
type EntityKind string

const (
	KindWorkshop EntityKind = "workshop"
	KindEducator EntityKind = "educator"
	KindClass    EntityKind = "class"
)
