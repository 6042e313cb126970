package app

import (
	"sort"
	"time"
)

// Filters narrows a session query. Zero-valued ids mean "any"; the zero
// Period is treated as PeriodAll.
type Filters struct {
	WorkshopID WorkshopID
	EducatorID EducatorID
	ClassID    ClassID
	Period     Period
}

// FilterSessions returns the sessions matching the filters, sorted
// ascending by (date, start time). Period windows are evaluated against
// the calendar day of now; the week window is the Sunday-to-Saturday week
// containing now, the month window the current calendar month. Pure
// derivation: the input slice is not modified.
func FilterSessions(sessions []Session, f Filters, now time.Time) []Session {
	lo, hi := periodWindow(f.Period, now)

	out := make([]Session, 0, len(sessions))
	for _, s := range sessions {
		if f.WorkshopID != 0 && s.WorkshopID != f.WorkshopID {
			continue
		}
		if f.EducatorID != 0 && s.EducatorID != f.EducatorID {
			continue
		}
		if f.ClassID != 0 && s.ClassID != f.ClassID {
			continue
		}
		if lo != "" && s.Date < lo {
			continue
		}
		if hi != "" && s.Date > hi {
			continue
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].sortKey() < out[j].sortKey()
	})
	return out
}

// periodWindow maps a period to an inclusive [lo, hi] date-string range;
// an empty bound means unbounded. Dates are fixed-width ISO so the string
// comparison is a calendar comparison. PeriodPast excludes today itself,
// expressed as hi = yesterday.
func periodWindow(p Period, now time.Time) (lo, hi string) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	switch p {
	case PeriodFuture:
		return today.Format(DateLayout), ""
	case PeriodPast:
		return "", today.AddDate(0, 0, -1).Format(DateLayout)
	case PeriodWeek:
		weekStart := today.AddDate(0, 0, -int(today.Weekday()))
		return weekStart.Format(DateLayout), weekStart.AddDate(0, 0, 6).Format(DateLayout)
	case PeriodMonth:
		monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return monthStart.Format(DateLayout), monthStart.AddDate(0, 1, -1).Format(DateLayout)
	}
	return "", ""
}

// CalendarEvent is a session mapped onto concrete start/end instants for
// calendar views and ICS export.
type CalendarEvent struct {
	ID      SessionID `json:"id"`
	Title   string    `json:"title"`
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Session Session   `json:"session"`
}

// CalendarEvents maps sessions to calendar events titled
// "<workshop name> - <class name>", with "?" standing in for unresolved
// foreign keys. Sessions whose date+time does not parse are dropped.
func CalendarEvents(sessions []Session, workshops []Workshop, classes []Class) []CalendarEvent {
	workshopNames := make(map[WorkshopID]string, len(workshops))
	for _, w := range workshops {
		workshopNames[w.ID] = w.Name
	}
	classNames := make(map[ClassID]string, len(classes))
	for _, c := range classes {
		classNames[c.ID] = c.Name
	}

	events := make([]CalendarEvent, 0, len(sessions))
	for _, s := range sessions {
		start, err := s.StartInstant()
		if err != nil {
			continue
		}
		end, err := s.EndInstant()
		if err != nil {
			continue
		}
		events = append(events, CalendarEvent{
			ID:      s.ID,
			Title:   nameOr(workshopNames[s.WorkshopID]) + " - " + nameOr(classNames[s.ClassID]),
			Start:   start,
			End:     end,
			Session: s,
		})
	}
	return events
}

// SessionRow is a session with its foreign keys resolved to display names,
// used by the tabular exports.
type SessionRow struct {
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
	Workshop  string `json:"workshop"`
	Educator  string `json:"educator"`
	Class     string `json:"class"`
	Notes     string `json:"notes,omitempty"`
}

// ResolveSessions joins sessions against the three name collections.
func ResolveSessions(d Data, sessions []Session) []SessionRow {
	workshopNames := make(map[WorkshopID]string, len(d.Workshops))
	for _, w := range d.Workshops {
		workshopNames[w.ID] = w.Name
	}
	educatorNames := make(map[EducatorID]string, len(d.Educators))
	for _, e := range d.Educators {
		educatorNames[e.ID] = e.Name
	}
	classNames := make(map[ClassID]string, len(d.Classes))
	for _, c := range d.Classes {
		classNames[c.ID] = c.Name
	}

	rows := make([]SessionRow, 0, len(sessions))
	for _, s := range sessions {
		rows = append(rows, SessionRow{
			Date:      s.Date,
			StartTime: s.StartTime,
			EndTime:   s.EndTime,
			Workshop:  nameOr(workshopNames[s.WorkshopID]),
			Educator:  nameOr(educatorNames[s.EducatorID]),
			Class:     nameOr(classNames[s.ClassID]),
			Notes:     s.Notes,
		})
	}
	return rows
}

func nameOr(name string) string {
	if name == "" {
		return "?"
	}
	return name
}
