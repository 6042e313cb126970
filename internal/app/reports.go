package app

import (
	"math"
	"sort"
	"time"
)

// RecentSession is one line of an educator's recent activity.
type RecentSession struct {
	Date     string `json:"date"`
	Workshop string `json:"workshop"`
	Time     string `json:"time"`
}

// EducatorReportItem aggregates one educator's scheduled load.
type EducatorReportItem struct {
	Educator  string          `json:"educator"`
	Hours     float64         `json:"hours"`
	Sessions  int             `json:"sessions"`
	Workshops int             `json:"workshops"`
	Recent    []RecentSession `json:"recent"`
}

// EducatorReport sums scheduled hours per educator over the period-filtered
// session set. Only educators with at least one session appear; inverted
// time ranges count zero minutes. Sorted descending by hours. Recent holds
// the educator's three most recent sessions.
func EducatorReport(d Data, p Period, now time.Time) []EducatorReportItem {
	filtered := FilterSessions(d.Sessions, Filters{Period: p}, now)
	workshopNames := make(map[WorkshopID]string, len(d.Workshops))
	for _, w := range d.Workshops {
		workshopNames[w.ID] = w.Name
	}

	var report []EducatorReportItem
	for _, ed := range d.Educators {
		var mine []Session
		for _, s := range filtered {
			if s.EducatorID == ed.ID {
				mine = append(mine, s)
			}
		}
		if len(mine) == 0 {
			continue
		}

		sort.Slice(mine, func(i, j int) bool {
			return mine[i].sortKey() > mine[j].sortKey()
		})

		minutes := 0
		workshops := make(map[WorkshopID]struct{})
		var recent []RecentSession
		for _, s := range mine {
			minutes += s.DurationMinutes()
			workshops[s.WorkshopID] = struct{}{}
			if len(recent) < 3 {
				recent = append(recent, RecentSession{
					Date:     s.Date,
					Workshop: nameOr(workshopNames[s.WorkshopID]),
					Time:     s.StartTime + "-" + s.EndTime,
				})
			}
		}

		report = append(report, EducatorReportItem{
			Educator:  ed.Name,
			Hours:     roundHours(minutes),
			Sessions:  len(mine),
			Workshops: len(workshops),
			Recent:    recent,
		})
	}

	sort.SliceStable(report, func(i, j int) bool {
		return report[i].Hours > report[j].Hours
	})
	return report
}

// WorkshopReportItem aggregates one workshop's scheduling activity.
type WorkshopReportItem struct {
	Workshop  string  `json:"workshop"`
	HoursLoad float64 `json:"hoursLoad"`
	Sessions  int     `json:"sessions"`
	Hours     float64 `json:"hours"`
	Educators int     `json:"educators"`
	Classes   int     `json:"classes"`
}

// WorkshopReport aggregates delivered hours and participants per workshop
// over the period-filtered session set, sorted descending by session count.
func WorkshopReport(d Data, p Period, now time.Time) []WorkshopReportItem {
	filtered := FilterSessions(d.Sessions, Filters{Period: p}, now)

	var report []WorkshopReportItem
	for _, w := range d.Workshops {
		minutes := 0
		sessions := 0
		educators := make(map[EducatorID]struct{})
		classes := make(map[ClassID]struct{})
		for _, s := range filtered {
			if s.WorkshopID != w.ID {
				continue
			}
			sessions++
			minutes += s.DurationMinutes()
			educators[s.EducatorID] = struct{}{}
			classes[s.ClassID] = struct{}{}
		}
		if sessions == 0 {
			continue
		}
		report = append(report, WorkshopReportItem{
			Workshop:  w.Name,
			HoursLoad: w.HoursLoad,
			Sessions:  sessions,
			Hours:     roundHours(minutes),
			Educators: len(educators),
			Classes:   len(classes),
		})
	}

	sort.SliceStable(report, func(i, j int) bool {
		return report[i].Sessions > report[j].Sessions
	})
	return report
}

// ItineraryItem is one chronological entry of a class report.
type ItineraryItem struct {
	Date     string `json:"date"`
	Weekday  string `json:"weekday"`
	Time     string `json:"time"`
	Workshop string `json:"workshop"`
	Educator string `json:"educator"`
}

// ClassReportResult is the full itinerary and summary for one class.
type ClassReportResult struct {
	Class     string          `json:"class"`
	Hours     float64         `json:"hours"`
	Workshops int             `json:"workshops"`
	Educators int             `json:"educators"`
	Days      int             `json:"days"`
	Itinerary []ItineraryItem `json:"itinerary"`
}

// ClassReport builds the chronological itinerary of one class over the
// period, with distinct-workshop/educator/day counts and total hours.
// Returns ErrNotFound when the class id is unknown.
func ClassReport(d Data, id ClassID, p Period, now time.Time) (*ClassReportResult, error) {
	var class *Class
	for i := range d.Classes {
		if d.Classes[i].ID == id {
			class = &d.Classes[i]
			break
		}
	}
	if class == nil {
		return nil, ErrNotFound
	}

	filtered := FilterSessions(d.Sessions, Filters{ClassID: id, Period: p}, now)

	workshopNames := make(map[WorkshopID]string, len(d.Workshops))
	for _, w := range d.Workshops {
		workshopNames[w.ID] = w.Name
	}
	educatorNames := make(map[EducatorID]string, len(d.Educators))
	for _, e := range d.Educators {
		educatorNames[e.ID] = e.Name
	}

	minutes := 0
	workshops := make(map[WorkshopID]struct{})
	educators := make(map[EducatorID]struct{})
	days := make(map[string]struct{})
	itinerary := make([]ItineraryItem, 0, len(filtered))

	for _, s := range filtered {
		minutes += s.DurationMinutes()
		workshops[s.WorkshopID] = struct{}{}
		educators[s.EducatorID] = struct{}{}
		days[s.Date] = struct{}{}

		weekday := ""
		if day, err := time.Parse(DateLayout, s.Date); err == nil {
			weekday = day.Weekday().String()
		}
		itinerary = append(itinerary, ItineraryItem{
			Date:     s.Date,
			Weekday:  weekday,
			Time:     s.StartTime + " - " + s.EndTime,
			Workshop: nameOr(workshopNames[s.WorkshopID]),
			Educator: nameOr(educatorNames[s.EducatorID]),
		})
	}

	return &ClassReportResult{
		Class:     class.Name,
		Hours:     roundHours(minutes),
		Workshops: len(workshops),
		Educators: len(educators),
		Days:      len(days),
		Itinerary: itinerary,
	}, nil
}

// Stats is the dashboard summary: collection counts plus the next upcoming
// sessions.
type Stats struct {
	Workshops int       `json:"workshops"`
	Educators int       `json:"educators"`
	Classes   int       `json:"classes"`
	Sessions  int       `json:"sessions"`
	Upcoming  []Session `json:"upcoming"`
}

// BuildStats counts the four collections and lists up to limit upcoming
// sessions (today or later, soonest first).
func BuildStats(d Data, now time.Time, limit int) Stats {
	upcoming := FilterSessions(d.Sessions, Filters{Period: PeriodFuture}, now)
	if len(upcoming) > limit {
		upcoming = upcoming[:limit]
	}
	return Stats{
		Workshops: len(d.Workshops),
		Educators: len(d.Educators),
		Classes:   len(d.Classes),
		Sessions:  len(d.Sessions),
		Upcoming:  upcoming,
	}
}

// roundHours converts minutes to hours rounded to one decimal, matching
// the report display precision.
func roundHours(minutes int) float64 {
	return math.Round(float64(minutes)/6) / 10
}
