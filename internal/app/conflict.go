package app

// Candidate is a proposed booking of an educator's time, before it becomes
// a session.
type Candidate struct {
	EducatorID EducatorID
	Date       string
	StartTime  string
	EndTime    string
}

// HasConflict reports whether the candidate overlaps an existing session
// for the same educator on the same date. Pass exclude != 0 during edits so
// a session does not conflict with its own prior slot.
//
// Intervals are half-open [start, end): touching sessions (one ends exactly
// when the next begins) do not conflict. The fixed-width HH:MM format makes
// string comparison a valid time comparison.
func HasConflict(c Candidate, sessions []Session, exclude SessionID) bool {
	for _, s := range sessions {
		if exclude != 0 && s.ID == exclude {
			continue
		}
		if s.EducatorID != c.EducatorID || s.Date != c.Date {
			continue
		}
		if c.StartTime < s.EndTime && c.EndTime > s.StartTime {
			return true
		}
	}
	return false
}
