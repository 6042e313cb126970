package app

// SessionTemplate is one proposed session shape applied to N candidate
// dates in a batch.
type SessionTemplate struct {
	WorkshopID WorkshopID `json:"workshopId"`
	EducatorID EducatorID `json:"educatorId"`
	ClassID    ClassID    `json:"classId"`
	StartTime  string     `json:"startTime"`
	EndTime    string     `json:"endTime"`
	Notes      string     `json:"notes,omitempty"`
}

// CreateSessions schedules the template on every non-blank date, all or
// nothing. Blank dates are skipped silently. Every candidate is checked
// against the pre-batch session set; if any date collides the whole batch
// is rejected with a ConflictError listing the colliding dates, and if no
// valid date remains the batch is rejected with ErrNothingToSchedule. Only
// a fully clean batch is appended, in one atomic store mutation.
func (s *Store) CreateSessions(t SessionTemplate, dates []string) ([]Session, error) {
	if err := validateTimeRange(t.StartTime, t.EndTime); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.validateTemplateLocked(t); err != nil {
		return nil, err
	}

	var conflicts []string
	var created []Session
	for _, date := range dates {
		if date == "" {
			continue
		}
		if !ValidDate(date) {
			return nil, &ValidationError{Field: "date", Reason: "must be yyyy-mm-dd, got " + date}
		}
		cand := Candidate{EducatorID: t.EducatorID, Date: date, StartTime: t.StartTime, EndTime: t.EndTime}
		// Checked against the pre-batch snapshot only: candidates in the
		// same batch do not see each other.
		if HasConflict(cand, s.data.Sessions, 0) {
			conflicts = append(conflicts, date)
			continue
		}
		created = append(created, Session{
			ID:         SessionID(s.nextID()),
			WorkshopID: t.WorkshopID,
			EducatorID: t.EducatorID,
			ClassID:    t.ClassID,
			Date:       date,
			StartTime:  t.StartTime,
			EndTime:    t.EndTime,
			Notes:      t.Notes,
		})
	}

	if len(conflicts) > 0 {
		return nil, &ConflictError{Dates: conflicts}
	}
	if len(created) == 0 {
		return nil, ErrNothingToSchedule
	}

	s.data.Sessions = append(s.data.Sessions, created...)
	s.save()
	return created, nil
}

// UpdateSession re-times or re-assigns a stored session. The conflict check
// excludes the session's own id so a no-op edit always succeeds.
func (s *Store) UpdateSession(sess Session) error {
	if err := validateTimeRange(sess.StartTime, sess.EndTime); err != nil {
		return err
	}
	if !ValidDate(sess.Date) {
		return &ValidationError{Field: "date", Reason: "must be yyyy-mm-dd"}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i := range s.data.Sessions {
		if s.data.Sessions[i].ID == sess.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotFound
	}

	if err := s.validateTemplateLocked(SessionTemplate{
		WorkshopID: sess.WorkshopID,
		EducatorID: sess.EducatorID,
		ClassID:    sess.ClassID,
		StartTime:  sess.StartTime,
		EndTime:    sess.EndTime,
	}); err != nil {
		return err
	}

	cand := Candidate{EducatorID: sess.EducatorID, Date: sess.Date, StartTime: sess.StartTime, EndTime: sess.EndTime}
	if HasConflict(cand, s.data.Sessions, sess.ID) {
		return &ConflictError{Dates: []string{sess.Date}}
	}

	s.data.Sessions[idx] = sess
	s.save()
	return nil
}

// DeleteSession removes a session unconditionally.
func (s *Store) DeleteSession(id SessionID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Sessions {
		if s.data.Sessions[i].ID == id {
			s.data.Sessions = append(s.data.Sessions[:i], s.data.Sessions[i+1:]...)
			s.save()
			return nil
		}
	}
	return ErrNotFound
}

// validateTimeRange rejects malformed times and empty or inverted slots
// before any conflict check runs.
func validateTimeRange(start, end string) error {
	if !ValidClock(start) {
		return &ValidationError{Field: "startTime", Reason: "must be HH:MM"}
	}
	if !ValidClock(end) {
		return &ValidationError{Field: "endTime", Reason: "must be HH:MM"}
	}
	if start >= end {
		return &ValidationError{Field: "endTime", Reason: "must be after startTime"}
	}
	return nil
}

// validateTemplateLocked checks that the three foreign keys exist. Caller
// must hold at least the read lock.
func (s *Store) validateTemplateLocked(t SessionTemplate) error {
	if !s.workshopExistsLocked(t.WorkshopID) {
		return &ValidationError{Field: "workshopId", Reason: "unknown workshop"}
	}
	if !s.educatorExistsLocked(t.EducatorID) {
		return &ValidationError{Field: "educatorId", Reason: "unknown educator"}
	}
	if !s.classExistsLocked(t.ClassID) {
		return &ValidationError{Field: "classId", Reason: "unknown class"}
	}
	return nil
}

func (s *Store) workshopExistsLocked(id WorkshopID) bool {
	for _, w := range s.data.Workshops {
		if w.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) educatorExistsLocked(id EducatorID) bool {
	for _, e := range s.data.Educators {
		if e.ID == id {
			return true
		}
	}
	return false
}

func (s *Store) classExistsLocked(id ClassID) bool {
	for _, c := range s.data.Classes {
		if c.ID == id {
			return true
		}
	}
	return false
}
