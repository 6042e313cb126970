package app

import (
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Store owns the in-memory planner state: four ordered collections behind
// one lock, so every read observes a consistent point-in-time snapshot.
// Each successful mutation is pushed to the Persister; a failed save is
// logged and the in-memory state stands (availability over durability).
type Store struct {
	mu        sync.RWMutex
	data      Data
	persister Persister
	log       *zap.SugaredLogger
	lastID    int64
}

// NewStore builds an empty store on top of the given persister.
func NewStore(p Persister, log *zap.SugaredLogger) *Store {
	return &Store{persister: p, log: log}
}

// Load replaces the in-memory state with the persisted document.
func (s *Store) Load() error {
	data, err := s.persister.Load()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = normalized(data)
	s.mu.Unlock()
	return nil
}

// save pushes the current state to the persister. Caller must hold the
// write lock. Persistence failures never roll back memory.
func (s *Store) save() {
	if err := s.persister.Save(s.data); err != nil {
		s.log.Errorw("failed to persist planner data", "error", err)
	}
}

// nextID yields ids that are unique within the process and strictly
// increasing, so insertion order is stable even for same-millisecond adds.
// Caller must hold the write lock.
func (s *Store) nextID() int64 {
	id := time.Now().UnixMilli() + rand.Int63n(10000)
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	return id
}

// Data returns a snapshot copy of the full document.
func (s *Store) Data() Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Data {
	d := Data{
		Workshops: make([]Workshop, len(s.data.Workshops)),
		Educators: make([]Educator, len(s.data.Educators)),
		Classes:   make([]Class, len(s.data.Classes)),
		Sessions:  make([]Session, len(s.data.Sessions)),
	}
	copy(d.Workshops, s.data.Workshops)
	copy(d.Educators, s.data.Educators)
	copy(d.Classes, s.data.Classes)
	copy(d.Sessions, s.data.Sessions)
	return d
}

// Sessions returns a snapshot copy of the session collection.
func (s *Store) Sessions() []Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Session, len(s.data.Sessions))
	copy(out, s.data.Sessions)
	return out
}

// --- Workshop CRUD ---

// AddWorkshop assigns a fresh id and appends the workshop.
func (s *Store) AddWorkshop(w Workshop) (Workshop, error) {
	if w.Name == "" {
		return Workshop{}, &ValidationError{Field: "name", Reason: "required"}
	}
	if w.HoursLoad <= 0 {
		return Workshop{}, &ValidationError{Field: "hoursLoad", Reason: "must be positive"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	w.ID = WorkshopID(s.nextID())
	s.data.Workshops = append(s.data.Workshops, w)
	s.save()
	return w, nil
}

// UpdateWorkshop replaces the stored workshop with the same id.
func (s *Store) UpdateWorkshop(w Workshop) error {
	if w.Name == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	if w.HoursLoad <= 0 {
		return &ValidationError{Field: "hoursLoad", Reason: "must be positive"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Workshops {
		if s.data.Workshops[i].ID == w.ID {
			s.data.Workshops[i] = w
			s.save()
			return nil
		}
	}
	return ErrNotFound
}

// DeleteWorkshop removes the workshop unless a session still references it.
func (s *Store) DeleteWorkshop(id WorkshopID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.canDeleteLocked(KindWorkshop, int64(id)) {
		return ErrEntityInUse
	}
	for i := range s.data.Workshops {
		if s.data.Workshops[i].ID == id {
			s.data.Workshops = append(s.data.Workshops[:i], s.data.Workshops[i+1:]...)
			s.save()
			return nil
		}
	}
	return ErrNotFound
}

// --- Educator CRUD ---

// AddEducator assigns a fresh id and appends the educator.
func (s *Store) AddEducator(e Educator) (Educator, error) {
	if e.Name == "" {
		return Educator{}, &ValidationError{Field: "name", Reason: "required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = EducatorID(s.nextID())
	s.data.Educators = append(s.data.Educators, e)
	s.save()
	return e, nil
}

// UpdateEducator replaces the stored educator with the same id.
func (s *Store) UpdateEducator(e Educator) error {
	if e.Name == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Educators {
		if s.data.Educators[i].ID == e.ID {
			s.data.Educators[i] = e
			s.save()
			return nil
		}
	}
	return ErrNotFound
}

// DeleteEducator removes the educator unless a session still references it.
func (s *Store) DeleteEducator(id EducatorID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.canDeleteLocked(KindEducator, int64(id)) {
		return ErrEntityInUse
	}
	for i := range s.data.Educators {
		if s.data.Educators[i].ID == id {
			s.data.Educators = append(s.data.Educators[:i], s.data.Educators[i+1:]...)
			s.save()
			return nil
		}
	}
	return ErrNotFound
}

// --- Class CRUD ---

// AddClass assigns a fresh id and appends the class.
func (s *Store) AddClass(c Class) (Class, error) {
	if c.Name == "" {
		return Class{}, &ValidationError{Field: "name", Reason: "required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c.ID = ClassID(s.nextID())
	s.data.Classes = append(s.data.Classes, c)
	s.save()
	return c, nil
}

// UpdateClass replaces the stored class with the same id.
func (s *Store) UpdateClass(c Class) error {
	if c.Name == "" {
		return &ValidationError{Field: "name", Reason: "required"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.data.Classes {
		if s.data.Classes[i].ID == c.ID {
			s.data.Classes[i] = c
			s.save()
			return nil
		}
	}
	return ErrNotFound
}

// DeleteClass removes the class unless a session still references it.
func (s *Store) DeleteClass(id ClassID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.canDeleteLocked(KindClass, int64(id)) {
		return ErrEntityInUse
	}
	for i := range s.data.Classes {
		if s.data.Classes[i].ID == id {
			s.data.Classes = append(s.data.Classes[:i], s.data.Classes[i+1:]...)
			s.save()
			return nil
		}
	}
	return ErrNotFound
}

// --- Referential integrity guard ---

// CanDelete reports whether the entity has zero referencing sessions.
func (s *Store) CanDelete(kind EntityKind, id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.canDeleteLocked(kind, id)
}

func (s *Store) canDeleteLocked(kind EntityKind, id int64) bool {
	for _, sess := range s.data.Sessions {
		switch kind {
		case KindWorkshop:
			if sess.WorkshopID == WorkshopID(id) {
				return false
			}
		case KindEducator:
			if sess.EducatorID == EducatorID(id) {
				return false
			}
		case KindClass:
			if sess.ClassID == ClassID(id) {
				return false
			}
		}
	}
	return true
}

// --- Whole-document operations ---

// ReplaceAll swaps in an imported document wholesale (no merge). Structural
// validation happens in ParseImport before this is called.
func (s *Store) ReplaceAll(d Data) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = normalized(d)
	s.save()
}

// Clear wipes all four collections.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = normalized(Data{})
	s.save()
}
