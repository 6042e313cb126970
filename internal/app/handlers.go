package app

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Server wires the store, the authenticator and the logger into the HTTP
// surface. timeNow is swappable for tests.
type Server struct {
	store   *Store
	auth    *Authenticator
	log     *zap.SugaredLogger
	timeNow func() time.Time
}

// NewServer builds the HTTP layer on top of the store.
func NewServer(store *Store, auth *Authenticator, log *zap.SugaredLogger) *Server {
	return &Server{store: store, auth: auth, log: log, timeNow: time.Now}
}

// Routes registers every endpoint on a fresh mux. Mutating routes are
// wrapped in Basic Auth.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/config", s.GetConfig)
	mux.HandleFunc("/api/data", s.GetData)
	mux.HandleFunc("/api/data/export", s.HandleExport)
	mux.HandleFunc("/api/data/import", s.auth.Require(s.HandleImport))
	mux.HandleFunc("/api/data/clear", s.auth.Require(s.HandleClear))

	mux.HandleFunc("/api/sessions", s.ListSessions)
	mux.HandleFunc("/api/sessions/add", s.auth.Require(s.AddSessions))
	mux.HandleFunc("/api/sessions/update", s.auth.Require(s.UpdateSession))
	mux.HandleFunc("/api/sessions/delete", s.auth.Require(s.DeleteSession))

	mux.HandleFunc("/api/workshops", s.ListWorkshops)
	mux.HandleFunc("/api/workshops/add", s.auth.Require(s.AddWorkshop))
	mux.HandleFunc("/api/workshops/update", s.auth.Require(s.UpdateWorkshop))
	mux.HandleFunc("/api/workshops/delete", s.auth.Require(s.DeleteWorkshop))

	mux.HandleFunc("/api/educators", s.ListEducators)
	mux.HandleFunc("/api/educators/add", s.auth.Require(s.AddEducator))
	mux.HandleFunc("/api/educators/update", s.auth.Require(s.UpdateEducator))
	mux.HandleFunc("/api/educators/delete", s.auth.Require(s.DeleteEducator))

	mux.HandleFunc("/api/classes", s.ListClasses)
	mux.HandleFunc("/api/classes/add", s.auth.Require(s.AddClass))
	mux.HandleFunc("/api/classes/update", s.auth.Require(s.UpdateClass))
	mux.HandleFunc("/api/classes/delete", s.auth.Require(s.DeleteClass))

	mux.HandleFunc("/api/calendar", s.GetCalendar)
	mux.HandleFunc("/api/stats", s.GetStats)
	mux.HandleFunc("/api/reports/educators", s.GetEducatorReport)
	mux.HandleFunc("/api/reports/workshops", s.GetWorkshopReport)
	mux.HandleFunc("/api/reports/class", s.GetClassReport)
	mux.HandleFunc("/api/download", s.HandleDownload)

	return mux
}

// writeJSON encodes v to the response with the JSON content type.
func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Errorw("failed to encode response", "error", err)
	}
}

// writeError maps the core error taxonomy onto HTTP statuses. Conflicts
// and blocked deletions are negative results, not server failures.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var conflict *ConflictError
	var validation *ValidationError
	var importErr *ImportError

	switch {
	case errors.As(err, &conflict):
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		if encErr := json.NewEncoder(w).Encode(map[string]any{
			"error":            conflict.Error(),
			"conflictingDates": conflict.Dates,
		}); encErr != nil {
			s.log.Errorw("failed to encode conflict response", "error", encErr)
		}
	case errors.As(err, &validation), errors.As(err, &importErr),
		errors.Is(err, ErrNothingToSchedule):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrEntityInUse):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		s.log.Errorw("internal error", "error", err)
		http.Error(w, ErrInternalServer, http.StatusInternalServerError)
	}
}

// decodeBody decodes the JSON request body into v.
func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &ValidationError{Field: "body", Reason: err.Error()}
	}
	return nil
}

// parseFilters reads the session filters from query parameters.
func parseFilters(r *http.Request) (Filters, error) {
	var f Filters

	workshopID, err := queryID(r, "workshopId")
	if err != nil {
		return f, &ValidationError{Field: "workshopId", Reason: "must be an integer"}
	}
	educatorID, err := queryID(r, "educatorId")
	if err != nil {
		return f, &ValidationError{Field: "educatorId", Reason: "must be an integer"}
	}
	classID, err := queryID(r, "classId")
	if err != nil {
		return f, &ValidationError{Field: "classId", Reason: "must be an integer"}
	}
	period, err := ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		return f, &ValidationError{Field: "period", Reason: err.Error()}
	}

	f.WorkshopID = WorkshopID(workshopID)
	f.EducatorID = EducatorID(educatorID)
	f.ClassID = ClassID(classID)
	f.Period = period
	return f, nil
}

// GetConfig returns the planner configuration for the UI: the period
// vocabulary, the current year's holidays and whether auth is active.
func (s *Server) GetConfig(w http.ResponseWriter, r *http.Request) {
	year := s.timeNow().Year()
	s.writeJSON(w, map[string]any{
		"periods":     []Period{PeriodAll, PeriodFuture, PeriodPast, PeriodWeek, PeriodMonth},
		"holidays":    NationalHolidays(year),
		"authEnabled": s.auth.Enabled(),
	})
}

// GetData returns the full planner document.
func (s *Server) GetData(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.store.Data())
}

// ListSessions returns the filtered, sorted session list.
// Query params: workshopId, educatorId, classId, period.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, FilterSessions(s.store.Sessions(), filters, s.timeNow()))
}

// AddSessions creates a batch of sessions from one template and N dates.
func (s *Server) AddSessions(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		SessionTemplate
		Dates []string `json:"dates"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	created, err := s.store.CreateSessions(req.SessionTemplate, req.Dates)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.log.Infow("sessions created", "count", len(created), "educator", req.EducatorID)
	s.writeJSON(w, map[string]any{"created": created})
}

// UpdateSession re-times or re-assigns one session.
func (s *Server) UpdateSession(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var sess Session
	if err := decodeBody(r, &sess); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.UpdateSession(sess); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, sess)
}

// DeleteSession removes one session by id.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req struct {
		ID SessionID `json:"id"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.DeleteSession(req.ID); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// --- Workshop CRUD ---

func (s *Server) ListWorkshops(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.store.Data().Workshops)
}

func (s *Server) AddWorkshop(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var workshop Workshop
	if err := decodeBody(r, &workshop); err != nil {
		s.writeError(w, err)
		return
	}
	created, err := s.store.AddWorkshop(workshop)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, created)
}

func (s *Server) UpdateWorkshop(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var workshop Workshop
	if err := decodeBody(r, &workshop); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.UpdateWorkshop(workshop); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, workshop)
}

func (s *Server) DeleteWorkshop(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		ID WorkshopID `json:"id"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.DeleteWorkshop(req.ID); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// --- Educator CRUD ---

func (s *Server) ListEducators(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.store.Data().Educators)
}

func (s *Server) AddEducator(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var educator Educator
	if err := decodeBody(r, &educator); err != nil {
		s.writeError(w, err)
		return
	}
	created, err := s.store.AddEducator(educator)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, created)
}

func (s *Server) UpdateEducator(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var educator Educator
	if err := decodeBody(r, &educator); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.UpdateEducator(educator); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, educator)
}

func (s *Server) DeleteEducator(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		ID EducatorID `json:"id"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.DeleteEducator(req.ID); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// --- Class CRUD ---

func (s *Server) ListClasses(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, s.store.Data().Classes)
}

func (s *Server) AddClass(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var class Class
	if err := decodeBody(r, &class); err != nil {
		s.writeError(w, err)
		return
	}
	created, err := s.store.AddClass(class)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, created)
}

func (s *Server) UpdateClass(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var class Class
	if err := decodeBody(r, &class); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.UpdateClass(class); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, class)
}

func (s *Server) DeleteClass(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	var req struct {
		ID ClassID `json:"id"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.DeleteClass(req.ID); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// --- Derived views ---

// GetCalendar returns the filtered sessions as calendar events.
func (s *Server) GetCalendar(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	data := s.store.Data()
	sessions := FilterSessions(data.Sessions, filters, s.timeNow())
	s.writeJSON(w, CalendarEvents(sessions, data.Workshops, data.Classes))
}

// GetStats returns the dashboard summary.
func (s *Server) GetStats(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, BuildStats(s.store.Data(), s.timeNow(), 5))
}

// GetEducatorReport returns hours per educator for the period.
func (s *Server) GetEducatorReport(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		s.writeError(w, &ValidationError{Field: "period", Reason: err.Error()})
		return
	}
	s.writeJSON(w, EducatorReport(s.store.Data(), period, s.timeNow()))
}

// GetWorkshopReport returns scheduling activity per workshop.
func (s *Server) GetWorkshopReport(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		s.writeError(w, &ValidationError{Field: "period", Reason: err.Error()})
		return
	}
	s.writeJSON(w, WorkshopReport(s.store.Data(), period, s.timeNow()))
}

// GetClassReport returns the itinerary of one class.
// Query params: classId (required), period.
func (s *Server) GetClassReport(w http.ResponseWriter, r *http.Request) {
	classID, err := queryID(r, "classId")
	if err != nil || classID == 0 {
		s.writeError(w, &ValidationError{Field: "classId", Reason: "required integer"})
		return
	}
	period, err := ParsePeriod(r.URL.Query().Get("period"))
	if err != nil {
		s.writeError(w, &ValidationError{Field: "period", Reason: err.Error()})
		return
	}
	report, err := ClassReport(s.store.Data(), ClassID(classID), period, s.timeNow())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, report)
}

// --- Whole-document operations ---

// HandleExport offers the full document as a dated download.
func (s *Server) HandleExport(w http.ResponseWriter, r *http.Request) {
	filename := "workshop-planner-backup-" + s.timeNow().Format(DateLayout) + ".json"
	GenerateBackupJSON(w, s.store.Data(), filename, s.log)
}

// HandleImport wholesale-replaces the state with the posted document.
func (s *Server) HandleImport(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	raw, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, ErrInvalidJSONBody, http.StatusBadRequest)
		return
	}

	data, err := ParseImport(raw)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.store.ReplaceAll(data)
	s.log.Infow("data imported",
		"workshops", len(data.Workshops),
		"educators", len(data.Educators),
		"classes", len(data.Classes),
		"sessions", len(data.Sessions))
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// HandleClear wipes all planner data.
func (s *Server) HandleClear(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}
	s.store.Clear()
	s.log.Infow("all planner data cleared")
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// HandleDownload exports the filtered session set in ICS, CSV, JSON or
// XLSX format.
// Query params: format (required), plus the usual session filters.
func (s *Server) HandleDownload(w http.ResponseWriter, r *http.Request) {
	filters, err := parseFilters(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	data := s.store.Data()
	sessions := FilterSessions(data.Sessions, filters, s.timeNow())
	stamp := s.timeNow().Format(DateLayout)

	switch r.URL.Query().Get("format") {
	case "ics":
		events := CalendarEvents(sessions, data.Workshops, data.Classes)
		if r.URL.Query().Get("subscribe") == "true" {
			GenerateSubscriptionICS(w, events)
			return
		}
		GenerateICS(w, events, "workshop-sessions-"+stamp+".ics")
	case "csv":
		GenerateCSV(w, ResolveSessions(data, sessions), "workshop-sessions-"+stamp+".csv")
	case "json":
		GenerateSessionsJSON(w, ResolveSessions(data, sessions), "workshop-sessions-"+stamp+".json", s.log)
	case "xlsx":
		report := EducatorReport(data, filters.Period, s.timeNow())
		if err := GenerateXLSX(w, ResolveSessions(data, sessions), report, "workshop-sessions-"+stamp+".xlsx"); err != nil {
			s.log.Errorw("failed to generate xlsx export", "error", err)
			http.Error(w, ErrInternalServer, http.StatusInternalServerError)
		}
	default:
		http.Error(w, ErrInvalidFormat, http.StatusBadRequest)
	}
}
