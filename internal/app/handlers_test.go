package app

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

// newTestServer wires a seeded store behind an open authenticator and
// pins the clock to testNow.
func newTestServer(t *testing.T) (*Server, *Store) {
	t.Helper()
	store, _ := newTestStore(t)
	log := zap.NewNop().Sugar()
	auth, err := LoadAuthenticator(filepath.Join(t.TempDir(), "absent.secret"), log)
	if err != nil {
		t.Fatalf("LoadAuthenticator failed: %v", err)
	}
	srv := NewServer(store, auth, log)
	srv.timeNow = func() time.Time { return testNow }
	return srv, store
}

func doRequest(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	srv.Routes().ServeHTTP(w, req)
	return w
}

func TestGetData(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, "GET", "/api/data", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var got Data
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(got.Workshops) != 1 || len(got.Educators) != 2 || len(got.Sessions) != 1 {
		t.Errorf("unexpected document: %+v", got)
	}
}

func TestGetConfig(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, "GET", "/api/config", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var got struct {
		Periods     []string          `json:"periods"`
		Holidays    map[string]string `json:"holidays"`
		AuthEnabled bool              `json:"authEnabled"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(got.Periods) != 5 {
		t.Errorf("expected 5 periods, got %v", got.Periods)
	}
	if got.Holidays["2025-12-25"] != "Christmas Day" {
		t.Errorf("expected Christmas in holidays, got %v", got.Holidays)
	}
	if got.AuthEnabled {
		t.Error("auth should be disabled without a credential file")
	}
}

func TestListSessionsFiltered(t *testing.T) {
	srv, store := newTestServer(t)

	if _, err := store.CreateSessions(validTemplate(), []string{"2025-03-20"}); err != nil {
		t.Fatalf("CreateSessions failed: %v", err)
	}

	w := doRequest(t, srv, "GET", "/api/sessions?period=future", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got []Session
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	// Seeded session is on 2025-03-10, in the past relative to testNow.
	if len(got) != 1 || got[0].Date != "2025-03-20" {
		t.Errorf("expected only the future session, got %+v", got)
	}
}

func TestListSessionsBadQuery(t *testing.T) {
	srv, _ := newTestServer(t)

	if w := doRequest(t, srv, "GET", "/api/sessions?period=bogus", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad period: expected 400, got %d", w.Code)
	}
	if w := doRequest(t, srv, "GET", "/api/sessions?educatorId=abc", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", w.Code)
	}
}

func TestAddSessionsEndpoint(t *testing.T) {
	srv, store := newTestServer(t)

	body := `{"workshopId":1,"educatorId":2,"classId":4,"startTime":"14:00","endTime":"16:00","dates":["2025-03-12","2025-03-13"]}`
	w := doRequest(t, srv, "POST", "/api/sessions/add", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var got struct {
		Created []Session `json:"created"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(got.Created) != 2 {
		t.Errorf("expected 2 created sessions, got %d", len(got.Created))
	}
	if len(store.Sessions()) != 3 {
		t.Errorf("expected 3 stored sessions, got %d", len(store.Sessions()))
	}
}

func TestAddSessionsConflictPayload(t *testing.T) {
	srv, _ := newTestServer(t)

	// Collides with the seeded 2025-03-10 09:00-11:00 session.
	body := `{"workshopId":1,"educatorId":2,"classId":4,"startTime":"10:00","endTime":"12:00","dates":["2025-03-10","2025-03-11"]}`
	w := doRequest(t, srv, "POST", "/api/sessions/add", body)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w.Code, w.Body.String())
	}

	var got struct {
		Error            string   `json:"error"`
		ConflictingDates []string `json:"conflictingDates"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(got.ConflictingDates) != 1 || got.ConflictingDates[0] != "2025-03-10" {
		t.Errorf("expected conflictingDates [2025-03-10], got %v", got.ConflictingDates)
	}
}

func TestAddSessionsErrors(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		name     string
		body     string
		wantCode int
	}{
		{
			name:     "invalid json",
			body:     `{`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown educator",
			body:     `{"workshopId":1,"educatorId":999,"classId":4,"startTime":"14:00","endTime":"16:00","dates":["2025-03-12"]}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "no dates",
			body:     `{"workshopId":1,"educatorId":2,"classId":4,"startTime":"14:00","endTime":"16:00","dates":[]}`,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "inverted times",
			body:     `{"workshopId":1,"educatorId":2,"classId":4,"startTime":"16:00","endTime":"14:00","dates":["2025-03-12"]}`,
			wantCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, srv, "POST", "/api/sessions/add", tt.body)
			if w.Code != tt.wantCode {
				t.Errorf("expected %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
		})
	}
}

func TestUpdateSessionEndpoint(t *testing.T) {
	srv, store := newTestServer(t)

	body := `{"id":100,"workshopId":1,"educatorId":2,"classId":4,"date":"2025-03-10","startTime":"10:00","endTime":"12:00"}`
	w := doRequest(t, srv, "POST", "/api/sessions/update", body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if got := store.Sessions()[0].StartTime; got != "10:00" {
		t.Errorf("expected start 10:00, got %s", got)
	}

	// Unknown id.
	body = `{"id":999,"workshopId":1,"educatorId":2,"classId":4,"date":"2025-03-10","startTime":"10:00","endTime":"12:00"}`
	if w := doRequest(t, srv, "POST", "/api/sessions/update", body); w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestDeleteEndpoints(t *testing.T) {
	srv, store := newTestServer(t)

	// Workshop 1 is referenced by session 100.
	if w := doRequest(t, srv, "POST", "/api/workshops/delete", `{"id":1}`); w.Code != http.StatusConflict {
		t.Errorf("expected 409 for referenced workshop, got %d", w.Code)
	}

	if w := doRequest(t, srv, "POST", "/api/sessions/delete", `{"id":100}`); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := doRequest(t, srv, "POST", "/api/workshops/delete", `{"id":1}`); w.Code != http.StatusOK {
		t.Errorf("expected 200 after session removal, got %d", w.Code)
	}
	if len(store.Data().Workshops) != 0 {
		t.Error("workshop should be gone")
	}
}

func TestEntityAddEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	if w := doRequest(t, srv, "POST", "/api/educators/add", `{"name":"Carla","email":"carla@example.com"}`); w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if w := doRequest(t, srv, "POST", "/api/educators/add", `{"email":"nameless@example.com"}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing name, got %d", w.Code)
	}
	if w := doRequest(t, srv, "POST", "/api/workshops/add", `{"name":"Chess","hoursLoad":0}`); w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for zero hours load, got %d", w.Code)
	}
	if w := doRequest(t, srv, "GET", "/api/educators/add", ""); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405 for GET, got %d", w.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, "GET", "/api/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got Stats
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if got.Workshops != 1 || got.Educators != 2 || got.Classes != 1 || got.Sessions != 1 {
		t.Errorf("unexpected stats: %+v", got)
	}
}

func TestReportsEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	if w := doRequest(t, srv, "GET", "/api/reports/educators", ""); w.Code != http.StatusOK {
		t.Errorf("educator report: expected 200, got %d", w.Code)
	}
	if w := doRequest(t, srv, "GET", "/api/reports/workshops?period=all", ""); w.Code != http.StatusOK {
		t.Errorf("workshop report: expected 200, got %d", w.Code)
	}
	if w := doRequest(t, srv, "GET", "/api/reports/class?classId=4", ""); w.Code != http.StatusOK {
		t.Errorf("class report: expected 200, got %d", w.Code)
	}
	if w := doRequest(t, srv, "GET", "/api/reports/class", ""); w.Code != http.StatusBadRequest {
		t.Errorf("class report without id: expected 400, got %d", w.Code)
	}
	if w := doRequest(t, srv, "GET", "/api/reports/class?classId=999", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown class: expected 404, got %d", w.Code)
	}
}

func TestImportExportRoundTrip(t *testing.T) {
	srv, store := newTestServer(t)

	export := doRequest(t, srv, "GET", "/api/data/export", "")
	if export.Code != http.StatusOK {
		t.Fatalf("export: expected 200, got %d", export.Code)
	}
	disposition := export.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "workshop-planner-backup-2025-03-12.json") {
		t.Errorf("unexpected export filename: %s", disposition)
	}

	store.Clear()
	if len(store.Data().Workshops) != 0 {
		t.Fatal("expected empty store after clear")
	}

	imported := doRequest(t, srv, "POST", "/api/data/import", export.Body.String())
	if imported.Code != http.StatusOK {
		t.Fatalf("import: expected 200, got %d: %s", imported.Code, imported.Body.String())
	}
	if len(store.Data().Workshops) != 1 || len(store.Sessions()) != 1 {
		t.Error("import should restore the exported document")
	}
}

func TestImportRejectsMalformedDocument(t *testing.T) {
	srv, store := newTestServer(t)

	w := doRequest(t, srv, "POST", "/api/data/import", `{"workshops":[]}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	// A rejected import must not touch the state.
	if len(store.Data().Educators) != 2 {
		t.Error("rejected import should leave the store untouched")
	}
}

func TestClearEndpoint(t *testing.T) {
	srv, store := newTestServer(t)

	if w := doRequest(t, srv, "POST", "/api/data/clear", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	d := store.Data()
	if len(d.Workshops)+len(d.Educators)+len(d.Classes)+len(d.Sessions) != 0 {
		t.Error("clear should empty the store")
	}
}

func TestDownloadFormats(t *testing.T) {
	srv, _ := newTestServer(t)

	tests := []struct {
		format      string
		contentType string
	}{
		{"ics", "text/calendar"},
		{"csv", "text/csv"},
		{"json", "application/json"},
		{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			w := doRequest(t, srv, "GET", "/api/download?format="+tt.format, "")
			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			if got := w.Header().Get("Content-Type"); !strings.Contains(got, tt.contentType) {
				t.Errorf("expected Content-Type %s, got %s", tt.contentType, got)
			}
			if got := w.Header().Get("Content-Disposition"); !strings.Contains(got, "attachment") {
				t.Errorf("expected attachment disposition, got %s", got)
			}
		})
	}

	if w := doRequest(t, srv, "GET", "/api/download?format=pdf", ""); w.Code != http.StatusBadRequest {
		t.Errorf("unknown format: expected 400, got %d", w.Code)
	}
	if w := doRequest(t, srv, "GET", "/api/download", ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing format: expected 400, got %d", w.Code)
	}
}

func TestCalendarEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	w := doRequest(t, srv, "GET", "/api/calendar", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var got []CalendarEvent
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON response: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 event, got %d", len(got))
	}
	if got[0].Title != "Robotics - Class A" {
		t.Errorf("unexpected title %q", got[0].Title)
	}
}

func TestMutatingRoutesRequireAuth(t *testing.T) {
	store, _ := newTestStore(t)
	log := zap.NewNop().Sugar()

	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	authFile := filepath.Join(t.TempDir(), "auth.secret")
	writeAuthFile(t, authFile, "admin:"+hash)

	auth, err := LoadAuthenticator(authFile, log)
	if err != nil {
		t.Fatalf("LoadAuthenticator failed: %v", err)
	}
	srv := NewServer(store, auth, log)
	srv.timeNow = func() time.Time { return testNow }

	// No credentials.
	w := doRequest(t, srv, "POST", "/api/educators/add", `{"name":"Carla"}`)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", w.Code)
	}
	if got := w.Header().Get("WWW-Authenticate"); !strings.Contains(got, "Basic") {
		t.Errorf("expected WWW-Authenticate challenge, got %q", got)
	}

	// Wrong password.
	req := httptest.NewRequest("POST", "/api/educators/add", strings.NewReader(`{"name":"Carla"}`))
	req.SetBasicAuth("admin", "wrong")
	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 with wrong password, got %d", rec.Code)
	}

	// Correct credentials.
	req = httptest.NewRequest("POST", "/api/educators/add", strings.NewReader(`{"name":"Carla"}`))
	req.SetBasicAuth("admin", "s3cret")
	rec = httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with valid credentials, got %d: %s", rec.Code, rec.Body.String())
	}

	// Read routes stay open.
	if w := doRequest(t, srv, "GET", "/api/data", ""); w.Code != http.StatusOK {
		t.Errorf("read routes should not require auth, got %d", w.Code)
	}
}
