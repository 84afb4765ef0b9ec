package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/archon-research/recruitment/internal/adapters/outbound/memory"
	"github.com/archon-research/recruitment/internal/application"
	"github.com/archon-research/recruitment/internal/domain/entity"
	"github.com/archon-research/recruitment/internal/ports/inbound"
)

type apiFixture struct {
	router   http.Handler
	notifier *memory.Notifier
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	notifier := memory.NewNotifier()
	svc, err := application.NewRecruitmentService(application.RecruitmentConfig{}, memory.NewStore(nil), notifier)
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}
	router := NewRouter(ServerConfig{}, NewHandler(svc, nil), NewHealthHandler(svc, nil, nil))
	return &apiFixture{router: router, notifier: notifier}
}

func (f *apiFixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *apiFixture) mustDo(t *testing.T, method, path, body string, wantStatus int) *httptest.ResponseRecorder {
	t.Helper()
	w := f.do(t, method, path, body)
	if w.Code != wantStatus {
		t.Fatalf("%s %s: expected status %d, got %d (body %s)", method, path, wantStatus, w.Code, w.Body.String())
	}
	return w
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return resp["error"]
}

func TestAPI_OfferLifecycle(t *testing.T) {
	f := newAPIFixture(t)

	f.mustDo(t, "GET", "/api/offers", "", http.StatusNotFound)

	w := f.mustDo(t, "POST", "/api/offers/", `{"jobTitle":"Senior Engineer","startDate":1493229767700}`, http.StatusCreated)
	if loc := w.Header().Get("Location"); loc != "/api/offers/Senior%20Engineer" {
		t.Errorf("unexpected Location %q", loc)
	}

	f.mustDo(t, "POST", "/api/offers", `{"jobTitle":"Senior Engineer"}`, http.StatusConflict)

	w = f.mustDo(t, "GET", "/api/offers/Senior%20Engineer", "", http.StatusOK)
	var offer entity.Offer
	if err := json.NewDecoder(w.Body).Decode(&offer); err != nil {
		t.Fatalf("failed to decode offer: %v", err)
	}
	if offer.JobTitle != "Senior Engineer" || offer.StartDate.UnixMilli() != 1493229767700 {
		t.Errorf("unexpected offer %+v", offer)
	}

	w = f.mustDo(t, "GET", "/api/offers/", "", http.StatusOK)
	var offers []entity.Offer
	if err := json.NewDecoder(w.Body).Decode(&offers); err != nil {
		t.Fatalf("failed to decode offers: %v", err)
	}
	if len(offers) != 1 {
		t.Errorf("expected 1 offer, got %d", len(offers))
	}

	f.mustDo(t, "GET", "/api/offers/Unknown", "", http.StatusNotFound)
}

func TestAPI_ApplicationLifecycle(t *testing.T) {
	f := newAPIFixture(t)
	f.mustDo(t, "POST", "/api/offers", `{"jobTitle":"Engineer"}`, http.StatusCreated)

	w := f.mustDo(t, "POST", "/api/applications",
		`{"jobTitle":"Engineer","candidateEmail":"a@example.com","resumeText":"cv","status":"APPLIED"}`, http.StatusCreated)
	if loc := w.Header().Get("Location"); loc != "/api/applications/Engineer/a@example.com" {
		t.Errorf("unexpected Location %q", loc)
	}

	w = f.mustDo(t, "GET", "/api/applications/Engineer/a@example.com", "", http.StatusOK)
	var app entity.Application
	if err := json.NewDecoder(w.Body).Decode(&app); err != nil {
		t.Fatalf("failed to decode application: %v", err)
	}
	if app.ResumeText != "cv" || app.Status != entity.StatusApplied {
		t.Errorf("unexpected application %+v", app)
	}

	w = f.mustDo(t, "PUT", "/api/applications/",
		`{"jobTitle":"Engineer","candidateEmail":"a@example.com","resumeText":"cv","status":"INVITED"}`, http.StatusOK)
	var change inbound.StatusChange
	if err := json.NewDecoder(w.Body).Decode(&change); err != nil {
		t.Fatalf("failed to decode status change: %v", err)
	}
	if change.PreviousStatus != entity.StatusApplied || change.Application.Status != entity.StatusInvited {
		t.Errorf("unexpected status change %+v", change)
	}
	if len(f.notifier.StatusChanges()) != 1 {
		t.Errorf("expected a status change notification")
	}

	w = f.mustDo(t, "GET", "/api/offers/ENGINEER/applications", "", http.StatusOK)
	var apps []entity.Application
	if err := json.NewDecoder(w.Body).Decode(&apps); err != nil {
		t.Fatalf("failed to decode applications: %v", err)
	}
	if len(apps) != 1 {
		t.Errorf("expected case-insensitive listing to find 1 application, got %d", len(apps))
	}

	w = f.mustDo(t, "GET", "/api/offers/engineer/applications-count", "", http.StatusOK)
	if strings.TrimSpace(w.Body.String()) != "1" {
		t.Errorf("expected count 1, got %q", w.Body.String())
	}

	w = f.mustDo(t, "GET", "/api/applications/count", "", http.StatusOK)
	if strings.TrimSpace(w.Body.String()) != "1" {
		t.Errorf("expected total 1, got %q", w.Body.String())
	}

	w = f.mustDo(t, "GET", "/api/offers/Engineer", "", http.StatusOK)
	if !strings.Contains(w.Body.String(), `"numberOfApplications":1`) {
		t.Errorf("expected numberOfApplications=1, got %s", w.Body.String())
	}
}

func TestAPI_ErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		path        string
		body        string
		wantStatus  int
		errContains string
	}{
		{
			name:        "empty offer title is a conflict",
			method:      "POST",
			path:        "/api/offers",
			body:        `{"jobTitle":""}`,
			wantStatus:  http.StatusConflict,
			errContains: "job title is mandatory",
		},
		{
			name:        "missing application fields reports job title first",
			method:      "POST",
			path:        "/api/applications",
			body:        `{}`,
			wantStatus:  http.StatusConflict,
			errContains: "job title is mandatory",
		},
		{
			name:        "missing email",
			method:      "POST",
			path:        "/api/applications",
			body:        `{"jobTitle":"Engineer"}`,
			wantStatus:  http.StatusConflict,
			errContains: "candidate email is mandatory",
		},
		{
			name:       "application for unknown offer",
			method:     "POST",
			path:       "/api/applications",
			body:       `{"jobTitle":"Unknown","candidateEmail":"a@example.com"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "update unknown application",
			method:     "PUT",
			path:       "/api/applications",
			body:       `{"jobTitle":"Engineer","candidateEmail":"nobody@example.com","status":"HIRED"}`,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "malformed JSON",
			method:     "POST",
			path:       "/api/offers",
			body:       `{"jobTitle":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown status",
			method:     "POST",
			path:       "/api/applications",
			body:       `{"jobTitle":"Engineer","candidateEmail":"a@example.com","status":"ON_HOLD"}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "no applications yet",
			method:     "GET",
			path:       "/api/applications/count",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "no applications for offer",
			method:     "GET",
			path:       "/api/offers/Engineer/applications",
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "unsupported method",
			method:     "DELETE",
			path:       "/api/applications",
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAPIFixture(t)
			f.mustDo(t, "POST", "/api/offers", `{"jobTitle":"Engineer"}`, http.StatusCreated)

			w := f.mustDo(t, tt.method, tt.path, tt.body, tt.wantStatus)
			if tt.errContains != "" {
				if msg := errorMessage(t, w); !strings.Contains(msg, tt.errContains) {
					t.Errorf("expected error containing %q, got %q", tt.errContains, msg)
				}
			}
		})
	}
}

// stubService fails every call with a fixed error.
type stubService struct {
	inbound.RecruitmentService
	err error
}

func (s stubService) ListOffers(context.Context) ([]entity.Offer, error) { return nil, s.err }
func (s stubService) Ping(context.Context) error                         { return s.err }

func TestAPI_UnexpectedErrorsAreHidden(t *testing.T) {
	svc := stubService{err: errors.New("pq: password authentication failed")}
	router := NewRouter(ServerConfig{}, NewHandler(svc, nil), nil)

	req := httptest.NewRequest("GET", "/api/offers", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	if msg := errorMessage(t, w); msg != "internal server error" {
		t.Errorf("expected generic message, got %q", msg)
	}
}

func TestAPI_RateLimit(t *testing.T) {
	svc := stubService{err: entity.ErrNotFound}
	router := NewRouter(ServerConfig{RateLimit: 1, RateBurst: 2}, NewHandler(svc, nil), NewHealthHandler(stubService{}, nil, nil))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/offers", nil))
		codes = append(codes, w.Code)
	}
	if codes[0] != http.StatusNotFound || codes[1] != http.StatusNotFound || codes[2] != http.StatusTooManyRequests {
		t.Errorf("expected [404 404 429], got %v", codes)
	}

	// Health checks are not rate limited.
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health/live", nil))
	if w.Code != http.StatusOK {
		t.Errorf("expected health check to bypass limiter, got %d", w.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{entity.ErrInvalidArgument, http.StatusConflict},
		{entity.ErrAlreadyExists, http.StatusConflict},
		{entity.ErrNotFound, http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v): expected %d, got %d", tt.err, tt.want, got)
		}
	}
}
