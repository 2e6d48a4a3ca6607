package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sense-adaptive-core/internal/app"
	"sense-adaptive-core/internal/config"
	"sense-adaptive-core/internal/models"
	"sense-adaptive-core/internal/service/stress"
)

func newTestApp(t *testing.T) *app.Application {
	t.Helper()
	cfg := config.Load()
	cfg.STT.Provider = app.ProviderRemote
	cfg.Kafka.Enabled = false
	cfg.Redis.Enabled = false
	cfg.Stress.ThresholdsFile = ""

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(a.Shutdown)
	return a
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoints(t *testing.T) {
	a := newTestApp(t)
	r := NewRouter(a)

	if rr := do(t, r, http.MethodGet, "/v1/liveness", ""); rr.Code != http.StatusOK {
		t.Errorf("expected liveness 200, got %d", rr.Code)
	}
	if rr := do(t, r, http.MethodGet, "/v1/readiness", ""); rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected readiness 503 before start, got %d", rr.Code)
	}
	_ = a.Start()
	if rr := do(t, r, http.MethodGet, "/v1/readiness", ""); rr.Code != http.StatusOK {
		t.Errorf("expected readiness 200 after start, got %d", rr.Code)
	}
}

func TestClassify(t *testing.T) {
	r := NewRouter(newTestApp(t))

	tests := []struct {
		name      string
		body      string
		wantType  models.CommandType
		wantRoute string
	}{
		{
			name:      "wake phrase and destination",
			body:      `{"text":"hey sense go to my cart"}`,
			wantType:  models.CommandNavigation,
			wantRoute: "/cart",
		},
		{
			name:     "no wake phrase outside command mode",
			body:     `{"text":"go to my cart"}`,
			wantType: models.CommandWakeWordNeeded,
		},
		{
			name:      "command mode skips the wake phrase",
			body:      `{"text":"go to my cart","commandMode":true}`,
			wantType:  models.CommandNavigation,
			wantRoute: "/cart",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, r, http.MethodPost, "/v1/classify", tt.body)
			if rr.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
			}
			var cmd models.Command
			if err := json.Unmarshal(rr.Body.Bytes(), &cmd); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.Type != tt.wantType {
				t.Errorf("expected type %s, got %s", tt.wantType, cmd.Type)
			}
			if cmd.Route != tt.wantRoute {
				t.Errorf("expected route %q, got %q", tt.wantRoute, cmd.Route)
			}
		})
	}
}

func TestClassify_BadRequests(t *testing.T) {
	r := NewRouter(newTestApp(t))

	tests := []struct {
		name string
		body string
	}{
		{"empty text", `{"text":""}`},
		{"malformed json", `{"text":`},
		{"unknown field", `{"text":"hi","mood":"grumpy"}`},
		{"relative route", `{"text":"hey sense add this","route":"products/1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, r, http.MethodPost, "/v1/classify", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", rr.Code)
			}
		})
	}
}

func TestScore(t *testing.T) {
	r := NewRouter(newTestApp(t))

	now := time.Now().UTC()
	var events []string
	for i := 0; i < 22; i++ {
		ts := now.Add(-time.Duration(i) * time.Second).Format(time.RFC3339Nano)
		events = append(events, fmt.Sprintf(`{"type":"click","timestamp":%q}`, ts))
	}
	body := `{"events":[` + strings.Join(events, ",") + `]}`

	rr := do(t, r, http.MethodPost, "/v1/score", body)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var res stress.Result
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Score != 3 {
		t.Errorf("expected score 3, got %d", res.Score)
	}
	if res.Events != 22 {
		t.Errorf("expected 22 events, got %d", res.Events)
	}
}

func TestScore_UnknownInteraction(t *testing.T) {
	r := NewRouter(newTestApp(t))

	rr := do(t, r, http.MethodPost, "/v1/score", `{"events":[{"type":"sneeze"}]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "invalid_request") {
		t.Errorf("expected invalid_request code, got %s", rr.Body.String())
	}
}

func TestProfiles(t *testing.T) {
	r := NewRouter(newTestApp(t))

	if rr := do(t, r, http.MethodGet, "/v1/profiles/u-1", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before put, got %d", rr.Code)
	}

	rr := do(t, r, http.MethodPut, "/v1/profiles/u-1", `{"autism":true,"dyslexia":true}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = do(t, r, http.MethodGet, "/v1/profiles/u-1", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var p models.NeurodiversityProfile
	if err := json.Unmarshal(rr.Body.Bytes(), &p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !p.Autism || !p.Dyslexia || p.ADHD {
		t.Errorf("unexpected profile: %+v", p)
	}
}

func TestProfiles_UserIDTooLong(t *testing.T) {
	r := NewRouter(newTestApp(t))

	rr := do(t, r, http.MethodPut, "/v1/profiles/"+strings.Repeat("u", 129), `{"adhd":true}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rr.Code)
	}
}
