package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/talgya/whisker/internal/engine"
	"github.com/talgya/whisker/internal/policy"
	"github.com/talgya/whisker/internal/profile"
	"github.com/talgya/whisker/internal/reaction"
)

func newTestServer(t *testing.T, adminKey string) (*Server, http.Handler) {
	t.Helper()

	store, err := profile.Open(filepath.Join(t.TempDir(), "whisker.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	eng, err := engine.New(reaction.Default())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}

	s := &Server{
		Engine:   eng,
		Profiles: store,
		AdminKey: adminKey,
	}
	s.SetPredictor(policy.NewHeuristic())
	return s, s.Handler()
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

const validState = `{
	"cat_id": "mochi",
	"personality": "playful",
	"hunger": 40, "energy": 70, "mood": 60,
	"distance_to_food": 5, "distance_to_toy": 2
}`

func TestPredict(t *testing.T) {
	_, h := newTestServer(t, "")

	w := postJSON(t, h, "/api/v1/predict", validState)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}

	var resp struct {
		Action     int    `json:"action"`
		ActionName string `json:"action_name"`
		Emotion    string `json:"emotion"`
		RequestID  string `json:"request_id"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ActionName == "" || resp.Emotion == "" {
		t.Errorf("incomplete decision: %+v", resp)
	}
	if resp.RequestID == "" {
		t.Error("missing request id")
	}
	if w.Header().Get("X-Request-ID") != resp.RequestID {
		t.Error("X-Request-ID header does not match the body")
	}
}

func TestPredict_Rejections(t *testing.T) {
	_, h := newTestServer(t, "")

	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed-json", `{"hunger": `, http.StatusBadRequest},
		{"gauge-out-of-range", `{"cat_id":"x","hunger":500,"energy":50,"mood":50}`, http.StatusBadRequest},
		{"negative-mood", `{"cat_id":"x","hunger":50,"energy":50,"mood":-3}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, h, "/api/v1/predict", tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d (body %s)", w.Code, tt.want, w.Body)
			}
			var e struct {
				Error string `json:"error"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &e); err != nil || e.Error == "" {
				t.Errorf("rejection body not an error object: %s", w.Body)
			}
		})
	}

	if w := get(t, h, "/api/v1/predict"); w.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET predict status = %d, want 405", w.Code)
	}
}

func TestPredictBatch(t *testing.T) {
	_, h := newTestServer(t, "")

	w := postJSON(t, h, "/api/v1/predict_batch",
		fmt.Sprintf(`{"states":[%s,%s]}`, validState, validState))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var resp struct {
		Actions []json.RawMessage `json:"actions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Actions) != 2 {
		t.Errorf("batch returned %d decisions, want 2", len(resp.Actions))
	}

	if w := postJSON(t, h, "/api/v1/predict_batch", `{"states":[]}`); w.Code != http.StatusBadRequest {
		t.Errorf("empty batch status = %d, want 400", w.Code)
	}
}

func TestCatEndpoints(t *testing.T) {
	_, h := newTestServer(t, "")

	if w := get(t, h, "/api/v1/cat/stranger"); w.Code != http.StatusNotFound {
		t.Errorf("unknown cat status = %d, want 404", w.Code)
	}

	// A prediction creates the profile as a side effect.
	if w := postJSON(t, h, "/api/v1/predict", validState); w.Code != http.StatusOK {
		t.Fatalf("predict failed: %s", w.Body)
	}

	w := get(t, h, "/api/v1/cat/mochi")
	if w.Code != http.StatusOK {
		t.Fatalf("cat detail status = %d, body %s", w.Code, w.Body)
	}
	var detail struct {
		Profile   *profile.Profile `json:"profile"`
		Decisions int64            `json:"decisions"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &detail); err != nil {
		t.Fatalf("decode detail: %v", err)
	}
	if detail.Profile == nil || detail.Profile.CatID != "mochi" {
		t.Errorf("detail profile = %+v", detail.Profile)
	}

	w = get(t, h, "/api/v1/cats")
	if w.Code != http.StatusOK {
		t.Fatalf("cats status = %d", w.Code)
	}
	var listing struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode listing: %v", err)
	}
	if listing.Count != 1 {
		t.Errorf("count = %d, want 1", listing.Count)
	}
}

func TestAdminAuth(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		_, h := newTestServer(t, "")
		w := postJSON(t, h, "/api/v1/reload", "")
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403 when no admin key is configured", w.Code)
		}
	})

	t.Run("bad-token", func(t *testing.T) {
		_, h := newTestServer(t, "sekrit")
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reload", nil)
		req.Header.Set("Authorization", "Bearer wrong")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", w.Code)
		}
	})

	t.Run("no-model-dir", func(t *testing.T) {
		_, h := newTestServer(t, "sekrit")
		req := httptest.NewRequest(http.MethodPost, "/api/v1/reload", nil)
		req.Header.Set("Authorization", "Bearer sekrit")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusConflict {
			t.Errorf("status = %d, want 409 without a loader", w.Code)
		}
	})
}

func TestCatPurge(t *testing.T) {
	_, h := newTestServer(t, "sekrit")

	if w := postJSON(t, h, "/api/v1/predict", validState); w.Code != http.StatusOK {
		t.Fatalf("predict failed: %s", w.Body)
	}

	// Unauthorized delete is rejected.
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cat/mochi", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated purge status = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/v1/cat/mochi", nil)
	req.Header.Set("Authorization", "Bearer sekrit")
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("purge status = %d, body %s", w.Code, w.Body)
	}

	if w := get(t, h, "/api/v1/cat/mochi"); w.Code != http.StatusNotFound {
		t.Errorf("purged cat still served: status %d", w.Code)
	}
}

func TestHealthAndStats(t *testing.T) {
	_, h := newTestServer(t, "")

	w := get(t, h, "/api/v1/health")
	if w.Code != http.StatusOK {
		t.Fatalf("health status = %d", w.Code)
	}
	var health struct {
		Status    string `json:"status"`
		Predictor string `json:"predictor"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health.Status != "ok" || health.Predictor != "heuristic" {
		t.Errorf("health = %+v", health)
	}

	w = get(t, h, "/api/v1/stats")
	if w.Code != http.StatusOK {
		t.Fatalf("stats status = %d, body %s", w.Code, w.Body)
	}
	var stats struct {
		Predictor string `json:"predictor"`
		Engine    struct {
			Decisions uint64 `json:"decisions"`
		} `json:"engine"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Predictor != "heuristic" {
		t.Errorf("stats predictor = %q", stats.Predictor)
	}
}
