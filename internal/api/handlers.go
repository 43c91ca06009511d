package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/talgya/whisker/internal/cat"
	"github.com/talgya/whisker/internal/engine"
	"github.com/talgya/whisker/internal/entropy"
	"github.com/talgya/whisker/internal/policy"
	"github.com/talgya/whisker/internal/profile"
)

// defaultCatID is used when the client omits cat_id: a shared anonymous cat.
const defaultCatID = "default"

// decisionResponse is the wire shape for one decision.
type decisionResponse struct {
	engine.Result
	RequestID string `json:"request_id"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	var state cat.State
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON: "+err.Error())
		return
	}

	resp, status, err := s.decide(state)
	if err != nil {
		writeError(w, status, err.Error())
		return
	}

	w.Header().Set("X-Request-ID", resp.RequestID)
	writeJSON(w, resp)
}

func (s *Server) handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	var batch struct {
		States []cat.State `json:"states"`
	}
	if err := json.NewDecoder(r.Body).Decode(&batch); err != nil {
		writeError(w, http.StatusBadRequest, "malformed JSON: "+err.Error())
		return
	}
	if len(batch.States) == 0 || len(batch.States) > 64 {
		writeError(w, http.StatusBadRequest, "batch size must be 1–64")
		return
	}

	out := make([]decisionResponse, 0, len(batch.States))
	for _, state := range batch.States {
		resp, status, err := s.decide(state)
		if err != nil {
			writeError(w, status, err.Error())
			return
		}
		out = append(out, resp)
	}
	writeJSON(w, map[string]any{"actions": out})
}

// decide runs profile resolution, base inference, and the contextual engine
// for one state.
func (s *Server) decide(state cat.State) (decisionResponse, int, error) {
	catID := state.CatID
	if catID == "" {
		catID = defaultCatID
	}

	prof, err := s.Profiles.GetOrCreate(catID, state.Personality, entropy.SeedFrom(s.Seeds))
	if err != nil {
		return decisionResponse{}, http.StatusInternalServerError, err
	}

	obs := policy.BuildObservation(state, prof.Traits())
	base, err := s.currentPredictor().Predict(obs)
	if err != nil {
		return decisionResponse{}, http.StatusServiceUnavailable, err
	}

	// Per-request RNG: the profile seed keeps a cat's temperament stable,
	// the request counter keeps successive decisions fresh.
	n := s.requests.Add(1)
	rng := rand.New(rand.NewSource(prof.Seed ^ int64(n)))

	result, err := s.Engine.Decide(catID, base, state, rng)
	if err != nil {
		var ierr *engine.InputError
		if errors.As(err, &ierr) {
			return decisionResponse{}, http.StatusBadRequest, err
		}
		return decisionResponse{}, http.StatusInternalServerError, err
	}

	requestID := uuid.NewString()
	s.Profiles.RecordDecision(profile.DecisionRecord{
		RequestID:          requestID,
		CatID:              catID,
		BaseAction:         int(base),
		FinalAction:        int(result.Action),
		Emotion:            string(result.Emotion),
		ReactionTriggered:  result.ReactionTriggered,
		RepetitionOverride: result.RepetitionOverride,
		MoodChange:         result.MoodChange,
	})

	return decisionResponse{Result: result, RequestID: requestID}, 0, nil
}

func (s *Server) handleCats(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.Profiles.List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]any{"cats": profiles, "count": len(profiles)})
}

// handleCatRoutes dispatches /api/v1/cat/{id} by method: GET detail,
// DELETE purge (admin).
func (s *Server) handleCatRoutes(w http.ResponseWriter, r *http.Request) {
	catID := strings.TrimPrefix(r.URL.Path, "/api/v1/cat/")
	if catID == "" || strings.Contains(catID, "/") {
		writeError(w, http.StatusNotFound, "unknown cat route")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleCatDetail(w, catID)
	case http.MethodDelete:
		s.adminOnly(func(w http.ResponseWriter, r *http.Request) {
			s.handleCatPurge(w, catID)
		})(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "GET or DELETE")
	}
}

func (s *Server) handleCatDetail(w http.ResponseWriter, catID string) {
	prof, err := s.Profiles.Get(catID)
	if err != nil || prof == nil {
		writeError(w, http.StatusNotFound, "unknown cat: "+catID)
		return
	}

	decisions, err := s.Profiles.CatDecisionCount(catID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, map[string]any{
		"profile":        prof,
		"decisions":      decisions,
		"activity_level": s.Engine.Memory().ActivityLevel(catID),
		"recent":         s.Engine.Memory().History(catID, 10),
	})
}

func (s *Server) handleCatPurge(w http.ResponseWriter, catID string) {
	if err := s.Profiles.Delete(catID); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.Engine.Memory().Evict(catID)
	slog.Info("cat purged", "cat", catID)
	writeJSON(w, map[string]string{"purged": catID})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := s.Engine.Stats()

	emotions, err := s.Profiles.EmotionDistribution()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	totals, err := s.Profiles.DecisionTotals()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := map[string]any{
		"engine":    stats,
		"lifetime":  totals,
		"emotions":  emotions,
		"predictor": s.currentPredictor().Name(),
		"uptime":    humanize.Time(s.started),
		"requests":  humanize.Comma(int64(s.requests.Load())),
	}
	if cached, ok := s.currentPredictor().(*policy.Cached); ok {
		hits, misses := cached.CacheStats()
		out["cache"] = map[string]uint64{"hits": hits, "misses": misses}
	}
	writeJSON(w, out)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":    "ok",
		"predictor": s.currentPredictor().Name(),
		"uptime_s":  int(time.Since(s.started).Seconds()),
	})
}

// handleReload drops the model cache and swaps in the newest model version.
func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}
	if s.Loader == nil {
		writeError(w, http.StatusConflict, "no model directory configured")
		return
	}

	s.Loader.Reload()
	m, err := s.Loader.Current()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "reload failed: "+err.Error())
		return
	}

	s.SetPredictor(policy.NewCached(m, 1024))
	slog.Info("model reloaded", "version", m.Version())
	writeJSON(w, map[string]string{"predictor": m.Name()})
}
