// Remote predictor — HTTP client for deployments that keep the policy
// network behind a dedicated inference server instead of loading weights
// in-process.
package policy

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/talgya/whisker/internal/cat"
)

// Remote calls an external inference server for base actions.
type Remote struct {
	url        string
	httpClient *http.Client

	// Rate limiting: max calls per minute.
	mu        sync.Mutex
	callCount int
	resetAt   time.Time
	maxPerMin int
}

// NewRemote creates a remote predictor. Returns nil if url is empty
// (remote inference disabled).
func NewRemote(url string) *Remote {
	if url == "" {
		return nil
	}
	return &Remote{
		url: url,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		maxPerMin: 600,
	}
}

// Enabled returns true if the predictor has a configured endpoint.
func (r *Remote) Enabled() bool {
	return r != nil && r.url != ""
}

func (r *Remote) Name() string { return "remote" }

type remoteRequest struct {
	Observation []float64 `json:"observation"`
}

type remoteResponse struct {
	Action int    `json:"action"`
	Error  string `json:"error,omitempty"`
}

// Predict posts the observation to the inference server and returns its
// action.
func (r *Remote) Predict(obs Observation) (cat.Action, error) {
	if !r.Enabled() {
		return 0, fmt.Errorf("remote predictor not configured")
	}

	// Rate limiting.
	r.mu.Lock()
	now := time.Now()
	if now.After(r.resetAt) {
		r.callCount = 0
		r.resetAt = now.Add(time.Minute)
	}
	if r.callCount >= r.maxPerMin {
		r.mu.Unlock()
		return 0, fmt.Errorf("inference rate limit exceeded (%d calls/min)", r.maxPerMin)
	}
	r.callCount++
	r.mu.Unlock()

	body, err := json.Marshal(remoteRequest{Observation: obs[:]})
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	resp, err := r.httpClient.Post(r.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("inference call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("inference server returned %d: %s", resp.StatusCode, respBody)
	}

	var rr remoteResponse
	if err := json.Unmarshal(respBody, &rr); err != nil {
		return 0, fmt.Errorf("parse response: %w", err)
	}
	if rr.Error != "" {
		return 0, fmt.Errorf("inference server error: %s", rr.Error)
	}

	action := cat.Action(rr.Action)
	if !action.Valid() {
		return 0, fmt.Errorf("inference server returned action %d outside action space", rr.Action)
	}
	return action, nil
}
