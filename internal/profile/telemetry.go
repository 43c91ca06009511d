// Decision telemetry. Rows go through a buffered channel to a single writer
// goroutine so request latency never waits on SQLite.
package profile

import (
	"log/slog"
	"time"
)

// DecisionRecord is one logged decision.
type DecisionRecord struct {
	RequestID          string
	CatID              string
	BaseAction         int
	FinalAction        int
	Emotion            string
	ReactionTriggered  bool
	RepetitionOverride bool
	MoodChange         float64
}

// RecordDecision queues a telemetry row. Drops the row when the buffer is
// full rather than stalling a decision.
func (s *Store) RecordDecision(rec DecisionRecord) {
	select {
	case s.writes <- rec:
	default:
		slog.Warn("telemetry buffer full, dropping decision row", "cat", rec.CatID)
	}
}

func (s *Store) writer() {
	defer close(s.done)
	for rec := range s.writes {
		reacted, overrode := 0, 0
		if rec.ReactionTriggered {
			reacted = 1
		}
		if rec.RepetitionOverride {
			overrode = 1
		}
		_, err := s.conn.Exec(`INSERT INTO decisions
			(request_id, cat_id, base_action, final_action, emotion,
			 reaction_triggered, repetition_override, mood_change, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.RequestID, rec.CatID, rec.BaseAction, rec.FinalAction, rec.Emotion,
			reacted, overrode, rec.MoodChange,
			time.Now().UTC().Format(time.RFC3339),
		)
		if err != nil {
			slog.Error("failed to record decision", "error", err, "cat", rec.CatID)
		}
	}
}

// EmotionCount is one row of the emotion distribution.
type EmotionCount struct {
	Emotion string `db:"emotion" json:"emotion"`
	Count   int64  `db:"n" json:"count"`
}

// EmotionDistribution returns how often each emotion was served.
func (s *Store) EmotionDistribution() ([]EmotionCount, error) {
	var out []EmotionCount
	err := s.conn.Select(&out,
		`SELECT emotion, COUNT(*) AS n FROM decisions GROUP BY emotion ORDER BY n DESC`)
	return out, err
}

// Totals summarizes the decision log.
type Totals struct {
	Decisions           int64 `db:"decisions" json:"decisions"`
	ReactionsTriggered  int64 `db:"reactions" json:"reactions_triggered"`
	RepetitionOverrides int64 `db:"overrides" json:"repetition_overrides"`
}

// DecisionTotals returns lifetime counts from the decision log.
func (s *Store) DecisionTotals() (Totals, error) {
	var t Totals
	err := s.conn.Get(&t, `SELECT
		COUNT(*) AS decisions,
		COALESCE(SUM(reaction_triggered), 0) AS reactions,
		COALESCE(SUM(repetition_override), 0) AS overrides
		FROM decisions`)
	return t, err
}

// CatDecisionCount returns how many decisions were served for one cat.
func (s *Store) CatDecisionCount(catID string) (int64, error) {
	var n int64
	err := s.conn.Get(&n, `SELECT COUNT(*) FROM decisions WHERE cat_id = ?`, catID)
	return n, err
}
