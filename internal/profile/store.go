// Package profile persists per-cat identity and decision telemetry in
// SQLite. A profile — personality, true-random seed, jittered trait scores —
// is created the first time a cat id is seen and makes that cat's quirks
// stable across restarts.
package profile

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/whisker/internal/cat"
	"github.com/talgya/whisker/internal/policy"
)

// Profile is one cat's persistent identity.
type Profile struct {
	CatID       string          `db:"cat_id" json:"cat_id"`
	Personality cat.Personality `db:"personality" json:"personality"`
	Seed        int64           `db:"seed" json:"-"`
	Lazy        float64         `db:"lazy" json:"lazy"`
	Foodie      float64         `db:"foodie" json:"foodie"`
	Playful     float64         `db:"playful" json:"playful"`
	CreatedAt   string          `db:"created_at" json:"created_at"`
}

// Traits returns the profile's trait scores in policy form.
func (p *Profile) Traits() policy.Traits {
	return policy.Traits{Lazy: p.Lazy, Foodie: p.Foodie, Playful: p.Playful}
}

// Store wraps the SQLite connection for profiles and telemetry.
type Store struct {
	conn *sqlx.DB

	// Telemetry rows are written off the request path.
	writes chan DecisionRecord
	done   chan struct{}
}

// Open opens or creates the database at path and starts the telemetry
// writer.
func Open(path string) (*Store, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	s := &Store{
		conn:   conn,
		writes: make(chan DecisionRecord, 256),
		done:   make(chan struct{}),
	}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	go s.writer()
	return s, nil
}

// Close drains pending telemetry writes and closes the connection.
func (s *Store) Close() error {
	close(s.writes)
	<-s.done
	return s.conn.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS cat_profiles (
		cat_id TEXT PRIMARY KEY,
		personality TEXT NOT NULL,
		seed INTEGER NOT NULL,
		lazy REAL NOT NULL,
		foodie REAL NOT NULL,
		playful REAL NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS decisions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		request_id TEXT NOT NULL,
		cat_id TEXT NOT NULL,
		base_action INTEGER NOT NULL,
		final_action INTEGER NOT NULL,
		emotion TEXT NOT NULL,
		reaction_triggered INTEGER NOT NULL,
		repetition_override INTEGER NOT NULL,
		mood_change REAL NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_decisions_cat ON decisions(cat_id);
	CREATE INDEX IF NOT EXISTS idx_decisions_emotion ON decisions(emotion);
	`
	_, err := s.conn.Exec(schema)
	return err
}

// GetOrCreate returns the profile for catID, creating one on first sight.
// seed should come from the entropy service; trait scores start from the
// personality's stock profile and get a small per-cat jitter derived from
// the seed.
func (s *Store) GetOrCreate(catID string, personality cat.Personality, seed int64) (*Profile, error) {
	var p Profile
	err := s.conn.Get(&p, `SELECT * FROM cat_profiles WHERE cat_id = ?`, catID)
	if err == nil {
		return &p, nil
	}

	if !personality.Valid() {
		personality = cat.PersonalityBalanced
	}

	base := policy.TraitsFor(personality)
	jitter := rand.New(rand.NewSource(seed))
	p = Profile{
		CatID:       catID,
		Personality: personality,
		Seed:        seed,
		Lazy:        jitterTrait(base.Lazy, jitter),
		Foodie:      jitterTrait(base.Foodie, jitter),
		Playful:     jitterTrait(base.Playful, jitter),
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}

	_, err = s.conn.Exec(`INSERT INTO cat_profiles
		(cat_id, personality, seed, lazy, foodie, playful, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.CatID, p.Personality, p.Seed, p.Lazy, p.Foodie, p.Playful, p.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert profile %s: %w", catID, err)
	}
	return &p, nil
}

// jitterTrait shifts a stock trait score by up to ±0.1, clamped to [0,1].
func jitterTrait(v float64, rng *rand.Rand) float64 {
	v += (rng.Float64() - 0.5) * 0.2
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// List returns all known profiles.
func (s *Store) List() ([]Profile, error) {
	var out []Profile
	err := s.conn.Select(&out, `SELECT * FROM cat_profiles ORDER BY created_at`)
	return out, err
}

// Get returns one profile, or nil when the cat is unknown.
func (s *Store) Get(catID string) (*Profile, error) {
	var p Profile
	err := s.conn.Get(&p, `SELECT * FROM cat_profiles WHERE cat_id = ?`, catID)
	if err != nil {
		return nil, nil
	}
	return &p, nil
}

// Delete removes a profile and its decision history.
func (s *Store) Delete(catID string) error {
	if _, err := s.conn.Exec(`DELETE FROM cat_profiles WHERE cat_id = ?`, catID); err != nil {
		return err
	}
	_, err := s.conn.Exec(`DELETE FROM decisions WHERE cat_id = ?`, catID)
	return err
}
