// Per-cat behavioral memory. Bounded ring buffer of recent decisions used
// for repetition detection and activity measurement. Cats are sharded so two
// cats never contend on the same lock; one cat's updates are serialized.
package engine

import (
	"hash/fnv"
	"sync"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/talgya/whisker/internal/cat"
)

const (
	// memoryCapacity bounds the retained history per cat.
	memoryCapacity = 50

	// repeatWindow/repeatThreshold: repeating when at least 4 of the last 5
	// recorded actions equal the candidate. The anti-robot heuristic.
	repeatWindow    = 5
	repeatThreshold = 4

	// activityWindow is how far back the activity level looks.
	activityWindow = 10

	shardCount = 32
)

// Memory holds one cat's recent history. Access is guarded by the owning
// shard's lock.
type Memory struct {
	actions [memoryCapacity]cat.Action
	moods   [memoryCapacity]float64
	size    int
	head    int // next write position
	total   uint64

	// Smooth per-cat noise field driving the restlessness drift.
	noise opensimplex.Noise
}

func newMemory(catID string) *Memory {
	h := fnv.New64a()
	h.Write([]byte(catID))
	return &Memory{noise: opensimplex.NewNormalized(int64(h.Sum64()))}
}

func (m *Memory) record(action cat.Action, mood float64) {
	m.actions[m.head] = action
	m.moods[m.head] = mood
	m.head = (m.head + 1) % memoryCapacity
	if m.size < memoryCapacity {
		m.size++
	}
	m.total++
}

// at returns the i-th most recent entry (0 = newest).
func (m *Memory) at(i int) cat.Action {
	idx := (m.head - 1 - i + 2*memoryCapacity) % memoryCapacity
	return m.actions[idx]
}

func (m *Memory) repeatingWith(candidate cat.Action) bool {
	window := repeatWindow
	if m.size < window {
		window = m.size
	}
	count := 0
	for i := 0; i < window; i++ {
		if m.at(i) == candidate {
			count++
		}
	}
	return count >= repeatThreshold
}

func (m *Memory) activityLevel() float64 {
	window := activityWindow
	if m.size < window {
		window = m.size
	}
	if window == 0 {
		return 0
	}
	active := 0
	for i := 0; i < window; i++ {
		if m.at(i).IsActive() {
			active++
		}
	}
	return float64(active) / float64(window)
}

// restlessness samples the cat's noise field at its current decision count,
// mapped to [-1, 1]. Consecutive decisions move smoothly through the field,
// so a cat's willingness to deviate drifts instead of flickering.
func (m *Memory) restlessness() float64 {
	const stride = 0.05
	x := float64(m.total) * stride
	return m.noise.Eval2(x, 0)*2 - 1
}

type shard struct {
	mu   sync.Mutex
	cats map[string]*Memory
}

// Store is the process-wide cat memory table. Memories are created lazily on
// first access and live until Evict is called for their id.
type Store struct {
	shards [shardCount]*shard
}

// NewStore creates an empty memory store.
func NewStore() *Store {
	s := &Store{}
	for i := range s.shards {
		s.shards[i] = &shard{cats: make(map[string]*Memory)}
	}
	return s
}

func (s *Store) shardFor(catID string) *shard {
	h := fnv.New32a()
	h.Write([]byte(catID))
	return s.shards[h.Sum32()%shardCount]
}

// get returns the memory for catID, creating it if needed. Caller must hold
// the shard lock.
func (sh *shard) get(catID string) *Memory {
	m, ok := sh.cats[catID]
	if !ok {
		m = newMemory(catID)
		sh.cats[catID] = m
	}
	return m
}

// Record appends one decision to the cat's history, evicting the oldest
// entry past capacity.
func (s *Store) Record(catID string, action cat.Action, mood float64) {
	sh := s.shardFor(catID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	sh.get(catID).record(action, mood)
}

// IsRepeating reports whether recording candidate now would extend a run of
// near-identical behavior.
func (s *Store) IsRepeating(catID string, candidate cat.Action) bool {
	sh := s.shardFor(catID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.get(catID).repeatingWith(candidate)
}

// ActivityLevel returns the fraction of active actions in the cat's recent
// window. Unknown cats report 0.
func (s *Store) ActivityLevel(catID string) float64 {
	sh := s.shardFor(catID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.get(catID).activityLevel()
}

// Restlessness returns the cat's current position in its drift field, in
// [-1, 1]. Deterministic for a given cat id and decision count.
func (s *Store) Restlessness(catID string) float64 {
	sh := s.shardFor(catID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	return sh.get(catID).restlessness()
}

// Commit atomically runs the repetition check against candidate and records
// the final action. When the cat is repeating, distract is invoked to pick a
// replacement and the replacement is recorded instead. Returns the recorded
// action and whether the repetition override fired. Nothing is written until
// the decision is final, so an abandoned request leaves no partial state.
func (s *Store) Commit(catID string, candidate cat.Action, mood float64, distract func(cat.Action) cat.Action) (cat.Action, bool) {
	sh := s.shardFor(catID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	m := sh.get(catID)
	final := candidate
	overridden := false
	if m.repeatingWith(candidate) {
		final = distract(candidate)
		overridden = final != candidate
	}
	m.record(final, mood)
	return final, overridden
}

// Evict retires a cat's memory. The caller owns the eviction policy; the
// engine never drops state on its own.
func (s *Store) Evict(catID string) {
	sh := s.shardFor(catID)
	sh.mu.Lock()
	defer sh.mu.Unlock()
	delete(sh.cats, catID)
}

// Size returns the number of cats currently tracked.
func (s *Store) Size() int {
	n := 0
	for _, sh := range s.shards {
		sh.mu.Lock()
		n += len(sh.cats)
		sh.mu.Unlock()
	}
	return n
}

// History returns up to n most recent (action, mood) pairs for a cat, newest
// first. Used by the inspection API; the raw ring buffer never leaves this
// package.
func (s *Store) History(catID string, n int) []HistoryEntry {
	sh := s.shardFor(catID)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	m, ok := sh.cats[catID]
	if !ok {
		return nil
	}
	if n > m.size {
		n = m.size
	}
	out := make([]HistoryEntry, 0, n)
	for i := 0; i < n; i++ {
		idx := (m.head - 1 - i + 2*memoryCapacity) % memoryCapacity
		out = append(out, HistoryEntry{
			Action: m.actions[idx],
			Mood:   m.moods[idx],
		})
	}
	return out
}

// HistoryEntry is one recorded decision.
type HistoryEntry struct {
	Action cat.Action `json:"action"`
	Mood   float64    `json:"mood"`
}
