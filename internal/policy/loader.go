// Versioned model loading. Models live as <dir>/<version>.json; the loader
// caches loaded networks and picks the lexically greatest version as
// current, so deploying a new model is dropping in a file and hitting
// the reload endpoint.
package policy

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
)

// Loader resolves model versions to loaded networks.
type Loader struct {
	dir string

	mu     sync.Mutex
	models map[string]*MLP
}

// NewLoader creates a loader over a model directory.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir, models: make(map[string]*MLP)}
}

// Versions lists the model versions present on disk, ascending.
func (l *Loader) Versions() ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("read model dir: %w", err)
	}
	var versions []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		versions = append(versions, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(versions)
	return versions, nil
}

// Load returns the network for a version, reading it from disk on first use.
func (l *Loader) Load(version string) (*MLP, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if m, ok := l.models[version]; ok {
		return m, nil
	}

	path := filepath.Join(l.dir, version+".json")
	m, err := LoadMLP(path)
	if err != nil {
		return nil, err
	}

	if info, err := os.Stat(path); err == nil {
		slog.Info("model loaded",
			"version", version,
			"size", humanize.Bytes(uint64(info.Size())),
			"layers", len(m.layers),
		)
	}

	l.models[version] = m
	return m, nil
}

// Current loads the newest version on disk.
func (l *Loader) Current() (*MLP, error) {
	versions, err := l.Versions()
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("no models in %s", l.dir)
	}
	return l.Load(versions[len(versions)-1])
}

// Reload drops the cache so the next Load re-reads from disk.
func (l *Loader) Reload() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.models = make(map[string]*MLP)
}
