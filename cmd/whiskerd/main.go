// Command whiskerd runs the Whisker cat-behavior decision service.
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/talgya/whisker/internal/api"
	"github.com/talgya/whisker/internal/engine"
	"github.com/talgya/whisker/internal/entropy"
	"github.com/talgya/whisker/internal/policy"
	"github.com/talgya/whisker/internal/profile"
	"github.com/talgya/whisker/internal/reaction"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Configuration from environment.
	port := envIntOrDefault("WHISKER_PORT", 8080)
	dbPath := envOrDefault("WHISKER_DB", "data/whisker.db")
	modelDir := envOrDefault("WHISKER_MODEL_DIR", "models")
	policyMode := envOrDefault("WHISKER_POLICY", "auto") // auto | mlp | remote | heuristic
	policyURL := os.Getenv("WHISKER_POLICY_URL")
	adminKey := os.Getenv("WHISKER_ADMIN_KEY")
	randomOrgKey := os.Getenv("RANDOM_ORG_KEY")

	slog.Info("Whisker starting", "port", port, "policy", policyMode)

	// ── Profile store ─────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(dbPath), 0755)
	profiles, err := profile.Open(dbPath)
	if err != nil {
		slog.Error("failed to open profile store", "error", err)
		os.Exit(1)
	}
	defer profiles.Close()
	slog.Info("profile store opened", "path", dbPath)

	// ── Decision engine ───────────────────────────────────────────────
	table := reaction.Default()
	eng, err := engine.New(table)
	if err != nil {
		slog.Error("failed to build engine", "error", err)
		os.Exit(1)
	}
	slog.Info("contextual engine ready", "reaction_rules", table.Len())

	// ── Policy predictor ──────────────────────────────────────────────
	loader := policy.NewLoader(modelDir)
	predictor := selectPredictor(policyMode, policyURL, loader)
	slog.Info("base policy ready", "predictor", predictor.Name())

	// ── Entropy (true-random profile seeds) ───────────────────────────
	seeds := entropy.NewClient(randomOrgKey)
	if seeds.Enabled() {
		slog.Info("random.org seeding enabled")
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	server := &api.Server{
		Engine:   eng,
		Profiles: profiles,
		Seeds:    seeds,
		Loader:   loader,
		Port:     port,
		AdminKey: adminKey,
	}
	server.SetPredictor(predictor)
	server.Start()

	// Block until shutdown signal.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("shutting down", "signal", sig.String(), "decisions", eng.Stats().Decisions)
}

// selectPredictor wires the configured policy source, falling back to the
// heuristic when no model is available.
func selectPredictor(mode, url string, loader *policy.Loader) policy.Predictor {
	switch mode {
	case "remote":
		if remote := policy.NewRemote(url); remote.Enabled() {
			return policy.NewCached(remote, 1024)
		}
		slog.Warn("WHISKER_POLICY=remote but WHISKER_POLICY_URL unset, using heuristic")

	case "mlp", "auto":
		m, err := loader.Current()
		if err == nil {
			return policy.NewCached(m, 1024)
		}
		if mode == "mlp" {
			slog.Error("failed to load model", "error", err)
			os.Exit(1)
		}
		slog.Warn("no model available, using heuristic", "error", err)
	}
	return policy.NewHeuristic()
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOrDefault(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
