// Command campaign runs the Mystara campaign manager: the game clock, the
// ledger and objective engines, and the HTTP API the GUI talks to.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"log/slog"

	"github.com/talgya/mystara/internal/api"
	"github.com/talgya/mystara/internal/config"
	"github.com/talgya/mystara/internal/engine"
	"github.com/talgya/mystara/internal/fortune"
	"github.com/talgya/mystara/internal/llm"
	"github.com/talgya/mystara/internal/persistence"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfgPath := "campaign.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// ── Database ──────────────────────────────────────────────────────
	os.MkdirAll(filepath.Dir(cfg.DBPath), 0755)
	db, err := persistence.Open(cfg.DBPath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database opened", "path", cfg.DBPath)

	// ── LLM Client ───────────────────────────────────────────────────
	llmClient := llm.NewClient(cfg.AnthropicAPIKey)
	if llmClient != nil {
		slog.Info("LLM client enabled (Haiku)")
	} else {
		slog.Warn("ANTHROPIC_API_KEY not set — imprevisti will use fallback options")
	}

	// ── Engine ────────────────────────────────────────────────────────
	field := fortune.NewField(cfg.FortuneSeed)
	eng, err := engine.New(db, llmClient, field)
	if err != nil {
		slog.Error("failed to start engine", "error", err)
		os.Exit(1)
	}
	slog.Info("campaign loaded", "date", eng.DisplayDate(), "absolute_day", eng.AbsoluteDay())

	// ── HTTP API ──────────────────────────────────────────────────────
	if cfg.AdminKey == "" {
		slog.Warn("no admin key set — DM POST endpoints will be disabled")
	}
	apiServer := &api.Server{
		Eng:      eng,
		DB:       db,
		Port:     cfg.APIPort,
		AdminKey: cfg.AdminKey,
	}
	apiServer.Start()

	fmt.Printf("\nThe campaign stands at %s.\n", eng.DisplayDate())
	fmt.Printf("API: http://localhost:%d/api/v1/status\n", cfg.APIPort)
	fmt.Println("Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	slog.Info("received signal, shutting down", "signal", sig)

	fmt.Printf("Campaign closed at %s.\n", eng.DisplayDate())
}
