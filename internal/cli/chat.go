package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/oauth2"
	"golang.org/x/term"

	"github.com/soyeahso/part5/internal/config"
	"github.com/soyeahso/part5/internal/console"
	"github.com/soyeahso/part5/internal/foundry"
	"github.com/soyeahso/part5/internal/logging"
	"github.com/soyeahso/part5/internal/store"
	"github.com/soyeahso/part5/internal/tutor"
)

// cleanupTimeout bounds agent deletion after the session context is gone.
const cleanupTimeout = 15 * time.Second

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive practice session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context())
		},
	}
}

// loadConfig loads and validates the effective configuration.
func loadConfig() (config.Config, error) {
	config.LoadDotenv()

	cfg, err := config.Load(paths.Config)
	if err != nil {
		return cfg, err
	}
	if logLevel == "" && cfg.Logging.Level != "" {
		// No --log-level flag: the config file decides.
		log = logging.New(nil, cfg.Logging.Level)
	}
	if err := config.Check(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// tokenSource picks the credential capability: a statically configured
// token wins, otherwise the pre-authenticated az login session is used.
func tokenSource(cfg config.Config) oauth2.TokenSource {
	if cfg.Project.Token != "" {
		return foundry.NewStaticTokenSource(cfg.Project.Token)
	}
	return foundry.NewAzureCLITokenSource(foundry.DefaultResource)
}

// newProjectClient builds the Foundry client from configuration.
func newProjectClient(cfg config.Config) *foundry.Client {
	return foundry.NewClient(cfg.Project.Endpoint, cfg.Project.APIVersion, tokenSource(cfg), log)
}

// openTranscripts opens the local transcript store, or returns nil when
// persistence is disabled or unavailable. Recording is auxiliary: a broken
// local database must not block practice.
func openTranscripts(cfg config.Config) (tutor.TranscriptStore, func()) {
	if cfg.Session.Store != "sqlite" {
		return nil, func() {}
	}
	if err := paths.EnsureDirs(); err != nil {
		log.Warn().Err(err).Msg("transcripts disabled: cannot create data directory")
		return nil, func() {}
	}
	db, err := store.Open(paths.Database, log)
	if err != nil {
		log.Warn().Err(err).Msg("transcripts disabled: cannot open database")
		return nil, func() {}
	}
	return store.NewSQLiteTranscriptStore(db), func() { db.Close() }
}

func runChat(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	instructions, err := tutor.LoadInstructions(cfg.Agent.InstructionsFile)
	if err != nil {
		return err
	}

	transcripts, closeStore := openTranscripts(cfg)
	defer closeStore()

	runner := tutor.NewRunner(tutor.Config{
		AgentID:      cfg.Project.AgentID,
		Model:        cfg.Project.Model,
		AgentName:    cfg.Agent.Name,
		Instructions: instructions,
		KeepAgent:    cfg.Agent.Keep,
	}, newProjectClient(cfg), transcripts, log)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runner.Start(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("session setup: %w", err)
	}

	// The session context is canceled by the time Ctrl+C lands here, so
	// cleanup runs on its own deadline.
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		if err := runner.Close(cleanupCtx); err != nil {
			fmt.Fprintf(os.Stderr, "agent cleanup: %v\n", err)
		}
	}()

	interactive := term.IsTerminal(int(os.Stdin.Fd()))
	loop := console.New(console.Options{
		In:          os.Stdin,
		Out:         os.Stdout,
		ErrOut:      os.Stderr,
		Interactive: interactive,
		Turn:        runner.Turn,
		Log:         log,
	})

	return loop.Run(ctx)
}
