// Package cli implements the agent-tutor CLI commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/rcliao/agent-tutor/internal/config"
	"github.com/rcliao/agent-tutor/internal/gemini"
	"github.com/rcliao/agent-tutor/internal/logging"
	"github.com/rcliao/agent-tutor/internal/store"
	"github.com/rcliao/agent-tutor/internal/tutor"
)

var (
	dbPath     string
	configPath string
	formatFlag string
	courseFlag string
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "agent-tutor",
	Short: "AI tutoring workspace for course materials",
	Long: "Organize course materials into folders, have them analyzed by Gemini, and chat with a tutor " +
		"grounded in everything you uploaded. SQLite-backed by default, single binary.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Database path (default: $AGENT_TUTOR_DB or ~/.agent-tutor/tutor.db)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: $AGENT_TUTOR_CONFIG or ~/.config/agent-tutor/config.toml)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
}

// addCourseFlag registers the --course flag on commands scoped to one course.
func addCourseFlag(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&courseFlag, "course", "c", os.Getenv("AGENT_TUTOR_COURSE"), "Course id (default: $AGENT_TUTOR_COURSE)")
}

func courseID() string {
	if courseFlag == "" {
		exitErr("course", fmt.Errorf("--course is required"))
	}
	return courseFlag
}

func loadConfig() *config.Config {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		exitErr("load config", err)
	}
	if dbPath != "" {
		cfg.Store.Driver = store.DriverSQLite
		cfg.Store.SQLitePath = dbPath
	}
	return cfg
}

func newLogger(cfg *config.Config) *logging.Logger {
	log, err := logging.New(logging.Options{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		exitErr("init logger", err)
	}
	return log
}

func openStore(ctx context.Context, cfg *config.Config) store.Store {
	s, err := store.Open(ctx, store.Options{
		Driver:     cfg.Store.Driver,
		SQLitePath: cfg.Store.SQLitePath,
		RedisURL:   cfg.Store.RedisURL,
		KeyPrefix:  cfg.Store.KeyPrefix,
	})
	if err != nil {
		exitErr("open store", err)
	}
	return s
}

// app bundles everything a command needs. close waits for background title
// generation before releasing the store.
type app struct {
	cfg   *config.Config
	log   *logging.Logger
	store store.Store
	svc   *tutor.Service
}

func openApp(ctx context.Context) *app {
	cfg := loadConfig()
	log := newLogger(cfg)
	st := openStore(ctx, cfg)

	client := gemini.NewClient(gemini.Config{
		APIKey:         cfg.Gemini.APIKey,
		BaseURL:        cfg.Gemini.BaseURL,
		Model:          cfg.Gemini.Model,
		AnalysisModel:  cfg.Gemini.AnalysisModel,
		TTSModel:       cfg.Gemini.TTSModel,
		Voice:          cfg.Gemini.Voice,
		TimeoutSeconds: cfg.Gemini.TimeoutSeconds,
	}, gemini.WithLogger(log))

	svc := tutor.New(st, client, log, tutor.WithWebSearch(cfg.Gemini.WebSearch))
	return &app{cfg: cfg, log: log, store: st, svc: svc}
}

func (a *app) close() {
	done := make(chan struct{})
	go func() {
		a.svc.WaitTitles()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		a.log.Warn("title generation still running at exit")
	}
	a.store.Close()
	a.log.Sync()
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
