package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/hochfrequenz/advent-runner/internal/config"
	"github.com/hochfrequenz/advent-runner/internal/console"
	"github.com/hochfrequenz/advent-runner/internal/domain"
	"github.com/hochfrequenz/advent-runner/internal/history"
	"github.com/hochfrequenz/advent-runner/internal/notify"
	"github.com/hochfrequenz/advent-runner/internal/project"
)

// runner holds everything needed to run one configured day
type runner struct {
	cfg      *config.Config
	day      uint8
	root     string
	printer  *console.Printer
	notifier notify.Notifier
	store    *history.Store
}

func loadConfig() (*config.Config, error) {
	return config.LoadWithLocalFallback(configPath)
}

func newRunner(day uint8) (*runner, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	registry, err := config.LoadRegistry(cfg.General.Registry)
	if err != nil {
		return nil, err
	}
	dayCfg, err := registry.Lookup(day)
	if err != nil {
		return nil, err
	}

	root, err := filepath.Abs(dayCfg.Root)
	if err != nil {
		return nil, fmt.Errorf("resolving root of day %d: %w", day, err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("root of day %d is not a directory: %s", day, root)
	}

	r := &runner{
		cfg:     cfg,
		day:     day,
		root:    root,
		printer: console.New(os.Stdout, os.Stderr).WithRoot(root),
		notifier: notify.NewMultiNotifier(
			notify.NewDesktopNotifier(cfg.Notifications.Desktop),
			notify.NewSlackNotifier(cfg.Notifications.SlackWebhook),
		),
	}

	if cfg.History.Enabled {
		store, err := history.New(cfg.History.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("opening history: %w", err)
		}
		r.store = store
	}

	return r, nil
}

func (r *runner) Close() {
	if r.store != nil {
		r.store.Close()
	}
}

func (r *runner) runConfigPath() string {
	if filepath.IsAbs(r.cfg.General.RunConfig) {
		return r.cfg.General.RunConfig
	}
	return filepath.Join(r.root, r.cfg.General.RunConfig)
}

func (r *runner) project() *project.Project {
	// Validate already rejected malformed timeouts.
	timeout, _ := r.cfg.ProcessTimeout()
	return project.AtRoot(r.root, project.Config{
		Day:          r.day,
		InputSuffix:  r.cfg.Tests.InputSuffix,
		OutputSuffix: r.cfg.Tests.OutputSuffix,
		TestDirs:     r.cfg.Tests.Dirs,
		Timeout:      timeout,
		Debug:        r.cfg.General.Debug,
	}, r.printer)
}

// runOnce reads the run config fresh from disk and executes it. The report
// is nil when the run config could not be loaded.
func (r *runner) runOnce(ctx context.Context) (*domain.RunReport, error) {
	runCfg, err := config.LoadRunConfig(r.runConfigPath())
	if err != nil {
		return nil, err
	}

	report, err := r.project().Run(ctx, runCfg)
	r.record(report)
	return report, err
}

func (r *runner) record(report *domain.RunReport) {
	if r.store != nil {
		if err := r.store.RecordRun(report); err != nil {
			log.Printf("[history] could not record run %s: %v", report.ID, err)
		} else if r.cfg.General.Debug {
			log.Printf("[history] recorded run %s", report.ID)
		}
	}

	if err := r.notifier.Send(notify.FromReport(report)); err != nil && r.cfg.General.Debug {
		log.Printf("[notify] %v", err)
	}
}
