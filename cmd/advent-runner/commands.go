package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/hochfrequenz/advent-runner/internal/config"
	"github.com/hochfrequenz/advent-runner/internal/history"
	"github.com/hochfrequenz/advent-runner/internal/observer"
)

var (
	historyDay   uint8
	historyLimit int
	watchDay     uint8
)

func init() {
	// list command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List configured days",
		Args:  cobra.NoArgs,
		RunE:  runList,
	}
	rootCmd.AddCommand(listCmd)

	// history command
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show past runs",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	historyCmd.Flags().Uint8Var(&historyDay, "day", 0, "only show runs of this day")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of runs to show")
	rootCmd.AddCommand(historyCmd)

	// show command
	showCmd := &cobra.Command{
		Use:   "show RUN",
		Short: "Show the cases of a past run",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
	rootCmd.AddCommand(showCmd)

	// watch command
	watchCmd := &cobra.Command{
		Use:   "watch --day N",
		Short: "Re-run a day whenever its sources change",
		Args:  cobra.NoArgs,
		RunE:  runWatch,
	}
	watchCmd.Flags().Uint8VarP(&watchDay, "day", "d", 0, "day to build and test")
	_ = watchCmd.MarkFlagRequired("day")
	rootCmd.AddCommand(watchCmd)
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

func runDay(cmd *cobra.Command, args []string) error {
	r, err := newRunner(day)
	if err != nil {
		return err
	}
	defer r.Close()

	ctx, stop := signalContext(cmd)
	defer stop()

	_, err = r.runOnce(ctx)
	return err
}

func runList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	registry, err := config.LoadRegistry(cfg.General.Registry)
	if err != nil {
		return err
	}

	days := make([]int, 0, len(registry.Days))
	for d := range registry.Days {
		days = append(days, int(d))
	}
	sort.Ints(days)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DAY\tROOT\tRUN CONFIG")
	for _, d := range days {
		root := registry.Days[uint8(d)].Root
		runConfig := cfg.General.RunConfig
		if !filepath.IsAbs(runConfig) {
			runConfig = filepath.Join(root, runConfig)
		}
		status := "ok"
		if _, err := os.Stat(runConfig); err != nil {
			status = "missing"
		}
		fmt.Fprintf(w, "%02d\t%s\t%s\n", d, root, status)
	}
	w.Flush()

	return nil
}

func openHistory() (*history.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, fmt.Errorf("history is disabled (history.enabled = false)")
	}
	return history.New(cfg.History.DatabasePath)
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	opts := history.ListOptions{Limit: historyLimit}
	if cmd.Flags().Changed("day") {
		opts.Day = &historyDay
	}
	runs, err := store.ListRuns(opts)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDAY\tSTATUS\tCASES\tDURATION\tSTARTED")
	for _, s := range runs {
		r := s.Report
		fmt.Fprintf(w, "%s\t%02d\t%s\t%d/%d\t%s\t%s\n",
			shortID(r.ID), r.Day, r.Status, s.Passed, s.Total,
			r.Duration().Round(time.Millisecond), humanize.Time(r.StartedAt))
	}
	w.Flush()

	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	store, err := openHistory()
	if err != nil {
		return err
	}
	defer store.Close()

	id, err := resolveRunID(store, args[0])
	if err != nil {
		return err
	}
	r, err := store.GetRun(id)
	if err != nil {
		return err
	}

	fmt.Printf("Run %s (%s, %s)\n", r.ID, r.Label(), r.Status)
	fmt.Printf("Root: %s\n", r.Root)
	fmt.Printf("Started: %s (%s)\n", r.StartedAt.Local().Format(time.DateTime), humanize.Time(r.StartedAt))
	if r.Error != "" {
		fmt.Printf("Error: %s\n", r.Error)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CASE\tSTATUS\tDURATION\tDIR")
	for _, c := range r.Cases {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c.Name, c.Status, c.Duration.Round(time.Millisecond), c.Dir)
	}
	w.Flush()

	return nil
}

// resolveRunID accepts the short IDs printed by the history command
func resolveRunID(store *history.Store, prefix string) (string, error) {
	runs, err := store.ListRuns(history.ListOptions{})
	if err != nil {
		return "", err
	}
	var matches []string
	for _, s := range runs {
		if strings.HasPrefix(s.Report.ID, prefix) {
			matches = append(matches, s.Report.ID)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%w: %s", history.ErrRunNotFound, prefix)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("run id %s is ambiguous (%d matches)", prefix, len(matches))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func runWatch(cmd *cobra.Command, args []string) error {
	r, err := newRunner(watchDay)
	if err != nil {
		return err
	}
	defer r.Close()

	ctx, stop := signalContext(cmd)
	defer stop()

	slow, _ := r.cfg.WatchSlowRun()
	obs := observer.New(slow)

	changes := make(chan []string, 1)
	pw, err := observer.NewProjectWatcher(r.root, func(files []string) {
		select {
		case changes <- files:
		default:
		}
	})
	if err != nil {
		return err
	}

	debounce, _ := r.cfg.WatchDebounce()
	pw.SetDebounce(debounce)
	pw.SetDebug(r.cfg.General.Debug)
	pw.IgnoreDirs(r.cfg.Watch.Ignore...)
	if runCfg, err := config.LoadRunConfig(r.runConfigPath()); err == nil {
		pw.IgnorePaths(runCfg.Clean...)
	}

	if err := pw.Start(ctx); err != nil {
		return fmt.Errorf("watching %s: %w", r.root, err)
	}
	defer pw.Stop()

	ticks := make(chan struct{}, 1)
	if sched, _ := r.cfg.WatchSchedule(); sched != nil {
		c := cron.New()
		c.Schedule(sched, cron.FuncJob(func() {
			select {
			case ticks <- struct{}{}:
			default:
			}
		}))
		c.Start()
		defer c.Stop()
		r.printer.Info(fmt.Sprintf("Scheduled re-runs: %s (next %s)", r.cfg.Watch.Schedule, humanize.Time(sched.Next(time.Now()))))
	}

	for {
		// Build steps touch the tree too; only edits made after the run
		// should trigger the next one.
		pw.Pause()
		report, err := r.runOnce(ctx)
		pw.Resume()
		if report != nil {
			obs.RecordRun(report)
			if obs.IsSlow(report) {
				r.printer.Warn(fmt.Sprintf("run took %s, longer than watch.slow_run (%s)",
					report.Duration().Round(time.Millisecond), slow))
			}
		}
		if err != nil && ctx.Err() == nil {
			r.printer.Error(err)
		}

		// A batch flushed just before the pause may still be queued.
		select {
		case <-changes:
		default:
		}

		r.printer.Info(fmt.Sprintf("Watching %s for changes (ctrl-c to stop)", r.root))

		select {
		case <-ctx.Done():
			r.printer.Info(watchSummary(obs.GetMetrics()))
			return nil
		case files := <-changes:
			r.printer.Info(fmt.Sprintf("Changed: %s", describeChanges(r.root, files)))
		case <-ticks:
			r.printer.Info("Scheduled re-run")
		}
	}
}

func watchSummary(m observer.Metrics) string {
	if m.TotalRuns == 0 {
		return "No runs"
	}
	streak := "failing"
	if m.LastPassed {
		streak = "passing"
	}
	return fmt.Sprintf("%d runs: %d passed, %d failed, %d cases, %s on average, last %d %s",
		m.TotalRuns, m.TotalPassed, m.TotalFailed, m.TotalCases,
		m.AvgDuration.Round(time.Millisecond), m.Streak, streak)
}

func describeChanges(root string, files []string) string {
	const shown = 3
	names := make([]string, 0, shown)
	for i, f := range files {
		if i == shown {
			break
		}
		if rel, err := filepath.Rel(root, f); err == nil {
			f = rel
		}
		names = append(names, f)
	}
	s := strings.Join(names, ", ")
	if len(files) > shown {
		s += fmt.Sprintf(" and %d more", len(files)-shown)
	}
	return s
}
