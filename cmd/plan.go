package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/escaladev/escala/config"
	"github.com/escaladev/escala/core/engine"
	coremetrics "github.com/escaladev/escala/core/metrics"
	"github.com/escaladev/escala/core/model"
	"github.com/escaladev/escala/infra/history"
	"github.com/escaladev/escala/infra/logger"
	_ "github.com/escaladev/escala/infra/metrics"
	"github.com/escaladev/escala/pkg/export"
)

var (
	planYear   int
	planMonth  int
	planExport string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Schedule one month and persist the solved weeks",
	RunE:  runPlan,
}

func init() {
	now := time.Now()
	planCmd.Flags().IntVar(&planYear, "year", now.Year(), "year to schedule")
	planCmd.Flags().IntVar(&planMonth, "month", int(now.Month()), "month to schedule (1-12)")
	planCmd.Flags().StringVar(&planExport, "export", "", "write the schedule to a .csv or .json file")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logger.New("plan")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	workers, blocked, warnings := cfg.Workers()
	holidays, hw := cfg.HolidaySet()
	pinned, pw := config.Slots(cfg.Pinned)
	extraBlocked, bw := config.Slots(cfg.Blocked)
	overrides, ow := cfg.EquityOverrides()
	for _, group := range [][]string{warnings, hw, pw, bw, ow} {
		for _, w := range group {
			log.Warnf("config: %s", w)
		}
	}

	sink, err := coremetrics.NewSink(cfg.Metrics.Sinks)
	if err != nil {
		return fmt.Errorf("metrics sink: %w", err)
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Errorf("close history: %v", err)
		}
	}()

	planner := engine.New(store, engine.WithLogger(log), engine.WithMetrics(sink))
	res, err := planner.Plan(ctx, engine.Request{
		Year:      planYear,
		Month:     time.Month(planMonth),
		Workers:   workers,
		Holidays:  holidays,
		Overrides: overrides,
		Pinned:    pinned,
		Blocked:   append(blocked, extraBlocked...),
		Budget:    cfg.Solver.Budget(),
	})
	if err != nil {
		return err
	}

	for _, rec := range res.NewRecords {
		if err := store.AppendWeek(rec); err != nil {
			return fmt.Errorf("persist week %s: %w", rec.Week, err)
		}
	}
	log.Infof("run %s: %s, %d nodes in %s, %d weeks persisted",
		res.Diagnostics.RunID, res.Diagnostics.SolverStatus,
		res.Diagnostics.Nodes, res.Diagnostics.Elapsed, len(res.NewRecords))

	printSchedule(cmd, workers, res.Assignments)
	if planExport != "" {
		if err := exportSchedule(planExport, workers, res.Assignments); err != nil {
			return fmt.Errorf("export schedule: %w", err)
		}
	}
	return nil
}

func exportSchedule(path string, workers []model.Worker, assignments []model.Assignment) error {
	names := make(map[int64]string, len(workers))
	for _, w := range workers {
		names[w.ID] = w.Name
	}
	entries := export.Entries(assignments, names)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return export.WriteCSV(f, entries)
	case ".json":
		return export.WriteJSON(f, entries)
	default:
		return fmt.Errorf("unsupported export format: %s", path)
	}
}

func printSchedule(cmd *cobra.Command, workers []model.Worker, assignments []model.Assignment) {
	names := make(map[int64]string, len(workers))
	for _, w := range workers {
		names[w.ID] = w.Name
	}
	byDay := make(map[string]map[model.ShiftKind]int64)
	var days []string
	for _, a := range assignments {
		day := model.Midnight(a.Date).Format(model.DateLayout)
		if byDay[day] == nil {
			byDay[day] = make(map[model.ShiftKind]int64)
			days = append(days, day)
		}
		byDay[day][a.Shift] = a.WorkerID
	}
	sort.Strings(days)
	for _, day := range days {
		line := day
		for _, shift := range model.Shifts() {
			line += fmt.Sprintf("  %s=%s", shift, names[byDay[day][shift]])
		}
		cmd.Println(line)
	}
}
