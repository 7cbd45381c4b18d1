package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/escaladev/escala/config"
	"github.com/escaladev/escala/infra/history"
)

var weeksCmd = &cobra.Command{
	Use:   "weeks",
	Short: "List the weeks already scheduled in history",
	RunE:  runWeeks,
}

func init() {
	rootCmd.AddCommand(weeksCmd)
}

func runWeeks(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	store, err := history.Open(cfg.History.Path)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	weeks, err := store.ScheduledWeeks()
	if err != nil {
		return err
	}
	for _, w := range weeks {
		cmd.Printf("%s  %s..%s\n", w,
			w.Monday().Format("2006-01-02"),
			w.Monday().AddDate(0, 0, 6).Format("2006-01-02"))
	}
	return nil
}
