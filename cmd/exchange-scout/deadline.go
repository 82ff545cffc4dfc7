// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/exchange-scout/internal/agents"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

var deadlineCmd = &cobra.Command{
	Use:   "deadline",
	Short: "Find the exchange application deadline and create a reminder",
	Long: `Deadline searches for the application deadline of an exchange program
between two universities, reads candidate pages until one states a deadline,
and moves past dates forward to the next cycle. A calendar file with a
30-day reminder is written alongside Google and Outlook links.`,
	RunE: runDeadline,
}

func init() {
	deadlineCmd.Flags().String("home", "", "home university")
	deadlineCmd.Flags().String("foreign", "", "foreign university")
	deadlineCmd.Flags().String("program", "", "exchange program (default: Erasmus)")
	deadlineCmd.Flags().String("start-month", "", "first month of the stay")
	deadlineCmd.Flags().Int("start-year", 0, "first year of the stay")
	deadlineCmd.Flags().String("end-month", "", "last month of the stay")
	deadlineCmd.Flags().Int("end-year", 0, "last year of the stay")
	deadlineCmd.Flags().String("calendar-dir", ".", "directory for the .ics reminder (empty to skip writing it)")
	addGoalFlags(deadlineCmd)

	rootCmd.AddCommand(deadlineCmd)
}

func runDeadline(cmd *cobra.Command, args []string) error {
	var g types.DeadlineGoal
	if err := loadGoal(cmd, &g); err != nil {
		return err
	}
	stringFlag(cmd, "home", &g.HomeUniversity)
	stringFlag(cmd, "foreign", &g.ForeignUniversity)
	stringFlag(cmd, "program", &g.ProgramType)
	stringFlag(cmd, "start-month", &g.StartMonth)
	intFlag(cmd, "start-year", &g.StartYear)
	stringFlag(cmd, "end-month", &g.EndMonth)
	intFlag(cmd, "end-year", &g.EndYear)

	dir, _ := cmd.Flags().GetString("calendar-dir")
	return runPipeline(cmd, g, agents.Deadline, func(res types.Result) error {
		return writeCalendar(res, dir)
	})
}

// writeCalendar saves the reminder of a deadline result into dir.
func writeCalendar(res types.Result, dir string) error {
	p, ok := res.Payload.(types.DeadlinePayload)
	if !ok || p.Calendar == nil || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating calendar directory: %w", err)
	}
	path := filepath.Join(dir, p.Calendar.Filename)
	if err := os.WriteFile(path, []byte(p.Calendar.ICS), 0o644); err != nil {
		return fmt.Errorf("writing calendar file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	return nil
}
