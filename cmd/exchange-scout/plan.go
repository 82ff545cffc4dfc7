// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/exchange-scout/internal/agents"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Collect the application requirements of an exchange partner",
	Long: `Plan finds the partner universities of the home university, picks the
first one (or the one given with --partner) and extracts its application
deadline, academic calendar, language and GPA requirements. A run that finds
none of them fails.`,
	RunE: runPlan,
}

func init() {
	planCmd.Flags().String("university", "", "home university")
	planCmd.Flags().String("major", "", "field of study")
	planCmd.Flags().String("program", "", "exchange program (default Erasmus)")
	planCmd.Flags().String("partner", "", "partner university to plan for (skips partner discovery)")
	addGoalFlags(planCmd)

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	var g types.PlanGoal
	if err := loadGoal(cmd, &g); err != nil {
		return err
	}
	stringFlag(cmd, "university", &g.University)
	stringFlag(cmd, "major", &g.Major)
	stringFlag(cmd, "program", &g.ProgramType)
	stringFlag(cmd, "partner", &g.Partner)

	return runPipeline(cmd, g, agents.Plan)
}
