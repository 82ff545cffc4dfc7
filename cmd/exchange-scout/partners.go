// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/exchange-scout/internal/agents"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

var partnersCmd = &cobra.Command{
	Use:   "partners",
	Short: "List exchange partner universities and check eligibility",
	Long: `Partners searches for the exchange partner universities of the home
university and asks the model whether each one teaches in one of the given
languages and accepts the given GPA.`,
	RunE: runPartners,
}

func init() {
	partnersCmd.Flags().String("university", "", "home university")
	partnersCmd.Flags().String("major", "", "field of study")
	partnersCmd.Flags().StringSlice("languages", nil, "languages the student speaks (comma-separated)")
	partnersCmd.Flags().Float64("gpa", 0, "student GPA")
	addGoalFlags(partnersCmd)

	rootCmd.AddCommand(partnersCmd)
}

func runPartners(cmd *cobra.Command, args []string) error {
	var g types.PartnerGoal
	if err := loadGoal(cmd, &g); err != nil {
		return err
	}
	stringFlag(cmd, "university", &g.University)
	stringFlag(cmd, "major", &g.Major)
	if cmd.Flags().Changed("languages") {
		g.Languages, _ = cmd.Flags().GetStringSlice("languages")
	}
	if cmd.Flags().Changed("gpa") {
		g.GPA, _ = cmd.Flags().GetFloat64("gpa")
	}

	return runPipeline(cmd, g, agents.Partners)
}
