// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/exchange-scout/internal/agents"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

var insightsCmd = &cobra.Command{
	Use:   "insights [university] [subject]",
	Short: "Summarize campus life and research at a university",
	Long: `Insights reads pages about campus life and about rankings and research
in a subject, summarizes each topic, and collects verbatim quotes from
students who studied there. The university and subject may be given as
arguments or flags.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runInsights,
}

func init() {
	insightsCmd.Flags().String("university", "", "university to describe")
	insightsCmd.Flags().String("subject", "", "subject for the research summary")
	addGoalFlags(insightsCmd)

	rootCmd.AddCommand(insightsCmd)
}

func runInsights(cmd *cobra.Command, args []string) error {
	var g types.InsightGoal
	if err := loadGoal(cmd, &g); err != nil {
		return err
	}
	if len(args) > 0 {
		g.University = args[0]
	}
	if len(args) > 1 {
		g.Subject = args[1]
	}
	stringFlag(cmd, "university", &g.University)
	stringFlag(cmd, "subject", &g.Subject)

	return runPipeline(cmd, g, agents.Insights)
}
