// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/exchange-scout/internal/agents"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "Match home courses with courses at a foreign university",
	Long: `Courses finds the relevant departments at the foreign university, collects
course listings on both sides, estimates the credit conversion ratio, and
scores every pairing of the shortlisted courses. The best pairings are
printed with their similarity score and a recommendation.`,
	RunE: runCourses,
}

func init() {
	coursesCmd.Flags().String("home", "", "home university")
	coursesCmd.Flags().String("department", "", "home department")
	coursesCmd.Flags().String("foreign", "", "foreign university")
	coursesCmd.Flags().String("terms", "", "study terms, e.g. \"Fall 2025\"")
	coursesCmd.Flags().String("subject", "", "subject studied at home")
	coursesCmd.Flags().String("foreign-subject", "", "subject name at the foreign university (default: same as --subject)")
	coursesCmd.Flags().Int("top-k", 0, "number of pairings to return (default from config)")
	addGoalFlags(coursesCmd)

	rootCmd.AddCommand(coursesCmd)
}

func runCourses(cmd *cobra.Command, args []string) error {
	var g types.CourseGoal
	if err := loadGoal(cmd, &g); err != nil {
		return err
	}
	stringFlag(cmd, "home", &g.HomeUniversity)
	stringFlag(cmd, "department", &g.HomeDepartment)
	stringFlag(cmd, "foreign", &g.ForeignUniversity)
	stringFlag(cmd, "terms", &g.StudyTerms)
	stringFlag(cmd, "subject", &g.HomeSubject)
	stringFlag(cmd, "foreign-subject", &g.ForeignSubject)
	intFlag(cmd, "top-k", &g.TopK)

	return runPipeline(cmd, g, agents.Courses)
}
