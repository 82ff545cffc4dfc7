// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pdiddy/exchange-scout/internal/agents"
	"github.com/pdiddy/exchange-scout/internal/report"
	"github.com/pdiddy/exchange-scout/internal/workflow"
	"github.com/pdiddy/exchange-scout/pkg/types"
)

type validator interface {
	Validate() error
}

// addGoalFlags registers the flags every use-case command shares.
func addGoalFlags(cmd *cobra.Command) {
	cmd.Flags().String("goal", "", "read the goal from a YAML file; flags override its fields")
	cmd.Flags().Bool("json", false, "output the result as JSON")
	cmd.Flags().Bool("yaml", false, "output the result as YAML")
}

// loadGoal fills goal from the --goal file when one is given.
func loadGoal(cmd *cobra.Command, goal any) error {
	path, _ := cmd.Flags().GetString("goal")
	if path == "" {
		return nil
	}
	return types.ReadGoalFile(path, goal)
}

// stringFlag overwrites dst when the flag was set on the command line.
func stringFlag(cmd *cobra.Command, name string, dst *string) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetString(name)
	}
}

func intFlag(cmd *cobra.Command, name string, dst *int) {
	if cmd.Flags().Changed(name) {
		*dst, _ = cmd.Flags().GetInt(name)
	}
}

// runPipeline validates goal, runs the pipeline built by build and prints
// the result. Each hook sees the result before it is printed. A failed run
// exits non-zero after its result is printed.
func runPipeline[G validator](cmd *cobra.Command, goal G, build func(agents.Deps) *workflow.Engine[G], hooks ...func(types.Result) error) error {
	if err := goal.Validate(); err != nil {
		return fmt.Errorf("invalid goal: %w", err)
	}

	e, err := newEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	deps, err := e.deps(cmd.Context())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	engine := build(deps)
	fmt.Fprintf(os.Stderr, "Running %s pipeline...\n", engine.UseCase())
	res := engine.Run(ctx, goal)

	for _, hook := range hooks {
		if err := hook(res); err != nil {
			return err
		}
	}
	if err := writeResult(cmd, res); err != nil {
		return err
	}
	if res.Failed() {
		return fmt.Errorf("%s run failed: %s", res.UseCase, res.Error)
	}
	return nil
}

func writeResult(cmd *cobra.Command, res types.Result) error {
	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		return report.WriteJSON(os.Stdout, res)
	}
	if asYAML, _ := cmd.Flags().GetBool("yaml"); asYAML {
		return report.WriteYAML(os.Stdout, res)
	}
	report.WriteText(os.Stdout, res)
	return nil
}
