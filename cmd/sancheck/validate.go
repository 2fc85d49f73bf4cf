package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xtding233/sancheck/internal/scenario"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a scenario file without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := scenario.ReadFile(args[0])
			if err != nil {
				return err
			}
			compiled, err := scenario.Compile(doc)
			if err != nil {
				return fmt.Errorf("validation failed: %w", err)
			}

			out := cmd.OutOrStdout()
			for _, fb := range compiled.Fallbacks {
				fmt.Fprintf(out, "warning: %s %s loss %q replaced (%s): %s\n", fb.Step, fb.Field, fb.Text, fb.Action, fb.Err)
			}
			for _, l := range scenario.Summarize(compiled) {
				fmt.Fprintf(out, "%s: success %s [%d,%d], failure %s [%d,%d], expected loss %.2f\n",
					l.Step, l.Success.Expr, l.Success.Min, l.Success.Max,
					l.Failure.Expr, l.Failure.Min, l.Failure.Max, l.Expected)
			}
			fmt.Fprintf(out, "Worst case loss: %d\n", scenario.WorstCase(compiled))
			fmt.Fprintf(out, "Scenario is valid: %d checks, %d starting SAN values ✅\n",
				compiled.Scenario.Len(), len(compiled.InitialSANs))
			return nil
		},
	}
}
