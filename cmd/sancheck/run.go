package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/xtding233/sancheck/internal/render"
	"github.com/xtding233/sancheck/internal/scenario"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Simulate a scenario file",
		Long: `Runs the scenario in FILE for every starting SAN and prints a table of
per-check averages and breakdown rates. Flags override the file.`,
		Args: cobra.ExactArgs(1),
		RunE: runRun,
	}
	cmd.Flags().Int("trials", 0, "Trials per starting SAN")
	cmd.Flags().Uint64("seed", 0, "Seed for a reproducible run")
	cmd.Flags().Int("workers", 0, "Parallel workers (0 = all CPUs)")
	cmd.Flags().IntSlice("san", nil, "Starting SAN values, e.g. 30,40,50")
	cmd.Flags().Bool("json", false, "Print the report as JSON")
	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	doc, err := scenario.ReadFile(args[0])
	if err != nil {
		return err
	}

	var o scenario.Overrides
	if cmd.Flags().Changed("trials") {
		v, _ := cmd.Flags().GetInt("trials")
		o.Trials = &v
	}
	if cmd.Flags().Changed("seed") {
		v, _ := cmd.Flags().GetUint64("seed")
		o.Seed = &v
	}
	if cmd.Flags().Changed("workers") {
		v, _ := cmd.Flags().GetInt("workers")
		o.Workers = &v
	}
	o.InitialSAN, _ = cmd.Flags().GetIntSlice("san")

	svc, err := newService(cmd)
	if err != nil {
		return err
	}
	rep, err := svc.SweepDocument(cmd.Context(), o.Apply(doc))
	if err != nil {
		return err
	}

	if jsonMode, _ := cmd.Flags().GetBool("json"); jsonMode {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	return render.Write(cmd.OutOrStdout(), render.Markdown(rep))
}
