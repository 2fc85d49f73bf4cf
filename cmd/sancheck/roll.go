package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRollCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roll EXPR",
		Short: "Roll a dice expression such as 1D6 or 3",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, _ := cmd.Flags().GetInt("n")
			var seed *uint64
			if cmd.Flags().Changed("seed") {
				v, _ := cmd.Flags().GetUint64("seed")
				seed = &v
			}
			svc, err := newService(cmd)
			if err != nil {
				return err
			}
			vals, err := svc.Roll(args[0], n, seed)
			if err != nil {
				return err
			}
			for _, v := range vals {
				fmt.Fprintln(cmd.OutOrStdout(), v)
			}
			return nil
		},
	}
	cmd.Flags().Int("n", 1, "Number of rolls")
	cmd.Flags().Uint64("seed", 0, "Seed for reproducible rolls")
	return cmd
}
