package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/xtding233/sancheck/internal/scenario"
)

func newEditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit FILE",
		Short: "Append, insert, delete, update or reorder a scenario's checks",
		Long: `Applies one edit to the top-level checks of FILE and prints the new document,
or writes it to --output. Indexes start at 0.`,
		Args: cobra.ExactArgs(1),
		RunE: runEdit,
	}
	cmd.Flags().Bool("append", false, "Append a check built from --event/--success/--failure")
	cmd.Flags().Int("insert", -1, "Insert a check built from --event/--success/--failure at this index")
	cmd.Flags().Int("delete", -1, "Delete the check at this index")
	cmd.Flags().Int("update", -1, "Replace the check at this index")
	cmd.Flags().Int("up", -1, "Move the check at this index up")
	cmd.Flags().Int("down", -1, "Move the check at this index down")
	cmd.Flags().String("event", "", "Event label of the new check")
	cmd.Flags().String("success", "", "Loss on a passed check, e.g. 0 or 1")
	cmd.Flags().String("failure", "", "Loss on a failed check, e.g. 1D4")
	cmd.Flags().StringP("output", "o", "", "Write the result here instead of stdout")
	cmd.MarkFlagsMutuallyExclusive("append", "insert", "delete", "update", "up", "down")
	cmd.MarkFlagsOneRequired("append", "insert", "delete", "update", "up", "down")
	return cmd
}

func runEdit(cmd *cobra.Command, args []string) error {
	doc, err := scenario.ReadFile(args[0])
	if err != nil {
		return err
	}
	c, err := editCommand(cmd)
	if err != nil {
		return err
	}
	doc, err = c.Apply(doc)
	if err != nil {
		return err
	}
	b, err := scenario.Encode(doc)
	if err != nil {
		return err
	}

	if out, _ := cmd.Flags().GetString("output"); out != "" {
		return os.WriteFile(out, b, 0o644)
	}
	_, err = cmd.OutOrStdout().Write(b)
	return err
}

func editCommand(cmd *cobra.Command) (scenario.Command, error) {
	f := cmd.Flags()
	entry := func() scenario.Entry {
		e := scenario.NewEntry()
		if v, _ := f.GetString("event"); v != "" {
			e.Event = v
		}
		if v, _ := f.GetString("success"); v != "" {
			e.Success = v
		}
		if v, _ := f.GetString("failure"); v != "" {
			e.Failure = v
		}
		return e
	}
	index := func(name string) int {
		v, _ := f.GetInt(name)
		return v
	}

	switch {
	case f.Changed("append"):
		return scenario.Append{Entry: entry()}, nil
	case f.Changed("insert"):
		return scenario.Insert{Index: index("insert"), Entry: entry()}, nil
	case f.Changed("delete"):
		return scenario.Delete{Index: index("delete")}, nil
	case f.Changed("update"):
		return scenario.Update{Index: index("update"), Entry: entry()}, nil
	case f.Changed("up"):
		return scenario.MoveUp{Index: index("up")}, nil
	case f.Changed("down"):
		return scenario.MoveDown{Index: index("down")}, nil
	}
	return nil, errors.New("no edit given")
}
