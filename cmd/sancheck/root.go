package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/xtding233/sancheck/internal/logging"
	"github.com/xtding233/sancheck/internal/service"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sancheck",
		Short: "Monte Carlo simulator for SAN checks",
		Long: `sancheck estimates how many investigators survive a scenario's sequence of
SAN checks, for a range of starting SAN values.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags (available to all commands)
	root.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")

	root.AddCommand(
		newRunCmd(),
		newRollCmd(),
		newValidateCmd(),
		newEditCmd(),
	)
	return root
}

func loggerFrom(cmd *cobra.Command) (*slog.Logger, error) {
	s, _ := cmd.Flags().GetString("log-level")
	level, err := logging.ParseLevel(s)
	if err != nil {
		return nil, err
	}
	return logging.NewWithWriter(cmd.ErrOrStderr(), level), nil
}

func newService(cmd *cobra.Command) (*service.Service, error) {
	logger, err := loggerFrom(cmd)
	if err != nil {
		return nil, err
	}
	return service.New(service.WithLogger(logger)), nil
}
