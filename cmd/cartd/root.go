package main

import (
	"github.com/LucasLaguilio/Doce-Traco-backend/internal/config"
	"github.com/spf13/cobra"
)

// RootOptions holds flags shared by every command.
type RootOptions struct {
	LogLevel string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:           "cartd",
		Short:         "Shopping cart and checkout API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug, info, warn, error); overrides LOG_LEVEL")

	cmd.AddCommand(NewServeCommand(opts))
	return cmd
}

func (o *RootOptions) apply(cfg *config.Config) {
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
}
