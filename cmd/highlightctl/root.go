package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/highlights/internal/smoke"
	"github.com/okian/highlights/pkg/logger"
)

type globals struct {
	baseURL string
	timeout time.Duration
	verbose bool
}

func (g *globals) client() (*smoke.Client, error) {
	return smoke.NewClient(g.baseURL, g.timeout)
}

func newRootCommand() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:           "highlightctl",
		Short:         "Drive and inspect a highlights service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if err := logger.Init(logger.WithOutput(stderr)); err != nil {
				return err
			}
			if g.verbose {
				return logger.SetLevelString("debug")
			}
			return logger.SetLevelString("warn")
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().StringVar(&g.baseURL, "url", "http://localhost:9080", "Base URL of the service")
	root.PersistentFlags().DurationVar(&g.timeout, "timeout", 30*time.Second, "HTTP request timeout")
	root.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newSmokeCommand(g),
		newSubmitCommand(g),
		newStatusCommand(g),
		newHighlightsCommand(g),
		newForCommand(g),
		newRescanCommand(g),
		newStatsCommand(g),
	)
	return root
}
