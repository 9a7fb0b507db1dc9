package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/okian/highlights/internal/domain/model"
	"github.com/okian/highlights/internal/smoke"
)

var stderr = os.Stderr

// errSmokeFailed marks a run that finished but did not pass.
var errSmokeFailed = errors.New("smoke run failed")

func newSmokeCommand(g *globals) *cobra.Command {
	cfg := &smoke.Config{}
	cmd := &cobra.Command{
		Use:   "smoke",
		Short: "Submit generated segments and verify highlights end to end",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg.BaseURL = g.baseURL
			cfg.Timeout = g.timeout
			report, err := smoke.Run(cmd.Context(), cfg)
			if report != nil {
				smoke.Render(cmd.OutOrStdout(), report)
			}
			if err != nil {
				return err
			}
			if !report.OK() {
				return errSmokeFailed
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.IntVarP(&cfg.Segments, "segments", "n", 10, "Number of segments to submit")
	f.IntVarP(&cfg.Workers, "workers", "w", runtime.NumCPU()*2, "Concurrent submissions")
	f.DurationVar(&cfg.WaitTimeout, "wait", 5*time.Minute, "How long to wait for segments to finish")
	f.DurationVar(&cfg.PollInterval, "poll", time.Second, "Delay between status checks")
	f.StringVar(&cfg.UserID, "user", "smoke-viewer", "Viewer used for the personalization check; empty skips it")
	f.Uint64Var(&cfg.Seed, "seed", 0, "Seed for generated segments (0 is random)")
	return cmd
}

func newSubmitCommand(g *globals) *cobra.Command {
	var seg model.Segment
	cmd := &cobra.Command{
		Use:   "submit VIDEO_REF",
		Short: "Submit one segment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			seg.VideoRef = args[0]
			if seg.ID == "" {
				seg.ID = "seg-" + uuid.NewString()
			}
			if seg.SourceID == "" {
				seg.SourceID = seg.ID
			}
			st, err := c.Submit(cmd.Context(), seg)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", st.SegmentID, st.State)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&seg.ID, "id", "", "Segment ID (generated when empty)")
	f.StringVar(&seg.SourceID, "source", "", "Source ID (defaults to the segment ID)")
	f.StringVar(&seg.GameType, "sport", "", "Sport of the segment")
	f.StringSliceVar(&seg.Teams, "teams", nil, "Teams in the segment")
	f.StringSliceVar(&seg.Players, "players", nil, "Players in the segment")
	return cmd
}

func newStatusCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "status SEGMENT_ID",
		Short: "Show the progress of a segment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			st, err := c.Status(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s %s highlights=%d\n", st.SegmentID, st.State, st.HighlightCount)
			if st.Error != "" {
				fmt.Fprintf(out, "error: %s\n", st.Error)
			}
			return nil
		},
	}
}

func newHighlightsCommand(g *globals) *cobra.Command {
	var (
		source    string
		clipsOnly bool
		limit     int
	)
	cmd := &cobra.Command{
		Use:   "highlights",
		Short: "List highlights, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			hs, err := c.Highlights(cmd.Context(), source, clipsOnly, limit)
			if err != nil {
				return err
			}
			smoke.RenderHighlights(cmd.OutOrStdout(), hs)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&source, "source", "", "Only highlights of this source")
	f.BoolVar(&clipsOnly, "clips", false, "Only highlights with a generated clip")
	f.IntVarP(&limit, "limit", "l", 20, "Maximum rows")
	return cmd
}

func newForCommand(g *globals) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "for USER_ID",
		Short: "Show highlights ranked for a viewer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			ps, err := c.Personalized(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			smoke.RenderPersonalized(cmd.OutOrStdout(), ps)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 10, "Maximum rows")
	return cmd
}

func newRescanCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "rescan",
		Short: "Submit clip jobs for highlights without one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			n, err := c.Rescan(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "submitted %d clip jobs\n", n)
			return nil
		},
	}
}

func newStatsCommand(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show service statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			stats, err := c.Stats(cmd.Context())
			if err != nil {
				return err
			}
			smoke.RenderStats(cmd.OutOrStdout(), stats)
			return nil
		},
	}
}
