// Package main provides the periscope CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/richinex/periscope/cli"
)

// Global flags
var opts = cli.DefaultOptions()

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	rootCmd := &cobra.Command{
		Use:   "periscope",
		Short: "Browse camera events and media across camera engines",
		Long: `A CLI for querying camera events, snapshots and recordings.

Each configured camera is served by the engine that fits it:
- frigate: Frigate NVR events and summaries
- motioneye: MotionEye movies and images from the media tree
- reolink: Reolink recordings from the media tree
- generic: live-only cameras`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "Config file (default ./periscope.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.Fixture, "fixture", "", "Host fixture file, overrides the configured one")
	rootCmd.PersistentFlags().StringVar(&opts.CachePath, "cache", "", "SQLite result cache, overrides the configured one")
	rootCmd.PersistentFlags().BoolVar(&opts.NoCache, "no-cache", false, "Ignore cached results")
	rootCmd.PersistentFlags().BoolVar(&opts.JSON, "json", false, "Print JSON")
	rootCmd.PersistentFlags().BoolVar(&opts.Metrics, "metrics", false, "Print engine metrics after the command")
	rootCmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show debug logs")

	rootCmd.AddCommand(eventsCmd())
	rootCmd.AddCommand(daysCmd())
	rootCmd.AddCommand(detectCmd())
	rootCmd.AddCommand(cacheCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withSession opens a session for the duration of fn.
func withSession(cmd *cobra.Command, fn func(*cli.Session) error) error {
	s, err := cli.Open(cmd.Context(), opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(s)
}

func eventsCmd() *cobra.Command {
	var args cli.EventsArgs

	cmd := &cobra.Command{
		Use:   "events",
		Short: "List events across cameras, oldest first",
		Long: `List clips and snapshots from every configured camera, merged and
ordered by start time.

Times accept RFC 3339 or YYYY-MM-DD in the configured timezone. A bare
--end day includes the whole day.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(s *cli.Session) error {
				return s.Events(cmd.Context(), cmd.OutOrStdout(), args)
			})
		},
	}

	cmd.Flags().StringSliceVar(&args.Cameras, "camera", nil, "Camera id (repeatable, default all)")
	cmd.Flags().DurationVar(&args.Since, "since", 0, "Only events newer than this, e.g. 24h")
	cmd.Flags().StringVar(&args.Start, "start", "", "Only events starting after this time")
	cmd.Flags().StringVar(&args.End, "end", "", "Only events starting before this time")
	cmd.Flags().IntVarP(&args.Limit, "limit", "n", 0, "Maximum events per camera")
	cmd.Flags().BoolVar(&args.Clips, "clips", false, "Only events with a clip")
	cmd.Flags().BoolVar(&args.Snapshots, "snapshots", false, "Only events with a snapshot")
	cmd.Flags().BoolVar(&args.Favorites, "favorites", false, "Only favorite events")
	cmd.Flags().StringSliceVar(&args.What, "what", nil, "Object labels (repeatable)")
	cmd.Flags().StringSliceVar(&args.Where, "where", nil, "Zones (repeatable)")
	cmd.Flags().StringSliceVar(&args.Tags, "tag", nil, "Sub-labels (repeatable)")

	return cmd
}

func daysCmd() *cobra.Command {
	var cameras []string

	cmd := &cobra.Command{
		Use:   "days",
		Short: "Show the days, labels, zones and tags that have media",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(s *cli.Session) error {
				return s.Days(cmd.Context(), cmd.OutOrStdout(), cameras)
			})
		},
	}

	cmd.Flags().StringSliceVar(&cameras, "camera", nil, "Camera id (repeatable, default all)")

	return cmd
}

func detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect",
		Short: "Show each camera's engine, capabilities and endpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withSession(cmd, func(s *cli.Session) error {
				return s.Detect(cmd.OutOrStdout())
			})
		},
	}
}

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the persistent result cache",
	}

	var cameras []string
	purge := &cobra.Command{
		Use:   "purge",
		Short: "Remove expired results, or every result of the given cameras",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			return withSession(cmd, func(s *cli.Session) error {
				return s.PurgeCache(ctx, cmd.OutOrStdout(), cameras)
			})
		},
	}
	purge.Flags().StringSliceVar(&cameras, "camera", nil, "Camera id (repeatable)")

	cmd.AddCommand(purge)
	return cmd
}
