package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go-feedstats/viewers"
)

// newViewersCmd creates the viewers command group.
func newViewersCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "viewers",
		Short: "Record and serve live-stream viewer counts",
		Long:  "Poll YouTube live streams for concurrent viewers, append them to per-series history files, and serve binned views over HTTP. Also reports per-video statistics of YouTube channels.",
	}
	cmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("FEEDSTATS_CONFIG"), "YAML config file (env FEEDSTATS_CONFIG)")

	cmd.AddCommand(newViewersRunCmd(&configPath))
	cmd.AddCommand(newViewersServeCmd(&configPath))
	cmd.AddCommand(newViewersPollCmd(&configPath))
	cmd.AddCommand(newViewersBinCmd())
	cmd.AddCommand(newViewersChannelCmd(&configPath))
	cmd.AddCommand(newViewersChannelReportCmd())
	return cmd
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// loadOpenedConfig loads the config and opens every series history.
func loadOpenedConfig(path string, forPolling bool) (viewers.Config, error) {
	cfg, err := viewers.LoadConfig(path)
	if err != nil {
		return viewers.Config{}, err
	}
	if forPolling {
		if err := cfg.Validate(); err != nil {
			return viewers.Config{}, fmt.Errorf("invalid config: %w", err)
		}
	} else if len(cfg.Series) == 0 {
		return viewers.Config{}, fmt.Errorf("no series configured")
	}
	if err := cfg.OpenSeries(); err != nil {
		return viewers.Config{}, err
	}
	return cfg, nil
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// newViewersRunCmd creates the command that polls and serves in one process.
func newViewersRunCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll every series and serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadOpenedConfig(*configPath, true)
			if err != nil {
				return err
			}
			client, err := viewers.NewClient(cfg)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext(cmd)
			defer cancel()

			reg := newRegistry()
			metrics := viewers.NewMetrics(reg)
			poller := viewers.NewPoller(client, cfg.Series, cfg.Interval, metrics)
			if err := poller.Start(ctx); err != nil {
				return err
			}
			defer func() { <-poller.Stop().Done() }()

			return viewers.NewServer(cfg.Series, metrics, reg).ListenAndServe(ctx, cfg.Listen)
		},
	}
}

// newViewersServeCmd creates the command that only serves recorded histories.
func newViewersServeCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve recorded histories without polling",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadOpenedConfig(*configPath, false)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()

			reg := newRegistry()
			return viewers.NewServer(cfg.Series, viewers.NewMetrics(reg), reg).ListenAndServe(ctx, cfg.Listen)
		},
	}
}

// newViewersPollCmd creates the command that records one sample per series.
func newViewersPollCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Fetch and record one sample for every series",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadOpenedConfig(*configPath, true)
			if err != nil {
				return err
			}
			client, err := viewers.NewClient(cfg)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()

			poller := viewers.NewPoller(client, cfg.Series, cfg.Interval, nil)
			failed := 0
			for _, s := range cfg.Series {
				sample, err := poller.Poll(ctx, s)
				if err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", s.Name, err)
					failed++
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", s.Name, sample.Count,
					time.UnixMilli(sample.Timestamp).UTC().Format(time.RFC3339))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d series failed", failed, len(cfg.Series))
			}
			return nil
		},
	}
}

// newViewersBinCmd creates the command that bins a history file offline.
func newViewersBinCmd() *cobra.Command {
	var (
		view    string
		binSize time.Duration
		span    time.Duration
		nowMs   int64
	)

	cmd := &cobra.Command{
		Use:   "bin <history.json>",
		Short: "Average a history file into fixed-size bins",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			samples, err := viewers.DecodeHistory(data)
			if err != nil {
				return err
			}

			now := time.Now()
			if nowMs > 0 {
				now = time.UnixMilli(nowMs)
			}
			if view == "dashboard" {
				return writeJSON(cmd, viewers.BuildDashboard(args[0], samples, now, viewers.DefaultViews))
			}
			if view != "" {
				v, err := viewers.ViewByName(view)
				if err != nil {
					return err
				}
				binSize, span = v.BinSize, v.Span
			}
			if err := (viewers.View{BinSize: binSize, Span: span}).Validate(); err != nil {
				return err
			}
			return writeJSON(cmd, viewers.Bin(samples, now, span, binSize))
		},
	}
	cmd.Flags().StringVar(&view, "view", "", "Named view: hour, day, week, month or dashboard")
	cmd.Flags().DurationVar(&binSize, "bin", time.Minute, "Bin size")
	cmd.Flags().DurationVar(&span, "span", time.Hour, "Window length ending now")
	cmd.Flags().Int64Var(&nowMs, "now", 0, "Window end in epoch milliseconds (default: current time)")
	return cmd
}

// channelReportFlags are shared by the channel commands.
type channelReportFlags struct {
	limit    int
	top      int
	maxAge   time.Duration
	maxViews int64
}

func (f *channelReportFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.limit, "limit", 100, "Newest videos to report after filtering (0: all)")
	cmd.Flags().IntVar(&f.top, "top", 100, "Length of the most-viewed ranking")
	cmd.Flags().DurationVar(&f.maxAge, "max-age", 0, "Only videos published within this duration, e.g. 8760h")
	cmd.Flags().Int64Var(&f.maxViews, "max-views", 0, "Only videos with fewer views")
}

func (f *channelReportFlags) options() viewers.ChannelReportOptions {
	return viewers.ChannelReportOptions{
		Limit:  f.limit,
		Top:    f.top,
		Filter: viewers.VideoFilter{MaxAge: f.maxAge, MaxViews: f.maxViews, Now: time.Now()},
	}
}

// newViewersChannelCmd creates the command that fetches channel statistics.
func newViewersChannelCmd(configPath *string) *cobra.Command {
	var (
		report    channelReportFlags
		outDir    string
		maxVideos int
	)

	cmd := &cobra.Command{
		Use:   "channel <name>...",
		Short: "Fetch per-video statistics of YouTube channels",
		Long:  "Search each channel by name, fetch views and comments of its uploads and print a report. With --out, the raw channel data is also saved as <out>/<name>.json.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := viewers.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			if cfg.APIKey == "" {
				return fmt.Errorf("YOUTUBE_API_KEY is not set")
			}
			client, err := viewers.NewClient(cfg)
			if err != nil {
				return err
			}
			ctx, cancel := signalContext(cmd)
			defer cancel()

			reports := make([]viewers.ChannelReport, 0, len(args))
			for _, name := range args {
				ch, err := client.ChannelStats(ctx, name, maxVideos)
				if err != nil {
					return fmt.Errorf("channel %s: %w", name, err)
				}
				if outDir != "" {
					if err := viewers.WriteChannel(filepath.Join(outDir, name+".json"), ch); err != nil {
						return err
					}
				}
				reports = append(reports, viewers.BuildChannelReport(ch, report.options()))
			}
			if len(reports) == 1 {
				return writeJSON(cmd, reports[0])
			}
			return writeJSON(cmd, reports)
		},
	}
	report.register(cmd)
	cmd.Flags().StringVar(&outDir, "out", "", "Directory to save fetched channel data")
	cmd.Flags().IntVar(&maxVideos, "max-videos", 1000, "Stop after this many uploads (0: all)")
	return cmd
}

// newViewersChannelReportCmd creates the command that reports on saved channel data.
func newViewersChannelReportCmd() *cobra.Command {
	var report channelReportFlags

	cmd := &cobra.Command{
		Use:   "channel-report <channel.json>",
		Short: "Report on channel data saved by 'viewers channel --out'",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ch, err := viewers.ReadChannel(args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, viewers.BuildChannelReport(ch, report.options()))
		},
	}
	report.register(cmd)
	return cmd
}
