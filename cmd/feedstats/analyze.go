package main

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	feedstats "github.com/anatolykoptev/go-feedstats"
	"github.com/anatolykoptev/go-feedstats/stopwords"
)

// timelineFlags are shared by the commands that read a timeline export.
type timelineFlags struct {
	tz   string
	lang string
}

func (f *timelineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.tz, "tz", "UTC", "IANA time zone for calendar bucketing")
	cmd.Flags().StringVar(&f.lang, "lang", "de", "Label and stop-word language: de or en")
}

func (f *timelineFlags) location() (*time.Location, error) {
	loc, err := time.LoadLocation(f.tz)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", f.tz, err)
	}
	return loc, nil
}

func (f *timelineFlags) binner() (feedstats.Binner, error) {
	loc, err := f.location()
	if err != nil {
		return feedstats.Binner{}, err
	}
	locale := feedstats.LocaleFor(f.lang)
	return feedstats.Binner{Location: loc, Locale: &locale}, nil
}

// loadEntries accepts a bare entry array or a full timeline response.
func loadEntries(data []byte) ([]feedstats.RawEntry, error) {
	if bytes.HasPrefix(bytes.TrimSpace(data), []byte("[")) {
		return feedstats.ParseEntries(data)
	}
	return feedstats.ParseTimeline(data)
}

func loadPosts(cmd *cobra.Command, path string) ([]feedstats.Post, error) {
	data, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	entries, err := loadEntries(data)
	if err != nil {
		return nil, err
	}
	return feedstats.Normalize(entries, nil), nil
}

// newAnalyzeCmd creates the analyze subcommand.
func newAnalyzeCmd() *cobra.Command {
	var (
		tf      timelineFlags
		account string
		top     int
		words   int
	)

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Print the full report of a timeline export",
		Long:  "Normalize a timeline export (entry array or timeline response, '-' for stdin) and print every view as JSON.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			entries, err := loadEntries(data)
			if err != nil {
				return err
			}
			loc, err := tf.location()
			if err != nil {
				return err
			}
			report := feedstats.Analyze(entries, feedstats.Config{
				Account:   strings.TrimPrefix(account, "@"),
				Location:  loc,
				Language:  tf.lang,
				TopN:      top,
				WordLimit: words,
			})
			return writeJSON(cmd, report)
		},
	}
	tf.register(cmd)
	cmd.Flags().StringVar(&account, "account", "", "Handle whose own posts are ranked as top posts")
	cmd.Flags().IntVar(&top, "top", 10, "Number of top and worst posts")
	cmd.Flags().IntVar(&words, "words", 100, "Number of word-cloud entries")
	return cmd
}

// newSearchCmd creates the search subcommand.
func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <file> <query...>",
		Short: "Find posts containing any query word",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			posts, err := loadPosts(cmd, args[0])
			if err != nil {
				return err
			}
			query := strings.Join(args[1:], " ")
			return writeJSON(cmd, feedstats.SearchSummary(posts, query))
		},
	}
}

// newBinCmd creates the bin subcommand.
func newBinCmd() *cobra.Command {
	var (
		tf   timelineFlags
		unit string
	)

	cmd := &cobra.Command{
		Use:   "bin <file>",
		Short: "Bucket posts by hour, weekday, day or month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := feedstats.ParseCalendarUnit(unit)
			if err != nil {
				return err
			}
			b, err := tf.binner()
			if err != nil {
				return err
			}
			posts, err := loadPosts(cmd, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, b.Bin(posts, u))
		},
	}
	tf.register(cmd)
	cmd.Flags().StringVar(&unit, "unit", "month", "Calendar unit: hour, weekday, day or month")
	return cmd
}

// newWordsCmd creates the words subcommand.
func newWordsCmd() *cobra.Command {
	var (
		lang  string
		limit int
		extra []string
	)

	cmd := &cobra.Command{
		Use:   "words <file>",
		Short: "Count word frequencies, excluding stop words",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			posts, err := loadPosts(cmd, args[0])
			if err != nil {
				return err
			}
			stop := stopwords.ForLanguage(lang).With(extra...)
			stats := feedstats.WordFrequencies(feedstats.PostTexts(posts), stop)
			if limit > 0 && len(stats) > limit {
				stats = stats[:limit]
			}
			return writeJSON(cmd, stats)
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "de", "Stop-word language: de or en")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of words, 0 for all")
	cmd.Flags().StringSliceVar(&extra, "stop", nil, "Additional stop words")
	return cmd
}
