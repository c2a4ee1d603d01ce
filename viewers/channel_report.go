package viewers

import (
	"sort"
	"time"

	feedstats "github.com/anatolykoptev/go-feedstats"
)

// SortNewestFirst orders videos by publish time, newest first.
func SortNewestFirst(videos []Video) {
	sort.SliceStable(videos, func(i, j int) bool { return videos[i].PublishedAt.After(videos[j].PublishedAt) })
}

// MostViewed returns up to n videos with the most views. Ties keep input order.
func MostViewed(videos []Video, n int) []Video {
	out := append([]Video(nil), videos...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Stats.ViewCount > out[j].Stats.ViewCount })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// VideoFilter selects videos by age and view count. Zero fields do not filter.
type VideoFilter struct {
	// MaxAge keeps videos published less than MaxAge before Now.
	MaxAge time.Duration
	// MaxViews keeps videos with fewer views.
	MaxViews int64
	Now      time.Time
}

// Apply returns the matching videos in input order.
func (f VideoFilter) Apply(videos []Video) []Video {
	out := []Video{}
	for _, v := range videos {
		if f.MaxViews > 0 && v.Stats.ViewCount >= f.MaxViews {
			continue
		}
		if f.MaxAge > 0 && f.Now.Sub(v.PublishedAt) >= f.MaxAge {
			continue
		}
		out = append(out, v)
	}
	return out
}

// ChannelReportOptions configures BuildChannelReport.
type ChannelReportOptions struct {
	// Limit keeps the newest videos after filtering. 0 keeps all.
	Limit int
	// Top is the length of the most-viewed ranking.
	Top    int
	Filter VideoFilter
}

func (o *ChannelReportOptions) defaults() {
	if o.Top <= 0 {
		o.Top = 100
	}
}

// ChannelReport holds the per-video series and the most-viewed ranking of a channel.
type ChannelReport struct {
	Info       ChannelInfo                  `json:"info"`
	Videos     []Video                      `json:"videos"`
	Views      []feedstats.TimestampedCount `json:"views"`
	Comments   []feedstats.TimestampedCount `json:"comments"`
	MostViewed []Video                      `json:"mostViewed"`
}

// BuildChannelReport filters ch's videos, keeps the newest Limit of them and
// derives view and comment series keyed by publish time, newest first.
func BuildChannelReport(ch *Channel, opts ChannelReportOptions) ChannelReport {
	opts.defaults()

	videos := opts.Filter.Apply(ch.Videos)
	SortNewestFirst(videos)
	if opts.Limit > 0 && len(videos) > opts.Limit {
		videos = videos[:opts.Limit]
	}

	r := ChannelReport{
		Info:       ch.Info,
		Videos:     videos,
		Views:      make([]feedstats.TimestampedCount, len(videos)),
		Comments:   make([]feedstats.TimestampedCount, len(videos)),
		MostViewed: MostViewed(videos, opts.Top),
	}
	for i, v := range videos {
		ts := v.PublishedAt.UnixMilli()
		r.Views[i] = feedstats.TimestampedCount{Timestamp: ts, Count: int(v.Stats.ViewCount)}
		r.Comments[i] = feedstats.TimestampedCount{Timestamp: ts, Count: int(v.Stats.CommentCount)}
	}
	return r
}
