package viewers

import (
	"fmt"
	"time"

	feedstats "github.com/anatolykoptev/go-feedstats"
)

// View is a binned window of recent history.
type View struct {
	Name    string        `json:"name"`
	BinSize time.Duration `json:"binSize"`
	Span    time.Duration `json:"span"`
}

// DefaultViews are the dashboard charts: the last hour per minute, the last
// day per hour, and the last week and month per day.
var DefaultViews = []View{
	{Name: "hour", BinSize: time.Minute, Span: time.Hour},
	{Name: "day", BinSize: time.Hour, Span: 24 * time.Hour},
	{Name: "week", BinSize: 24 * time.Hour, Span: 7 * 24 * time.Hour},
	{Name: "month", BinSize: 24 * time.Hour, Span: 30 * 24 * time.Hour},
}

// ViewByName looks up one of DefaultViews.
func ViewByName(name string) (View, error) {
	for _, v := range DefaultViews {
		if v.Name == name {
			return v, nil
		}
	}
	return View{}, fmt.Errorf("unknown view %q", name)
}

// MaxBins caps the number of bins a view may produce.
const MaxBins = 10_000

// Validate checks that the view has a bin size of at least a millisecond, a
// positive span, and no more than MaxBins bins.
func (v View) Validate() error {
	if v.BinSize < time.Millisecond || v.Span <= 0 {
		return fmt.Errorf("bin and span must be positive durations")
	}
	if n := (v.Span + v.BinSize - 1) / v.BinSize; n > MaxBins {
		return fmt.Errorf("span %s at bin %s yields %d bins, max %d", v.Span, v.BinSize, n, MaxBins)
	}
	return nil
}

// Window returns the samples no older than span before now, in input order.
func Window(samples []feedstats.TimestampedCount, now time.Time, span time.Duration) []feedstats.TimestampedCount {
	nowMs := now.UnixMilli()
	spanMs := span.Milliseconds()
	out := []feedstats.TimestampedCount{}
	for _, s := range samples {
		if nowMs-s.Timestamp <= spanMs {
			out = append(out, s)
		}
	}
	return out
}

// Bin averages the samples of the window ending at now into bins of binSize.
func Bin(samples []feedstats.TimestampedCount, now time.Time, span, binSize time.Duration) []feedstats.TimestampedCount {
	nowMs := now.UnixMilli()
	startMs := nowMs - span.Milliseconds()
	return feedstats.BinBySize(Window(samples, now, span), binSize.Milliseconds(), startMs, nowMs)
}

// Dashboard is the current count plus every view of one series.
type Dashboard struct {
	Series  string                                  `json:"series"`
	Current int                                     `json:"current"`
	Updated int64                                   `json:"updated"`
	Views   map[string][]feedstats.TimestampedCount `json:"views"`
}

// BuildDashboard bins samples for each view. Current is the latest sample's count.
func BuildDashboard(series string, samples []feedstats.TimestampedCount, now time.Time, views []View) Dashboard {
	d := Dashboard{Series: series, Views: make(map[string][]feedstats.TimestampedCount, len(views))}
	if n := len(samples); n > 0 {
		d.Current = samples[n-1].Count
		d.Updated = samples[n-1].Timestamp
	}
	for _, v := range views {
		d.Views[v.Name] = Bin(samples, now, v.Span, v.BinSize)
	}
	return d
}
