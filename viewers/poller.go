package viewers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	feedstats "github.com/anatolykoptev/go-feedstats"
)

// ErrNotOpen is returned when polling a series whose history was never opened.
var ErrNotOpen = errors.New("series history not open")

// Poller periodically appends viewer counts to each series history.
type Poller struct {
	fetcher  Fetcher
	series   []*Series
	metrics  *Metrics
	interval time.Duration
	now      func() time.Time

	cron *cron.Cron
}

// NewPoller creates a poller for series. The series must be opened.
func NewPoller(f Fetcher, series []*Series, interval time.Duration, m *Metrics) *Poller {
	return &Poller{
		fetcher:  f,
		series:   series,
		metrics:  m,
		interval: interval,
		now:      time.Now,
	}
}

// Poll fetches one sample for s and appends it. Cycles of the same series
// never overlap; the sample timestamp is taken after the fetch returns.
func (p *Poller) Poll(ctx context.Context, s *Series) (feedstats.TimestampedCount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h := s.history.Load()
	if h == nil {
		return feedstats.TimestampedCount{}, fmt.Errorf("%s: %w", s.Name, ErrNotOpen)
	}

	start := time.Now()
	count, err := p.fetcher.ConcurrentViewers(ctx, s.VideoID)
	took := time.Since(start)
	if err != nil {
		p.metrics.recordFetchError(s.Name, err, took)
		if s.RecordFailure() {
			total, failed, consec := s.Stats()
			slog.Warn("series unhealthy",
				slog.String("series", s.Name),
				slog.Int("total", total),
				slog.Int("failed", failed),
				slog.Int("consec", consec))
		}
		return feedstats.TimestampedCount{}, fmt.Errorf("poll %s: %w", s.Name, err)
	}
	s.RecordSuccess()

	sample := feedstats.TimestampedCount{Timestamp: p.now().UnixMilli(), Count: count}
	if err := h.Append(sample); err != nil {
		return sample, fmt.Errorf("poll %s: %w", s.Name, err)
	}
	p.metrics.recordSample(s.Name, count, took)
	slog.Debug("viewer sample", slog.String("series", s.Name), slog.Int("count", count))
	return sample, nil
}

// PollAll polls every series concurrently and waits for all of them.
func (p *Poller) PollAll(ctx context.Context) {
	var wg sync.WaitGroup
	for _, s := range p.series {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := p.Poll(ctx, s); err != nil {
				slog.Warn("viewer poll failed", slog.String("series", s.Name), slog.Any("error", err))
			}
		}()
	}
	wg.Wait()
}

// Start polls once immediately, then every interval until ctx is done or Stop is called.
func (p *Poller) Start(ctx context.Context) error {
	if p.interval < time.Second {
		return fmt.Errorf("poll interval %s is below one second", p.interval)
	}
	p.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	p.cron.Schedule(cron.Every(p.interval), cron.FuncJob(func() { p.PollAll(ctx) }))

	go p.PollAll(ctx)
	p.cron.Start()
	slog.Info("viewer poller started",
		slog.Int("series", len(p.series)),
		slog.Duration("interval", p.interval))

	go func() {
		<-ctx.Done()
		p.Stop()
	}()
	return nil
}

// Stop halts scheduling and returns a context done when running polls finish.
func (p *Poller) Stop() context.Context {
	if p.cron == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return p.cron.Stop()
}
