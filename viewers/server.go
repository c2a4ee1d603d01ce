package viewers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	feedstats "github.com/anatolykoptev/go-feedstats"
)

// Server exposes series histories and dashboards over HTTP.
type Server struct {
	series   []*Series
	byName   map[string]*Series
	metrics  *Metrics
	gatherer prometheus.Gatherer
	now      func() time.Time
}

// NewServer creates a server over opened series. gatherer backs /metrics and may be nil.
func NewServer(series []*Series, m *Metrics, gatherer prometheus.Gatherer) *Server {
	byName := make(map[string]*Series, len(series))
	for _, s := range series {
		byName[s.Name] = s
	}
	return &Server{
		series:   series,
		byName:   byName,
		metrics:  m,
		gatherer: gatherer,
		now:      time.Now,
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), s.metrics.middleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if s.gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	api.GET("/series", s.listSeries)
	api.GET("/history/:series", s.getHistory)
	api.GET("/history/:series/binned", s.getBinned)
	api.GET("/history/:series/dashboard", s.getDashboard)
	return r
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("viewer server listening", slog.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

type seriesInfo struct {
	Name    string `json:"name"`
	VideoID string `json:"videoId"`
	Samples int    `json:"samples"`
	Current int    `json:"current"`
	Updated int64  `json:"updated"`
}

func (s *Server) listSeries(c *gin.Context) {
	out := make([]seriesInfo, 0, len(s.series))
	for _, sr := range s.series {
		info := seriesInfo{Name: sr.Name, VideoID: sr.VideoID}
		if h := sr.History(); h != nil {
			info.Samples = h.Len()
			if last, ok := h.Latest(); ok {
				info.Current = last.Count
				info.Updated = last.Timestamp
			}
		}
		out = append(out, info)
	}
	c.JSON(http.StatusOK, out)
}

// samples resolves the :series param, writing a 404 when unknown.
func (s *Server) samples(c *gin.Context) ([]feedstats.TimestampedCount, bool) {
	sr, ok := s.byName[c.Param("series")]
	if !ok || sr.History() == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown series %q", c.Param("series"))})
		return nil, false
	}
	return sr.History().Samples(), true
}

func (s *Server) getHistory(c *gin.Context) {
	samples, ok := s.samples(c)
	if !ok {
		return
	}
	if raw := c.Query("span"); raw != "" {
		span, err := time.ParseDuration(raw)
		if err != nil || span <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid span %q", raw)})
			return
		}
		samples = Window(samples, s.now(), span)
	}
	c.JSON(http.StatusOK, samples)
}

// getBinned serves ?view=<name> or ?bin=<duration>&span=<duration>.
func (s *Server) getBinned(c *gin.Context) {
	samples, ok := s.samples(c)
	if !ok {
		return
	}

	var view View
	if name := c.Query("view"); name != "" {
		v, err := ViewByName(name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		view = v
	} else {
		bin, errBin := time.ParseDuration(c.Query("bin"))
		span, errSpan := time.ParseDuration(c.Query("span"))
		if errBin != nil || errSpan != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "bin and span must be positive durations"})
			return
		}
		view = View{Name: "custom", BinSize: bin, Span: span}
		if err := view.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, Bin(samples, s.now(), view.Span, view.BinSize))
}

func (s *Server) getDashboard(c *gin.Context) {
	samples, ok := s.samples(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, BuildDashboard(c.Param("series"), samples, s.now(), DefaultViews))
}
