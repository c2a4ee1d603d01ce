package viewers

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/anatolykoptev/go-stealth/pool"
)

// Series is one polled live stream and its history file.
type Series struct {
	Name    string `yaml:"name"`
	VideoID string `yaml:"video_id"`
	File    string `yaml:"file"`

	// mu serializes fetch-and-append cycles of this series.
	mu      sync.Mutex
	history atomic.Pointer[History]

	pool.HealthTracker `yaml:"-"`
}

// NewSeries returns a series with a fresh health tracker.
func NewSeries(name, videoID, file string) *Series {
	s := &Series{Name: name, VideoID: videoID, File: file}
	s.HealthTracker = pool.DefaultHealthTracker()
	return s
}

// History returns the opened history, or nil before Open.
func (s *Series) History() *History {
	return s.history.Load()
}

// Open loads the series history from dataDir. File defaults to "<name>.json".
func (s *Series) Open(dataDir string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.File == "" {
		s.File = s.Name + ".json"
	}
	path := s.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(dataDir, path)
	}
	h, err := OpenHistory(path)
	if err != nil {
		return fmt.Errorf("series %s: %w", s.Name, err)
	}
	s.history.Store(h)
	return nil
}

// ParseSeries parses a comma-separated list of series.
// Format: "name:videoID,..." or "name:videoID:file,...".
func ParseSeries(raw string) []*Series {
	var series []*Series
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
			slog.Warn("invalid series entry, skipping", slog.String("entry", entry))
			continue
		}
		file := ""
		if len(parts) == 3 {
			file = parts[2]
		}
		series = append(series, NewSeries(parts[0], parts[1], file))
	}
	return series
}
