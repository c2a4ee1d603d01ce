package viewers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	feedstats "github.com/anatolykoptev/go-feedstats"
)

// History is an append-only viewer-count log persisted as a JSON array.
type History struct {
	path string

	mu      sync.RWMutex
	samples []feedstats.TimestampedCount
}

// OpenHistory loads path, creating its directory. A missing file is an empty history.
func OpenHistory(path string) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("history dir: %w", err)
	}
	samples, err := ReadHistory(path)
	if err != nil {
		return nil, err
	}
	return &History{path: path, samples: samples}, nil
}

// ReadHistory reads a history file. A missing file yields no samples.
func ReadHistory(path string) ([]feedstats.TimestampedCount, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return []feedstats.TimestampedCount{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	samples, err := DecodeHistory(data)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", path, err)
	}
	return samples, nil
}

// DecodeHistory decodes a JSON array of {timestamp, count} records. Fields may
// be numbers or numeric strings; missing or unparsable values read as 0.
func DecodeHistory(data []byte) ([]feedstats.TimestampedCount, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return []feedstats.TimestampedCount{}, nil
	}
	var raw []struct {
		Timestamp lenientInt `json:"timestamp"`
		Count     lenientInt `json:"count"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode history: %w", err)
	}
	samples := make([]feedstats.TimestampedCount, len(raw))
	for i, r := range raw {
		samples[i] = feedstats.TimestampedCount{Timestamp: int64(r.Timestamp), Count: int(r.Count)}
	}
	return samples, nil
}

// lenientInt accepts numbers, numeric strings and null.
type lenientInt int64

func (v *lenientInt) UnmarshalJSON(b []byte) error {
	*v = 0
	var s string
	switch {
	case bytes.Equal(b, []byte("null")):
		return nil
	case len(b) > 0 && b[0] == '"':
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
	default:
		s = string(b)
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		*v = lenientInt(n)
		return nil
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
		*v = lenientInt(math.Trunc(f))
	}
	return nil
}

// Path returns the backing file.
func (h *History) Path() string { return h.path }

// Len returns the number of samples.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.samples)
}

// Samples returns a copy of all samples in append order.
func (h *History) Samples() []feedstats.TimestampedCount {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]feedstats.TimestampedCount, len(h.samples))
	copy(out, h.samples)
	return out
}

// Latest returns the most recently appended sample.
func (h *History) Latest() (feedstats.TimestampedCount, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.samples) == 0 {
		return feedstats.TimestampedCount{}, false
	}
	return h.samples[len(h.samples)-1], true
}

// Append adds s and rewrites the file. The sample stays in memory even if the
// write fails, so the next successful write persists it.
func (h *History) Append(s feedstats.TimestampedCount) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.samples = append(h.samples, s)
	return h.flushLocked()
}

func (h *History) flushLocked() error {
	data, err := json.MarshalIndent(h.samples, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	return replaceFile(h.path, data)
}

// replaceFile writes data next to path and renames it into place.
func replaceFile(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
