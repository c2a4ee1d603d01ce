package feedstats

import (
	"time"

	"github.com/anatolykoptev/go-feedstats/stopwords"
)

// Config controls Analyze.
type Config struct {
	// Account is the handle whose own posts are ranked by TopPosts.
	// Empty ranks every post.
	Account string

	// Location is the time zone for calendar bucketing. Default: UTC.
	Location *time.Location

	// Language selects labels and stop words ("de" or "en"). Default: "de".
	Language string

	// StopWords overrides the stop words of Language.
	StopWords stopwords.Set

	// TopN bounds the top and worst post lists. Default: 10.
	TopN int

	// WordLimit bounds the scaled word-cloud list. Default: 100.
	WordLimit int
}

// defaults fills in zero-value config fields with sensible defaults.
func (cfg *Config) defaults() {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Language == "" {
		cfg.Language = "de"
	}
	if cfg.StopWords == nil {
		cfg.StopWords = stopwords.ForLanguage(cfg.Language)
	}
	if cfg.TopN == 0 {
		cfg.TopN = 10
	}
	if cfg.WordLimit == 0 {
		cfg.WordLimit = 100
	}
}

func (cfg *Config) binner() Binner {
	locale := LocaleFor(cfg.Language)
	return Binner{Location: cfg.Location, Locale: &locale}
}
