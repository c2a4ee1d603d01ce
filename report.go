package feedstats

import "log/slog"

// Report bundles every view over one normalized timeline.
type Report struct {
	Account           string             `json:"account,omitempty"`
	Profile           *Author            `json:"profile,omitempty"`
	Posts             []Post             `json:"posts"`
	ByHourOfDay       []Bucket           `json:"byHourOfDay"`
	ByWeekDay         []Bucket           `json:"byWeekDay"`
	ByDay             []Bucket           `json:"byDay"`
	ByMonth           []Bucket           `json:"byMonth"`
	EngagementByMonth []EngagementBucket `json:"engagementByMonth"`
	Mentions          []LeaderboardEntry `json:"mentions"`
	Retweets          []LeaderboardEntry `json:"retweets"`
	Quotes            []LeaderboardEntry `json:"quotes"`
	Words             []WordStat         `json:"words"`
	WordCloud         []ScaledWord       `json:"wordCloud"`
	TopPosts          []Post             `json:"topPosts"`
	WorstPosts        []Post             `json:"worstPosts"`
}

// Analyze normalizes entries and computes every view.
func Analyze(entries []RawEntry, cfg Config) Report {
	cfg.defaults()

	idx := NewAuthorIndex()
	posts := Normalize(entries, idx)
	b := cfg.binner()
	words := WordFrequencies(PostTexts(posts), cfg.StopWords)

	r := Report{
		Account:           cfg.Account,
		Posts:             posts,
		ByHourOfDay:       b.Bin(posts, HourOfDay),
		ByWeekDay:         b.Bin(posts, WeekDay),
		ByDay:             b.Bin(posts, Day),
		ByMonth:           b.Bin(posts, Month),
		EngagementByMonth: b.EngagementByMonth(posts),
		Mentions:          Mentions(posts, idx),
		Retweets:          RetweetsOf(posts),
		Quotes:            QuotesOf(posts),
		Words:             words,
		WordCloud:         ScaleWordStats(words, cfg.WordLimit),
		TopPosts:          TopPosts(posts, cfg.Account, cfg.TopN),
		WorstPosts:        WorstPosts(posts, cfg.TopN),
	}
	if cfg.Account != "" {
		if a, ok := idx.Lookup(cfg.Account); ok {
			r.Profile = &a
		}
	}

	slog.Debug("analyze complete",
		slog.Int("entries", len(entries)),
		slog.Int("posts", len(posts)),
		slog.Int("authors", idx.Len()))
	return r
}
