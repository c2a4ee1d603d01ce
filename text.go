package feedstats

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/anatolykoptev/go-feedstats/stopwords"
)

// specialChars are replaced by spaces before tokenizing post text.
const specialChars = ".,!?@#$%^&*()_+-=[]{};':„\"\\|<>/~`"

func replaceChars(s, chars string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(chars, r) {
			return ' '
		}
		return r
	}, s)
}

// replaceWordChars is replaceChars with specialChars, except that an '@'
// opening a word is kept so the mention can be discarded as a whole token.
// An '@' inside a word, as in an e-mail address, splits it.
func replaceWordChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prev := ' '
	for _, r := range s {
		switch {
		case r == '@' && !isWordRune(prev):
			b.WriteRune(r)
		case strings.ContainsRune(specialChars, r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
		prev = r
	}
	return b.String()
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isURLToken(token string) bool {
	return strings.HasPrefix(token, "http") || strings.Contains(token, "/")
}

func isNumeric(token string) bool {
	for i := 0; i < len(token); i++ {
		if token[i] < '0' || token[i] > '9' {
			return false
		}
	}
	return token != ""
}

// wordTokens returns the countable words of text.
func wordTokens(text string, stop stopwords.Set) []string {
	fields := strings.Fields(text)
	kept := fields[:0]
	for _, f := range fields {
		if !isURLToken(f) {
			kept = append(kept, f)
		}
	}

	var tokens []string
	for _, token := range strings.Fields(replaceWordChars(strings.Join(kept, " "))) {
		token = strings.TrimSuffix(token, ".")
		token = strings.TrimSpace(strings.ToLower(token))
		switch {
		case utf8.RuneCountInString(token) < 2:
		case isNumeric(token):
		case strings.HasPrefix(token, "@"):
		case stop.Contains(token):
		default:
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// WordFrequencies counts the words of texts, ignoring URLs, punctuation,
// numbers, mentions, words shorter than two characters and stop words.
// The result is sorted by count descending, ties in first-occurrence order.
func WordFrequencies(texts []string, stop stopwords.Set) []WordStat {
	index := make(map[string]int)
	stats := []WordStat{}
	for _, text := range texts {
		for _, token := range wordTokens(text, stop) {
			i, ok := index[token]
			if !ok {
				i = len(stats)
				index[token] = i
				stats = append(stats, WordStat{Text: token})
			}
			stats[i].Count++
		}
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].Count > stats[j].Count })
	return stats
}

// PostTexts returns the text of every post.
func PostTexts(posts []Post) []string {
	texts := make([]string, len(posts))
	for i, p := range posts {
		texts[i] = p.Text
	}
	return texts
}

// ScaledWord is a word with a display weight for word clouds.
type ScaledWord struct {
	Text string  `json:"text"`
	Size float64 `json:"size"`
}

const (
	minWordSize   = 10
	wordSizeRange = 72
)

// ScaleWordStats maps the first limit stats to sizes in [10, 82] relative to
// the most frequent word. limit <= 0 keeps all. Empty input yields an empty result.
func ScaleWordStats(stats []WordStat, limit int) []ScaledWord {
	maxCount := 0
	for _, s := range stats {
		maxCount = max(maxCount, s.Count)
	}
	if maxCount == 0 {
		return []ScaledWord{}
	}
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	out := make([]ScaledWord, len(stats))
	for i, s := range stats {
		out[i] = ScaledWord{
			Text: s.Text,
			Size: minWordSize + float64(s.Count)/float64(maxCount)*wordSizeRange,
		}
	}
	return out
}

const minQueryLen = 3

// Search returns the posts whose text contains any query word as a substring
// of one of its tokens, newest first. Queries shorter than three characters
// and query words shorter than three characters are ignored.
func Search(posts []Post, query string) []Post {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < minQueryLen {
		return []Post{}
	}
	var needles []string
	for _, q := range strings.Fields(query) {
		if utf8.RuneCountInString(q) >= minQueryLen {
			needles = append(needles, strings.ToLower(q))
		}
	}

	matches := []Post{}
	for _, p := range posts {
		if matchesAny(p.Text, needles) {
			matches = append(matches, p)
		}
	}
	sortNewestFirst(matches)
	return matches
}

func matchesAny(text string, needles []string) bool {
	for _, token := range strings.Fields(replaceChars(text, specialChars)) {
		token = strings.ToLower(token)
		for _, n := range needles {
			if strings.Contains(token, n) {
				return true
			}
		}
	}
	return false
}

// SearchResult summarizes a search over a post collection.
type SearchResult struct {
	Query   string  `json:"query"`
	Matches []Post  `json:"matches"`
	Total   int     `json:"total"`
	Ratio   float64 `json:"ratio"`
}

// SearchSummary runs Search and reports the share of matching posts.
func SearchSummary(posts []Post, query string) SearchResult {
	matches := Search(posts, query)
	res := SearchResult{Query: query, Matches: matches, Total: len(posts)}
	if len(posts) > 0 {
		res.Ratio = float64(len(matches)) / float64(len(posts))
	}
	return res
}

func sortNewestFirst(posts []Post) {
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
}
