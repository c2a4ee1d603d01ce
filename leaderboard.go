package feedstats

import (
	"regexp"
	"sort"
)

var mentionRe = regexp.MustCompile(`@(\w+)`)

// extractHandles returns the distinct @handles of text in order of first
// appearance, compared case-insensitively.
func extractHandles(text string) []string {
	matches := mentionRe.FindAllStringSubmatch(text, -1)
	seen := make(map[string]bool, len(matches))
	var handles []string
	for _, m := range matches {
		key := handleKey(m[1])
		if seen[key] {
			continue
		}
		seen[key] = true
		handles = append(handles, m[1])
	}
	return handles
}

// leaderboard accumulates entries keyed by lower-cased handle in insertion order.
type leaderboard struct {
	index   map[string]int
	entries []LeaderboardEntry
}

func newLeaderboard() *leaderboard {
	return &leaderboard{index: make(map[string]int)}
}

// add appends p to the entry for handle, creating it with subject() when new.
func (lb *leaderboard) add(handle string, p Post, subject func() Author) {
	key := handleKey(handle)
	i, ok := lb.index[key]
	if !ok {
		i = len(lb.entries)
		lb.index[key] = i
		lb.entries = append(lb.entries, LeaderboardEntry{Subject: subject()})
	}
	lb.entries[i].Posts = append(lb.entries[i].Posts, p)
}

// ranked sorts each entry newest first and the entries by post count, ties in
// insertion order.
func (lb *leaderboard) ranked() []LeaderboardEntry {
	for i := range lb.entries {
		sortNewestFirst(lb.entries[i].Posts)
	}
	out := lb.entries
	if out == nil {
		out = []LeaderboardEntry{}
	}
	sort.SliceStable(out, func(i, j int) bool { return len(out[i].Posts) > len(out[j].Posts) })
	return out
}

// Mentions ranks the accounts mentioned in post texts. Each post counts once
// per account; handles are resolved against idx, falling back to a placeholder
// profile.
func Mentions(posts []Post, idx *AuthorIndex) []LeaderboardEntry {
	lb := newLeaderboard()
	for _, p := range posts {
		for _, handle := range extractHandles(p.Text) {
			lb.add(handle, p, func() Author { return idx.Resolve(handle) })
		}
	}
	return lb.ranked()
}

// RetweetsOf ranks retweeted accounts. The subject is the author stored on the
// first retweet seen, which is the original content's author.
func RetweetsOf(posts []Post) []LeaderboardEntry {
	lb := newLeaderboard()
	for _, p := range posts {
		if p.RetweetedHandle == "" {
			continue
		}
		lb.add(p.RetweetedHandle, p, func() Author { return p.Author })
	}
	return lb.ranked()
}

// QuotesOf ranks quoted accounts.
func QuotesOf(posts []Post) []LeaderboardEntry {
	lb := newLeaderboard()
	for _, p := range posts {
		if p.QuotedPost == nil || handleKey(p.QuotedPost.Author.Handle) == "" {
			continue
		}
		lb.add(p.QuotedPost.Author.Handle, p, func() Author { return p.QuotedPost.Author })
	}
	return lb.ranked()
}
