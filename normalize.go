package feedstats

import (
	"fmt"
	"log/slog"
	"strings"
)

const retweetMarker = "RT @"

// Normalize converts raw timeline entries into posts, in entry order.
//
// Unrecognized entries are skipped. Every author and quoted author seen is
// recorded in idx when idx is non-nil.
func Normalize(entries []RawEntry, idx *AuthorIndex) []Post {
	posts := make([]Post, 0, len(entries))
	skipped := 0
	for _, raw := range entries {
		decoded := decodeEntry(raw)
		if decoded.kind == entryUnrecognized {
			skipped++
			continue
		}
		for _, t := range decoded.items {
			p := toPost(t)
			idx.observe(p)
			posts = append(posts, p)
		}
	}
	if skipped > 0 {
		slog.Debug("normalize: skipped unrecognized entries",
			slog.Int("skipped", skipped), slog.Int("posts", len(posts)))
	}
	return posts
}

func (idx *AuthorIndex) observe(p Post) {
	if idx == nil {
		return
	}
	idx.Put(p.Author)
	if p.QuotedPost == nil {
		return
	}
	if p.QuotedPost.Author.AvatarURL == "" && p.QuotedPost.Author.Bio == "" &&
		p.QuotedPost.Author.DisplayName == p.QuotedPost.Author.Handle {
		idx.putPlaceholder(p.QuotedPost.Author)
		return
	}
	idx.Put(p.QuotedPost.Author)
}

// toPost builds a Post from a tweet known to carry legacy data.
func toPost(t *tweetResult) Post {
	legacy := t.Legacy
	author, _ := t.author()

	p := Post{
		Permalink:     fmt.Sprintf("https://twitter.com/%s/status/%s", legacy.UserIDStr, legacy.IDStr),
		CreatedAt:     parseCreatedAt(legacy.CreatedAt),
		Text:          legacy.FullText,
		BookmarkCount: max(legacy.BookmarkCount, 0),
		FavoriteCount: max(legacy.FavoriteCount, 0),
		RetweetCount:  max(legacy.RetweetCount, 0),
		QuoteCount:    max(legacy.QuoteCount, 0),
		ReplyCount:    max(legacy.ReplyCount, 0),
	}
	if note := t.noteText(); note != "" {
		p.Text = note
	}

	// quoteSource is the tweet whose embedded quote describes the quoted post.
	quoteSource := t
	quoting := legacy.IsQuoteStatus

	if strings.HasPrefix(legacy.FullText, retweetMarker) {
		p.RetweetedHandle = retweetedHandle(legacy.FullText)
		if original := legacy.RetweetedStatusResult.tweet(); original != nil && original.Legacy != nil {
			p.Text = original.fullText()
			if note := original.noteText(); note != "" {
				p.Text = note
			}
			if a, ok := original.author(); ok {
				author = a
			}
			quoteSource = original
			quoting = quoting || original.Legacy.IsQuoteStatus
		} else {
			slog.Debug("retweet without embedded original", slog.String("permalink", p.Permalink))
		}
	}
	p.Author = author

	if quoting {
		p.QuotedPost = quotedPost(t, quoteSource)
	}
	return p
}

// quotedPost resolves the quote reference of outer, preferring the embedded
// quote of source and falling back to the quoted permalink alone.
func quotedPost(outer, source *tweetResult) *QuotedPost {
	permalink := quotedPermalink(outer)
	if permalink == "" && source != outer {
		permalink = quotedPermalink(source)
	}

	q := &QuotedPost{Permalink: permalink}
	embedded := source.QuotedStatusResult.tweet()
	if embedded == nil && source != outer {
		embedded = outer.QuotedStatusResult.tweet()
	}
	if a, ok := embedded.author(); ok {
		q.Author = a
		q.Text = embedded.fullText()
		if note := embedded.noteText(); note != "" {
			q.Text = note
		}
		return q
	}

	handle := handleFromStatusURL(permalink)
	q.Author = Author{Handle: handle, DisplayName: handle}
	return q
}

func quotedPermalink(t *tweetResult) string {
	if t == nil || t.Legacy == nil || t.Legacy.QuotedStatusPermalink == nil {
		return ""
	}
	return t.Legacy.QuotedStatusPermalink.Expanded
}

// retweetedHandle returns the handle between the retweet marker and the first colon.
func retweetedHandle(text string) string {
	head, _, _ := strings.Cut(text, ":")
	return strings.TrimPrefix(head, retweetMarker)
}
