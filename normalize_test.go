package feedstats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_SinglePost(t *testing.T) {
	entries := []RawEntry{singleEntry(tweetJSON("1", "alice", "Hello world", base))}

	posts := Normalize(entries, nil)
	require.Len(t, posts, 1)
	p := posts[0]
	assert.Equal(t, "alice", p.Author.Handle)
	assert.Equal(t, "alice name", p.Author.DisplayName)
	assert.Equal(t, "bio of alice", p.Author.Bio)
	assert.Equal(t, "https://pbs.twimg.com/alice.jpg", p.Author.AvatarURL)
	assert.Equal(t, "https://twitter.com/ualice/status/1", p.Permalink)
	assert.True(t, p.CreatedAt.Equal(base))
	assert.Equal(t, "Hello world", p.Text)
	assert.Equal(t, 1, p.BookmarkCount)
	assert.Equal(t, 2, p.FavoriteCount)
	assert.Equal(t, 3, p.QuoteCount)
	assert.Equal(t, 4, p.ReplyCount)
	assert.Equal(t, 5, p.RetweetCount)
	assert.Nil(t, p.QuotedPost)
	assert.False(t, p.IsRetweet())
}

func TestNormalize_NoteBodyReplacesTruncatedText(t *testing.T) {
	entries := []RawEntry{singleEntry(tweetJSON("1", "alice", "Truncated…", base, withNote("The full long text")))}

	posts := Normalize(entries, nil)
	require.Len(t, posts, 1)
	assert.Equal(t, "The full long text", posts[0].Text)
}

func TestNormalize_RetweetTakesPrecedenceOverNote(t *testing.T) {
	original := tweetJSON("9", "x", "original", base.Add(-time.Hour))
	rt := tweetJSON("2", "alice", "RT @x: hello", base, withNote("full text"), withRetweet(original))

	posts := Normalize([]RawEntry{singleEntry(rt)}, nil)
	require.Len(t, posts, 1)
	p := posts[0]
	assert.Equal(t, "original", p.Text)
	assert.Equal(t, "x", p.RetweetedHandle)
	assert.Equal(t, "x", p.Author.Handle, "author is the original author")
	assert.Equal(t, "https://twitter.com/ualice/status/2", p.Permalink)
	assert.True(t, p.IsRetweet())
}

func TestNormalize_RetweetOfLongPostUsesOriginalNote(t *testing.T) {
	original := tweetJSON("9", "x", "short…", base, withNote("long original"))
	rt := tweetJSON("2", "alice", "RT @x: short…", base, withRetweet(original))

	posts := Normalize([]RawEntry{singleEntry(rt)}, nil)
	require.Len(t, posts, 1)
	assert.Equal(t, "long original", posts[0].Text)
}

func TestNormalize_RetweetWithoutEmbeddedOriginal(t *testing.T) {
	rt := tweetJSON("2", "alice", "RT @Bob_1: something", base)

	posts := Normalize([]RawEntry{singleEntry(rt)}, nil)
	require.Len(t, posts, 1)
	assert.Equal(t, "Bob_1", posts[0].RetweetedHandle)
	assert.Equal(t, "alice", posts[0].Author.Handle)
	assert.Equal(t, "RT @Bob_1: something", posts[0].Text)
}

func TestNormalize_Quote(t *testing.T) {
	quoted := tweetJSON("7", "carol", "quoted words", base.Add(-time.Hour))
	q := tweetJSON("3", "alice", "look at this", base,
		withQuote("https://twitter.com/carol/status/7", quoted))

	posts := Normalize([]RawEntry{singleEntry(q)}, nil)
	require.Len(t, posts, 1)
	p := posts[0]
	require.NotNil(t, p.QuotedPost)
	assert.Equal(t, "alice", p.Author.Handle)
	assert.Equal(t, "carol", p.QuotedPost.Author.Handle)
	assert.Equal(t, "carol name", p.QuotedPost.Author.DisplayName)
	assert.Equal(t, "quoted words", p.QuotedPost.Text)
	assert.Equal(t, "https://twitter.com/carol/status/7", p.QuotedPost.Permalink)
	assert.Empty(t, p.RetweetedHandle)
}

func TestNormalize_QuoteWithoutEmbeddedIsDegraded(t *testing.T) {
	q := tweetJSON("3", "alice", "look", base, withQuote("https://twitter.com/Dave/status/8", nil))

	posts := Normalize([]RawEntry{singleEntry(q)}, nil)
	require.Len(t, posts, 1)
	require.NotNil(t, posts[0].QuotedPost)
	qp := posts[0].QuotedPost
	assert.Equal(t, "Dave", qp.Author.Handle)
	assert.Equal(t, "Dave", qp.Author.DisplayName)
	assert.Empty(t, qp.Author.AvatarURL)
	assert.Empty(t, qp.Text)
	assert.Equal(t, "https://twitter.com/Dave/status/8", qp.Permalink)
}

func TestNormalize_RetweetOfQuoteUsesInnerQuote(t *testing.T) {
	quoted := tweetJSON("7", "carol", "inner quoted", base.Add(-2*time.Hour))
	original := tweetJSON("9", "bob", "bob quoting carol", base.Add(-time.Hour),
		withQuote("https://twitter.com/carol/status/7", quoted))
	rt := tweetJSON("2", "alice", "RT @bob: bob quoting carol", base, withRetweet(original))

	posts := Normalize([]RawEntry{singleEntry(rt)}, nil)
	require.Len(t, posts, 1)
	p := posts[0]
	assert.Equal(t, "bob", p.Author.Handle)
	assert.Equal(t, "bob", p.RetweetedHandle)
	require.NotNil(t, p.QuotedPost)
	assert.Equal(t, "carol", p.QuotedPost.Author.Handle)
	assert.Equal(t, "inner quoted", p.QuotedPost.Text)
	assert.Equal(t, "https://twitter.com/carol/status/7", p.QuotedPost.Permalink)
}

func TestNormalize_Conversation(t *testing.T) {
	entries := []RawEntry{conversationEntry(
		tweetItem(tweetJSON("1", "alice", "first", base)),
		tweetItem(tweetJSON("2", "alice", "second", base.Add(time.Minute))),
	)}

	posts := Normalize(entries, nil)
	require.Len(t, posts, 2)
	assert.Equal(t, "first", posts[0].Text)
	assert.Equal(t, "second", posts[1].Text)
}

func TestNormalize_ConversationWithUnrecognizedItemIsSkipped(t *testing.T) {
	entries := []RawEntry{
		singleEntry(tweetJSON("1", "alice", "kept", base)),
		conversationEntry(
			tweetItem(tweetJSON("2", "alice", "dropped", base)),
			obj{"itemType": "TimelineTimelineCursor"},
		),
		singleEntry(tweetJSON("3", "alice", "also kept", base)),
	}

	posts := Normalize(entries, nil)
	require.Len(t, posts, 2)
	assert.Equal(t, "kept", posts[0].Text)
	assert.Equal(t, "also kept", posts[1].Text)
}

func TestNormalize_SkipsUnrecognizedEntries(t *testing.T) {
	noLegacy := tweetJSON("4", "alice", "x", base)
	delete(noLegacy, "legacy")

	entries := []RawEntry{
		cursorEntry(),
		RawEntry(`{"content":`),
		RawEntry(`42`),
		mustRaw(obj{"content": obj{"__typename": "TimelineTimelineItem", "itemContent": obj{"itemType": "TimelineUser"}}}),
		singleEntry(noLegacy),
		singleEntry(tweetJSON("5", "alice", "valid", base)),
	}

	posts := Normalize(entries, nil)
	require.Len(t, posts, 1)
	assert.Equal(t, "valid", posts[0].Text)
}

func TestNormalize_VisibilityWrapper(t *testing.T) {
	inner := tweetJSON("6", "alice", "limited", base)
	wrapped := obj{"__typename": "TweetWithVisibilityResults", "rest_id": "6", "tweet": inner}

	posts := Normalize([]RawEntry{singleEntry(wrapped)}, nil)
	require.Len(t, posts, 1)
	assert.Equal(t, "limited", posts[0].Text)
}

func TestNormalize_MissingOptionalFields(t *testing.T) {
	raw := RawEntry(`{"content":{"__typename":"TimelineTimelineItem","itemContent":{"itemType":"TimelineTweet",
		"tweet_results":{"result":{"legacy":{"full_text":"bare"}}}}}}`)

	posts := Normalize([]RawEntry{raw}, nil)
	require.Len(t, posts, 1)
	assert.Equal(t, "bare", posts[0].Text)
	assert.Empty(t, posts[0].Author.Handle)
	assert.True(t, posts[0].CreatedAt.IsZero())
}

func TestNormalize_Idempotent(t *testing.T) {
	quoted := tweetJSON("7", "carol", "q", base)
	entries := []RawEntry{
		singleEntry(tweetJSON("1", "alice", "a", base, withQuote("https://twitter.com/carol/status/7", quoted))),
		conversationEntry(tweetItem(tweetJSON("2", "bob", "b", base))),
	}

	first := Normalize(entries, NewAuthorIndex())
	second := Normalize(entries, NewAuthorIndex())
	require.Equal(t, first, second)
}

func TestNormalize_FillsAuthorIndex(t *testing.T) {
	quoted := tweetJSON("7", "Carol", "q", base)
	entries := []RawEntry{
		singleEntry(tweetJSON("1", "Alice", "a", base, withQuote("https://twitter.com/Carol/status/7", quoted))),
		// A later degraded quote must not downgrade Carol's real profile.
		singleEntry(tweetJSON("2", "bob", "b", base, withQuote("https://twitter.com/carol/status/8", nil))),
		singleEntry(tweetJSON("3", "bob", "c", base, withQuote("https://twitter.com/erin/status/9", nil))),
	}

	idx := NewAuthorIndex()
	Normalize(entries, idx)

	assert.Equal(t, 4, idx.Len())
	alice, ok := idx.Lookup("alice")
	require.True(t, ok)
	assert.Equal(t, "Alice", alice.Handle)
	carol, ok := idx.Lookup("CAROL")
	require.True(t, ok)
	assert.Equal(t, "Carol name", carol.DisplayName)
	erin, ok := idx.Lookup("erin")
	require.True(t, ok)
	assert.Equal(t, "erin", erin.DisplayName)
}

func TestParseEntries(t *testing.T) {
	body := []byte(`[` + string(singleEntry(tweetJSON("1", "alice", "hi", base))) + `,` + string(cursorEntry()) + `]`)

	entries, err := ParseEntries(body)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Len(t, Normalize(entries, nil), 1)

	_, err = ParseEntries([]byte(`{"not":"an array"}`))
	assert.Error(t, err)
}

func TestParseTimeline(t *testing.T) {
	body := `{
		"data": {
			"user": {
				"result": {
					"timeline_v2": {
						"timeline": {
							"instructions": [
								{"type": "TimelineClearCache"},
								{"type": "TimelinePinEntry", "entry": ` + string(singleEntry(tweetJSON("1", "alice", "pinned", base))) + `},
								{"type": "TimelineAddEntries", "entries": [
									` + string(singleEntry(tweetJSON("2", "alice", "latest", base))) + `,
									` + string(cursorEntry()) + `
								]}
							]
						}
					}
				}
			}
		}
	}`

	entries, err := ParseTimeline([]byte(body))
	require.NoError(t, err)
	require.Len(t, entries, 3)

	posts := Normalize(entries, nil)
	require.Len(t, posts, 2)
	assert.Equal(t, "pinned", posts[0].Text)
	assert.Equal(t, "latest", posts[1].Text)
}

func TestParseTimeline_Search(t *testing.T) {
	body := `{"data":{"search_by_raw_query":{"search_timeline":{"timeline":{"instructions":[
		{"type":"TimelineAddEntries","entries":[` + string(singleEntry(tweetJSON("1", "alice", "found", base))) + `]}
	]}}}}}`

	entries, err := ParseTimeline([]byte(body))
	require.NoError(t, err)
	posts := Normalize(entries, nil)
	require.Len(t, posts, 1)
	assert.Equal(t, "found", posts[0].Text)
}

func TestParseTimeline_APIError(t *testing.T) {
	_, err := ParseTimeline([]byte(`{"errors":[{"message":"Rate limit exceeded"}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Rate limit exceeded")

	_, err = ParseTimeline([]byte(`{invalid`))
	assert.Error(t, err)
}

func TestRetweetedHandle(t *testing.T) {
	tests := []struct {
		text     string
		expected string
	}{
		{"RT @x: hello", "x"},
		{"RT @Some_One: a: b", "Some_One"},
		{"RT @nocolon", "nocolon"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, retweetedHandle(tt.text), tt.text)
	}
}

func TestHandleFromStatusURL(t *testing.T) {
	assert.Equal(t, "carol", handleFromStatusURL("https://twitter.com/carol/status/7"))
	assert.Equal(t, "", handleFromStatusURL("https://t.co"))
	assert.Equal(t, "", handleFromStatusURL(""))
}
