package feedstats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMentions_MergesCaseVariants(t *testing.T) {
	older := post("a", "hi @Foo", base)
	newer := post("a", "hey @foo", base.Add(time.Hour))

	board := Mentions([]Post{older, newer}, nil)
	require.Len(t, board, 1)
	assert.Equal(t, "Foo", board[0].Subject.Handle)
	require.Len(t, board[0].Posts, 2)
	assert.Equal(t, "hey @foo", board[0].Posts[0].Text, "newest first")
}

func TestMentions_CountsPostOncePerHandle(t *testing.T) {
	p := post("a", "@bob @bob and @BOB again, also @carol", base)

	board := Mentions([]Post{p}, nil)
	require.Len(t, board, 2)
	assert.Len(t, board[0].Posts, 1)
	assert.Len(t, board[1].Posts, 1)
}

func TestMentions_ResolvesProfiles(t *testing.T) {
	idx := NewAuthorIndex()
	idx.Put(Author{Handle: "Bob", DisplayName: "Bob B.", Bio: "hi", AvatarURL: "https://img/bob.jpg"})

	board := Mentions([]Post{post("a", "thanks @bob and @unknown_1", base)}, idx)
	require.Len(t, board, 2)
	assert.Equal(t, Author{Handle: "Bob", DisplayName: "Bob B.", Bio: "hi", AvatarURL: "https://img/bob.jpg"}, board[0].Subject)
	assert.Equal(t, Author{Handle: "unknown_1", DisplayName: "unknown_1"}, board[1].Subject)
}

func TestMentions_RankedByCountThenInsertion(t *testing.T) {
	posts := []Post{
		post("a", "@first", base),
		post("a", "@second", base.Add(time.Minute)),
		post("a", "@third @second", base.Add(2*time.Minute)),
		post("a", "@third", base.Add(3*time.Minute)),
	}

	board := Mentions(posts, nil)
	require.Len(t, board, 3)
	assert.Equal(t, "second", board[0].Subject.Handle)
	assert.Equal(t, "third", board[1].Subject.Handle)
	assert.Equal(t, "first", board[2].Subject.Handle)
}

func TestMentions_Empty(t *testing.T) {
	board := Mentions([]Post{post("a", "no handles here", base)}, nil)
	assert.NotNil(t, board)
	assert.Empty(t, board)
}

func TestRetweetsOf(t *testing.T) {
	r1 := post("x", "one", base)
	r1.RetweetedHandle = "x"
	r2 := post("X", "two", base.Add(time.Hour))
	r2.RetweetedHandle = "X"
	r3 := post("y", "three", base)
	r3.RetweetedHandle = "y"
	plain := post("a", "plain", base)

	board := RetweetsOf([]Post{r3, r1, plain, r2})
	require.Len(t, board, 2)
	assert.Equal(t, "x", board[0].Subject.Handle, "subject is the stored original author")
	require.Len(t, board[0].Posts, 2)
	assert.Equal(t, "two", board[0].Posts[0].Text)
	assert.Equal(t, "y", board[1].Subject.Handle)
}

func TestQuotesOf(t *testing.T) {
	carol := Author{Handle: "carol", DisplayName: "Carol"}
	q1 := post("a", "q1", base)
	q1.QuotedPost = &QuotedPost{Author: carol, Text: "c"}
	q2 := post("a", "q2", base.Add(time.Hour))
	q2.QuotedPost = &QuotedPost{Author: Author{Handle: "Carol", DisplayName: "Carol"}}
	q3 := post("a", "q3", base)
	q3.QuotedPost = &QuotedPost{Author: Author{Handle: "dave"}}
	broken := post("a", "no handle", base)
	broken.QuotedPost = &QuotedPost{}

	board := QuotesOf([]Post{q3, q1, q2, broken})
	require.Len(t, board, 2)
	assert.Equal(t, carol, board[0].Subject)
	assert.Equal(t, []string{"q2", "q1"}, []string{board[0].Posts[0].Text, board[0].Posts[1].Text})
	assert.Equal(t, "dave", board[1].Subject.Handle)
}

func TestExtractHandles(t *testing.T) {
	assert.Equal(t, []string{"a_b", "C1"}, extractHandles("@a_b: hi @C1, @a_B"))
	assert.Empty(t, extractHandles("mail me at @ nothing"))
}
