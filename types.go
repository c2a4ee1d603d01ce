package feedstats

import "time"

// Author is the public profile of an account seen in a timeline.
type Author struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName"`
	Bio         string `json:"bio"`
	AvatarURL   string `json:"avatarUrl"`
}

// QuotedPost is the embedded post referenced by a quoting post.
type QuotedPost struct {
	Permalink string `json:"permalink"`
	Author    Author `json:"author"`
	Text      string `json:"text"`
}

// Post is one normalized feed item: a plain post or an unwrapped retweet.
//
// When RetweetedHandle is set, Author is the original author of the retweeted
// content, not the account that retweeted it.
type Post struct {
	Author          Author      `json:"author"`
	Permalink       string      `json:"permalink"`
	CreatedAt       time.Time   `json:"createdAt"`
	Text            string      `json:"text"`
	BookmarkCount   int         `json:"bookmarkCount"`
	FavoriteCount   int         `json:"favoriteCount"`
	RetweetCount    int         `json:"retweetCount"`
	QuoteCount      int         `json:"quoteCount"`
	ReplyCount      int         `json:"replyCount"`
	QuotedPost      *QuotedPost `json:"quotedPost,omitempty"`
	RetweetedHandle string      `json:"retweetedHandle,omitempty"`
}

// IsRetweet reports whether the post was unwrapped from a retweet.
func (p Post) IsRetweet() bool { return p.RetweetedHandle != "" }

// Bucket is a labeled aggregation slot.
type Bucket struct {
	Label string `json:"label"`
	Count int    `json:"count"`
	Posts []Post `json:"items"`
}

// WordStat is a vocabulary entry with its occurrence count.
type WordStat struct {
	Text  string `json:"text"`
	Count int    `json:"count"`
}

// LeaderboardEntry groups the posts related to one account.
type LeaderboardEntry struct {
	Subject Author `json:"subject"`
	Posts   []Post `json:"posts"`
}

// TimestampedCount is one viewer-count sample, timestamp in epoch milliseconds.
type TimestampedCount struct {
	Timestamp int64 `json:"timestamp"`
	Count     int   `json:"count"`
}
