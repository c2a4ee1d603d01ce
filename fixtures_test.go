package feedstats

import (
	"encoding/json"
	"time"
)

// Builders for timeline entries shaped like the platform export.

type obj = map[string]any

type tweetOpt func(result, legacy obj)

func userJSON(handle string) obj {
	return obj{"result": obj{
		"__typename": "User",
		"legacy": obj{
			"screen_name":             handle,
			"name":                    handle + " name",
			"description":             "bio of " + handle,
			"profile_image_url_https": "https://pbs.twimg.com/" + handle + ".jpg",
		},
	}}
}

func createdAt(t time.Time) string {
	return t.UTC().Format(createdAtLayout)
}

func tweetJSON(id, handle, text string, at time.Time, opts ...tweetOpt) obj {
	legacy := obj{
		"id_str":         id,
		"user_id_str":    "u" + handle,
		"created_at":     createdAt(at),
		"full_text":      text,
		"bookmark_count": 1,
		"favorite_count": 2,
		"quote_count":    3,
		"reply_count":    4,
		"retweet_count":  5,
	}
	result := obj{
		"__typename": "Tweet",
		"rest_id":    id,
		"core":       obj{"user_results": userJSON(handle)},
		"legacy":     legacy,
	}
	for _, opt := range opts {
		opt(result, legacy)
	}
	return result
}

func withNote(text string) tweetOpt {
	return func(result, _ obj) {
		result["note_tweet"] = obj{"note_tweet_results": obj{"result": obj{"text": text}}}
	}
}

func withStats(favorites, retweets, replies int) tweetOpt {
	return func(_, legacy obj) {
		legacy["favorite_count"] = favorites
		legacy["retweet_count"] = retweets
		legacy["reply_count"] = replies
	}
}

// withQuote marks the tweet as quoting permalink with an optional embedded quote.
func withQuote(permalink string, quoted obj) tweetOpt {
	return func(result, legacy obj) {
		legacy["is_quote_status"] = true
		legacy["quoted_status_permalink"] = obj{"expanded": permalink, "display": "twitter.com/..."}
		if quoted != nil {
			result["quoted_status_result"] = obj{"result": quoted}
		}
	}
}

func withRetweet(original obj) tweetOpt {
	return func(_, legacy obj) {
		legacy["retweeted_status_result"] = obj{"result": original}
	}
}

func tweetItem(tweet obj) obj {
	return obj{
		"itemType":      "TimelineTweet",
		"__typename":    "TimelineTweet",
		"tweet_results": obj{"result": tweet},
	}
}

func mustRaw(v any) RawEntry {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func singleEntry(tweet obj) RawEntry {
	return mustRaw(obj{
		"entryId": "tweet-" + tweet["rest_id"].(string),
		"content": obj{
			"entryType":   "TimelineTimelineItem",
			"__typename":  "TimelineTimelineItem",
			"itemContent": tweetItem(tweet),
		},
	})
}

func conversationEntry(items ...obj) RawEntry {
	children := make([]obj, len(items))
	for i, it := range items {
		children[i] = obj{"entryId": "conversation-item", "item": obj{"itemContent": it}}
	}
	return mustRaw(obj{
		"entryId": "profile-conversation-1",
		"content": obj{
			"entryType":   "TimelineTimelineModule",
			"__typename":  "TimelineTimelineModule",
			"displayType": "VerticalConversation",
			"items":       children,
		},
	})
}

func cursorEntry() RawEntry {
	return mustRaw(obj{
		"entryId": "cursor-bottom-1",
		"content": obj{
			"entryType":  "TimelineTimelineCursor",
			"__typename": "TimelineTimelineCursor",
			"value":      "DAABCgABF",
			"cursorType": "Bottom",
		},
	})
}

var base = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func post(handle, text string, at time.Time) Post {
	return Post{
		Author:    Author{Handle: handle, DisplayName: handle},
		Permalink: "https://twitter.com/" + handle + "/status/" + at.Format("150405"),
		CreatedAt: at,
		Text:      text,
	}
}
