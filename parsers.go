package feedstats

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// RawEntry is one undecoded timeline entry as exported by the platform.
type RawEntry = json.RawMessage

const createdAtLayout = "Mon Jan 02 15:04:05 +0000 2006"

// ParseEntries decodes an exported JSON array of timeline entries.
func ParseEntries(body []byte) ([]RawEntry, error) {
	var entries []RawEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("unmarshal timeline entries: %w", err)
	}
	return entries, nil
}

// ParseTimeline extracts the entries of a UserTweets or SearchTimeline
// GraphQL response.
func ParseTimeline(body []byte) ([]RawEntry, error) {
	var raw struct {
		Data struct {
			User struct {
				Result struct {
					Timeline struct {
						Timeline timelineObj `json:"timeline"`
					} `json:"timeline"`
					TimelineV2 struct {
						Timeline timelineObj `json:"timeline"`
					} `json:"timeline_v2"`
				} `json:"result"`
			} `json:"user"`
			SearchByRawQuery struct {
				SearchTimeline struct {
					Timeline timelineObj `json:"timeline"`
				} `json:"search_timeline"`
			} `json:"search_by_raw_query"`
		} `json:"data"`
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("unmarshal timeline: %w", err)
	}
	if len(raw.Errors) > 0 {
		return nil, fmt.Errorf("timeline API error: %s", raw.Errors[0].Message)
	}
	tl := raw.Data.User.Result.Timeline.Timeline
	if len(tl.Instructions) == 0 {
		tl = raw.Data.User.Result.TimelineV2.Timeline
	}
	if len(tl.Instructions) == 0 {
		tl = raw.Data.SearchByRawQuery.SearchTimeline.Timeline
	}

	var entries []RawEntry
	for _, instruction := range tl.Instructions {
		entries = append(entries, instruction.Entries...)
		if instruction.Entry != nil {
			entries = append(entries, instruction.Entry)
		}
	}
	return entries, nil
}

// --- Timeline types ---

type timelineObj struct {
	Instructions []timelineInstruction `json:"instructions"`
}

type timelineInstruction struct {
	Type    string     `json:"type"`
	Entries []RawEntry `json:"entries"`
	Entry   RawEntry   `json:"entry"`
}

type timelineEntry struct {
	EntryID string          `json:"entryId"`
	Content timelineContent `json:"content"`
}

type timelineContent struct {
	EntryType   string             `json:"entryType"`
	TypeName    string             `json:"__typename"`
	DisplayType string             `json:"displayType"`
	ItemContent *itemContent       `json:"itemContent"`
	Items       []conversationItem `json:"items"`
}

type conversationItem struct {
	EntryID string `json:"entryId"`
	Item    struct {
		ItemContent *itemContent `json:"itemContent"`
	} `json:"item"`
}

type itemContent struct {
	ItemType     string `json:"itemType"`
	TypeName     string `json:"__typename"`
	TweetResults struct {
		Result *tweetResult `json:"result"`
	} `json:"tweet_results"`
}

type userResult struct {
	TypeName string `json:"__typename"`
	Legacy   struct {
		Name            string `json:"name"`
		ScreenName      string `json:"screen_name"`
		Description     string `json:"description"`
		ProfileImageURL string `json:"profile_image_url_https"`
	} `json:"legacy"`
	Core struct {
		Name       string `json:"name"`
		ScreenName string `json:"screen_name"`
	} `json:"core"`
	Avatar struct {
		ImageURL string `json:"image_url"`
	} `json:"avatar"`
}

type tweetResult struct {
	TypeName string `json:"__typename"`
	RestID   string `json:"rest_id"`
	Core     struct {
		UserResults struct {
			Result *userResult `json:"result"`
		} `json:"user_results"`
	} `json:"core"`
	Legacy    *tweetLegacy `json:"legacy"`
	NoteTweet *struct {
		NoteTweetResults struct {
			Result struct {
				Text string `json:"text"`
			} `json:"result"`
		} `json:"note_tweet_results"`
	} `json:"note_tweet"`
	QuotedStatusResult *resultRef `json:"quoted_status_result"`

	// Tweet is set on TweetWithVisibilityResults wrappers.
	Tweet *tweetResult `json:"tweet"`
}

type tweetLegacy struct {
	IDStr                 string     `json:"id_str"`
	UserIDStr             string     `json:"user_id_str"`
	CreatedAt             string     `json:"created_at"`
	FullText              string     `json:"full_text"`
	BookmarkCount         int        `json:"bookmark_count"`
	FavoriteCount         int        `json:"favorite_count"`
	QuoteCount            int        `json:"quote_count"`
	ReplyCount            int        `json:"reply_count"`
	RetweetCount          int        `json:"retweet_count"`
	IsQuoteStatus         bool       `json:"is_quote_status"`
	RetweetedStatusResult *resultRef `json:"retweeted_status_result"`
	QuotedStatusPermalink *struct {
		URL      string `json:"url"`
		Expanded string `json:"expanded"`
		Display  string `json:"display"`
	} `json:"quoted_status_permalink"`
}

type resultRef struct {
	Result *tweetResult `json:"result"`
}

// --- Shape detection ---

type entryKind int

const (
	entryUnrecognized entryKind = iota
	entrySingle
	entryConversation
)

func (k entryKind) String() string {
	switch k {
	case entrySingle:
		return "single"
	case entryConversation:
		return "conversation"
	default:
		return "unrecognized"
	}
}

// decodedEntry is the tagged result of shape detection. items holds one
// tweet for entrySingle and the ordered group for entryConversation.
type decodedEntry struct {
	kind  entryKind
	items []*tweetResult
}

func decodeEntry(raw RawEntry) decodedEntry {
	var entry timelineEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		slog.Debug("skip undecodable timeline entry", slog.Any("error", err))
		return decodedEntry{}
	}
	content := entry.Content

	if content.TypeName == "TimelineTimelineItem" || content.EntryType == "TimelineTimelineItem" {
		if t := tweetFromItem(content.ItemContent); t != nil {
			return decodedEntry{kind: entrySingle, items: []*tweetResult{t}}
		}
	}

	if content.DisplayType == "VerticalConversation" && len(content.Items) > 0 {
		items := make([]*tweetResult, 0, len(content.Items))
		for _, child := range content.Items {
			t := tweetFromItem(child.Item.ItemContent)
			if t == nil {
				slog.Debug("skip conversation with unrecognized item",
					slog.String("entry", entry.EntryID), slog.String("item", child.EntryID))
				return decodedEntry{}
			}
			items = append(items, t)
		}
		return decodedEntry{kind: entryConversation, items: items}
	}

	return decodedEntry{}
}

// tweetFromItem returns the tweet carried by an item, or nil when the item is
// not a tweet with legacy data.
func tweetFromItem(ic *itemContent) *tweetResult {
	if ic == nil {
		return nil
	}
	if ic.ItemType != "TimelineTweet" && ic.TypeName != "TimelineTweet" {
		return nil
	}
	t := ic.TweetResults.Result.unwrap()
	if t == nil || t.Legacy == nil {
		return nil
	}
	return t
}

// unwrap follows TweetWithVisibilityResults indirection.
func (r *tweetResult) unwrap() *tweetResult {
	if r == nil {
		return nil
	}
	if r.Legacy == nil && r.Tweet != nil {
		return r.Tweet
	}
	return r
}

func (r *resultRef) tweet() *tweetResult {
	if r == nil {
		return nil
	}
	return r.Result.unwrap()
}

func (r *tweetResult) author() (Author, bool) {
	if r == nil || r.Core.UserResults.Result == nil {
		return Author{}, false
	}
	u := r.Core.UserResults.Result
	a := Author{
		Handle:      u.Legacy.ScreenName,
		DisplayName: u.Legacy.Name,
		Bio:         u.Legacy.Description,
		AvatarURL:   u.Legacy.ProfileImageURL,
	}
	if a.Handle == "" {
		a.Handle = u.Core.ScreenName
	}
	if a.DisplayName == "" {
		a.DisplayName = u.Core.Name
	}
	if a.AvatarURL == "" {
		a.AvatarURL = u.Avatar.ImageURL
	}
	return a, a.Handle != ""
}

func (r *tweetResult) fullText() string {
	if r == nil || r.Legacy == nil {
		return ""
	}
	return r.Legacy.FullText
}

func (r *tweetResult) noteText() string {
	if r == nil || r.NoteTweet == nil {
		return ""
	}
	return r.NoteTweet.NoteTweetResults.Result.Text
}

func parseCreatedAt(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse(createdAtLayout, v)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, v); err != nil {
			return time.Time{}
		}
	}
	return t
}

// handleFromStatusURL extracts the account segment of a status URL such as
// https://twitter.com/<handle>/status/<id>.
func handleFromStatusURL(u string) string {
	parts := strings.Split(u, "/")
	if len(parts) < 4 {
		return ""
	}
	return parts[3]
}
