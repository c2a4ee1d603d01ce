package viewers

import (
	"net/url"
	"strconv"
	"strings"
)

const youtubeAPIBase = "https://www.googleapis.com/youtube/v3"

// playlistPageSize is the largest page playlistItems.list returns.
const playlistPageSize = 50

func apiURL(base, resource string, q url.Values) string {
	return strings.TrimSuffix(base, "/") + "/" + resource + "?" + q.Encode()
}

// videosURL returns the videos.list URL requesting live streaming details.
func videosURL(base, videoID, apiKey string) string {
	q := url.Values{}
	q.Set("part", "liveStreamingDetails")
	q.Set("id", videoID)
	q.Set("key", apiKey)
	return apiURL(base, "videos", q)
}

// searchChannelURL returns the search.list URL for the best channel match of query.
func searchChannelURL(base, query, apiKey string) string {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("type", "channel")
	q.Set("maxResults", "1")
	q.Set("q", query)
	q.Set("key", apiKey)
	return apiURL(base, "search", q)
}

// channelsURL returns the channels.list URL for a channel's related playlists.
func channelsURL(base, channelID, apiKey string) string {
	q := url.Values{}
	q.Set("part", "contentDetails")
	q.Set("id", channelID)
	q.Set("key", apiKey)
	return apiURL(base, "channels", q)
}

func playlistItemsURL(base, playlistID, pageToken, apiKey string) string {
	q := url.Values{}
	q.Set("part", "contentDetails")
	q.Set("playlistId", playlistID)
	q.Set("maxResults", strconv.Itoa(playlistPageSize))
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
	q.Set("key", apiKey)
	return apiURL(base, "playlistItems", q)
}

// videoStatsURL returns the videos.list URL for snippet and statistics of up
// to 50 videos.
func videoStatsURL(base string, videoIDs []string, apiKey string) string {
	q := url.Values{}
	q.Set("part", "snippet,statistics")
	q.Set("id", strings.Join(videoIDs, ","))
	q.Set("key", apiKey)
	return apiURL(base, "videos", q)
}
