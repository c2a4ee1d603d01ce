package viewers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// ChannelInfo identifies a YouTube channel.
type ChannelInfo struct {
	ChannelID   string `json:"channelId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail,omitempty"`
}

// Statistics are the public counters of a video.
type Statistics struct {
	ViewCount    int64 `json:"viewCount"`
	LikeCount    int64 `json:"likeCount"`
	CommentCount int64 `json:"commentCount"`
}

// UnmarshalJSON accepts counts as numbers or as the numeric strings the Data
// API returns. Hidden counters read as 0.
func (s *Statistics) UnmarshalJSON(b []byte) error {
	var raw struct {
		ViewCount    lenientInt `json:"viewCount"`
		LikeCount    lenientInt `json:"likeCount"`
		CommentCount lenientInt `json:"commentCount"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*s = Statistics{
		ViewCount:    int64(raw.ViewCount),
		LikeCount:    int64(raw.LikeCount),
		CommentCount: int64(raw.CommentCount),
	}
	return nil
}

// Video is one upload of a channel with its statistics.
type Video struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	PublishedAt time.Time  `json:"publishedAt"`
	Stats       Statistics `json:"stats"`
}

// Channel is a channel and its uploads as fetched by ChannelStats.
type Channel struct {
	Info   ChannelInfo `json:"info"`
	Videos []Video     `json:"videos"`
}

// ChannelStats resolves query to a channel and fetches statistics for its
// uploads, newest first. maxVideos > 0 stops after that many videos.
func (c *Client) ChannelStats(ctx context.Context, query string, maxVideos int) (*Channel, error) {
	info, err := c.searchChannel(ctx, query)
	if err != nil {
		return nil, err
	}
	playlistID, err := c.uploadsPlaylist(ctx, info.ChannelID)
	if err != nil {
		return nil, err
	}

	ch := &Channel{Info: info, Videos: []Video{}}
	pageToken := ""
	for {
		ids, next, err := c.playlistPage(ctx, playlistID, pageToken)
		if err != nil {
			return nil, err
		}
		if maxVideos > 0 && len(ch.Videos)+len(ids) > maxVideos {
			ids = ids[:maxVideos-len(ch.Videos)]
		}
		if len(ids) > 0 {
			videos, err := c.videoStats(ctx, playlistID, ids)
			if err != nil {
				return nil, err
			}
			ch.Videos = append(ch.Videos, videos...)
		}
		slog.Debug("channel videos fetched", slog.String("channel", info.Title), slog.Int("videos", len(ch.Videos)))

		if next == "" || (maxVideos > 0 && len(ch.Videos) >= maxVideos) {
			break
		}
		pageToken = next
	}
	SortNewestFirst(ch.Videos)
	return ch, nil
}

func (c *Client) searchChannel(ctx context.Context, query string) (ChannelInfo, error) {
	body, err := c.get(ctx, "search", query, searchChannelURL(c.cfg.BaseURL, query, c.cfg.APIKey))
	if err != nil {
		return ChannelInfo{}, err
	}
	var resp struct {
		Items []struct {
			Snippet struct {
				ChannelID   string `json:"channelId"`
				Title       string `json:"title"`
				Description string `json:"description"`
				Thumbnails  map[string]struct {
					URL string `json:"url"`
				} `json:"thumbnails"`
			} `json:"snippet"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return ChannelInfo{}, fmt.Errorf("decode search: %w", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet.ChannelID == "" {
		return ChannelInfo{}, fmt.Errorf("search %q: %w", query, ErrChannelNotFound)
	}
	sn := resp.Items[0].Snippet
	return ChannelInfo{
		ChannelID:   sn.ChannelID,
		Title:       sn.Title,
		Description: sn.Description,
		Thumbnail:   sn.Thumbnails["medium"].URL,
	}, nil
}

func (c *Client) uploadsPlaylist(ctx context.Context, channelID string) (string, error) {
	body, err := c.get(ctx, "channels", channelID, channelsURL(c.cfg.BaseURL, channelID, c.cfg.APIKey))
	if err != nil {
		return "", err
	}
	var resp struct {
		Items []struct {
			ContentDetails struct {
				RelatedPlaylists struct {
					Uploads string `json:"uploads"`
				} `json:"relatedPlaylists"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode channels: %w", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].ContentDetails.RelatedPlaylists.Uploads == "" {
		return "", fmt.Errorf("channels %s: %w", channelID, ErrChannelNotFound)
	}
	return resp.Items[0].ContentDetails.RelatedPlaylists.Uploads, nil
}

// playlistPage returns the video IDs of one playlist page and the next page token.
func (c *Client) playlistPage(ctx context.Context, playlistID, pageToken string) ([]string, string, error) {
	url := playlistItemsURL(c.cfg.BaseURL, playlistID, pageToken, c.cfg.APIKey)
	body, err := c.get(ctx, "playlistItems", playlistID, url)
	if err != nil {
		return nil, "", err
	}
	var resp struct {
		NextPageToken string `json:"nextPageToken"`
		Items         []struct {
			ContentDetails struct {
				VideoID string `json:"videoId"`
			} `json:"contentDetails"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, "", fmt.Errorf("decode playlistItems: %w", err)
	}
	ids := make([]string, 0, len(resp.Items))
	for _, it := range resp.Items {
		if it.ContentDetails.VideoID != "" {
			ids = append(ids, it.ContentDetails.VideoID)
		}
	}
	return ids, resp.NextPageToken, nil
}

// videoStats fetches snippet and statistics for ids. Deleted or private
// videos are missing from the response and are skipped.
func (c *Client) videoStats(ctx context.Context, playlistID string, ids []string) ([]Video, error) {
	body, err := c.get(ctx, "videos", playlistID, videoStatsURL(c.cfg.BaseURL, ids, c.cfg.APIKey))
	if err != nil {
		return nil, err
	}
	var resp struct {
		Items []struct {
			ID      string `json:"id"`
			Snippet struct {
				Title       string    `json:"title"`
				Description string    `json:"description"`
				PublishedAt time.Time `json:"publishedAt"`
			} `json:"snippet"`
			Statistics Statistics `json:"statistics"`
		} `json:"items"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode videos: %w", err)
	}
	videos := make([]Video, len(resp.Items))
	for i, it := range resp.Items {
		videos[i] = Video{
			ID:          it.ID,
			Title:       it.Snippet.Title,
			Description: it.Snippet.Description,
			PublishedAt: it.Snippet.PublishedAt,
			Stats:       it.Statistics,
		}
	}
	return videos, nil
}

// WriteChannel stores ch as indented JSON at path, creating its directory.
func WriteChannel(path string, ch *Channel) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("channel dir: %w", err)
	}
	data, err := json.MarshalIndent(ch, "", "  ")
	if err != nil {
		return fmt.Errorf("encode channel: %w", err)
	}
	return replaceFile(path, data)
}

// ReadChannel loads a file written by WriteChannel.
func ReadChannel(path string) (*Channel, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("channel %s: %w", path, ErrChannelNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read channel: %w", err)
	}
	var ch Channel
	if err := json.Unmarshal(data, &ch); err != nil {
		return nil, fmt.Errorf("decode channel %s: %w", path, err)
	}
	return &ch, nil
}
