package ytvideodata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const unknownDuration = "Unknown"

type thumbnails struct {
	Medium struct {
		URL string `json:"url"`
	} `json:"medium"`
}

type snippet struct {
	Title        string     `json:"title"`
	ChannelTitle string     `json:"channelTitle"`
	PublishedAt  string     `json:"publishedAt"`
	Description  string     `json:"description"`
	Thumbnails   thumbnails `json:"thumbnails"`
}

type searchResponse struct {
	Items []struct {
		Id struct {
			VideoId string `json:"videoId"`
		} `json:"id"`
		Snippet snippet `json:"snippet"`
	} `json:"items"`
}

type videosResponse struct {
	Items []struct {
		Id             string  `json:"id"`
		Snippet        snippet `json:"snippet"`
		ContentDetails struct {
			Duration string `json:"duration"`
		} `json:"contentDetails"`
	} `json:"items"`
}

// Search returns up to maxResults videos matching query. Durations are
// looked up in a second request; when that fails they are reported as
// "Unknown".
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]Video, error) {
	if maxResults <= 0 {
		maxResults = 10
	}

	if !c.Configured() {
		return mockSearch(query, maxResults), nil
	}

	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(maxResults))

	var resp searchResponse
	if err := c.getJSON(ctx, "/search", params, &resp); err != nil {
		return nil, fmt.Errorf("failed to search videos: %w", err)
	}

	ids := make([]string, 0, len(resp.Items))
	for _, item := range resp.Items {
		ids = append(ids, item.Id.VideoId)
	}
	durations := c.getDurations(ctx, ids)

	videos := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		duration, ok := durations[item.Id.VideoId]
		if !ok {
			duration = unknownDuration
		}

		videos = append(videos, Video{
			VideoId:     item.Id.VideoId,
			Title:       item.Snippet.Title,
			Channel:     item.Snippet.ChannelTitle,
			Thumbnail:   item.Snippet.Thumbnails.Medium.URL,
			Duration:    duration,
			PublishedAt: item.Snippet.PublishedAt,
			Description: item.Snippet.Description,
		})
	}

	return videos, nil
}

// GetVideoInfo returns a single video. Without an API key it uses oEmbed and
// the duration stays unknown.
func (c *Client) GetVideoInfo(ctx context.Context, videoId string) (*Video, error) {
	if !IsValidVideoID(videoId) {
		return nil, ErrVideoNotFound
	}

	if !c.Configured() {
		if video, ok := mockVideo(videoId); ok {
			return &video, nil
		}

		data, err := c.Get(ctx, videoId)
		if err != nil {
			return nil, err
		}

		thumbnail := data.ThumbnailUrl
		if thumbnail == "" {
			thumbnail = ThumbnailURL(videoId, QualityMedium)
		}

		return &Video{
			VideoId:   videoId,
			Title:     data.Title,
			Channel:   data.AuthorName,
			Thumbnail: thumbnail,
			Duration:  unknownDuration,
		}, nil
	}

	params := url.Values{}
	params.Set("part", "snippet,contentDetails")
	params.Set("id", videoId)

	var resp videosResponse
	if err := c.getJSON(ctx, "/videos", params, &resp); err != nil {
		return nil, fmt.Errorf("failed to get video info: %w", err)
	}

	if len(resp.Items) == 0 {
		return nil, ErrVideoNotFound
	}

	item := resp.Items[0]
	return &Video{
		VideoId:     item.Id,
		Title:       item.Snippet.Title,
		Channel:     item.Snippet.ChannelTitle,
		Thumbnail:   item.Snippet.Thumbnails.Medium.URL,
		Duration:    FormatDuration(item.ContentDetails.Duration),
		PublishedAt: item.Snippet.PublishedAt,
		Description: item.Snippet.Description,
	}, nil
}

func (c *Client) getDurations(ctx context.Context, ids []string) map[string]string {
	durations := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return durations
	}

	params := url.Values{}
	params.Set("part", "contentDetails")
	params.Set("id", strings.Join(ids, ","))

	var resp videosResponse
	if err := c.getJSON(ctx, "/videos", params, &resp); err != nil {
		return durations
	}

	for _, item := range resp.Items {
		durations[item.Id] = FormatDuration(item.ContentDetails.Duration)
	}

	return durations
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dst any) error {
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("api request failed: %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
