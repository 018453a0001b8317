package ytvideodata

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const (
	defaultAPIURL    = "https://www.googleapis.com/youtube/v3"
	defaultOEmbedURL = "https://www.youtube.com/oembed"
	defaultPageURL   = "https://youtu.be/"
)

// VideoData is the metadata available without an API key.
type VideoData struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ThumbnailUrl string `json:"thumbnail_url"`
}

// Video is a catalog entry.
type Video struct {
	VideoId     string `json:"videoId"`
	Title       string `json:"title"`
	Channel     string `json:"channel"`
	Thumbnail   string `json:"thumbnail"`
	Duration    string `json:"duration"`
	PublishedAt string `json:"publishedAt,omitempty"`
	Description string `json:"description,omitempty"`
}

type Client struct {
	apiKey    string
	apiURL    string
	oembedURL string
	pageURL   string
	http      *http.Client
}

type Option func(*Client)

func WithAPIURL(url string) Option {
	return func(c *Client) { c.apiURL = url }
}

func WithOEmbedURL(url string) Option {
	return func(c *Client) { c.oembedURL = url }
}

func WithPageURL(url string) Option {
	return func(c *Client) { c.pageURL = url }
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) { c.http = client }
}

// New returns a catalog client. Without an API key Search and GetVideoInfo
// serve a small built-in catalog.
func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:    apiKey,
		apiURL:    defaultAPIURL,
		oembedURL: defaultOEmbedURL,
		pageURL:   defaultPageURL,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// Get fetches title, author and thumbnail through oEmbed and falls back to
// scraping the watch page for videos that cannot be embedded.
func (c *Client) Get(ctx context.Context, videoId string) (*VideoData, error) {
	videoData, err := c.getVideoWithEmbed(ctx, videoId)
	if err != nil {
		if !errors.Is(err, ErrVideoNotEmbeddable) {
			return nil, fmt.Errorf("failed to get video data with embed: %w", err)
		}

		videoData, err = c.getFromPage(ctx, videoId)
		if err != nil {
			return nil, fmt.Errorf("failed to get video data from page: %w", err)
		}
	}

	return videoData, nil
}
