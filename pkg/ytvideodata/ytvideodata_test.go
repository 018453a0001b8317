package ytvideodata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "3:33", FormatDuration("PT3M33S"))
	assert.Equal(t, "1:02:03", FormatDuration("PT1H2M3S"))
	assert.Equal(t, "1:00:05", FormatDuration("PT1H5S"))
	assert.Equal(t, "0:45", FormatDuration("PT45S"))
	assert.Equal(t, "Unknown", FormatDuration("P1D"))
}

func TestParseDurationLabel(t *testing.T) {
	seconds, ok := ParseDurationLabel("3:33")
	require.True(t, ok)
	assert.Equal(t, 213.0, seconds)

	seconds, ok = ParseDurationLabel("1:02:03")
	require.True(t, ok)
	assert.Equal(t, 3723.0, seconds)

	_, ok = ParseDurationLabel("Unknown")
	assert.False(t, ok)
	_, ok = ParseDurationLabel("")
	assert.False(t, ok)
}

func TestExtractVideoID(t *testing.T) {
	for _, url := range []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ?autoplay=1",
		"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ",
	} {
		id, ok := ExtractVideoID(url)
		assert.True(t, ok, url)
		assert.Equal(t, "dQw4w9WgXcQ", id, url)
	}

	_, ok := ExtractVideoID("https://example.com/video")
	assert.False(t, ok)
}

func TestIsValidVideoID(t *testing.T) {
	assert.True(t, IsValidVideoID("dQw4w9WgXcQ"))
	assert.True(t, IsValidVideoID("J---aiyznGQ"))
	assert.False(t, IsValidVideoID("short"))
	assert.False(t, IsValidVideoID("dQw4w9WgXc!"))
}

func TestThumbnailURL(t *testing.T) {
	assert.Equal(t, "https://img.youtube.com/vi/dQw4w9WgXcQ/hqdefault.jpg", ThumbnailURL("dQw4w9WgXcQ", QualityHigh))
	assert.Equal(t, "https://img.youtube.com/vi/dQw4w9WgXcQ/mqdefault.jpg", ThumbnailURL("dQw4w9WgXcQ", "huge"))
}

func TestSearchWithoutAPIKey(t *testing.T) {
	c := New("")
	assert.False(t, c.Configured())

	videos, err := c.Search(context.Background(), "keyboard", 10)
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, "J---aiyznGQ", videos[0].VideoId)

	videos, err = c.Search(context.Background(), "", 2)
	require.NoError(t, err)
	assert.Len(t, videos, 2)
}

func TestSearch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "lofi", r.URL.Query().Get("q"))
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		fmt.Fprint(w, `{"items":[
			{"id":{"videoId":"jfKfPfyJRdk"},"snippet":{"title":"lofi radio","channelTitle":"Lofi Girl","thumbnails":{"medium":{"url":"https://i.ytimg.com/m.jpg"}}}},
			{"id":{"videoId":"5qap5aO4i9A"},"snippet":{"title":"old radio","channelTitle":"Lofi Girl"}}
		]}`)
	})
	mux.HandleFunc("/videos", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "jfKfPfyJRdk,5qap5aO4i9A", r.URL.Query().Get("id"))
		fmt.Fprint(w, `{"items":[{"id":"jfKfPfyJRdk","contentDetails":{"duration":"PT1H2M3S"}}]}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New("secret", WithAPIURL(srv.URL))
	videos, err := c.Search(context.Background(), "lofi", 5)
	require.NoError(t, err)
	require.Len(t, videos, 2)

	assert.Equal(t, Video{
		VideoId:   "jfKfPfyJRdk",
		Title:     "lofi radio",
		Channel:   "Lofi Girl",
		Thumbnail: "https://i.ytimg.com/m.jpg",
		Duration:  "1:02:03",
	}, videos[0])
	assert.Equal(t, "Unknown", videos[1].Duration)
}

func TestSearchAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := New("secret", WithAPIURL(srv.URL)).Search(context.Background(), "lofi", 5)
	assert.Error(t, err)
}

func TestGetVideoInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") != "jfKfPfyJRdk" {
			fmt.Fprint(w, `{"items":[]}`)
			return
		}
		fmt.Fprint(w, `{"items":[{"id":"jfKfPfyJRdk","snippet":{"title":"lofi radio","channelTitle":"Lofi Girl"},"contentDetails":{"duration":"PT3M33S"}}]}`)
	}))
	defer srv.Close()

	c := New("secret", WithAPIURL(srv.URL))

	video, err := c.GetVideoInfo(context.Background(), "jfKfPfyJRdk")
	require.NoError(t, err)
	assert.Equal(t, "3:33", video.Duration)

	_, err = c.GetVideoInfo(context.Background(), "5qap5aO4i9A")
	assert.ErrorIs(t, err, ErrVideoNotFound)

	_, err = c.GetVideoInfo(context.Background(), "bad id")
	assert.ErrorIs(t, err, ErrVideoNotFound)
}

func TestGet(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/oembed", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("url") {
		case WatchURL("jfKfPfyJRdk"):
			fmt.Fprint(w, `{"title":"lofi radio","author_name":"Lofi Girl","thumbnail_url":"https://i.ytimg.com/hq.jpg"}`)
		case WatchURL("5qap5aO4i9A"):
			w.WriteHeader(http.StatusUnauthorized)
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	})
	mux.HandleFunc("/page/5qap5aO4i9A", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>old radio - YouTube</title></head>
			<body><span itemprop="author"><link itemprop="name" content="Lofi Girl"></span></body></html>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New("", WithOEmbedURL(srv.URL+"/oembed"), WithPageURL(srv.URL+"/page/"))

	t.Run("embeddable", func(t *testing.T) {
		data, err := c.Get(context.Background(), "jfKfPfyJRdk")
		require.NoError(t, err)
		assert.Equal(t, &VideoData{Title: "lofi radio", AuthorName: "Lofi Girl", ThumbnailUrl: "https://i.ytimg.com/hq.jpg"}, data)
	})

	t.Run("falls back to page", func(t *testing.T) {
		data, err := c.Get(context.Background(), "5qap5aO4i9A")
		require.NoError(t, err)
		assert.Equal(t, "old radio", data.Title)
		assert.Equal(t, "Lofi Girl", data.AuthorName)
		assert.Equal(t, ThumbnailURL("5qap5aO4i9A", QualityHigh), data.ThumbnailUrl)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := c.Get(context.Background(), "aaaaaaaaaaa")
		assert.ErrorIs(t, err, ErrVideoNotFound)
	})

	t.Run("video info without api key", func(t *testing.T) {
		video, err := c.GetVideoInfo(context.Background(), "jfKfPfyJRdk")
		require.NoError(t, err)
		assert.Equal(t, "Lofi Girl", video.Channel)
		assert.Equal(t, "Unknown", video.Duration)

		video, err = c.GetVideoInfo(context.Background(), "dQw4w9WgXcQ")
		require.NoError(t, err)
		assert.Equal(t, "3:33", video.Duration)
	})
}
