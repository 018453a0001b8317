package ytvideodata

import (
	"strings"

	"golang.org/x/exp/slices"
)

var mockCatalog = []Video{
	{
		VideoId:     "dQw4w9WgXcQ",
		Title:       "Rick Astley - Never Gonna Give You Up",
		Channel:     "Rick Astley",
		Thumbnail:   "https://img.youtube.com/vi/dQw4w9WgXcQ/mqdefault.jpg",
		Duration:    "3:33",
		PublishedAt: "2009-10-25T06:57:33Z",
		Description: `The official video for "Never Gonna Give You Up"`,
	},
	{
		VideoId:     "J---aiyznGQ",
		Title:       "Keyboard Cat",
		Channel:     "Keyboard Cat",
		Thumbnail:   "https://img.youtube.com/vi/J---aiyznGQ/mqdefault.jpg",
		Duration:    "0:54",
		PublishedAt: "2009-06-07T00:23:03Z",
		Description: "The original keyboard cat video",
	},
	{
		VideoId:     "kffacxfA7G4",
		Title:       "Baby Shark Dance",
		Channel:     "Pinkfong! Kids' Songs & Stories",
		Thumbnail:   "https://img.youtube.com/vi/kffacxfA7G4/mqdefault.jpg",
		Duration:    "2:17",
		PublishedAt: "2016-06-17T08:00:31Z",
		Description: "Sing and dance along with Baby Shark",
	},
}

// mockSearch matches the query against titles and channels. An empty query or
// no match returns the whole catalog.
func mockSearch(query string, maxResults int) []Video {
	query = strings.ToLower(strings.TrimSpace(query))

	var out []Video
	for _, v := range mockCatalog {
		if query == "" ||
			strings.Contains(strings.ToLower(v.Title), query) ||
			strings.Contains(strings.ToLower(v.Channel), query) {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		out = slices.Clone(mockCatalog)
	}
	if len(out) > maxResults {
		out = out[:maxResults]
	}

	return out
}

func mockVideo(videoId string) (Video, bool) {
	i := slices.IndexFunc(mockCatalog, func(v Video) bool { return v.VideoId == videoId })
	if i < 0 {
		return Video{}, false
	}

	return mockCatalog[i], true
}
