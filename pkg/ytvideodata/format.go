package ytvideodata

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

const (
	QualityDefault  = "default"
	QualityMedium   = "medium"
	QualityHigh     = "high"
	QualityStandard = "standard"
	QualityMaxRes   = "maxres"
)

var (
	isoDurationRe = regexp.MustCompile(`PT(\d+H)?(\d+M)?(\d+S)?`)
	videoIdRe     = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)
	videoURLRes   = []*regexp.Regexp{
		regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&\n?#]+)`),
		regexp.MustCompile(`youtube\.com/watch\?.*v=([^&\n?#]+)`),
	}
	thumbnailFiles = map[string]string{
		QualityDefault:  "default.jpg",
		QualityMedium:   "mqdefault.jpg",
		QualityHigh:     "hqdefault.jpg",
		QualityStandard: "sddefault.jpg",
		QualityMaxRes:   "maxresdefault.jpg",
	}
)

// FormatDuration converts an ISO 8601 duration such as PT1H2M3S into 1:02:03.
func FormatDuration(duration string) string {
	match := isoDurationRe.FindStringSubmatch(duration)
	if match == nil {
		return unknownDuration
	}

	part := func(s string) int {
		n, _ := strconv.Atoi(strings.TrimRight(s, "HMS"))
		return n
	}
	hours, minutes, seconds := part(match[1]), part(match[2]), part(match[3])

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}

	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

// ParseDurationLabel is the inverse of FormatDuration. It reports false for
// labels such as "Unknown".
func ParseDurationLabel(label string) (float64, bool) {
	parts := strings.Split(label, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, false
	}

	total := 0
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, false
		}
		total = total*60 + n
	}

	return float64(total), true
}

func ExtractVideoID(url string) (string, bool) {
	for _, re := range videoURLRes {
		if match := re.FindStringSubmatch(url); match != nil && match[1] != "" {
			return match[1], true
		}
	}

	return "", false
}

func IsValidVideoID(videoId string) bool {
	return videoIdRe.MatchString(videoId)
}

// ThumbnailURL falls back to the medium quality for unknown qualities.
func ThumbnailURL(videoId, quality string) string {
	file, ok := thumbnailFiles[quality]
	if !ok {
		file = thumbnailFiles[QualityMedium]
	}

	return fmt.Sprintf("https://img.youtube.com/vi/%s/%s", videoId, file)
}

func WatchURL(videoId string) string {
	return "https://www.youtube.com/watch?v=" + videoId
}
