package domain

type CurrentVideo struct {
	VideoId   string  `json:"videoId"`
	StartTime float64 `json:"startTime"`
	// Video holds catalog metadata when it is known locally.
	Video *VideoRef `json:"video,omitempty"`
}

// PlayerState is what the playback engine reports about the loaded video.
type PlayerState struct {
	VideoId     string  `json:"videoId"`
	IsPlaying   bool    `json:"isPlaying"`
	CurrentTime float64 `json:"currentTime"`
	Duration    float64 `json:"duration"`
}
