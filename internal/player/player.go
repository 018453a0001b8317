package player

import (
	"log/slog"
	"time"
)

// Player is a headless playback engine. It has no media pipeline and estimates
// the position from the wall clock since the last state change. It is not safe
// for concurrent use.
type Player struct {
	logger *slog.Logger
	now    func() time.Time

	videoId  string
	duration float64
	playing  bool
	position float64
	anchor   time.Time
}

type Option func(*Player)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Player) {
		p.now = now
	}
}

func New(logger *slog.Logger, opts ...Option) *Player {
	p := &Player{
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// LoadVideoById loads a video and starts playing it from startSeconds. The
// duration is unknown until SetDuration is called.
func (p *Player) LoadVideoById(videoId string, startSeconds float64) {
	p.videoId = videoId
	p.duration = 0
	p.playing = true
	p.position = max(startSeconds, 0)
	p.anchor = p.now()

	p.logger.Debug("video loaded", "video_id", videoId, "start", startSeconds)
}

func (p *Player) PlayVideo() {
	if p.videoId == "" || p.playing {
		return
	}

	p.anchor = p.now()
	p.playing = true
}

func (p *Player) PauseVideo() {
	if !p.playing {
		return
	}

	p.position = p.GetCurrentTime()
	p.anchor = p.now()
	p.playing = false
}

func (p *Player) SeekTo(seconds float64) {
	if p.videoId == "" {
		return
	}

	p.position = p.clamp(max(seconds, 0))
	p.anchor = p.now()
}

func (p *Player) SetDuration(seconds float64) {
	p.duration = seconds
}

func (p *Player) GetCurrentTime() float64 {
	position := p.position
	if p.playing {
		position += p.now().Sub(p.anchor).Seconds()
	}

	return p.clamp(position)
}

func (p *Player) GetDuration() float64 {
	return p.duration
}

func (p *Player) IsPlaying() bool {
	return p.playing && !p.Ended()
}

// Ended reports whether the position reached a known duration.
func (p *Player) Ended() bool {
	return p.videoId != "" && p.duration > 0 && p.GetCurrentTime() >= p.duration
}

func (p *Player) clamp(position float64) float64 {
	if p.duration > 0 && position > p.duration {
		return p.duration
	}

	return position
}
