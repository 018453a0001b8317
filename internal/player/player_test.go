package player

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestPlayer() (*Player, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), WithClock(clock.now)), clock
}

func TestPlayerPosition(t *testing.T) {
	p, clock := newTestPlayer()

	p.LoadVideoById("dQw4w9WgXcQ", 10)
	assert.True(t, p.IsPlaying())
	assert.Equal(t, 10.0, p.GetCurrentTime())

	clock.advance(5 * time.Second)
	assert.Equal(t, 15.0, p.GetCurrentTime())

	p.PauseVideo()
	clock.advance(5 * time.Second)
	assert.Equal(t, 15.0, p.GetCurrentTime())
	assert.False(t, p.IsPlaying())

	p.SeekTo(60)
	assert.Equal(t, 60.0, p.GetCurrentTime())

	p.PlayVideo()
	clock.advance(2 * time.Second)
	assert.Equal(t, 62.0, p.GetCurrentTime())
}

func TestPlayerEnded(t *testing.T) {
	p, clock := newTestPlayer()
	assert.False(t, p.Ended())

	p.LoadVideoById("dQw4w9WgXcQ", 0)
	clock.advance(time.Hour)
	assert.False(t, p.Ended(), "unknown duration never ends")

	p.SetDuration(212)
	assert.True(t, p.Ended())
	assert.False(t, p.IsPlaying())
	assert.Equal(t, 212.0, p.GetCurrentTime())

	p.LoadVideoById("9bZkp7q19f0", 0)
	assert.False(t, p.Ended())
	assert.Zero(t, p.GetDuration())
}

func TestPlayerWithoutVideo(t *testing.T) {
	p, _ := newTestPlayer()

	p.PlayVideo()
	p.SeekTo(30)
	assert.False(t, p.IsPlaying())
	assert.Zero(t, p.GetCurrentTime())
	assert.False(t, p.Ended())
}
