package controller

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sharetube/client/internal/domain"
	"github.com/sharetube/client/internal/event"
	"github.com/sharetube/client/pkg/ytvideodata"
)

// RoomView is what readers outside the dispatch loop get to see.
type RoomView struct {
	domain.Snapshot
	ClientId   string             `json:"clientId"`
	Username   string             `json:"username"`
	Connection ConnState          `json:"connection"`
	Synced     bool               `json:"synced"`
	Player     domain.PlayerState `json:"player"`
}

func (c *Controller) Snapshot(ctx context.Context) (RoomView, error) {
	return call(ctx, c, func(context.Context) (RoomView, error) {
		return RoomView{
			Snapshot:   c.store.Snapshot(),
			ClientId:   c.clientId,
			Username:   c.session.Username,
			Connection: c.conn,
			Synced:     c.synced,
			Player:     c.store.PlayerState(),
		}, nil
	})
}

func (c *Controller) Play(ctx context.Context) error {
	return c.playerAction(ctx, event.ActionPlay, nil)
}

func (c *Controller) Pause(ctx context.Context) error {
	return c.playerAction(ctx, event.ActionPause, nil)
}

func (c *Controller) Seek(ctx context.Context, seconds float64) error {
	if seconds < 0 {
		return ErrInvalidPosition
	}

	return c.playerAction(ctx, event.ActionSeek, &seconds)
}

func (c *Controller) playerAction(ctx context.Context, action string, seconds *float64) error {
	_, err := call(ctx, c, func(ctx context.Context) (struct{}, error) {
		current, ok := c.store.CurrentVideo()
		if !ok {
			return struct{}{}, ErrNoVideo
		}

		var target float64
		if seconds != nil {
			target = *seconds
		}
		c.store.ApplyPlayerAction(action, target)

		if seconds == nil {
			target = c.store.PlayerState().CurrentTime
		}

		return struct{}{}, c.send(ctx, &event.PlayerAction{
			Action:  action,
			VideoId: current.VideoId,
			Time:    target,
		})
	})

	return err
}

// LoadVideo makes video the current video for the whole room. Loading the
// current video again is a no-op.
func (c *Controller) LoadVideo(ctx context.Context, video domain.VideoRef) error {
	if err := c.validate.Struct(video); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidVideo, err)
	}

	_, err := call(ctx, c, func(ctx context.Context) (struct{}, error) {
		c.store.Remember(video)
		if !c.store.ApplyVideoLoad(video.VideoId, 0) {
			return struct{}{}, nil
		}

		return struct{}{}, c.send(ctx, &event.PlayVideo{VideoId: video.VideoId})
	})

	return err
}

func (c *Controller) AddToQueue(ctx context.Context, video domain.VideoRef) error {
	if err := c.validate.Struct(video); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidVideo, err)
	}

	_, err := call(ctx, c, func(ctx context.Context) (struct{}, error) {
		if c.store.QueueLength() >= c.cfg.PlaylistLimit {
			return struct{}{}, ErrPlaylistLimitReached
		}

		c.store.ApplyQueueAdd(video)
		return struct{}{}, c.send(ctx, &event.AddToQueue{Video: video})
	})

	return err
}

func (c *Controller) RemoveFromQueue(ctx context.Context, index int) (domain.VideoRef, error) {
	return call(ctx, c, func(ctx context.Context) (domain.VideoRef, error) {
		if index < 0 || index >= c.store.QueueLength() {
			return domain.VideoRef{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
		}

		removed, _ := c.store.ApplyQueueRemove(index)
		return removed, c.send(ctx, &event.RemoveFromQueue{Index: &index})
	})
}

func (c *Controller) SendChat(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyMessage
	}

	_, err := call(ctx, c, func(ctx context.Context) (struct{}, error) {
		now := time.Now().UTC()
		c.store.ApplyChatMessage(domain.ChatMessage{
			Username:  c.session.Username,
			Text:      text,
			Timestamp: now,
		})

		return struct{}{}, c.send(ctx, &event.ChatMessage{
			Username:  c.session.Username,
			Message:   text,
			Timestamp: now,
		})
	})

	return err
}

// PlayNext loads the queue head for everyone.
func (c *Controller) PlayNext(ctx context.Context) (domain.VideoRef, error) {
	return call(ctx, c, func(ctx context.Context) (domain.VideoRef, error) {
		next, ok := c.store.AdvanceQueue()
		if !ok {
			return domain.VideoRef{}, ErrQueueEmpty
		}

		return next, c.send(ctx, &event.PlayNext{Video: next})
	})
}

// Reconnect starts a new connection attempt after the channel gave up. The
// connection is bound to the loop's context, not to ctx.
func (c *Controller) Reconnect(ctx context.Context) error {
	_, err := call(ctx, c, func(ctx context.Context) (struct{}, error) {
		if c.conn != ConnGaveUp && c.conn != ConnDisconnected {
			return struct{}{}, nil
		}

		c.logger.InfoContext(ctx, "reconnecting on request")
		c.conn = ConnConnecting
		c.channel.Connect(c.runCtx)
		return struct{}{}, nil
	})

	return err
}

// Search queries the catalog off the dispatch loop. Only the latest search
// is applied; an older one that finishes later gets ErrStaleResult.
func (c *Controller) Search(ctx context.Context, query string) ([]ytvideodata.Video, error) {
	gen, err := call(ctx, c, func(context.Context) (uint64, error) {
		c.searchGen++
		return c.searchGen, nil
	})
	if err != nil {
		return nil, err
	}

	videos, err := c.catalog.Search(ctx, query, c.cfg.SearchResults)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCatalog, err)
	}

	return call(ctx, c, func(ctx context.Context) ([]ytvideodata.Video, error) {
		if gen != c.searchGen {
			c.logger.DebugContext(ctx, "dropping stale search result", "query", query)
			return nil, ErrStaleResult
		}

		for _, v := range videos {
			c.store.Remember(videoRef(v))
		}
		return videos, nil
	})
}

// ResolveVideo returns metadata for videoId from what the room has already
// seen, or from the catalog.
func (c *Controller) ResolveVideo(ctx context.Context, videoId string) (domain.VideoRef, error) {
	known, err := call(ctx, c, func(context.Context) (*domain.VideoRef, error) {
		if v, ok := c.store.KnownVideo(videoId); ok {
			return &v, nil
		}
		return nil, nil
	})
	if err != nil {
		return domain.VideoRef{}, err
	}
	if known != nil {
		return *known, nil
	}

	video, err := c.catalog.GetVideoInfo(ctx, videoId)
	if err != nil {
		if errors.Is(err, ytvideodata.ErrVideoNotFound) {
			return domain.VideoRef{}, err
		}
		return domain.VideoRef{}, fmt.Errorf("%w: %w", ErrCatalog, err)
	}

	return videoRef(*video), nil
}

func videoRef(v ytvideodata.Video) domain.VideoRef {
	return domain.VideoRef{
		VideoId:      v.VideoId,
		Title:        v.Title,
		Channel:      v.Channel,
		ThumbnailURL: v.Thumbnail,
		Duration:     v.Duration,
	}
}
