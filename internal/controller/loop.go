package controller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sharetube/client/internal/event"
	"github.com/sharetube/client/pkg/ctxlogger"
	"github.com/sharetube/client/pkg/relay"
)

// Run connects the channel and processes inputs one at a time until ctx is
// cancelled. On the way out it announces the leave and closes the channel.
func (c *Controller) Run(ctx context.Context) error {
	defer close(c.done)

	ctx = ctxlogger.AppendCtx(ctx, slog.String("room", c.session.RoomCode))
	ctx = ctxlogger.AppendCtx(ctx, slog.String("client_id", c.clientId))

	c.runCtx = ctx
	c.conn = ConnConnecting
	c.channel.Connect(ctx)
	c.logger.InfoContext(ctx, "controller started", "username", c.session.Username, "role", c.session.Role)

	tick := time.NewTicker(c.cfg.TickInterval)
	defer tick.Stop()
	heartbeat := time.NewTicker(c.cfg.HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			c.shutdown(context.WithoutCancel(ctx))
			return nil
		case in := <-c.inputCh:
			in(ctx)
		case <-tick.C:
			c.tick(ctx)
		case <-heartbeat.C:
			c.heartbeat(ctx)
		}
	}
}

func (c *Controller) shutdown(ctx context.Context) {
	if c.conn == ConnConnected {
		if err := c.send(ctx, &event.LeaveRoom{Username: c.session.Username}); err != nil {
			c.logger.WarnContext(ctx, "failed to send leave", "error", err)
		}
	}

	if err := c.channel.Close(); err != nil {
		c.logger.WarnContext(ctx, "failed to close channel", "error", err)
	}
	c.conn = ConnDisconnected
	c.logger.InfoContext(ctx, "controller stopped")
}

type result[T any] struct {
	value T
	err   error
}

// call runs fn on the dispatch loop and waits for its result.
func call[T any](ctx context.Context, c *Controller, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	reply := make(chan result[T], 1)

	in := func(context.Context) {
		value, err := fn(ctx)
		reply <- result[T]{value: value, err: err}
	}

	select {
	case c.inputCh <- in:
	case <-c.done:
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}

	select {
	case r := <-reply:
		return r.value, r.err
	case <-c.done:
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (c *Controller) handleConnected(ctx context.Context) {
	reconnected := c.connectedOnce
	c.connectedOnce = true
	c.conn = ConnConnected
	c.logger.InfoContext(ctx, "connected", "reconnected", reconnected)

	if err := c.send(ctx, &event.JoinRoom{Username: c.session.Username}); err != nil {
		c.logger.WarnContext(ctx, "failed to send join", "error", err)
	}

	if reconnected && !c.session.IsHost() {
		if err := c.send(ctx, &event.RequestSync{Username: c.session.Username}); err != nil {
			c.logger.WarnContext(ctx, "failed to request sync", "error", err)
		}
	}
}

func (c *Controller) handleDisconnected(ctx context.Context, err error) {
	if c.conn == ConnGaveUp {
		return
	}

	if !c.session.IsHost() {
		c.synced = false
	}

	// the channel does not redial after a normal closure
	if errors.Is(err, relay.ErrNormalClosure) {
		c.conn = ConnDisconnected
		c.logger.InfoContext(ctx, "disconnected", "reason", err)
		return
	}

	c.conn = ConnReconnecting
	c.logger.WarnContext(ctx, "disconnected", "error", err)
}

func (c *Controller) handleGaveUp(ctx context.Context) {
	c.conn = ConnGaveUp
	c.logger.ErrorContext(ctx, "gave up reconnecting")
}

func (c *Controller) handleRaw(ctx context.Context, raw []byte) {
	ev, err := c.codec.Decode(ctx, raw)
	if err != nil {
		return
	}

	header := ev.Meta()
	if header.Sender != "" && header.Sender == c.clientId {
		c.logger.DebugContext(ctx, "dropping own event", "type", ev.Kind())
		return
	}
	if header.Room != "" && header.Room != c.session.RoomCode {
		c.logger.DebugContext(ctx, "dropping event for another room", "type", ev.Kind(), "event_room", header.Room)
		return
	}

	if err := c.mux.Dispatch(ctx, ev.Kind(), ev); err != nil {
		c.logger.WarnContext(ctx, "failed to handle event", "type", ev.Kind(), "error", err)
	}
}

// tick advances the queue when the local playback of the current video ended
// and announces the new video to the room.
func (c *Controller) tick(ctx context.Context) {
	if !c.engine.Ended() {
		return
	}

	next, ok := c.store.AdvanceQueue()
	if !ok {
		return
	}

	c.logger.InfoContext(ctx, "video ended, playing next", "video_id", next.VideoId)
	if err := c.send(ctx, &event.PlayNext{Video: next}); err != nil {
		c.logger.WarnContext(ctx, "failed to send play next", "error", err)
	}
}

func (c *Controller) heartbeat(ctx context.Context) {
	if !c.session.IsHost() || c.conn != ConnConnected {
		return
	}

	state := c.store.PlayerState()
	if state.VideoId == "" {
		return
	}

	if err := c.send(ctx, &event.SyncPlayState{
		IsPlaying:   state.IsPlaying,
		CurrentTime: state.CurrentTime,
		VideoId:     state.VideoId,
	}); err != nil {
		c.logger.WarnContext(ctx, "failed to send play state", "error", err)
	}
}
