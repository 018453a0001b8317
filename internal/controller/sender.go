package controller

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sharetube/client/internal/event"
)

// send stamps ev with this room and client and hands it to the channel, which
// queues it while disconnected.
func (c *Controller) send(ctx context.Context, ev event.Event) error {
	ev.Meta().Room = c.session.RoomCode

	data, err := c.codec.Encode(ev, c.clientId)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	if err := c.channel.Send(json.RawMessage(data)); err != nil {
		return fmt.Errorf("failed to send %s: %w", ev.Kind(), err)
	}

	c.logger.DebugContext(ctx, "event sent", "type", ev.Kind())
	return nil
}

func (c *Controller) sendSyncState(ctx context.Context) error {
	snapshot := c.store.Snapshot()
	state := c.store.PlayerState()

	sync := &event.SyncState{
		Queue: snapshot.Queue,
		Users: snapshot.Users,
	}
	if snapshot.CurrentVideo != nil {
		sync.CurrentVideo = &event.SyncVideo{
			VideoId:     snapshot.CurrentVideo.VideoId,
			CurrentTime: state.CurrentTime,
		}
	}

	if err := c.send(ctx, sync); err != nil {
		return fmt.Errorf("failed to send sync state: %w", err)
	}

	return nil
}
