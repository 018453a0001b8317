package controller

import (
	"context"
	"fmt"

	"github.com/sharetube/client/internal/domain"
	"github.com/sharetube/client/internal/event"
)

func (c *Controller) handleJoinRoom(ctx context.Context, input *event.JoinRoom) error {
	if c.store.ApplyUserJoined(input.Username) {
		c.logger.InfoContext(ctx, "user joined", "username", input.Username)
	}

	if !c.session.IsHost() {
		return nil
	}

	if err := c.sendSyncState(ctx); err != nil {
		return fmt.Errorf("failed to reply to join: %w", err)
	}

	return nil
}

func (c *Controller) handleLeaveRoom(ctx context.Context, input *event.LeaveRoom) error {
	if c.store.ApplyUserLeft(input.Username) {
		c.logger.InfoContext(ctx, "user left", "username", input.Username)
	}

	return nil
}

func (c *Controller) handleUserJoined(ctx context.Context, input *event.UserJoined) error {
	if c.store.ApplyUserJoined(input.Username) {
		c.logger.InfoContext(ctx, "user joined", "username", input.Username)
	}

	return nil
}

func (c *Controller) handleUserLeft(ctx context.Context, input *event.UserLeft) error {
	if c.store.ApplyUserLeft(input.Username) {
		c.logger.InfoContext(ctx, "user left", "username", input.Username)
	}

	return nil
}

func (c *Controller) handleChatMessage(_ context.Context, input *event.ChatMessage) error {
	c.store.ApplyChatMessage(domain.ChatMessage{
		Username:  input.Username,
		Text:      input.Message,
		Timestamp: input.Timestamp,
	})

	return nil
}

func (c *Controller) handleAddToQueue(_ context.Context, input *event.AddToQueue) error {
	c.store.ApplyQueueAdd(input.Video)
	return nil
}

func (c *Controller) handleRemoveFromQueue(_ context.Context, input *event.RemoveFromQueue) error {
	c.store.ApplyQueueRemove(*input.Index)
	return nil
}

func (c *Controller) handlePlayVideo(_ context.Context, input *event.PlayVideo) error {
	c.store.ApplyVideoLoad(input.VideoId, input.StartTime)
	return nil
}

func (c *Controller) handlePlayNext(_ context.Context, input *event.PlayNext) error {
	c.store.ApplyPlayNext(input.Video)
	return nil
}

func (c *Controller) handlePlayerAction(_ context.Context, input *event.PlayerAction) error {
	if current, ok := c.store.CurrentVideo(); ok && input.VideoId != "" && input.VideoId != current.VideoId {
		return fmt.Errorf("player action for %s while %s is loaded", input.VideoId, current.VideoId)
	}

	c.store.ApplyPlayerAction(input.Action, input.Target())
	return nil
}

func (c *Controller) handleSyncPlayState(_ context.Context, input *event.SyncPlayState) error {
	c.store.ApplyPlayState(input.IsPlaying, input.CurrentTime, input.VideoId)
	return nil
}

func (c *Controller) handleSyncState(ctx context.Context, input *event.SyncState) error {
	var current *domain.CurrentVideo
	if input.CurrentVideo != nil {
		current = &domain.CurrentVideo{
			VideoId:   input.CurrentVideo.VideoId,
			StartTime: input.CurrentVideo.CurrentTime,
		}
	}

	c.store.ApplyFullStateSync(current, input.Queue, input.Users)
	if !c.synced {
		c.synced = true
		c.logger.InfoContext(ctx, "room state synced", "queue_length", len(input.Queue), "users", len(input.Users))
	}

	return nil
}

func (c *Controller) handleRequestSync(ctx context.Context, input *event.RequestSync) error {
	if !c.session.IsHost() {
		return nil
	}

	c.logger.DebugContext(ctx, "sync requested", "username", input.Username)
	return c.sendSyncState(ctx)
}
