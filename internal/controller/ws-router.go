package controller

import (
	"github.com/sharetube/client/internal/event"
	"github.com/sharetube/client/pkg/wsrouter"
)

func (c *Controller) getWSRouter() *wsrouter.WSRouter {
	mux := wsrouter.New()
	mux.Use(c.eventIdWSMw(), c.loggerWSMw())

	// membership
	wsrouter.Handle(mux, event.TypeJoinRoom, c.handleJoinRoom)
	wsrouter.Handle(mux, event.TypeLeaveRoom, c.handleLeaveRoom)
	wsrouter.Handle(mux, event.TypeUserJoined, c.handleUserJoined)
	wsrouter.Handle(mux, event.TypeUserLeft, c.handleUserLeft)

	// chat
	wsrouter.Handle(mux, event.TypeChatMessage, c.handleChatMessage)

	// queue
	wsrouter.Handle(mux, event.TypeAddToQueue, c.handleAddToQueue)
	wsrouter.Handle(mux, event.TypeRemoveFromQueue, c.handleRemoveFromQueue)

	// player
	wsrouter.Handle(mux, event.TypePlayVideo, c.handlePlayVideo)
	wsrouter.Handle(mux, event.TypePlayNext, c.handlePlayNext)
	wsrouter.Handle(mux, event.TypePlayerAction, c.handlePlayerAction)
	wsrouter.Handle(mux, event.TypeSyncPlayState, c.handleSyncPlayState)

	// sync
	wsrouter.Handle(mux, event.TypeSyncState, c.handleSyncState)
	wsrouter.Handle(mux, event.TypeRequestSync, c.handleRequestSync)

	return mux
}
