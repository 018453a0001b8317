package event

import (
	"time"

	"github.com/sharetube/client/internal/domain"
)

const (
	TypeJoinRoom        = "join_room"
	TypeLeaveRoom       = "leave_room"
	TypeUserJoined      = "user_joined"
	TypeUserLeft        = "user_left"
	TypeChatMessage     = "chat_message"
	TypeAddToQueue      = "add_to_queue"
	TypeRemoveFromQueue = "remove_from_queue"
	TypePlayNext        = "play_next"
	TypePlayVideo       = "play_video"
	TypePlayerAction    = "player_action"
	TypeSyncPlayState   = "sync_play_state"
	TypeSyncState       = "sync_state"
	TypeRequestSync     = "request_sync"
)

const (
	ActionPlay  = "play"
	ActionPause = "pause"
	ActionSeek  = "seek"
)

// Event is implemented only by the types in this package.
type Event interface {
	Kind() string
	Meta() *Header
}

// Header holds the fields shared by every envelope. Room is empty for kinds
// that the relay addresses implicitly.
type Header struct {
	Type   string `json:"type"`
	Sender string `json:"sender,omitempty"`
	Room   string `json:"room,omitempty"`
}

func (h *Header) Meta() *Header {
	return h
}

type JoinRoom struct {
	Header
	Username string `json:"username" validate:"required"`
}

type LeaveRoom struct {
	Header
	Username string `json:"username" validate:"required"`
}

type UserJoined struct {
	Header
	Username string `json:"username" validate:"required"`
}

type UserLeft struct {
	Header
	Username string `json:"username" validate:"required"`
}

type ChatMessage struct {
	Header
	Username  string    `json:"username" validate:"required"`
	Message   string    `json:"message" validate:"required"`
	Timestamp time.Time `json:"timestamp"`
}

type AddToQueue struct {
	Header
	Video domain.VideoRef `json:"video" validate:"required"`
}

type RemoveFromQueue struct {
	Header
	// Index is a pointer so that a missing index is rejected instead of
	// removing the head.
	Index *int `json:"index" validate:"required"`
}

type PlayNext struct {
	Header
	Video domain.VideoRef `json:"video" validate:"required"`
}

type PlayVideo struct {
	Header
	VideoId   string  `json:"videoId" validate:"required"`
	StartTime float64 `json:"startTime" validate:"min=0"`
}

type PlayerAction struct {
	Header
	Action  string   `json:"action" validate:"required,oneof=play pause seek"`
	VideoId string   `json:"videoId"`
	Time    float64  `json:"time"`
	Data    *float64 `json:"data,omitempty"`
}

// Target is the position a seek refers to. Senders may put it in data.
func (e *PlayerAction) Target() float64 {
	if e.Data != nil {
		return *e.Data
	}

	return e.Time
}

type SyncPlayState struct {
	Header
	IsPlaying   bool    `json:"isPlaying"`
	CurrentTime float64 `json:"currentTime" validate:"min=0"`
	VideoId     string  `json:"videoId" validate:"required"`
}

type SyncVideo struct {
	VideoId     string  `json:"videoId" validate:"required"`
	CurrentTime float64 `json:"currentTime" validate:"min=0"`
}

type SyncState struct {
	Header
	CurrentVideo *SyncVideo        `json:"currentVideo,omitempty"`
	Queue        []domain.VideoRef `json:"queue" validate:"dive"`
	Users        []domain.Member   `json:"users" validate:"dive"`
}

type RequestSync struct {
	Header
	Username string `json:"username" validate:"required"`
}

func (*JoinRoom) Kind() string        { return TypeJoinRoom }
func (*LeaveRoom) Kind() string       { return TypeLeaveRoom }
func (*UserJoined) Kind() string      { return TypeUserJoined }
func (*UserLeft) Kind() string        { return TypeUserLeft }
func (*ChatMessage) Kind() string     { return TypeChatMessage }
func (*AddToQueue) Kind() string      { return TypeAddToQueue }
func (*RemoveFromQueue) Kind() string { return TypeRemoveFromQueue }
func (*PlayNext) Kind() string        { return TypePlayNext }
func (*PlayVideo) Kind() string       { return TypePlayVideo }
func (*PlayerAction) Kind() string    { return TypePlayerAction }
func (*SyncPlayState) Kind() string   { return TypeSyncPlayState }
func (*SyncState) Kind() string       { return TypeSyncState }
func (*RequestSync) Kind() string     { return TypeRequestSync }

var registry = map[string]func() Event{
	TypeJoinRoom:        func() Event { return &JoinRoom{} },
	TypeLeaveRoom:       func() Event { return &LeaveRoom{} },
	TypeUserJoined:      func() Event { return &UserJoined{} },
	TypeUserLeft:        func() Event { return &UserLeft{} },
	TypeChatMessage:     func() Event { return &ChatMessage{} },
	TypeAddToQueue:      func() Event { return &AddToQueue{} },
	TypeRemoveFromQueue: func() Event { return &RemoveFromQueue{} },
	TypePlayNext:        func() Event { return &PlayNext{} },
	TypePlayVideo:       func() Event { return &PlayVideo{} },
	TypePlayerAction:    func() Event { return &PlayerAction{} },
	TypeSyncPlayState:   func() Event { return &SyncPlayState{} },
	TypeSyncState:       func() Event { return &SyncState{} },
	TypeRequestSync:     func() Event { return &RequestSync{} },
}
