package domain

import (
	"time"

	"golang.org/x/exp/slices"
)

type ChatMessage struct {
	Username  string    `json:"username"`
	Text      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ChatLog is append-only. With a positive limit the oldest messages are evicted first.
type ChatLog struct {
	list  []ChatMessage
	limit int
}

func NewChatLog(limit int) *ChatLog {
	return &ChatLog{limit: limit}
}

func (c *ChatLog) Append(msg ChatMessage) {
	c.list = append(c.list, msg)
	if c.limit > 0 && len(c.list) > c.limit {
		c.list = slices.Delete(c.list, 0, len(c.list)-c.limit)
	}
}

func (c ChatLog) Length() int {
	return len(c.list)
}

func (c ChatLog) AsList() []ChatMessage {
	if c.list == nil {
		return []ChatMessage{}
	}

	return slices.Clone(c.list)
}
