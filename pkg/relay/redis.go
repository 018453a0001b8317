package relay

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RoomChannel is the pub/sub channel every member of a room publishes to.
func RoomChannel(roomCode string) string {
	return "room:" + roomCode + ":events"
}

// RedisTransport relays messages through a redis pub/sub channel. Every
// subscriber, the publisher included, receives each message.
type RedisTransport struct {
	rc      *redis.Client
	channel string
}

func NewRedisTransport(rc *redis.Client, roomCode string) *RedisTransport {
	return &RedisTransport{
		rc:      rc,
		channel: RoomChannel(roomCode),
	}
}

func (t *RedisTransport) Dial(ctx context.Context) (Conn, error) {
	ps := t.rc.Subscribe(ctx, t.channel)
	// wait for the subscription confirmation so no publish is missed
	if _, err := ps.Receive(ctx); err != nil {
		ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", t.channel, err)
	}

	connCtx, cancel := context.WithCancel(context.Background())
	return &redisConn{
		rc:      t.rc,
		ps:      ps,
		channel: t.channel,
		ctx:     connCtx,
		cancel:  cancel,
	}, nil
}

type redisConn struct {
	rc        *redis.Client
	ps        *redis.PubSub
	channel   string
	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

func (c *redisConn) ReadMessage() ([]byte, error) {
	msg, err := c.ps.ReceiveMessage(c.ctx)
	if err != nil {
		if c.ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrNormalClosure, err)
		}
		return nil, err
	}

	return []byte(msg.Payload), nil
}

func (c *redisConn) WriteMessage(data []byte) error {
	if err := c.rc.Publish(c.ctx, c.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish: %w", err)
	}

	return nil
}

func (c *redisConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		err = c.ps.Close()
	})

	return err
}
