package relay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultReconnectDelay       = time.Second
	DefaultMaxReconnectAttempts = 5
	DefaultQueueLimit           = 100
)

var (
	// ErrNormalClosure is wrapped by transports when the peer or the local side
	// closed the connection deliberately. Such closes are not retried.
	ErrNormalClosure = errors.New("normal closure")
)

type Conn interface {
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	Close() error
}

type Transport interface {
	Dial(ctx context.Context) (Conn, error)
}

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateReconnecting
	StateGaveUp
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	case StateGaveUp:
		return "gave_up"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type Config struct {
	ReconnectDelay       time.Duration
	MaxReconnectAttempts int
	QueueLimit           int
}

func (cfg *Config) withDefaults() Config {
	out := Config{
		ReconnectDelay:       DefaultReconnectDelay,
		MaxReconnectAttempts: DefaultMaxReconnectAttempts,
		QueueLimit:           DefaultQueueLimit,
	}
	if cfg == nil {
		return out
	}
	if cfg.ReconnectDelay > 0 {
		out.ReconnectDelay = cfg.ReconnectDelay
	}
	if cfg.MaxReconnectAttempts > 0 {
		out.MaxReconnectAttempts = cfg.MaxReconnectAttempts
	}
	if cfg.QueueLimit > 0 {
		out.QueueLimit = cfg.QueueLimit
	}

	return out
}

// Channel is one logical connection to a message relay. It reconnects after
// abnormal closes with a fixed delay, gives up after MaxReconnectAttempts
// consecutive failures and buffers outgoing messages while not connected.
//
// Callbacks are never invoked with the channel lock held. For a single
// connection OnConnect, OnMessage and OnDisconnect are delivered in order from
// one goroutine.
type Channel struct {
	transport Transport
	cfg       Config
	logger    *slog.Logger

	mu       sync.Mutex
	ctx      context.Context
	cancel   context.CancelFunc
	conn     Conn
	state    State
	failures int
	pending  [][]byte
	timer    *time.Timer
	closed   bool

	// dropped is the live connection closed after a write failure, and
	// dropErr the failure. Its close must not count as a normal closure.
	dropped Conn
	dropErr error

	onConnect    func()
	onDisconnect func(error)
	onMessage    func([]byte)
	onGiveUp     func()
}

func New(transport Transport, cfg *Config, logger *slog.Logger) *Channel {
	return &Channel{
		transport:    transport,
		cfg:          cfg.withDefaults(),
		logger:       logger,
		state:        StateDisconnected,
		onConnect:    func() {},
		onDisconnect: func(error) {},
		onMessage:    func([]byte) {},
		onGiveUp:     func() {},
	}
}

func (c *Channel) OnConnect(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onConnect = fn
}

func (c *Channel) OnDisconnect(fn func(error)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onDisconnect = fn
}

func (c *Channel) OnMessage(fn func([]byte)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onMessage = fn
}

func (c *Channel) OnGiveUp(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onGiveUp = fn
}

func (c *Channel) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending returns the number of buffered messages.
func (c *Channel) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// Connect starts connecting in the background. It is a no-op while the channel
// is connecting, connected or waiting to reconnect. After a give up it starts
// over with a fresh attempt budget.
func (c *Channel) Connect(ctx context.Context) {
	c.mu.Lock()
	switch c.state {
	case StateConnecting, StateConnected, StateReconnecting:
		c.mu.Unlock()
		return
	}

	if c.cancel != nil {
		c.cancel()
	}
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.closed = false
	c.failures = 0
	c.state = StateConnecting
	c.mu.Unlock()

	go c.dial()
}

// Send serializes v and writes it, or buffers it when the channel is not
// connected. Only serialization errors are returned.
func (c *Channel) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateConnected || c.conn == nil {
		c.logger.Debug("relay not connected, queuing message", "state", c.state.String())
		c.enqueueLocked(data)
		return nil
	}

	if err := c.conn.WriteMessage(data); err != nil {
		c.logger.Warn("failed to write message, requeuing", "error", err)
		c.enqueueLocked(data)
		c.dropLocked(err)
	}

	return nil
}

// Close shuts the channel down deliberately. Buffered messages are kept and
// pending reconnects are cancelled.
func (c *Channel) Close() error {
	c.mu.Lock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	conn := c.conn
	c.state = StateDisconnected
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}

	return nil
}

func (c *Channel) dial() {
	c.mu.Lock()
	ctx := c.ctx
	c.mu.Unlock()

	conn, err := c.transport.Dial(ctx)

	c.mu.Lock()
	if c.closed || ctx.Err() != nil {
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}

	if err != nil {
		c.logger.Warn("failed to connect to relay", "error", err, "failures", c.failures+1)
		gaveUp := c.scheduleReconnectLocked()
		onGiveUp := c.onGiveUp
		c.mu.Unlock()
		if gaveUp {
			onGiveUp()
		}
		return
	}

	if err := c.flushLocked(conn); err != nil {
		c.logger.Warn("failed to flush queued messages", "error", err, "pending", len(c.pending))
		conn.Close()
		gaveUp := c.scheduleReconnectLocked()
		onGiveUp := c.onGiveUp
		c.mu.Unlock()
		if gaveUp {
			onGiveUp()
		}
		return
	}

	c.conn = conn
	c.state = StateConnected
	c.failures = 0
	onConnect, onMessage := c.onConnect, c.onMessage
	c.mu.Unlock()

	c.logger.Info("connected to relay")
	go c.serve(conn, onConnect, onMessage)
}

func (c *Channel) serve(conn Conn, onConnect func(), onMessage func([]byte)) {
	onConnect()

	for {
		data, err := conn.ReadMessage()
		if err != nil {
			c.handleClose(conn, err)
			return
		}

		onMessage(data)
	}
}

func (c *Channel) handleClose(conn Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	if c.dropped == conn {
		err = c.dropErr
		c.dropped, c.dropErr = nil, nil
	}
	deliberate := c.closed || errors.Is(err, ErrNormalClosure)
	if deliberate {
		c.state = StateDisconnected
	} else {
		c.state = StateReconnecting
	}
	onDisconnect := c.onDisconnect
	c.mu.Unlock()

	conn.Close()
	if deliberate {
		c.logger.Info("relay connection closed", "reason", err)
	} else {
		c.logger.Warn("relay connection lost", "error", err)
	}
	onDisconnect(err)

	if deliberate {
		return
	}

	c.mu.Lock()
	gaveUp := c.scheduleReconnectLocked()
	onGiveUp := c.onGiveUp
	c.mu.Unlock()
	if gaveUp {
		onGiveUp()
	}
}

// scheduleReconnectLocked records one more consecutive failure and either
// schedules the next attempt or gives up. It reports whether it gave up.
func (c *Channel) scheduleReconnectLocked() bool {
	if c.closed {
		return false
	}

	c.failures++
	if c.failures >= c.cfg.MaxReconnectAttempts {
		c.logger.Warn("giving up reconnecting to relay", "failures", c.failures)
		c.state = StateGaveUp
		return true
	}

	c.state = StateReconnecting
	c.timer = time.AfterFunc(c.cfg.ReconnectDelay, func() {
		c.mu.Lock()
		if c.closed || c.state != StateReconnecting {
			c.mu.Unlock()
			return
		}
		c.timer = nil
		c.mu.Unlock()

		c.dial()
	})

	c.logger.Info("scheduled relay reconnect", "failures", c.failures, "delay", c.cfg.ReconnectDelay)
	return false
}

// dropLocked marks the live connection as broken. The serve goroutine observes
// the read error and runs the reconnect policy with cause instead of the
// transport's close error.
func (c *Channel) dropLocked(cause error) {
	if c.conn == nil {
		return
	}

	c.state = StateReconnecting
	c.dropped = c.conn
	c.dropErr = fmt.Errorf("connection dropped: %w", cause)
	c.conn.Close()
}

func (c *Channel) flushLocked(conn Conn) error {
	if len(c.pending) == 0 {
		return nil
	}

	c.logger.Info("sending queued messages", "count", len(c.pending))
	for len(c.pending) > 0 {
		if err := conn.WriteMessage(c.pending[0]); err != nil {
			return err
		}
		c.pending = c.pending[1:]
	}
	c.pending = nil

	return nil
}

func (c *Channel) enqueueLocked(data []byte) {
	c.pending = append(c.pending, data)
	if over := len(c.pending) - c.cfg.QueueLimit; over > 0 {
		c.logger.Debug("relay queue full, dropping oldest messages", "dropped", over)
		c.pending = c.pending[over:]
	}
}
