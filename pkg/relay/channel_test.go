package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testDelay   = 10 * time.Millisecond
	waitFor     = time.Second
	pollEvery   = 5 * time.Millisecond
	errConnLost = "connection reset by peer"
)

type fakeConn struct {
	mu         sync.Mutex
	written    [][]byte
	failWrites bool
	in         chan []byte
	closed     chan struct{}
	closeOnce  sync.Once
	closeErr   error
}

func newFakeConn(failWrites bool) *fakeConn {
	return &fakeConn{
		failWrites: failWrites,
		in:         make(chan []byte, 16),
		closed:     make(chan struct{}),
	}
}

func (c *fakeConn) ReadMessage() ([]byte, error) {
	select {
	case data := <-c.in:
		return data, nil
	case <-c.closed:
		c.mu.Lock()
		defer c.mu.Unlock()
		return nil, c.closeErr
	}
}

func (c *fakeConn) WriteMessage(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failWrites {
		return errors.New("broken pipe")
	}
	c.written = append(c.written, data)
	return nil
}

// Close behaves like the real transports: a pending read returns a normal
// closure.
func (c *fakeConn) Close() error {
	c.drop(fmt.Errorf("%w: closed locally", ErrNormalClosure))
	return nil
}

func (c *fakeConn) drop(err error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closeErr = err
		c.mu.Unlock()
		close(c.closed)
	})
}

func (c *fakeConn) messages() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.written))
	for _, w := range c.written {
		out = append(out, string(w))
	}
	return out
}

type fakeTransport struct {
	mu         sync.Mutex
	conns      []*fakeConn
	dials      int
	failDial   bool
	failWrites bool
}

func (t *fakeTransport) Dial(ctx context.Context) (Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.dials++
	if t.failDial {
		return nil, errors.New("connection refused")
	}
	conn := newFakeConn(t.failWrites)
	t.conns = append(t.conns, conn)
	return conn, nil
}

func (t *fakeTransport) dialCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dials
}

func (t *fakeTransport) conn(i int) *fakeConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i >= len(t.conns) {
		return nil
	}
	return t.conns[i]
}

func (t *fakeTransport) set(fn func(t *fakeTransport)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fn(t)
}

func newTestChannel(t *testing.T, tr Transport) *Channel {
	t.Helper()
	ch := New(tr, &Config{ReconnectDelay: testDelay}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { ch.Close() })
	return ch
}

func TestChannelBuffersWhileDisconnected(t *testing.T) {
	tr := &fakeTransport{}
	ch := newTestChannel(t, tr)

	for i := 0; i < 150; i++ {
		require.NoError(t, ch.Send(i))
	}
	assert.Equal(t, DefaultQueueLimit, ch.Pending())

	ch.Connect(context.Background())
	require.Eventually(t, func() bool { return ch.State() == StateConnected }, waitFor, pollEvery)

	written := tr.conn(0).messages()
	require.Len(t, written, DefaultQueueLimit)
	assert.Equal(t, "50", written[0])
	assert.Equal(t, "149", written[len(written)-1])
	for i, msg := range written {
		assert.Equal(t, fmt.Sprint(50+i), msg)
	}
	assert.Zero(t, ch.Pending())
}

func TestChannelFlushesBeforeOnConnect(t *testing.T) {
	tr := &fakeTransport{}
	ch := newTestChannel(t, tr)

	var flushedAtConnect []string
	connected := make(chan struct{})
	ch.OnConnect(func() {
		flushedAtConnect = tr.conn(0).messages()
		close(connected)
	})

	require.NoError(t, ch.Send("a"))
	require.NoError(t, ch.Send("b"))
	require.NoError(t, ch.Send("c"))

	ch.Connect(context.Background())
	select {
	case <-connected:
	case <-time.After(waitFor):
		t.Fatal("OnConnect was not called")
	}

	assert.Equal(t, []string{`"a"`, `"b"`, `"c"`}, flushedAtConnect)
}

func TestChannelSendWhenConnectedWritesImmediately(t *testing.T) {
	tr := &fakeTransport{}
	ch := newTestChannel(t, tr)

	ch.Connect(context.Background())
	require.Eventually(t, func() bool { return ch.State() == StateConnected }, waitFor, pollEvery)

	require.NoError(t, ch.Send(map[string]string{"type": "chat_message"}))
	assert.Equal(t, []string{`{"type":"chat_message"}`}, tr.conn(0).messages())
	assert.Zero(t, ch.Pending())
}

func TestChannelSendRejectsUnserializable(t *testing.T) {
	ch := newTestChannel(t, &fakeTransport{})

	err := ch.Send(make(chan int))
	require.Error(t, err)
	assert.Zero(t, ch.Pending())
}

func TestChannelDeliversMessages(t *testing.T) {
	tr := &fakeTransport{}
	ch := newTestChannel(t, tr)

	received := make(chan string, 2)
	ch.OnMessage(func(data []byte) { received <- string(data) })

	ch.Connect(context.Background())
	require.Eventually(t, func() bool { return tr.conn(0) != nil }, waitFor, pollEvery)

	tr.conn(0).in <- []byte("one")
	tr.conn(0).in <- []byte("two")

	assert.Equal(t, "one", <-received)
	assert.Equal(t, "two", <-received)
}

func TestChannelReconnectsAfterAbnormalClose(t *testing.T) {
	tr := &fakeTransport{}
	ch := newTestChannel(t, tr)

	var connects, disconnects atomic.Int32
	ch.OnConnect(func() { connects.Add(1) })
	ch.OnDisconnect(func(error) { disconnects.Add(1) })

	ch.Connect(context.Background())
	require.Eventually(t, func() bool { return connects.Load() == 1 }, waitFor, pollEvery)

	tr.conn(0).drop(errors.New(errConnLost))
	require.Eventually(t, func() bool { return connects.Load() == 2 }, waitFor, pollEvery)

	assert.Equal(t, int32(1), disconnects.Load())
	assert.Equal(t, 2, tr.dialCount())
	assert.Equal(t, StateConnected, ch.State())
}

func TestChannelRedeliversBufferedMessagesAfterReconnect(t *testing.T) {
	tr := &fakeTransport{}
	ch := New(tr, &Config{ReconnectDelay: testDelay, MaxReconnectAttempts: 100}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { ch.Close() })

	ch.Connect(context.Background())
	require.Eventually(t, func() bool { return ch.State() == StateConnected }, waitFor, pollEvery)

	tr.set(func(t *fakeTransport) { t.failDial = true })
	tr.conn(0).drop(errors.New(errConnLost))
	require.Eventually(t, func() bool { return ch.State() == StateReconnecting }, waitFor, pollEvery)

	require.NoError(t, ch.Send(1))
	require.NoError(t, ch.Send(2))
	require.NoError(t, ch.Send(3))

	tr.set(func(t *fakeTransport) { t.failDial = false })
	require.Eventually(t, func() bool { return ch.State() == StateConnected }, waitFor, pollEvery)

	assert.Equal(t, []string{"1", "2", "3"}, tr.conn(1).messages())
	assert.Empty(t, tr.conn(0).messages())
}

func TestChannelGivesUpAfterMaxAttempts(t *testing.T) {
	tr := &fakeTransport{failDial: true}
	ch := newTestChannel(t, tr)

	var giveUps atomic.Int32
	ch.OnGiveUp(func() { giveUps.Add(1) })

	ch.Connect(context.Background())
	require.Eventually(t, func() bool { return ch.State() == StateGaveUp }, waitFor, pollEvery)

	time.Sleep(5 * testDelay)
	assert.Equal(t, DefaultMaxReconnectAttempts, tr.dialCount())
	assert.Equal(t, int32(1), giveUps.Load())

	// a manual connect starts a fresh budget
	ch.Connect(context.Background())
	require.Eventually(t, func() bool { return tr.dialCount() == 2*DefaultMaxReconnectAttempts }, waitFor, pollEvery)
	require.Eventually(t, func() bool { return ch.State() == StateGaveUp }, waitFor, pollEvery)
	assert.Equal(t, int32(2), giveUps.Load())
}

func TestChannelSuccessResetsFailureCount(t *testing.T) {
	tr := &fakeTransport{}
	ch := newTestChannel(t, tr)

	var connects atomic.Int32
	ch.OnConnect(func() { connects.Add(1) })

	ch.Connect(context.Background())
	for i := 0; i < DefaultMaxReconnectAttempts+2; i++ {
		want := int32(i + 1)
		require.Eventually(t, func() bool { return connects.Load() == want }, waitFor, pollEvery)
		tr.conn(i).drop(errors.New(errConnLost))
	}

	require.Eventually(t, func() bool { return ch.State() == StateConnected }, waitFor, pollEvery)
}

func TestChannelNormalClosureDoesNotReconnect(t *testing.T) {
	tr := &fakeTransport{}
	ch := newTestChannel(t, tr)

	disconnected := make(chan error, 1)
	ch.OnDisconnect(func(err error) { disconnected <- err })

	ch.Connect(context.Background())
	require.Eventually(t, func() bool { return ch.State() == StateConnected }, waitFor, pollEvery)

	tr.conn(0).drop(fmt.Errorf("%w: bye", ErrNormalClosure))
	err := <-disconnected
	assert.ErrorIs(t, err, ErrNormalClosure)

	time.Sleep(5 * testDelay)
	assert.Equal(t, StateDisconnected, ch.State())
	assert.Equal(t, 1, tr.dialCount())
}

func TestChannelWriteFailureRequeues(t *testing.T) {
	tr := &fakeTransport{failWrites: true}
	ch := newTestChannel(t, tr)

	ch.Connect(context.Background())
	require.Eventually(t, func() bool { return ch.State() == StateConnected }, waitFor, pollEvery)

	tr.set(func(t *fakeTransport) { t.failWrites = false })
	require.NoError(t, ch.Send("hello"))

	require.Eventually(t, func() bool { return tr.conn(1) != nil && ch.State() == StateConnected }, waitFor, pollEvery)
	assert.Equal(t, []string{`"hello"`}, tr.conn(1).messages())
	assert.Zero(t, ch.Pending())
}

func TestChannelWriteFailureReportsAbnormalDisconnect(t *testing.T) {
	tr := &fakeTransport{failWrites: true}
	ch := newTestChannel(t, tr)

	disconnected := make(chan error, 1)
	ch.OnDisconnect(func(err error) {
		select {
		case disconnected <- err:
		default:
		}
	})

	ch.Connect(context.Background())
	require.Eventually(t, func() bool { return ch.State() == StateConnected }, waitFor, pollEvery)
	require.NoError(t, ch.Send("hello"))

	err := <-disconnected
	assert.NotErrorIs(t, err, ErrNormalClosure)
	assert.ErrorContains(t, err, "broken pipe")
}

func TestChannelConnectIsIdempotent(t *testing.T) {
	tr := &fakeTransport{}
	ch := newTestChannel(t, tr)

	ch.Connect(context.Background())
	ch.Connect(context.Background())
	require.Eventually(t, func() bool { return ch.State() == StateConnected }, waitFor, pollEvery)
	ch.Connect(context.Background())

	time.Sleep(3 * testDelay)
	assert.Equal(t, 1, tr.dialCount())
}

func TestChannelCloseStopsReconnecting(t *testing.T) {
	tr := &fakeTransport{failDial: true}
	ch := newTestChannel(t, tr)

	ch.Connect(context.Background())
	require.Eventually(t, func() bool { return tr.dialCount() >= 1 }, waitFor, pollEvery)
	require.NoError(t, ch.Close())

	dials := tr.dialCount()
	time.Sleep(5 * testDelay)
	assert.LessOrEqual(t, tr.dialCount(), dials+1)
	assert.Equal(t, StateDisconnected, ch.State())
}
