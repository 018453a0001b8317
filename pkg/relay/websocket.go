package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512 * 1024
)

type WebsocketTransport struct {
	url    string
	header http.Header
	dialer *websocket.Dialer
}

func NewWebsocketTransport(url string, header http.Header) *WebsocketTransport {
	return &WebsocketTransport{
		url:    url,
		header: header,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
	}
}

func (t *WebsocketTransport) Dial(ctx context.Context) (Conn, error) {
	conn, _, err := t.dialer.DialContext(ctx, t.url, t.header)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", t.url, err)
	}

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	c := &wsConn{
		conn: conn,
		done: make(chan struct{}),
	}
	go c.ping()

	return c, nil
}

type wsConn struct {
	conn      *websocket.Conn
	done      chan struct{}
	closeOnce sync.Once
}

func (c *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if err == nil {
		return data, nil
	}

	select {
	case <-c.done:
		return nil, fmt.Errorf("%w: %w", ErrNormalClosure, err)
	default:
	}

	if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		return nil, fmt.Errorf("%w: %w", ErrNormalClosure, err)
	}

	return nil, err
}

func (c *wsConn) WriteMessage(data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Close sends a normal closure frame and closes the socket. Safe to call more
// than once.
func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		if werr := c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait)); werr != nil &&
			!errors.Is(werr, websocket.ErrCloseSent) {
			err = werr
		}
		if cerr := c.conn.Close(); cerr != nil {
			err = cerr
		}
	})

	return err
}

func (c *wsConn) ping() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
