package controller

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sharetube/client/internal/domain"
	"github.com/sharetube/client/internal/event"
	"github.com/sharetube/client/internal/store"
	"github.com/sharetube/client/pkg/validator"
	"github.com/sharetube/client/pkg/wsrouter"
	"github.com/sharetube/client/pkg/ytvideodata"
)

const (
	DefaultPlaylistLimit     = 25
	DefaultHeartbeatInterval = 5 * time.Second
	DefaultTickInterval      = time.Second
	DefaultSearchResults     = 10
	inputBufferSize          = 256
)

var (
	ErrNoVideo              = errors.New("no video loaded")
	ErrQueueEmpty           = errors.New("queue is empty")
	ErrPlaylistLimitReached = errors.New("playlist limit reached")
	ErrIndexOutOfRange      = errors.New("queue index out of range")
	ErrEmptyMessage         = errors.New("message is empty")
	ErrInvalidPosition      = errors.New("position must not be negative")
	ErrInvalidVideo         = errors.New("invalid video")
	ErrStaleResult          = errors.New("result is stale")
	ErrStopped              = errors.New("controller stopped")
	ErrCatalog              = errors.New("catalog unavailable")
)

type iChannel interface {
	Connect(ctx context.Context)
	Send(v any) error
	Close() error
	OnConnect(fn func())
	OnDisconnect(fn func(error))
	OnMessage(fn func([]byte))
	OnGiveUp(fn func())
}

type iCatalog interface {
	Search(ctx context.Context, query string, maxResults int) ([]ytvideodata.Video, error)
	GetVideoInfo(ctx context.Context, videoId string) (*ytvideodata.Video, error)
}

// iEngine is the part of the playback engine the controller polls.
type iEngine interface {
	Ended() bool
}

type ConnState string

const (
	ConnDisconnected ConnState = "disconnected"
	ConnConnecting   ConnState = "connecting"
	ConnConnected    ConnState = "connected"
	ConnReconnecting ConnState = "reconnecting"
	ConnGaveUp       ConnState = "gave_up"
)

type Config struct {
	PlaylistLimit     int
	HeartbeatInterval time.Duration
	TickInterval      time.Duration
	SearchResults     int
}

func (cfg *Config) withDefaults() Config {
	out := Config{
		PlaylistLimit:     DefaultPlaylistLimit,
		HeartbeatInterval: DefaultHeartbeatInterval,
		TickInterval:      DefaultTickInterval,
		SearchResults:     DefaultSearchResults,
	}
	if cfg == nil {
		return out
	}
	if cfg.PlaylistLimit > 0 {
		out.PlaylistLimit = cfg.PlaylistLimit
	}
	if cfg.HeartbeatInterval > 0 {
		out.HeartbeatInterval = cfg.HeartbeatInterval
	}
	if cfg.TickInterval > 0 {
		out.TickInterval = cfg.TickInterval
	}
	if cfg.SearchResults > 0 {
		out.SearchResults = cfg.SearchResults
	}

	return out
}

// input runs on the dispatch loop.
type input func(ctx context.Context)

// Controller owns the room session. Every state change happens on the single
// goroutine running Run; other goroutines talk to it through inputCh.
type Controller struct {
	session  domain.Session
	clientId string
	cfg      Config

	channel  iChannel
	store    *store.Store
	engine   iEngine
	catalog  iCatalog
	codec    *event.Codec
	validate *validator.Validator
	mux      *wsrouter.WSRouter
	logger   *slog.Logger

	inputCh chan input
	done    chan struct{}

	// owned by the dispatch loop
	runCtx        context.Context
	conn          ConnState
	connectedOnce bool
	synced        bool
	searchGen     uint64
}

type Params struct {
	Session   domain.Session
	Channel   iChannel
	Store     *store.Store
	Engine    iEngine
	Catalog   iCatalog
	Validator *validator.Validator
	Logger    *slog.Logger
	Config    *Config
}

func New(params *Params) *Controller {
	c := &Controller{
		session:  params.Session,
		clientId: uuid.NewString(),
		cfg:      params.Config.withDefaults(),
		channel:  params.Channel,
		store:    params.Store,
		engine:   params.Engine,
		catalog:  params.Catalog,
		validate: params.Validator,
		codec:    event.NewCodec(params.Validator, params.Logger),
		logger:   params.Logger,
		inputCh:  make(chan input, inputBufferSize),
		done:     make(chan struct{}),
		conn:     ConnDisconnected,
		// the host is the source of truth and never waits for a full sync
		synced: params.Session.IsHost(),
	}
	c.mux = c.getWSRouter()

	c.channel.OnConnect(func() {
		c.submit(c.handleConnected)
	})
	c.channel.OnDisconnect(func(err error) {
		c.submit(func(ctx context.Context) { c.handleDisconnected(ctx, err) })
	})
	c.channel.OnGiveUp(func() {
		c.submit(c.handleGaveUp)
	})
	c.channel.OnMessage(func(raw []byte) {
		c.submit(func(ctx context.Context) { c.handleRaw(ctx, raw) })
	})

	return c
}

func (c *Controller) ClientId() string {
	return c.clientId
}

// submit enqueues in without blocking forever once the loop has stopped.
func (c *Controller) submit(in input) bool {
	select {
	case c.inputCh <- in:
		return true
	case <-c.done:
		return false
	}
}
