package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sharetube/client/internal/controller"
	"github.com/sharetube/client/internal/directory"
	"github.com/sharetube/client/internal/domain"
	"github.com/sharetube/client/internal/player"
	"github.com/sharetube/client/internal/store"
	"github.com/sharetube/client/pkg/ctxlogger"
	"github.com/sharetube/client/pkg/redisclient"
	"github.com/sharetube/client/pkg/relay"
	"github.com/sharetube/client/pkg/validator"
	"github.com/sharetube/client/pkg/ytvideodata"
)

const (
	RelayWebsocket = "ws"
	RelayRedis     = "redis"

	httpTimeout       = 10 * time.Second
	shutdownTimeout   = 30 * time.Second
	createRoomRetries = 3
	maxUsernameLength = 32
)

type AppConfig struct {
	Username             string        `json:"username"`
	Room                 string        `json:"room"`
	DirectoryURL         string        `json:"directory_url"`
	Relay                string        `json:"relay"`
	RelayURL             string        `json:"relay_url"`
	RedisHost            string        `json:"redis_host"`
	RedisPort            int           `json:"redis_port"`
	RedisPassword        string        `json:"-"`
	APIHost              string        `json:"api_host"`
	APIPort              int           `json:"api_port"`
	LogLevel             string        `json:"log_level"`
	YoutubeAPIKey        string        `json:"-"`
	PlaylistLimit        int           `json:"playlist_limit"`
	ChatLimit            int           `json:"chat_limit"`
	QueueLimit           int           `json:"queue_limit"`
	ReconnectDelay       time.Duration `json:"reconnect_delay"`
	MaxReconnectAttempts int           `json:"max_reconnect_attempts"`
	HeartbeatInterval    time.Duration `json:"heartbeat_interval"`
}

func (cfg *AppConfig) Validate() error {
	if strings.TrimSpace(cfg.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if len(cfg.Username) > maxUsernameLength {
		return fmt.Errorf("username must be at most %d characters", maxUsernameLength)
	}
	if cfg.Room != "" && len(cfg.Room) != directory.RoomCodeLength {
		return fmt.Errorf("room code must be %d characters", directory.RoomCodeLength)
	}
	switch cfg.Relay {
	case RelayWebsocket:
		if cfg.RelayURL == "" {
			return fmt.Errorf("relay url is required for the websocket relay")
		}
	case RelayRedis:
	default:
		return fmt.Errorf("unknown relay %q", cfg.Relay)
	}
	if cfg.PlaylistLimit < 1 {
		return fmt.Errorf("playlist limit must be greater than 0")
	}
	if cfg.ChatLimit < 1 {
		return fmt.Errorf("chat limit must be greater than 0")
	}
	if cfg.QueueLimit < 1 {
		return fmt.Errorf("queue limit must be greater than 0")
	}
	if cfg.MaxReconnectAttempts < 1 {
		return fmt.Errorf("max reconnect attempts must be greater than 0")
	}
	if cfg.ReconnectDelay <= 0 || cfg.HeartbeatInterval <= 0 {
		return fmt.Errorf("reconnect delay and heartbeat interval must be positive")
	}

	return nil
}

func Run(ctx context.Context, cfg *AppConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	client, err := newClient(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer client.Close()

	server := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.APIHost, cfg.APIPort),
		Handler: client.controller.GetMux(),
	}

	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	controllerDone := make(chan error, 1)
	go func() {
		controllerDone <- client.controller.Run(runCtx)
	}()

	// graceful shutdown
	go func() {
		<-runCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(runCtx), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.ErrorContext(shutdownCtx, "failed to shut down api server", "error", err)
		}
	}()

	logger.InfoContext(runCtx, "starting api server",
		"address", server.Addr,
		"room", client.session.RoomCode,
		"role", client.session.Role,
	)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		stop()
		<-controllerDone
		return fmt.Errorf("failed to serve api: %w", err)
	}

	return <-controllerDone
}

// client is one participant: its session, the wired controller and whatever
// must be released when it stops.
type client struct {
	session    domain.Session
	controller *controller.Controller
	closers    []io.Closer
}

func (c *client) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i].Close()
	}
}

func newClient(ctx context.Context, cfg *AppConfig, logger *slog.Logger) (*client, error) {
	validate := validator.NewValidator()
	httpClient := &http.Client{Timeout: httpTimeout}
	dir := directory.New(cfg.DirectoryURL, httpClient, validate, logger)

	session, joined, err := enterRoom(ctx, cfg, dir)
	if err != nil {
		return nil, err
	}

	c := &client{session: session}

	transport, err := c.newTransport(ctx, cfg, session.RoomCode)
	if err != nil {
		c.Close()
		return nil, err
	}

	channel := relay.New(transport, &relay.Config{
		ReconnectDelay:       cfg.ReconnectDelay,
		MaxReconnectAttempts: cfg.MaxReconnectAttempts,
		QueueLimit:           cfg.QueueLimit,
	}, logger)

	catalog := ytvideodata.New(cfg.YoutubeAPIKey, ytvideodata.WithHTTPClient(httpClient))
	if !catalog.Configured() {
		logger.InfoContext(ctx, "no youtube api key, using the offline catalog")
	}

	engine := player.New(logger)
	roomStore := store.New(session, engine, &store.Config{ChatLimit: cfg.ChatLimit}, logger)
	if joined != nil {
		roomStore.Seed(joined.CurrentVideo, joined.Queue)
	}

	c.controller = controller.New(&controller.Params{
		Session:   session,
		Channel:   channel,
		Store:     roomStore,
		Engine:    engine,
		Catalog:   catalog,
		Validator: validate,
		Logger:    logger,
		Config: &controller.Config{
			PlaylistLimit:     cfg.PlaylistLimit,
			HeartbeatInterval: cfg.HeartbeatInterval,
		},
	})

	return c, nil
}

// enterRoom creates a room when none is configured and joins it otherwise.
// Without a directory the room code is only generated or taken as is.
func enterRoom(ctx context.Context, cfg *AppConfig, dir *directory.Client) (domain.Session, *directory.JoinRoomResponse, error) {
	session := domain.Session{Username: cfg.Username}

	if cfg.Room != "" {
		session.Role = domain.RoleGuest
		session.RoomCode = strings.ToUpper(cfg.Room)
		if cfg.DirectoryURL == "" {
			return session, nil, nil
		}

		resp, err := dir.JoinRoom(ctx, &directory.JoinRoomParams{
			RoomCode: session.RoomCode,
			Username: session.Username,
		})
		if err != nil {
			return domain.Session{}, nil, fmt.Errorf("failed to join room %s: %w", session.RoomCode, err)
		}

		return session, resp, nil
	}

	session.Role = domain.RoleHost
	if cfg.DirectoryURL == "" {
		session.RoomCode = dir.GenerateRoomCode()
		return session, nil, nil
	}

	for range createRoomRetries {
		resp, err := dir.CreateRoom(ctx, &directory.CreateRoomParams{
			RoomCode: dir.GenerateRoomCode(),
			Host:     session.Username,
		})
		if errors.Is(err, directory.ErrRoomExists) {
			continue
		}
		if err != nil {
			return domain.Session{}, nil, fmt.Errorf("failed to create room: %w", err)
		}

		session.RoomCode = resp.RoomCode
		return session, nil, nil
	}

	return domain.Session{}, nil, fmt.Errorf("failed to create room: %w", directory.ErrRoomExists)
}

func (c *client) newTransport(ctx context.Context, cfg *AppConfig, roomCode string) (relay.Transport, error) {
	switch cfg.Relay {
	case RelayRedis:
		rc, err := redisclient.NewRedisClient(ctx, &redisclient.Config{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create redis client: %w", err)
		}
		c.closers = append(c.closers, rc)

		return relay.NewRedisTransport(rc, roomCode), nil
	default:
		u, err := url.Parse(cfg.RelayURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse relay url: %w", err)
		}
		query := u.Query()
		query.Set("room", roomCode)
		u.RawQuery = query.Encode()

		return relay.NewWebsocketTransport(u.String(), nil), nil
	}
}
