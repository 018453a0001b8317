package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/sharetube/client/internal/domain"
	"github.com/sharetube/client/pkg/randstr"
	"github.com/sharetube/client/pkg/validator"
)

const RoomCodeLength = 6

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room already exists")
)

var roomCodeLetters = []byte("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

// Client talks to the room directory, the HTTP service that creates rooms and
// hands joiners the current video and queue.
type Client struct {
	baseURL   string
	http      *http.Client
	validator *validator.Validator
	codes     *randstr.Generator
	logger    *slog.Logger
}

func New(baseURL string, httpClient *http.Client, validator *validator.Validator, logger *slog.Logger) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      httpClient,
		validator: validator,
		codes:     randstr.New(roomCodeLetters),
		logger:    logger,
	}
}

func (c *Client) GenerateRoomCode() string {
	return c.codes.GenerateRandomString(RoomCodeLength)
}

type CreateRoomParams struct {
	RoomCode string `json:"roomCode" validate:"required,len=6,alphanum"`
	Host     string `json:"host" validate:"required,max=32"`
}

type CreateRoomResponse struct {
	RoomCode string `json:"roomCode"`
}

func (c *Client) CreateRoom(ctx context.Context, params *CreateRoomParams) (*CreateRoomResponse, error) {
	if err := c.validator.Struct(params); err != nil {
		return nil, fmt.Errorf("invalid create room params: %w", err)
	}

	var resp CreateRoomResponse
	status, err := c.post(ctx, "/api/rooms", params, &resp)
	if err != nil {
		if status == http.StatusConflict {
			return nil, ErrRoomExists
		}
		return nil, fmt.Errorf("failed to create room: %w", err)
	}

	if resp.RoomCode == "" {
		resp.RoomCode = params.RoomCode
	}

	c.logger.InfoContext(ctx, "room created", "room", resp.RoomCode)
	return &resp, nil
}

type JoinRoomParams struct {
	RoomCode string `json:"-" validate:"required,len=6,alphanum"`
	Username string `json:"username" validate:"required,max=32"`
}

type JoinRoomResponse struct {
	CurrentVideo *domain.CurrentVideo `json:"currentVideo"`
	Queue        []domain.VideoRef    `json:"queue"`
}

func (c *Client) JoinRoom(ctx context.Context, params *JoinRoomParams) (*JoinRoomResponse, error) {
	if err := c.validator.Struct(params); err != nil {
		return nil, fmt.Errorf("invalid join room params: %w", err)
	}

	var resp JoinRoomResponse
	status, err := c.post(ctx, "/api/rooms/"+url.PathEscape(params.RoomCode)+"/join", params, &resp)
	if err != nil {
		if status == http.StatusNotFound {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to join room: %w", err)
	}

	c.logger.InfoContext(ctx, "room joined", "room", params.RoomCode, "queue_length", len(resp.Queue))
	return &resp, nil
}

// post returns the response status even when it fails so that callers can map
// it to a sentinel.
func (c *Client) post(ctx context.Context, path string, body, dst any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
	}

	return resp.StatusCode, nil
}
