package directory

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sharetube/client/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDirectory(t *testing.T) *Client {
	t.Helper()

	rooms := map[string]bool{"TAKEN1": true}
	r := chi.NewRouter()
	r.Post("/api/rooms", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if rooms[body["roomCode"]] {
			w.WriteHeader(http.StatusConflict)
			return
		}
		rooms[body["roomCode"]] = true
		json.NewEncoder(w).Encode(map[string]string{"roomCode": body["roomCode"]})
	})
	r.Post("/api/rooms/{code}/join", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "bob", body["username"])
		assert.NotContains(t, body, "roomCode")

		if !rooms[chi.URLParam(r, "code")] {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		w.Write([]byte(`{"currentVideo":{"videoId":"dQw4w9WgXcQ","startTime":42},"queue":[{"videoId":"9bZkp7q19f0","title":"Gangnam Style"}]}`))
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return New(srv.URL+"/", srv.Client(), validator.NewValidator(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestGenerateRoomCode(t *testing.T) {
	c := New("http://localhost", http.DefaultClient, validator.NewValidator(), slog.Default())
	for i := 0; i < 20; i++ {
		assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{6}$`), c.GenerateRoomCode())
	}
}

func TestCreateRoom(t *testing.T) {
	c := newTestDirectory(t)
	ctx := context.Background()

	resp, err := c.CreateRoom(ctx, &CreateRoomParams{RoomCode: "ABC123", Host: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "ABC123", resp.RoomCode)

	_, err = c.CreateRoom(ctx, &CreateRoomParams{RoomCode: "TAKEN1", Host: "alice"})
	assert.ErrorIs(t, err, ErrRoomExists)

	_, err = c.CreateRoom(ctx, &CreateRoomParams{RoomCode: "abc", Host: "alice"})
	assert.Error(t, err)
}

func TestJoinRoom(t *testing.T) {
	c := newTestDirectory(t)
	ctx := context.Background()

	resp, err := c.JoinRoom(ctx, &JoinRoomParams{RoomCode: "TAKEN1", Username: "bob"})
	require.NoError(t, err)
	require.NotNil(t, resp.CurrentVideo)
	assert.Equal(t, "dQw4w9WgXcQ", resp.CurrentVideo.VideoId)
	assert.Equal(t, 42.0, resp.CurrentVideo.StartTime)
	require.Len(t, resp.Queue, 1)
	assert.Equal(t, "Gangnam Style", resp.Queue[0].Title)

	_, err = c.JoinRoom(ctx, &JoinRoomParams{RoomCode: "NOPE00", Username: "bob"})
	assert.ErrorIs(t, err, ErrRoomNotFound)

	_, err = c.JoinRoom(ctx, &JoinRoomParams{RoomCode: "TAKEN1"})
	assert.Error(t, err)
}
