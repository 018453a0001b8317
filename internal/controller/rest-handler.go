package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/sharetube/client/internal/domain"
	"github.com/sharetube/client/pkg/rest"
	"github.com/sharetube/client/pkg/ytvideodata"
)

func (c *Controller) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrEmptyMessage),
		errors.Is(err, ErrIndexOutOfRange),
		errors.Is(err, ErrInvalidPosition),
		errors.Is(err, ErrInvalidVideo):
		status = http.StatusBadRequest
	case errors.Is(err, ytvideodata.ErrVideoNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrNoVideo),
		errors.Is(err, ErrQueueEmpty),
		errors.Is(err, ErrPlaylistLimitReached),
		errors.Is(err, ErrStaleResult):
		status = http.StatusConflict
	case errors.Is(err, ErrCatalog):
		status = http.StatusBadGateway
	case errors.Is(err, ErrStopped):
		status = http.StatusServiceUnavailable
	}

	if status >= http.StatusInternalServerError {
		c.logger.WarnContext(r.Context(), "request failed", "status", status, "error", err)
	} else {
		c.logger.DebugContext(r.Context(), "request rejected", "status", status, "error", err)
	}

	rest.WriteJSON(w, status, rest.Envelope{"error": err.Error()})
}

// readInput decodes and validates the body. It writes the response itself
// and reports false on failure.
func (c *Controller) readInput(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := rest.ReadJSON(r, dst); err != nil {
		rest.WriteJSON(w, http.StatusUnprocessableEntity, rest.Envelope{"error": err.Error()})
		return false
	}

	if validationErrors, ok := c.validate.Validate(dst); !ok {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"errors": validationErrors})
		return false
	}

	return true
}

func (c *Controller) getRoom(w http.ResponseWriter, r *http.Request) {
	view, err := c.Snapshot(r.Context())
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": view})
}

func (c *Controller) reconnect(w http.ResponseWriter, r *http.Request) {
	if err := c.Reconnect(r.Context()); err != nil {
		c.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *Controller) play(w http.ResponseWriter, r *http.Request) {
	if err := c.Play(r.Context()); err != nil {
		c.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *Controller) pause(w http.ResponseWriter, r *http.Request) {
	if err := c.Pause(r.Context()); err != nil {
		c.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type seekInput struct {
	Seconds *float64 `json:"seconds" validate:"required,min=0"`
}

func (c *Controller) seek(w http.ResponseWriter, r *http.Request) {
	var input seekInput
	if !c.readInput(w, r, &input) {
		return
	}

	if err := c.Seek(r.Context(), *input.Seconds); err != nil {
		c.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type videoInput struct {
	VideoId string `json:"videoId" validate:"required_without=URL"`
	URL     string `json:"url" validate:"required_without=VideoId,omitempty,url"`
}

// resolveVideoInput accepts either a video id or any watch, share or embed url.
func (c *Controller) resolveVideoInput(w http.ResponseWriter, r *http.Request) (domain.VideoRef, bool) {
	var input videoInput
	if !c.readInput(w, r, &input) {
		return domain.VideoRef{}, false
	}

	videoId := input.VideoId
	if videoId == "" {
		videoId, _ = ytvideodata.ExtractVideoID(input.URL)
	}
	if !ytvideodata.IsValidVideoID(videoId) {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "invalid video id"})
		return domain.VideoRef{}, false
	}

	video, err := c.ResolveVideo(r.Context(), videoId)
	if err != nil {
		c.writeError(w, r, err)
		return domain.VideoRef{}, false
	}

	return video, true
}

func (c *Controller) loadVideo(w http.ResponseWriter, r *http.Request) {
	video, ok := c.resolveVideoInput(w, r)
	if !ok {
		return
	}

	if err := c.LoadVideo(r.Context(), video); err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": video})
}

func (c *Controller) playNext(w http.ResponseWriter, r *http.Request) {
	video, err := c.PlayNext(r.Context())
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": video})
}

func (c *Controller) addToQueue(w http.ResponseWriter, r *http.Request) {
	video, ok := c.resolveVideoInput(w, r)
	if !ok {
		return
	}

	if err := c.AddToQueue(r.Context(), video); err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusCreated, rest.Envelope{"data": video})
}

func (c *Controller) removeFromQueue(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "index must be an integer"})
		return
	}

	removed, err := c.RemoveFromQueue(r.Context(), index)
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": removed})
}

type chatInput struct {
	Message string `json:"message" validate:"required,max=1000"`
}

func (c *Controller) sendChat(w http.ResponseWriter, r *http.Request) {
	var input chatInput
	if !c.readInput(w, r, &input) {
		return
	}

	if err := c.SendChat(r.Context(), input.Message); err != nil {
		c.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *Controller) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		rest.WriteJSON(w, http.StatusBadRequest, rest.Envelope{"error": "q is required"})
		return
	}

	videos, err := c.Search(r.Context(), query)
	if err != nil {
		c.writeError(w, r, err)
		return
	}

	rest.WriteJSON(w, http.StatusOK, rest.Envelope{"data": videos})
}
