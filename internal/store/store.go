package store

import (
	"log/slog"
	"math"
	"time"

	"github.com/sharetube/client/internal/domain"
	"github.com/sharetube/client/pkg/ytvideodata"
)

const (
	DefaultChatLimit      = 500
	DefaultDriftTolerance = 2.0
	knownVideosLimit      = 1000
)

type iPlayer interface {
	LoadVideoById(videoId string, startSeconds float64)
	PlayVideo()
	PauseVideo()
	SeekTo(seconds float64)
	GetCurrentTime() float64
	GetDuration() float64
	IsPlaying() bool
}

// durationSetter is implemented by engines that cannot discover the duration
// of a loaded video themselves.
type durationSetter interface {
	SetDuration(seconds float64)
}

type Config struct {
	ChatLimit      int
	DriftTolerance float64
}

// Store is the local mirror of the room. It is not safe for concurrent use and
// is owned by the controller's dispatch loop. Every mutation has the same
// result whether it came from a local intent or from a peer.
type Store struct {
	session        domain.Session
	room           *domain.Room
	player         iPlayer
	logger         *slog.Logger
	driftTolerance float64
	now            func() time.Time
	known          map[string]domain.VideoRef
}

func New(session domain.Session, player iPlayer, cfg *Config, logger *slog.Logger) *Store {
	chatLimit, tolerance := DefaultChatLimit, DefaultDriftTolerance
	if cfg != nil {
		if cfg.ChatLimit > 0 {
			chatLimit = cfg.ChatLimit
		}
		if cfg.DriftTolerance > 0 {
			tolerance = cfg.DriftTolerance
		}
	}

	room := domain.NewRoom(session.RoomCode, session.Role, chatLimit)
	room.Members.Add(session.Username)

	return &Store{
		session:        session,
		room:           room,
		player:         player,
		logger:         logger,
		driftTolerance: tolerance,
		now:            time.Now,
		known:          make(map[string]domain.VideoRef),
	}
}

func (s *Store) Session() domain.Session {
	return s.session
}

func (s *Store) Snapshot() domain.Snapshot {
	return s.room.Snapshot()
}

func (s *Store) CurrentVideo() (domain.CurrentVideo, bool) {
	if s.room.CurrentVideo == nil {
		return domain.CurrentVideo{}, false
	}

	return *s.room.CurrentVideo, true
}

func (s *Store) QueueLength() int {
	return s.room.Playlist.Length()
}

func (s *Store) PlayerState() domain.PlayerState {
	state := domain.PlayerState{
		IsPlaying:   s.player.IsPlaying(),
		CurrentTime: s.player.GetCurrentTime(),
		Duration:    s.player.GetDuration(),
	}
	if s.room.CurrentVideo != nil {
		state.VideoId = s.room.CurrentVideo.VideoId
	}

	return state
}

// Remember records catalog metadata so that later loads by id can show a
// title and know the duration.
func (s *Store) Remember(videos ...domain.VideoRef) {
	if len(s.known)+len(videos) > knownVideosLimit {
		clear(s.known)
	}
	for _, v := range videos {
		if v.VideoId != "" {
			s.known[v.VideoId] = v
		}
	}
}

func (s *Store) KnownVideo(videoId string) (domain.VideoRef, bool) {
	v, ok := s.known[videoId]
	return v, ok
}

// Seed initializes a guest from the room directory's join response.
func (s *Store) Seed(current *domain.CurrentVideo, queue []domain.VideoRef) {
	s.Remember(queue...)
	s.room.Playlist.Replace(queue)
	if current != nil {
		s.ApplyVideoLoad(current.VideoId, current.StartTime)
	}
}

// ApplyUserJoined reports whether the roster changed.
func (s *Store) ApplyUserJoined(username string) bool {
	return s.room.Members.Add(username)
}

func (s *Store) ApplyUserLeft(username string) bool {
	return s.room.Members.RemoveByUsername(username)
}

func (s *Store) ApplyChatMessage(msg domain.ChatMessage) {
	if msg.Timestamp.IsZero() {
		msg.Timestamp = s.now().UTC()
	}

	s.room.Chat.Append(msg)
}

func (s *Store) ApplyQueueAdd(video domain.VideoRef) {
	s.Remember(video)
	s.room.Playlist.Add(video)
}

// ApplyQueueRemove removes the entry at index. Out of range indexes are
// ignored.
func (s *Store) ApplyQueueRemove(index int) (domain.VideoRef, bool) {
	removed, ok := s.room.Playlist.RemoveAt(index)
	if !ok {
		s.logger.Debug("ignoring queue removal out of range", "index", index, "length", s.room.Playlist.Length())
	}

	return removed, ok
}

// ApplyVideoLoad makes videoId the current video. Loading the video that is
// already current is a no-op, which suppresses echoes of our own loads.
func (s *Store) ApplyVideoLoad(videoId string, startTime float64) bool {
	if s.room.CurrentVideo != nil && s.room.CurrentVideo.VideoId == videoId {
		s.logger.Debug("video already loaded", "video_id", videoId)
		return false
	}

	s.load(videoId, startTime)
	return true
}

// ApplyPlayNext pops the queue head when it is the announced video and loads
// the video from the start. A replay of the current id is loaded as well.
func (s *Store) ApplyPlayNext(video domain.VideoRef) {
	s.Remember(video)
	if head, ok := s.room.Playlist.Head(); ok && head.Equal(video) {
		s.room.Playlist.PopHead()
	}

	s.load(video.VideoId, 0)
}

// AdvanceQueue loads the queue head. It reports false on an empty queue.
func (s *Store) AdvanceQueue() (domain.VideoRef, bool) {
	next, ok := s.room.Playlist.PopHead()
	if !ok {
		return domain.VideoRef{}, false
	}

	s.load(next.VideoId, 0)
	return next, true
}

func (s *Store) ApplyPlayerAction(action string, seconds float64) {
	if s.room.CurrentVideo == nil {
		s.logger.Debug("ignoring player action without video", "action", action)
		return
	}

	switch action {
	case "play":
		s.player.PlayVideo()
	case "pause":
		s.player.PauseVideo()
	case "seek":
		s.player.SeekTo(seconds)
	default:
		s.logger.Debug("ignoring unknown player action", "action", action)
	}
}

// ApplyPlayState corrects drift against a peer's periodic broadcast. It only
// applies to the video that is already current.
func (s *Store) ApplyPlayState(isPlaying bool, seconds float64, videoId string) {
	if s.room.CurrentVideo == nil || s.room.CurrentVideo.VideoId != videoId {
		return
	}

	if isPlaying != s.player.IsPlaying() {
		if isPlaying {
			s.player.PlayVideo()
		} else {
			s.player.PauseVideo()
		}
	}

	s.correctDrift(seconds)
}

// ApplyFullStateSync replaces the queue and the roster with the authoritative
// copy. The video goes through ApplyVideoLoad; when it is already loaded only
// the position is corrected.
func (s *Store) ApplyFullStateSync(current *domain.CurrentVideo, queue []domain.VideoRef, users []domain.Member) {
	s.Remember(queue...)
	s.room.Playlist.Replace(queue)
	s.room.Members.Replace(users)

	if current == nil {
		return
	}

	if !s.ApplyVideoLoad(current.VideoId, current.StartTime) {
		s.correctDrift(current.StartTime)
	}
}

func (s *Store) correctDrift(seconds float64) {
	drift := math.Abs(s.player.GetCurrentTime() - seconds)
	if drift > s.driftTolerance {
		s.logger.Debug("correcting playback drift", "drift", drift, "target", seconds)
		s.player.SeekTo(seconds)
	}
}

func (s *Store) load(videoId string, startTime float64) {
	current := &domain.CurrentVideo{
		VideoId:   videoId,
		StartTime: startTime,
	}

	ref, known := s.known[videoId]
	if known {
		current.Video = &ref
	}

	s.room.CurrentVideo = current
	s.player.LoadVideoById(videoId, startTime)

	if !known {
		return
	}
	if setter, ok := s.player.(durationSetter); ok {
		if seconds, ok := ytvideodata.ParseDurationLabel(ref.Duration); ok {
			setter.SetDuration(seconds)
		}
	}
}
