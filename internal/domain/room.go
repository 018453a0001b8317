package domain

type Role string

const (
	RoleHost  Role = "host"
	RoleGuest Role = "guest"
)

// Session is fixed for the lifetime of a room session.
type Session struct {
	Username string `json:"username"`
	RoomCode string `json:"roomCode"`
	Role     Role   `json:"role"`
}

func (s Session) IsHost() bool {
	return s.Role == RoleHost
}

type Room struct {
	Code         string
	Role         Role
	CurrentVideo *CurrentVideo
	Playlist     *Playlist
	Members      *Members
	Chat         *ChatLog
}

func NewRoom(code string, role Role, chatLimit int) *Room {
	return &Room{
		Code:     code,
		Role:     role,
		Playlist: NewPlaylist(nil),
		Members:  NewMembers(),
		Chat:     NewChatLog(chatLimit),
	}
}

// Snapshot is a deep copy of the room for readers outside the dispatch loop.
type Snapshot struct {
	RoomCode     string        `json:"roomCode"`
	Role         Role          `json:"role"`
	CurrentVideo *CurrentVideo `json:"currentVideo"`
	Queue        []VideoRef    `json:"queue"`
	Users        []Member      `json:"users"`
	Messages     []ChatMessage `json:"messages"`
}

func (r Room) Snapshot() Snapshot {
	var current *CurrentVideo
	if r.CurrentVideo != nil {
		cv := *r.CurrentVideo
		if cv.Video != nil {
			video := *cv.Video
			cv.Video = &video
		}
		current = &cv
	}

	return Snapshot{
		RoomCode:     r.Code,
		Role:         r.Role,
		CurrentVideo: current,
		Queue:        r.Playlist.AsList(),
		Users:        r.Members.AsList(),
		Messages:     r.Chat.AsList(),
	}
}
