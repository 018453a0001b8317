package domain

import (
	"golang.org/x/exp/slices"
)

type VideoRef struct {
	VideoId      string `json:"videoId" validate:"required"`
	Title        string `json:"title"`
	Channel      string `json:"channel"`
	ThumbnailURL string `json:"thumbnail"`
	Duration     string `json:"duration"`
}

// Equal compares by video id only.
func (v VideoRef) Equal(other VideoRef) bool {
	return v.VideoId == other.VideoId
}

// Playlist is the room queue. The head plays next. Duplicates by video id are allowed.
type Playlist struct {
	list []VideoRef
}

func NewPlaylist(videos []VideoRef) *Playlist {
	return &Playlist{
		list: slices.Clone(videos),
	}
}

func (p Playlist) AsList() []VideoRef {
	if p.list == nil {
		return []VideoRef{}
	}

	return slices.Clone(p.list)
}

func (p Playlist) Length() int {
	return len(p.list)
}

func (p Playlist) Head() (VideoRef, bool) {
	if len(p.list) == 0 {
		return VideoRef{}, false
	}

	return p.list[0], true
}

func (p *Playlist) Add(video VideoRef) {
	p.list = append(p.list, video)
}

// RemoveAt removes the video at index. Out of range indexes leave the playlist untouched.
func (p *Playlist) RemoveAt(index int) (VideoRef, bool) {
	if index < 0 || index >= len(p.list) {
		return VideoRef{}, false
	}

	video := p.list[index]
	p.list = slices.Delete(p.list, index, index+1)
	return video, true
}

func (p *Playlist) PopHead() (VideoRef, bool) {
	return p.RemoveAt(0)
}

func (p *Playlist) Replace(videos []VideoRef) {
	p.list = slices.Clone(videos)
}
