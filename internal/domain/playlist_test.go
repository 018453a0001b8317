package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlaylist(t *testing.T) {
	v1 := VideoRef{VideoId: "v1", Title: "first"}
	v2 := VideoRef{VideoId: "v2", Title: "second"}

	t.Run("add keeps insertion order and allows duplicates", func(t *testing.T) {
		p := NewPlaylist(nil)
		p.Add(v1)
		p.Add(v2)
		p.Add(v1)

		assert.Equal(t, []VideoRef{v1, v2, v1}, p.AsList())
	})

	t.Run("remove out of range is a no-op", func(t *testing.T) {
		p := NewPlaylist([]VideoRef{v1, v2})

		for _, index := range []int{-1, 2, 100} {
			_, ok := p.RemoveAt(index)
			assert.False(t, ok, "index %d", index)
			assert.Equal(t, 2, p.Length())
		}

		removed, ok := p.RemoveAt(1)
		assert.True(t, ok)
		assert.Equal(t, v2, removed)
		assert.Equal(t, []VideoRef{v1}, p.AsList())
	})

	t.Run("pop head", func(t *testing.T) {
		p := NewPlaylist([]VideoRef{v1, v2})

		head, ok := p.PopHead()
		assert.True(t, ok)
		assert.Equal(t, v1, head)

		head, ok = p.Head()
		assert.True(t, ok)
		assert.Equal(t, v2, head)

		p.PopHead()
		_, ok = p.PopHead()
		assert.False(t, ok)
	})

	t.Run("as list returns a copy", func(t *testing.T) {
		p := NewPlaylist([]VideoRef{v1})
		list := p.AsList()
		list[0].Title = "changed"

		head, _ := p.Head()
		assert.Equal(t, "first", head.Title)
	})

	t.Run("equality is by video id", func(t *testing.T) {
		assert.True(t, v1.Equal(VideoRef{VideoId: "v1", Title: "other"}))
		assert.False(t, v1.Equal(v2))
	})
}
