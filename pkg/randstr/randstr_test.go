package randstr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateRandomString(t *testing.T) {
	letters := "ABC123"
	g := New([]byte(letters))

	s := g.GenerateRandomString(6)
	assert.Len(t, s, 6)
	for _, r := range s {
		assert.True(t, strings.ContainsRune(letters, r), "unexpected rune %q", r)
	}
}
