package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type joinRequest struct {
	Username string `json:"username" validate:"required,max=16"`
	RoomCode string `json:"roomCode" validate:"required,len=6,alphanum"`
	Action   string `json:"action" validate:"omitempty,oneof=play pause seek"`
}

func TestValidate(t *testing.T) {
	v := NewValidator()

	t.Run("valid", func(t *testing.T) {
		errs, ok := v.Validate(joinRequest{Username: "alice", RoomCode: "ABC123"})
		assert.True(t, ok)
		assert.Empty(t, errs)
	})

	t.Run("field names come from json tags", func(t *testing.T) {
		errs, ok := v.Validate(joinRequest{RoomCode: "AB", Action: "rewind"})
		require.False(t, ok)
		require.Len(t, errs, 3)

		codes := map[string]string{}
		for _, e := range errs {
			codes[e.Field] = e.Code
		}
		assert.Equal(t, "REQUIRED", codes["joinRequest.username"])
		assert.Equal(t, "LEN", codes["joinRequest.roomCode"])
		assert.Equal(t, "ONEOF", codes["joinRequest.action"])
	})
}

func TestStruct(t *testing.T) {
	v := NewValidator()

	err := v.Struct(joinRequest{Username: "alice", RoomCode: "ABC12!"})
	require.Error(t, err)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Equal(t, "ALPHANUM", verrs[0].Code)
	assert.Contains(t, err.Error(), "roomCode must contain only letters and digits")

	assert.NoError(t, v.Struct(joinRequest{Username: "alice", RoomCode: "ABC123"}))
}
