package controller

import (
	"github.com/google/uuid"
)

// generateTimeBasedId returns a UUIDv7 so that ids sort by creation time in logs.
func (c *Controller) generateTimeBasedId() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}

	return id.String()
}
