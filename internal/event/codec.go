package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sharetube/client/pkg/validator"
)

var (
	ErrUnknownType = errors.New("unknown event type")
	ErrMalformed   = errors.New("malformed event")
)

type Codec struct {
	validator *validator.Validator
	logger    *slog.Logger
}

func NewCodec(validator *validator.Validator, logger *slog.Logger) *Codec {
	return &Codec{
		validator: validator,
		logger:    logger,
	}
}

// Decode parses raw into a typed event. It returns ErrUnknownType for kinds
// outside the protocol and ErrMalformed for anything that does not parse or
// validate. A nil error means every required field is present.
func (c *Codec) Decode(ctx context.Context, raw []byte) (Event, error) {
	var header Header
	if err := json.Unmarshal(raw, &header); err != nil {
		c.logger.WarnContext(ctx, "dropping unparseable event", "error", err)
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if header.Type == "" {
		c.logger.WarnContext(ctx, "dropping event without type")
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	newEvent, ok := registry[header.Type]
	if !ok {
		c.logger.DebugContext(ctx, "ignoring unknown event type", "type", header.Type)
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, header.Type)
	}

	ev := newEvent()
	if err := json.Unmarshal(raw, ev); err != nil {
		c.logger.WarnContext(ctx, "dropping malformed event", "type", header.Type, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	if err := c.validator.Struct(ev); err != nil {
		c.logger.WarnContext(ctx, "dropping invalid event", "type", header.Type, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	return ev, nil
}

// Encode stamps the event with its type and sender and serializes it.
func (c *Codec) Encode(ev Event, sender string) ([]byte, error) {
	header := ev.Meta()
	header.Type = ev.Kind()
	header.Sender = sender

	if err := c.validator.Struct(ev); err != nil {
		return nil, fmt.Errorf("failed to validate %s: %w", ev.Kind(), err)
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", ev.Kind(), err)
	}

	return data, nil
}
