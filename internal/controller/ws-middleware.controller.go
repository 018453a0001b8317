package controller

import (
	"context"
	"log/slog"
	"time"

	"github.com/sharetube/client/pkg/ctxlogger"
	"github.com/sharetube/client/pkg/wsrouter"
)

func (c *Controller) eventIdWSMw() wsrouter.Middleware {
	return func(next wsrouter.HandlerFunc[any]) wsrouter.HandlerFunc[any] {
		return func(ctx context.Context, payload any) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("event_id", c.generateTimeBasedId()))
			return next(ctx, payload)
		}
	}
}

func (c *Controller) loggerWSMw() wsrouter.Middleware {
	return func(next wsrouter.HandlerFunc[any]) wsrouter.HandlerFunc[any] {
		return func(ctx context.Context, payload any) error {
			ctx = ctxlogger.AppendCtx(ctx, slog.String("message_type", wsrouter.GetMessageTypeFromCtx(ctx)))
			c.logger.DebugContext(ctx, "event received", "payload", payload)

			start := time.Now()
			err := next(ctx, payload)

			c.logger.DebugContext(ctx, "event handled",
				"processing_time_us", time.Since(start).Microseconds(),
				"queue_length", c.store.QueueLength(),
			)

			return err
		}
	}
}
