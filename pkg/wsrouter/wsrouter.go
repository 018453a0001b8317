package wsrouter

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNoHandler   = errors.New("no handler registered")
	ErrPayloadType = errors.New("unexpected payload type")
)

type HandlerFunc[T any] func(ctx context.Context, payload T) error

type Middleware func(next HandlerFunc[any]) HandlerFunc[any]

// WSRouter dispatches decoded messages to handlers by message type.
type WSRouter struct {
	routes      map[string]HandlerFunc[any]
	middlewares []Middleware
}

func New() *WSRouter {
	return &WSRouter{routes: make(map[string]HandlerFunc[any])}
}

// Use appends middlewares. The first one registered runs outermost.
func (r *WSRouter) Use(mws ...Middleware) {
	r.middlewares = append(r.middlewares, mws...)
}

// Handle registers a typed handler. Registering the same type twice replaces
// the previous handler.
func Handle[T any](r *WSRouter, messageType string, handler HandlerFunc[T]) {
	r.routes[messageType] = func(ctx context.Context, payload any) error {
		typed, ok := payload.(T)
		if !ok {
			return fmt.Errorf("%w: %T for %s", ErrPayloadType, payload, messageType)
		}

		return handler(ctx, typed)
	}
}

func (r *WSRouter) Has(messageType string) bool {
	_, ok := r.routes[messageType]
	return ok
}

func (r *WSRouter) Dispatch(ctx context.Context, messageType string, payload any) error {
	handler, ok := r.routes[messageType]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoHandler, messageType)
	}

	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}

	return handler(context.WithValue(ctx, messageTypeKey, messageType), payload)
}
