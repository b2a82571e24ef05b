package sync

import (
	"context"
	"errors"
)

var (
	// ErrClosed is returned by Call after Close.
	ErrClosed = errors.New("sync: caller closed")

	// ErrNotProcessed is returned when the engine ended a request without
	// calling the action, for example because a listener prevented it.
	ErrNotProcessed = errors.New("sync: request not processed")
)

// request is a single Call waiting in the engine's queue.
type request[T, R any] struct {
	ctx      context.Context
	item     T
	response chan response[R]
}

// response contains the outcome of a request.
type response[R any] struct {
	value R
	err   error
}

func newRequest[T, R any](ctx context.Context, item T) *request[T, R] {
	return &request[T, R]{
		ctx:      ctx,
		item:     item,
		response: make(chan response[R], 1),
	}
}

func (r *request[T, R]) sendError(err error) {
	var zero R
	r.sendResponse(zero, err)
}

func (r *request[T, R]) sendResponse(value R, err error) {
	select {
	case r.response <- response[R]{value: value, err: err}:
	default:
		// Already answered
	}
}
