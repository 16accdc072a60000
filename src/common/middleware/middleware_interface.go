package middleware

import (
	"context"
)

type MessageMiddlewareError int

const (
	MessageMiddlewareSuccess MessageMiddlewareError = iota
	MessageMiddlewareMessageError
	MessageMiddlewareDisconnectedError
	MessageMiddlewareCloseError
	MessageMiddlewareNackError
)

type MessageMiddleware interface {
	/*
	   Publishes a persistent message and waits until the broker confirms it.
	   If the connection to the broker is lost, it returns MessageMiddlewareDisconnectedError.
	   A negative confirmation returns MessageMiddlewareNackError.
	*/
	Send(ctx context.Context, message []byte) (e MessageMiddlewareError)

	/*
	   Closes the channel and the connection to the broker.
	*/
	Close() (e MessageMiddlewareError)
}
