package network

import (
	"io"
	"time"
)

// ConnectionInterface is a stream connection between the lottery server and an
// agency. Reads and writes are raw; use ReadFull and WriteFull for exact-size
// transfers.
type ConnectionInterface interface {
	io.ReadWriteCloser

	// Connect dials serverAddr, retrying up to retries times.
	Connect(serverAddr string, retries int) error

	// IsConnected reports whether the connection has an open socket.
	IsConnected() bool

	// SetIdleTimeout bounds how long a single read may wait for data.
	// A zero timeout disables the bound.
	SetIdleTimeout(timeout time.Duration)

	// RemoteAddr returns the peer address, or an empty string when not connected.
	RemoteAddr() string
}
