package network

import "github.com/maxogod/distro-lottery/src/common/network"

// ConnectionManager owns the listening socket of the server.
type ConnectionManager interface {

	// StartListening binds the configured port.
	StartListening() error

	// AcceptConnection blocks until an agency connects or the listener is closed.
	AcceptConnection() (network.ConnectionInterface, error)

	// Addr returns the bound address, useful when listening on port 0.
	Addr() string

	// Close stops the listener, unblocking AcceptConnection.
	Close() error
}
