package clients

import "context"

// AgencySession represents one agency connection and its protocol dialogue.
type AgencySession interface {
	// GetId returns the unique id of the session.
	GetId() string

	// IsFinished checks if the session has ended.
	IsFinished() bool

	// ProcessRequest runs the dialogue until the agency disconnects, a
	// terminal message is handled, an error occurs or ctx is cancelled.
	// Expected endings (peer closed, idle timeout, shutdown) return nil.
	ProcessRequest(ctx context.Context) error

	// Close releases the connection. It unblocks a pending read and is safe to
	// call from any goroutine.
	Close()
}
