package manager

import (
	"context"

	"github.com/maxogod/distro-lottery/src/common/network"
	"github.com/maxogod/distro-lottery/src/server/internal/sessions/clients"
)

// SessionManager owns every live agency session of the server.
type SessionManager interface {
	// StartSession registers a session for conn and serves it on its own
	// goroutine until the peer leaves or ctx is cancelled.
	StartSession(ctx context.Context, conn network.ConnectionInterface) clients.AgencySession

	// ReapFinishedSessions removes sessions that are finished but still registered.
	ReapFinishedSessions()

	// ActiveSessions returns how many sessions are registered.
	ActiveSessions() int

	// Close closes every registered session.
	Close()

	// Wait blocks until every session goroutine returned.
	Wait()
}
