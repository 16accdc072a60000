package healthcheck

import "context"

// PingServer runs alongside the lottery server so orchestrators can check
// liveness on /ping and scrape /metrics.
type PingServer interface {

	// Run binds the port and serves until Shutdown. It returns once the
	// listener is up so callers can rely on Addr.
	Run() error

	// Addr returns the bound address, empty before Run.
	Addr() string

	// Shutdown stops the server, waiting for in-flight scrapes until ctx is done.
	Shutdown(ctx context.Context)
}
