package client

// Client plays the agency side of the lottery dialogue.
type Client interface {

	// Start sends every bet of the agency file, announces the end of the
	// transmission and returns the agency winners. A SIGTERM/SIGINT or a
	// Shutdown call ends it early without an error.
	Start() ([]string, error)

	// Shutdown closes the connection and unblocks Start.
	Shutdown()
}
