// Package poison injects crashes and duplicated messages into binaries built
// with -tags poison.
package poison

const (
	ProbabilityEnv     = "POISON_PROBABILITY"
	DefaultProbability = 0.05

	// ExitCode identifies a poisoned exit in the container logs.
	ExitCode = 3
)
