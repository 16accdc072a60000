//go:build !poison

package poison

// ExitIfPoisoned kills the process with ExitCode with the configured
// probability. It only does something in binaries built with -tags poison.
func ExitIfPoisoned(point string) {}

// DuplicateIfPoisoned returns how many times an idempotent message should be
// sent: 2 with the configured probability, 1 otherwise.
// It only returns 2 in binaries built with -tags poison.
func DuplicateIfPoisoned() int {
	return 1
}
