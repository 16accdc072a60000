package coordination

import (
	"context"

	"github.com/maxogod/distro-lottery/src/common/models"
)

// ResultListener is notified once, after the winners are published.
type ResultListener func(winners models.WinnersByAgency)

// Barrier is the gate shared by every session. It opens exactly once, when
// the configured number of distinct agencies finished transmitting, and the
// lottery result is published along with the transition.
type Barrier interface {

	// Register marks the agency behind key as identified, so anonymous
	// finishers can no longer be counted in its place.
	Register(key string)

	// SignalFinished records that the agency identified by key is done
	// sending bets. Repeated keys are ignored. The call that completes the
	// set runs the lottery with ctx and reports opened=true on success.
	SignalFinished(ctx context.Context, key string) (opened bool, err error)

	// SignalAnonymousFinished records a finisher whose agency is unknown. It
	// only counts while some agency has not been identified yet.
	SignalAnonymousFinished(ctx context.Context, key string) (opened bool, err error)

	// AwaitOpen blocks until the gate opens, the lottery fails, or ctx is done.
	AwaitOpen(ctx context.Context) (models.WinnersByAgency, error)

	// Results returns the winners without blocking, or ErrGatePending.
	Results() (models.WinnersByAgency, error)

	// FinishedCount returns how many finishers currently count towards the gate.
	FinishedCount() int
}
