package coordination

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/maxogod/distro-lottery/src/common/logger"
	"github.com/maxogod/distro-lottery/src/common/models"
	"github.com/maxogod/distro-lottery/src/server/business/lottery"
	"github.com/maxogod/distro-lottery/src/server/internal/metrics"
)

var (
	// ErrGatePending means not every agency has finished yet.
	ErrGatePending = errors.New("lottery gate is still pending")

	// ErrLotteryFailed means the single lottery run ended with an error other
	// than cancellation. The gate will never open.
	ErrLotteryFailed = errors.New("lottery could not be run")

	// ErrLotteryAlreadyRun is an internal invariant breach: a second run
	// tried to publish results.
	ErrLotteryAlreadyRun = errors.New("lottery already published")
)

type barrier struct {
	agencies  int
	engine    lottery.Engine
	listeners []ResultListener

	mu         sync.Mutex
	finished   map[string]struct{}
	identified map[string]struct{}
	anonymous  map[string]struct{}
	triggered  bool

	// closed exactly once each; winners and runErr are written before the close
	opened  chan struct{}
	failed  chan struct{}
	winners models.WinnersByAgency
	runErr  error
}

func NewBarrier(agencies int, engine lottery.Engine, listeners ...ResultListener) Barrier {
	return &barrier{
		agencies:   agencies,
		engine:     engine,
		listeners:  listeners,
		finished:   make(map[string]struct{}, agencies),
		identified: make(map[string]struct{}, agencies),
		anonymous:  make(map[string]struct{}),
		opened:     make(chan struct{}),
		failed:     make(chan struct{}),
	}
}

func (b *barrier) Register(key string) {
	b.mu.Lock()
	b.identified[key] = struct{}{}
	count := b.countLocked()
	triggered := b.triggered
	b.mu.Unlock()

	if !triggered {
		metrics.FinishedAgencies.Set(float64(count))
	}
}

func (b *barrier) SignalFinished(ctx context.Context, key string) (bool, error) {
	return b.signal(ctx, key, false)
}

func (b *barrier) SignalAnonymousFinished(ctx context.Context, key string) (bool, error) {
	return b.signal(ctx, key, true)
}

func (b *barrier) AwaitOpen(ctx context.Context) (models.WinnersByAgency, error) {
	select {
	case <-b.opened:
		return b.winners, nil
	case <-b.failed:
		return nil, fmt.Errorf("%w: %v", ErrLotteryFailed, b.runErr)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *barrier) Results() (models.WinnersByAgency, error) {
	select {
	case <-b.opened:
		return b.winners, nil
	case <-b.failed:
		return nil, fmt.Errorf("%w: %v", ErrLotteryFailed, b.runErr)
	default:
		return nil, ErrGatePending
	}
}

func (b *barrier) FinishedCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.countLocked()
}

/* --- PRIVATE METHODS --- */

func (b *barrier) signal(ctx context.Context, key string, anonymous bool) (bool, error) {
	b.mu.Lock()
	seen := b.finished
	if anonymous {
		seen = b.anonymous
	}
	if _, ok := seen[key]; ok {
		count := b.countLocked()
		b.mu.Unlock()
		logger.Logger.Warnf("action: finished_transmission | result: ignored | reason: duplicate | finisher: %s | finished: %d/%d",
			key, count, b.agencies)
		return false, nil
	}
	if b.countLocked() >= b.agencies {
		b.mu.Unlock()
		logger.Logger.Warnf("action: finished_transmission | result: ignored | reason: all agencies already finished | finisher: %s", key)
		return false, nil
	}
	if anonymous && len(b.anonymous) >= b.anonymousSlotsLocked() {
		b.mu.Unlock()
		logger.Logger.Warnf("action: finished_transmission | result: ignored | reason: every unfinished agency already identified | finisher: %s", key)
		return false, nil
	}

	if anonymous {
		b.anonymous[key] = struct{}{}
	} else {
		b.finished[key] = struct{}{}
		b.identified[key] = struct{}{}
	}
	count := b.countLocked()
	mustRun := count == b.agencies && !b.triggered
	if mustRun {
		b.triggered = true
	}
	b.mu.Unlock()

	metrics.FinishedAgencies.Set(float64(count))
	logger.Logger.Infof("action: finished_transmission | result: success | finisher: %s | finished: %d/%d", key, count, b.agencies)

	if !mustRun {
		return false, nil
	}
	return b.runLottery(ctx)
}

// anonymousSlotsLocked is how many agencies have not been identified yet. Only
// those can be stood in for by a finisher that never sent a bet.
func (b *barrier) anonymousSlotsLocked() int {
	return max(0, b.agencies-len(b.identified))
}

func (b *barrier) countLocked() int {
	return len(b.finished) + min(len(b.anonymous), b.anonymousSlotsLocked())
}

func (b *barrier) runLottery(ctx context.Context) (bool, error) {
	logger.Logger.Infof("action: sorteo | result: in_progress | agencies: %d", b.agencies)

	winners, err := b.engine.Run(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			metrics.LotteryRuns.WithLabelValues("aborted").Inc()
			logger.Logger.Infof("action: sorteo | result: fail | reason: shutdown")
			return false, err
		}

		metrics.LotteryRuns.WithLabelValues("failed").Inc()
		logger.Logger.Errorf("action: sorteo | result: fail | error: %v", err)
		b.runErr = err
		close(b.failed)
		return false, fmt.Errorf("%w: %v", ErrLotteryFailed, err)
	}

	if err := b.publish(winners); err != nil {
		return false, err
	}
	metrics.LotteryRuns.WithLabelValues("success").Inc()

	for _, listener := range b.listeners {
		listener(winners)
	}
	return true, nil
}

func (b *barrier) publish(winners models.WinnersByAgency) error {
	select {
	case <-b.opened:
		logger.Logger.DPanicf("action: sorteo | result: fail | error: %v", ErrLotteryAlreadyRun)
		return ErrLotteryAlreadyRun
	default:
	}

	b.winners = winners
	close(b.opened)
	return nil
}
