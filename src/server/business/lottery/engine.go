package lottery

import (
	"context"
	"time"

	"github.com/maxogod/distro-lottery/src/common/logger"
	"github.com/maxogod/distro-lottery/src/common/models"
	"github.com/maxogod/distro-lottery/src/server/internal/metrics"
	"github.com/maxogod/distro-lottery/src/server/storage"
)

// LOTTERY_WINNER_NUMBER is the number drawn when none is configured.
const LOTTERY_WINNER_NUMBER = 7574

// WinningPredicate decides whether a bet won. It must be deterministic.
type WinningPredicate func(bet models.Bet) bool

// HasWon returns the predicate matching bets on winnerNumber.
func HasWon(winnerNumber int) WinningPredicate {
	return func(bet models.Bet) bool {
		return bet.Number == winnerNumber
	}
}

// Engine evaluates every stored bet and partitions the winners by agency.
type Engine interface {
	// Run loads all bets and returns the winners of every agency 1..N.
	// A cancelled ctx aborts the evaluation and no partial result is returned.
	Run(ctx context.Context) (models.WinnersByAgency, error)
}

type engine struct {
	storage  storage.BetStorage
	hasWon   WinningPredicate
	agencies int
}

func NewEngine(betStorage storage.BetStorage, hasWon WinningPredicate, agencies int) Engine {
	return &engine{
		storage:  betStorage,
		hasWon:   hasWon,
		agencies: agencies,
	}
}

func (e *engine) Run(ctx context.Context) (models.WinnersByAgency, error) {
	start := time.Now()
	defer func() { metrics.LotteryDuration.Observe(time.Since(start).Seconds()) }()

	bets, err := e.storage.LoadBets(ctx)
	if err != nil {
		return nil, err
	}

	winners := make(models.WinnersByAgency, e.agencies)
	for agency := 1; agency <= e.agencies; agency++ {
		winners[models.AgencyID(agency)] = []string{}
	}

	totalWinners := 0
	for _, bet := range bets {
		if err := ctx.Err(); err != nil {
			logger.Logger.Infof("action: sorteo | result: fail | reason: %v", err)
			return nil, err
		}

		if e.hasWon(bet) {
			winners[bet.Agency] = append(winners[bet.Agency], bet.Document)
			totalWinners++
		}
	}

	logger.Logger.Infof("action: sorteo | result: success | bets: %d | winners: %d", len(bets), totalWinners)
	for agency, docs := range winners {
		logger.Logger.Debugf("action: sorteo | agency: %d | winners: %d", agency, len(docs))
	}

	return winners, nil
}
