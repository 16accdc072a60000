package lottery_test

import (
	"context"
	"errors"
	"testing"

	"github.com/maxogod/distro-lottery/src/common/models"
	"github.com/maxogod/distro-lottery/src/server/business/lottery"
	"github.com/maxogod/distro-lottery/src/server/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bet(agency models.AgencyID, document string, number int) models.Bet {
	return models.Bet{Agency: agency, FirstName: "n", LastName: "s", Document: document, Birthdate: "2000-01-01", Number: number}
}

var Bets = []models.Bet{
	bet(1, "100", lottery.LOTTERY_WINNER_NUMBER),
	bet(2, "200", 1),
	bet(1, "101", 2),
	bet(3, "300", lottery.LOTTERY_WINNER_NUMBER),
	bet(1, "102", lottery.LOTTERY_WINNER_NUMBER),
	bet(2, "201", 7575),
}

type failingStorage struct {
	storage.BetStorage
	err error
}

func (f failingStorage) LoadBets(context.Context) ([]models.Bet, error) {
	return nil, f.err
}

func TestEngine_PartitionsWinnersByAgency(t *testing.T) {
	s := storage.NewInMemoryBetStorage()
	require.NoError(t, s.StoreBets(Bets))

	winners, err := lottery.NewEngine(s, lottery.HasWon(lottery.LOTTERY_WINNER_NUMBER), 5).Run(context.Background())
	require.NoError(t, err)

	expected := models.WinnersByAgency{
		1: {"100", "102"},
		2: {},
		3: {"300"},
		4: {},
		5: {},
	}
	assert.Equal(t, expected, winners)
	assert.Equal(t, []string{}, winners.For(4))
	assert.Equal(t, []string{}, winners.For(42))
}

func TestEngine_CustomPredicate(t *testing.T) {
	s := storage.NewInMemoryBetStorage()
	require.NoError(t, s.StoreBets(Bets))

	winners, err := lottery.NewEngine(s, lottery.HasWon(7575), 2).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.WinnersByAgency{1: {}, 2: {"201"}}, winners)
}

func TestEngine_NoBets(t *testing.T) {
	winners, err := lottery.NewEngine(storage.NewInMemoryBetStorage(), lottery.HasWon(1), 3).Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, winners, 3)
	for _, docs := range winners {
		assert.Empty(t, docs)
	}
}

func TestEngine_AbortsWhenCancelledMidEvaluation(t *testing.T) {
	s := storage.NewInMemoryBetStorage()
	require.NoError(t, s.StoreBets(Bets))

	ctx, cancel := context.WithCancel(context.Background())
	evaluated := 0
	predicate := func(b models.Bet) bool {
		evaluated++
		if evaluated == 2 {
			cancel()
		}
		return true
	}

	winners, err := lottery.NewEngine(s, predicate, 5).Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, winners)
	assert.Equal(t, 2, evaluated)
}

func TestEngine_StorageFailure(t *testing.T) {
	boom := errors.New("disk on fire")
	_, err := lottery.NewEngine(failingStorage{err: boom}, lottery.HasWon(1), 5).Run(context.Background())
	assert.ErrorIs(t, err, boom)
}
