package storage

import (
	"context"
	"sync"

	"github.com/maxogod/distro-lottery/src/common/models"
)

type inMemoryBetStorage struct {
	mu   sync.RWMutex
	bets []models.Bet
}

func NewInMemoryBetStorage() BetStorage {
	return &inMemoryBetStorage{}
}

func (s *inMemoryBetStorage) StoreBets(bets []models.Bet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bets = append(s.bets, bets...)
	return nil
}

func (s *inMemoryBetStorage) LoadBets(ctx context.Context) ([]models.Bet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Bet(nil), s.bets...), nil
}

func (s *inMemoryBetStorage) Close() error {
	return nil
}
