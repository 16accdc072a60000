package storage

import (
	"context"

	"github.com/maxogod/distro-lottery/src/common/models"
)

// MemoryPath selects the in-memory implementation in NewBetStorage.
const MemoryPath = ":memory:"

// BetStorage is the append-only store shared by every session. Writes are
// serialized so records from concurrent batches never interleave.
type BetStorage interface {

	// StoreBets appends bets atomically with respect to other writers.
	StoreBets(bets []models.Bet) error

	// LoadBets returns every stored bet in insertion order. It stops early
	// with ctx.Err() if ctx is cancelled.
	LoadBets(ctx context.Context) ([]models.Bet, error)

	// Close releases any resources held by the storage.
	Close() error
}

// NewBetStorage returns the disk storage at path, or the in-memory one for
// MemoryPath.
func NewBetStorage(path string) (BetStorage, error) {
	if path == MemoryPath {
		return NewInMemoryBetStorage(), nil
	}
	return NewDiskBetStorage(path)
}
