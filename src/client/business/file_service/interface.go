package file_service

import (
	"context"

	"github.com/maxogod/distro-lottery/src/common/models"
)

// FileService reads the agency bets file and groups its rows into batches.
type FileService interface {

	// ReadAsBatches sends the bets of the file to batchesCh, each batch
	// bounded by the configured bet count and encoded size, and closes the
	// channel when done. A malformed row stops the reading with an error.
	ReadAsBatches(ctx context.Context, batchesCh chan<- []models.Bet) error

	// Close releases the file if it is still open.
	Close()
}
