package file_service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/maxogod/distro-lottery/src/common/logger"
	"github.com/maxogod/distro-lottery/src/common/models"
	"github.com/maxogod/distro-lottery/src/common/protocol"
)

// CSV rows are first_name,last_name,document,birthdate,number
const csvFields = 5

type fileService struct {
	path      string
	agency    models.AgencyID
	maxAmount int
	maxBytes  int

	mu   sync.Mutex
	file *os.File
}

func NewFileService(path string, agency models.AgencyID, maxAmount, maxBytes int) FileService {
	return &fileService{
		path:      path,
		agency:    agency,
		maxAmount: maxAmount,
		maxBytes:  maxBytes,
	}
}

func (fs *fileService) ReadAsBatches(ctx context.Context, batchesCh chan<- []models.Bet) error {
	defer close(batchesCh)
	logger.Logger.Debugln("Reading from file:", fs.path)

	file, err := os.Open(fs.path)
	if err != nil {
		return err
	}
	fs.mu.Lock()
	fs.file = file
	fs.mu.Unlock()
	defer fs.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = csvFields

	batch := make([]models.Bet, 0, fs.maxAmount)
	batchBytes := protocol.MessageHeaderLength + protocol.BatchLengthBytes
	line := 0

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return fmt.Errorf("invalid line %d of %s: %w", line, fs.path, err)
		}

		bet, size, err := fs.newBet(record)
		if err != nil {
			return fmt.Errorf("invalid line %d of %s: %w", line, fs.path, err)
		}
		logger.Logger.Debugf("action: apuesta_encolada | result: success | dni: %s | numero: %d", bet.Document, bet.Number)

		if len(batch) > 0 && (len(batch) == fs.maxAmount || batchBytes+size > fs.maxBytes) {
			if err := send(ctx, batchesCh, batch); err != nil {
				return err
			}
			batch = make([]models.Bet, 0, fs.maxAmount)
			batchBytes = protocol.MessageHeaderLength + protocol.BatchLengthBytes
		}

		batch = append(batch, bet)
		batchBytes += size
	}

	if len(batch) > 0 {
		return send(ctx, batchesCh, batch)
	}
	return nil
}

func (fs *fileService) Close() {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.file != nil {
		fs.file.Close()
		fs.file = nil
	}
}

// newBet builds the bet of a row and returns its encoded frame size.
func (fs *fileService) newBet(record []string) (models.Bet, int, error) {
	number, err := strconv.Atoi(record[4])
	if err != nil {
		return models.Bet{}, 0, fmt.Errorf("invalid number %q", record[4])
	}

	bet := models.Bet{
		Agency:    fs.agency,
		FirstName: record[0],
		LastName:  record[1],
		Document:  record[2],
		Birthdate: record[3],
		Number:    number,
	}

	encoded, err := protocol.EncodeBet(bet)
	if err != nil {
		return models.Bet{}, 0, err
	}
	return bet, len(encoded), nil
}

func send(ctx context.Context, batchesCh chan<- []models.Bet, batch []models.Bet) error {
	select {
	case batchesCh <- batch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
