package storage

import (
	"bufio"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/maxogod/distro-lottery/src/common/logger"
	"github.com/maxogod/distro-lottery/src/common/models"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const maxLineSize = 1024 * 1024

// diskBetStorage keeps one base64 encoded protobuf record per line.
type diskBetStorage struct {
	mu   sync.Mutex
	path string
}

func NewDiskBetStorage(path string) (BetStorage, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrapf(err, "unable to create storage dir %s", dir)
		}
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open bet storage %s", path)
	}
	if err := file.Close(); err != nil {
		return nil, errors.Wrap(err, "unable to close bet storage")
	}

	return &diskBetStorage{path: path}, nil
}

func (s *diskBetStorage) StoreBets(bets []models.Bet) error {
	if len(bets) == 0 {
		return nil
	}

	lines := make([]byte, 0, len(bets)*128)
	for _, bet := range bets {
		line, err := encodeRecord(bet)
		if err != nil {
			return err
		}
		lines = append(lines, line...)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return errors.Wrap(err, "failed to open bet storage")
	}
	defer file.Close()

	if _, err = file.Write(lines); err != nil {
		return errors.Wrap(err, "failed to write bets")
	}
	if err = file.Sync(); err != nil {
		return errors.Wrap(err, "failed to sync bet storage")
	}

	logger.Logger.Debugf("action: store_bets | result: success | amount: %d", len(bets))
	return nil
}

func (s *diskBetStorage) LoadBets(ctx context.Context) ([]models.Bet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.Open(s.path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open bet storage")
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	bets := make([]models.Bet, 0)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		bet, err := decodeRecord(line)
		if err != nil {
			return nil, errors.Wrapf(err, "corrupted record after %d bets", len(bets))
		}
		bets = append(bets, bet)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "failed scanning bet storage")
	}

	return bets, nil
}

func (s *diskBetStorage) Close() error {
	return nil
}

// ==== Helper functions ====

// Integers are kept as decimal strings: structpb numbers are float64 and
// would round bet numbers above 2^53.
func encodeRecord(bet models.Bet) ([]byte, error) {
	record, err := structpb.NewStruct(map[string]any{
		"agency":     strconv.Itoa(int(bet.Agency)),
		"first_name": bet.FirstName,
		"last_name":  bet.LastName,
		"document":   bet.Document,
		"birthdate":  bet.Birthdate,
		"number":     strconv.Itoa(bet.Number),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to build bet record")
	}

	recordBytes, err := proto.Marshal(record)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal bet record")
	}

	encoded := base64.StdEncoding.EncodeToString(recordBytes)
	return append([]byte(encoded), '\n'), nil
}

func decodeRecord(line []byte) (models.Bet, error) {
	recordBytes, err := base64.StdEncoding.DecodeString(string(line))
	if err != nil {
		return models.Bet{}, errors.Wrap(err, "failed to decode base64 record")
	}

	record := &structpb.Struct{}
	if err := proto.Unmarshal(recordBytes, record); err != nil {
		return models.Bet{}, errors.Wrap(err, "failed to unmarshal bet record")
	}

	fields := record.GetFields()
	agency, err := strconv.ParseUint(fields["agency"].GetStringValue(), 10, 8)
	if err != nil {
		return models.Bet{}, errors.Wrap(err, "invalid agency in bet record")
	}
	number, err := strconv.Atoi(fields["number"].GetStringValue())
	if err != nil {
		return models.Bet{}, errors.Wrap(err, "invalid number in bet record")
	}

	return models.Bet{
		Agency:    models.AgencyID(agency),
		FirstName: fields["first_name"].GetStringValue(),
		LastName:  fields["last_name"].GetStringValue(),
		Document:  fields["document"].GetStringValue(),
		Birthdate: fields["birthdate"].GetStringValue(),
		Number:    number,
	}, nil
}
