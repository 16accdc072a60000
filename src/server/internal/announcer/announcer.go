package announcer

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/maxogod/distro-lottery/src/common/logger"
	"github.com/maxogod/distro-lottery/src/common/middleware"
	"github.com/maxogod/distro-lottery/src/common/models"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ResultsExchange = "lottery_results"
	agencyKeyPrefix = "agency-"
	publishTimeout  = 5 * time.Second
)

// Announcer forwards the lottery result to the message broker.
type Announcer interface {
	// Announce publishes winners. Failures are logged, never returned.
	Announce(winners models.WinnersByAgency)

	Close()
}

type announcer struct {
	exchange middleware.MessageMiddleware
}

type noopAnnouncer struct{}

// NewAnnouncer connects to the broker at url. An empty url disables the
// announcement and returns an announcer that does nothing.
func NewAnnouncer(url string) (Announcer, error) {
	if url == "" {
		return noopAnnouncer{}, nil
	}

	exchange, err := middleware.NewExchangeMiddleware(url, ResultsExchange, "fanout", "")
	if err != nil {
		return nil, err
	}
	return NewAnnouncerWithMiddleware(exchange), nil
}

func NewAnnouncerWithMiddleware(exchange middleware.MessageMiddleware) Announcer {
	return &announcer{exchange: exchange}
}

func (a *announcer) Announce(winners models.WinnersByAgency) {
	body, err := EncodeWinners(winners)
	if err != nil {
		logger.Logger.Errorf("action: announce_results | result: fail | error: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if e := a.exchange.Send(ctx, body); e != middleware.MessageMiddlewareSuccess {
		logger.Logger.Errorf("action: announce_results | result: fail | middleware error: %d", e)
		return
	}
	logger.Logger.Infof("action: announce_results | result: success | agencies: %v", agencies(winners))
}

func (a *announcer) Close() {
	if e := a.exchange.Close(); e != middleware.MessageMiddlewareSuccess {
		logger.Logger.Warnf("action: announcer_close | result: fail | middleware error: %d", e)
	}
}

func (noopAnnouncer) Announce(models.WinnersByAgency) {}

func (noopAnnouncer) Close() {}

// EncodeWinners serialises winners as a protobuf Struct keyed "agency-<id>".
func EncodeWinners(winners models.WinnersByAgency) ([]byte, error) {
	fields := make(map[string]any, len(winners))
	for agency, documents := range winners {
		values := make([]any, len(documents))
		for i, document := range documents {
			values[i] = document
		}
		fields[agencyKeyPrefix+strconv.Itoa(int(agency))] = values
	}

	message, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(message)
}

// agencies lists the announced agency ids in ascending order.
func agencies(winners models.WinnersByAgency) []models.AgencyID {
	ids := make([]models.AgencyID, 0, len(winners))
	for id := range winners {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
