package clients

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/maxogod/distro-lottery/src/common/logger"
	"github.com/maxogod/distro-lottery/src/common/models"
	"github.com/maxogod/distro-lottery/src/common/network"
	"github.com/maxogod/distro-lottery/src/common/poison"
	"github.com/maxogod/distro-lottery/src/common/protocol"
	"github.com/maxogod/distro-lottery/src/server/business/coordination"
	"github.com/maxogod/distro-lottery/src/server/config"
	"github.com/maxogod/distro-lottery/src/server/internal/metrics"
	"github.com/maxogod/distro-lottery/src/server/storage"
)

type agencySession struct {
	Id         string
	connection network.ConnectionInterface
	protocol   protocol.Protocol
	storage    storage.BetStorage
	barrier    coordination.Barrier
	config     *config.Config

	// agency is learned from the first accepted bet, 0 while unknown
	agency models.AgencyID

	running   atomic.Bool
	closeOnce sync.Once
}

func NewAgencySession(
	id string,
	conn network.ConnectionInterface,
	betStorage storage.BetStorage,
	barrier coordination.Barrier,
	conf *config.Config,
) AgencySession {
	s := &agencySession{
		Id:         id,
		connection: conn,
		protocol:   protocol.NewProtocol(),
		storage:    betStorage,
		barrier:    barrier,
		config:     conf,
	}
	s.running.Store(true)
	return s
}

func (s *agencySession) GetId() string {
	return s.Id
}

func (s *agencySession) IsFinished() bool {
	return !s.running.Load()
}

func (s *agencySession) ProcessRequest(ctx context.Context) error {
	s.connection.SetIdleTimeout(s.config.IdleTimeout)

	// a blocked read only notices shutdown once its socket is closed
	stop := context.AfterFunc(ctx, s.Close)
	defer stop()
	defer s.Close()

	logger.Logger.Debugf("[%s] action: session_started | peer: %s", s.Id, s.connection.RemoteAddr())

	for {
		messageType, err := s.protocol.ReadMessageType(s.connection)
		if err != nil {
			return s.handleSessionError(ctx, err)
		}
		logger.Logger.Debugf("[%s] action: reading_message_type | message_type: %d", s.Id, messageType)

		switch messageType {
		case protocol.BatchStart:
			keepGoing, err := s.handleBatch()
			if err != nil {
				return s.handleSessionError(ctx, err)
			}
			if !keepGoing {
				return nil
			}

		case protocol.FinishedTransmission:
			if err := s.handleFinishedTransmission(ctx); err != nil {
				return s.handleSessionError(ctx, err)
			}

		case protocol.GetLotteryResults:
			return s.handleSessionError(ctx, s.handleLotteryResults(ctx))

		default:
			logger.Logger.Errorf("[%s] action: reading_message_type | result: fail | unhandled message type: %d", s.Id, messageType)
			return fmt.Errorf("%w: unknown message type %d", protocol.ErrProtocolViolation, messageType)
		}
	}
}

func (s *agencySession) Close() {
	s.closeOnce.Do(func() {
		if err := s.connection.Close(); err != nil {
			logger.Logger.Debugf("[%s] action: closing_client_socket | result: fail | error: %v", s.Id, err)
		}
		s.running.Store(false)
		logger.Logger.Infof("[%s] action: closing_client_socket | result: success", s.Id)
	})
}

/* --- PRIVATE METHODS --- */

// handleBatch stores the accepted bets of one batch and answers it. It
// returns false when the session must end because the batch had defects.
func (s *agencySession) handleBatch() (bool, error) {
	result, err := s.protocol.ReadBatch(s.connection)
	if err != nil {
		return false, err
	}

	accepted, rejected := s.filterByAgency(result.Bets)
	rejected += result.Rejected

	if err := s.storage.StoreBets(accepted); err != nil {
		logger.Logger.Errorf("[%s] action: apuesta_recibida | result: fail | error: %v", s.Id, err)
		metrics.Batches.WithLabelValues("error").Inc()
		return false, errors.Join(err, s.protocol.SendResponse(s.connection, protocol.Error))
	}
	poison.ExitIfPoisoned("bets_stored")
	if len(accepted) > 0 {
		metrics.BetsStored.WithLabelValues(strconv.Itoa(int(s.agency))).Add(float64(len(accepted)))
	}

	if rejected > 0 {
		metrics.BetsRejected.Add(float64(rejected))
		metrics.Batches.WithLabelValues("error").Inc()
		logger.Logger.Infof("[%s] action: apuesta_recibida | result: fail | cantidad: %d", s.Id, rejected)
		// a defective batch ends the dialogue, already stored bets are kept
		return false, s.protocol.SendResponse(s.connection, protocol.Error)
	}

	metrics.Batches.WithLabelValues("success").Inc()
	logger.Logger.Infof("[%s] action: apuesta_recibida | result: success | cantidad: %d", s.Id, len(accepted))
	return true, s.protocol.SendResponse(s.connection, protocol.Success)
}

// filterByAgency keeps the bets of the session's agency. The first valid bet
// fixes that agency for the rest of the connection.
func (s *agencySession) filterByAgency(bets []models.Bet) ([]models.Bet, int) {
	accepted := make([]models.Bet, 0, len(bets))
	rejected := 0

	for _, bet := range bets {
		if int(bet.Agency) < 1 || int(bet.Agency) > s.config.Lottery.Agencies {
			logger.Logger.Debugf("[%s] action: apuesta_recibida | result: fail | unknown agency: %d", s.Id, bet.Agency)
			rejected++
			continue
		}
		if s.agency == 0 {
			s.agency = bet.Agency
			s.barrier.Register(s.finisherKey())
			logger.Logger.Debugf("[%s] action: agency_identified | agency: %d", s.Id, s.agency)
		}
		if bet.Agency != s.agency {
			logger.Logger.Debugf("[%s] action: apuesta_recibida | result: fail | agency %d on a connection of agency %d", s.Id, bet.Agency, s.agency)
			rejected++
			continue
		}
		accepted = append(accepted, bet)
	}

	return accepted, rejected
}

func (s *agencySession) handleFinishedTransmission(ctx context.Context) error {
	var (
		key    string
		opened bool
		err    error
	)
	if s.agency != 0 {
		key = s.finisherKey()
		logger.Logger.Debugf("[%s] action: finished_sending_batches | finisher: %s", s.Id, key)
		opened, err = s.barrier.SignalFinished(ctx, key)
	} else {
		// counts only while some agency has not sent a bet yet
		key = "session-" + s.Id
		logger.Logger.Warnf("[%s] action: finished_sending_batches | agency unknown, counting the session itself | peer: %s", s.Id, s.connection.RemoteAddr())
		opened, err = s.barrier.SignalAnonymousFinished(ctx, key)
	}
	if errors.Is(err, coordination.ErrLotteryFailed) {
		// waiters are answered CANT_GIVE_LOTTERY_RESULTS, this session goes on
		return nil
	}
	if err != nil {
		return err
	}
	if opened {
		logger.Logger.Infof("[%s] action: sorteo | result: success | triggered_by: %s", s.Id, key)
	}
	return nil
}

func (s *agencySession) handleLotteryResults(ctx context.Context) error {
	agency, err := s.protocol.ReadAgency(s.connection)
	if err != nil {
		return err
	}
	if int(agency) < 1 || int(agency) > s.config.Lottery.Agencies {
		return fmt.Errorf("%w: results requested for unknown agency %d", protocol.ErrProtocolViolation, agency)
	}
	logger.Logger.Debugf("[%s] action: processing_get_lottery_results | agency: %d", s.Id, agency)

	var winners models.WinnersByAgency
	if s.config.Lottery.PollResults {
		winners, err = s.barrier.Results()
	} else {
		winners, err = s.barrier.AwaitOpen(ctx)
	}

	if errors.Is(err, coordination.ErrGatePending) || errors.Is(err, coordination.ErrLotteryFailed) {
		logger.Logger.Infof("[%s] action: consulta_ganadores | result: fail | agency: %d | reason: %v", s.Id, agency, err)
		return s.protocol.SendResponse(s.connection, protocol.CantGiveLotteryResults)
	}
	if err != nil {
		return err
	}

	documents := winners.For(agency)
	if err := s.protocol.SendWinners(s.connection, documents); err != nil {
		return err
	}
	logger.Logger.Infof("[%s] action: sent_lottery_winners | result: success | agency: %d | cant_ganadores: %d", s.Id, agency, len(documents))
	return nil
}

func (s *agencySession) finisherKey() string {
	return "agency-" + strconv.Itoa(int(s.agency))
}

func (s *agencySession) handleSessionError(ctx context.Context, err error) error {
	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		logger.Logger.Infof("[%s] action: reciving_message | result: fail | reason: shutdown", s.Id)
		return nil
	case network.IsExpectedDisconnect(err):
		logger.Logger.Infof("[%s] action: reciving_message | result: fail | via: %v", s.Id, err)
		return nil
	default:
		logger.Logger.Errorf("[%s] action: reciving_message | result: fail | via: %v", s.Id, err)
		return err
	}
}
