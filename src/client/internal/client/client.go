package client

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/maxogod/distro-lottery/src/client/business/file_service"
	"github.com/maxogod/distro-lottery/src/client/config"
	"github.com/maxogod/distro-lottery/src/common/logger"
	"github.com/maxogod/distro-lottery/src/common/models"
	"github.com/maxogod/distro-lottery/src/common/network"
	"github.com/maxogod/distro-lottery/src/common/poison"
	"github.com/maxogod/distro-lottery/src/common/protocol"
)

var (
	ErrBatchRejected    = errors.New("server rejected the batch")
	ErrResultsNotReady  = errors.New("lottery results were not available")
	ErrUnexpectedAnswer = errors.New("unexpected server answer")
)

type client struct {
	conf        *config.Config
	conn        network.ConnectionInterface
	protocol    protocol.Protocol
	fileService file_service.FileService

	ctx          context.Context
	cancel       context.CancelFunc
	shutdownOnce sync.Once
}

func NewClient(conf *config.Config) Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &client{
		conf:        conf,
		conn:        network.NewConnection(),
		protocol:    protocol.NewProtocol(),
		fileService: file_service.NewFileService(conf.DataPath, conf.AgencyID, conf.Batch.MaxAmount, conf.Batch.MaxBytes),
		ctx:         ctx,
		cancel:      cancel,
	}
}

func (c *client) Start() ([]string, error) {
	ctx, stop := signal.NotifyContext(c.ctx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	defer c.Shutdown()

	// a blocked read returns once the socket is closed
	unblock := context.AfterFunc(ctx, func() {
		logger.Logger.Infof("action: shutdown_signal | result: received | client_id: %d", c.conf.AgencyID)
		c.conn.Close()
	})
	defer unblock()

	if err := c.connect(); err != nil {
		return nil, err
	}

	if err := c.sendBets(ctx); err != nil {
		return nil, c.handleError(ctx, err)
	}

	// the server ignores a repeated finish
	for range poison.DuplicateIfPoisoned() {
		if err := c.protocol.SendFinishedTransmission(c.conn); err != nil {
			return nil, c.handleError(ctx, err)
		}
	}
	logger.Logger.Infof("action: finished_transmission | result: success | client_id: %d", c.conf.AgencyID)

	winners, err := c.requestWinners(ctx)
	if err != nil {
		return nil, c.handleError(ctx, err)
	}

	logger.Logger.Infof("action: consulta_ganadores | result: success | cant_ganadores: %d", len(winners))
	return winners, nil
}

func (c *client) Shutdown() {
	c.shutdownOnce.Do(func() {
		c.cancel()
		c.conn.Close()
		c.fileService.Close()
		logger.Logger.Infof("action: closing_client_socket | result: success | client_id: %d", c.conf.AgencyID)
	})
}

/* --- PRIVATE METHODS --- */

func (c *client) connect() error {
	if err := c.conn.Connect(c.conf.ServerAddress, c.conf.ConnectionRetries); err != nil {
		logger.Logger.Errorf("action: connect | result: fail | client_id: %d | error: %v", c.conf.AgencyID, err)
		return err
	}
	return nil
}

func (c *client) sendBets(ctx context.Context) error {
	readCtx, stopReading := context.WithCancel(ctx)
	defer stopReading()

	batchesCh := make(chan []models.Bet)
	readErr := make(chan error, 1)
	go func() { readErr <- c.fileService.ReadAsBatches(readCtx, batchesCh) }()

	batchNumber := 0
	for batch := range batchesCh {
		batchNumber++
		if err := c.protocol.SendBatch(c.conn, batch); err != nil {
			return err
		}

		answer, err := c.protocol.ReadMessageType(c.conn)
		if err != nil {
			return err
		}
		if answer != protocol.Success {
			logger.Logger.Errorf("action: batch_enviado | result: fail | batch: %d | cantidad: %d", batchNumber, len(batch))
			return fmt.Errorf("%w: batch %d", ErrBatchRejected, batchNumber)
		}
		logger.Logger.Infof("action: batch_enviado | result: success | batch: %d | cantidad: %d", batchNumber, len(batch))
	}

	return <-readErr
}

// requestWinners asks for the agency winners, reconnecting while the server
// answers that the lottery has not run yet.
func (c *client) requestWinners(ctx context.Context) ([]string, error) {
	for attempt := 0; ; attempt++ {
		if err := c.protocol.SendGetLotteryResults(c.conn, c.conf.AgencyID); err != nil {
			return nil, err
		}

		answer, err := c.protocol.ReadMessageType(c.conn)
		if err != nil {
			return nil, err
		}

		switch answer {
		case protocol.LotteryWinners:
			return c.protocol.ReadWinners(c.conn)
		case protocol.CantGiveLotteryResults:
			logger.Logger.Infof("action: consulta_ganadores | result: fail | attempt: %d", attempt+1)
		default:
			return nil, fmt.Errorf("%w: %d", ErrUnexpectedAnswer, answer)
		}

		if attempt >= c.conf.Results.MaxRetries {
			return nil, ErrResultsNotReady
		}

		// the server closes the session after answering
		c.conn.Close()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.conf.Results.RetryInterval):
		}
		if err := c.connect(); err != nil {
			return nil, err
		}
	}
}

func (c *client) handleError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		// errors are expected once the connection is closed by a shutdown
		return nil
	}
	logger.Logger.Errorf("action: lottery_dialogue | result: fail | client_id: %d | error: %v", c.conf.AgencyID, err)
	return err
}
