package server

import (
	"context"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/maxogod/distro-lottery/src/common/logger"
	"github.com/maxogod/distro-lottery/src/server/business/coordination"
	"github.com/maxogod/distro-lottery/src/server/business/lottery"
	"github.com/maxogod/distro-lottery/src/server/config"
	"github.com/maxogod/distro-lottery/src/server/internal/announcer"
	"github.com/maxogod/distro-lottery/src/server/internal/healthcheck"
	"github.com/maxogod/distro-lottery/src/server/internal/network"
	"github.com/maxogod/distro-lottery/src/server/internal/sessions/manager"
	"github.com/maxogod/distro-lottery/src/server/storage"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	config            *config.Config
	ctx               context.Context
	cancel            context.CancelFunc
	connectionManager network.ConnectionManager
	sessionManager    manager.SessionManager
	storage           storage.BetStorage
	announcer         announcer.Announcer
	pingServer        healthcheck.PingServer // nil when health checks are disabled
	cleanupOnce       sync.Once
}

func NewServer(conf *config.Config) (*Server, error) {
	if err := conf.Validate(); err != nil {
		logger.Logger.Errorf("action: init_server | result: fail | error: %v", err)
		return nil, err
	}

	betStorage, err := storage.NewBetStorage(conf.StoragePath)
	if err != nil {
		logger.Logger.Errorf("action: open_bet_storage | path: %s | result: fail | error: %v", conf.StoragePath, err)
		return nil, err
	}

	resultsAnnouncer, err := announcer.NewAnnouncer(conf.MiddlewareAddress)
	if err != nil {
		logger.Logger.Errorf("action: connect_middleware | result: fail | error: %v", err)
		_ = betStorage.Close()
		return nil, err
	}

	engine := lottery.NewEngine(betStorage, lottery.HasWon(conf.Lottery.WinnerNumber), conf.Lottery.Agencies)
	barrier := coordination.NewBarrier(conf.Lottery.Agencies, engine, resultsAnnouncer.Announce)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		config:            conf,
		ctx:               ctx,
		cancel:            cancel,
		connectionManager: network.NewConnectionManager(conf.Port, conf.ListenBacklog),
		sessionManager:    manager.NewSessionManager(conf, betStorage, barrier),
		storage:           betStorage,
		announcer:         resultsAnnouncer,
	}
	if conf.HealthCheckPort > 0 {
		s.pingServer = healthcheck.NewPingServer(conf.HealthCheckPort)
	}

	return s, nil
}

// Run accepts agencies until Shutdown is called or SIGTERM/SIGINT arrives,
// then waits for every session before releasing the server resources.
func (s *Server) Run() error {
	ctx := s.setupGracefulShutdown()
	defer s.cleanup()
	defer s.cancel()

	err := s.connectionManager.StartListening()
	if err != nil {
		logger.Logger.Errorf("Failed to start listening: %v", err)
		return err
	}
	logger.Logger.Infof("action: server_listening | address: %s | agencies: %d", s.connectionManager.Addr(), s.config.Lottery.Agencies)

	// closing the listener is what unblocks Accept
	stop := context.AfterFunc(ctx, func() { _ = s.connectionManager.Close() })
	defer stop()

	if s.pingServer != nil {
		if err := s.pingServer.Run(); err != nil {
			logger.Logger.Warnf("action: start_ping_server | result: fail | error: %v", err)
		}
	}

	for ctx.Err() == nil {
		s.sessionManager.ReapFinishedSessions()

		clientConnection, connErr := s.connectionManager.AcceptConnection()
		if connErr != nil {
			if ctx.Err() != nil {
				logger.Logger.Infof("action: shutdown_signal | result: closing listener")
				break
			}
			logger.Logger.Errorf("Failed to accept connection: %v", connErr)
			s.cancel()
			return connErr
		}

		s.sessionManager.StartSession(ctx, clientConnection)
	}

	return nil
}

// Addr returns the listening address once Run bound it.
func (s *Server) Addr() string {
	return s.connectionManager.Addr()
}

// Shutdown makes Run stop accepting and return after the cleanup.
func (s *Server) Shutdown() {
	s.cancel()
}

func (s *Server) setupGracefulShutdown() context.Context {
	ctx, stop := signal.NotifyContext(s.ctx, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		<-ctx.Done()
		if s.ctx.Err() == nil {
			logger.Logger.Infof("action: shutdown_signal | result: received")
		}
		s.cancel()
		stop()
	}()

	return ctx
}

func (s *Server) cleanup() {
	s.cleanupOnce.Do(func() {
		_ = s.connectionManager.Close()

		s.sessionManager.Close()
		s.sessionManager.Wait()

		if s.pingServer != nil {
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			s.pingServer.Shutdown(ctx)
			cancel()
		}

		s.announcer.Close()
		if err := s.storage.Close(); err != nil {
			logger.Logger.Errorf("action: close_bet_storage | result: fail | error: %v", err)
		}

		logger.Logger.Infof("action: shutdown | result: success")
	})
}
