package manager

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/maxogod/distro-lottery/src/common/logger"
	"github.com/maxogod/distro-lottery/src/common/network"
	"github.com/maxogod/distro-lottery/src/server/business/coordination"
	"github.com/maxogod/distro-lottery/src/server/config"
	"github.com/maxogod/distro-lottery/src/server/internal/metrics"
	"github.com/maxogod/distro-lottery/src/server/internal/sessions/clients"
	"github.com/maxogod/distro-lottery/src/server/storage"
)

type sessionManager struct {
	sessions sync.Map
	wg       sync.WaitGroup
	storage  storage.BetStorage
	barrier  coordination.Barrier
	config   *config.Config
}

func NewSessionManager(conf *config.Config, betStorage storage.BetStorage, barrier coordination.Barrier) SessionManager {
	return &sessionManager{
		sessions: sync.Map{},
		storage:  betStorage,
		barrier:  barrier,
		config:   conf,
	}
}

func (sm *sessionManager) StartSession(ctx context.Context, conn network.ConnectionInterface) clients.AgencySession {
	session := clients.NewAgencySession(uuid.NewString(), conn, sm.storage, sm.barrier, sm.config)

	sm.sessions.Store(session.GetId(), session)
	metrics.ActiveSessions.Inc()
	logger.Logger.Infof("action: client_connected | session: %s | peer: %s", session.GetId(), conn.RemoteAddr())

	sm.wg.Add(1)
	go func() {
		defer sm.wg.Done()
		defer sm.removeSession(session.GetId())

		if err := session.ProcessRequest(ctx); err != nil {
			logger.Logger.Warnf("action: session_ended | session: %s | error: %v", session.GetId(), err)
		}
	}()

	return session
}

func (sm *sessionManager) ReapFinishedSessions() {
	sm.sessions.Range(func(key, value any) bool {
		id := key.(string)
		session := value.(clients.AgencySession)

		if session.IsFinished() {
			sm.removeSession(id)
		}

		return true
	})
}

func (sm *sessionManager) ActiveSessions() int {
	count := 0
	sm.sessions.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

func (sm *sessionManager) Close() {
	sm.sessions.Range(func(key, value any) bool {
		value.(clients.AgencySession).Close()
		return true
	})
}

func (sm *sessionManager) Wait() {
	sm.wg.Wait()
}

func (sm *sessionManager) removeSession(id string) {
	if _, loaded := sm.sessions.LoadAndDelete(id); loaded {
		metrics.ActiveSessions.Dec()
	}
}
