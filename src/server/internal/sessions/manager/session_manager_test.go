package manager_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/maxogod/distro-lottery/src/common/models"
	"github.com/maxogod/distro-lottery/src/common/network"
	"github.com/maxogod/distro-lottery/src/common/protocol"
	"github.com/maxogod/distro-lottery/src/server/business/coordination"
	"github.com/maxogod/distro-lottery/src/server/business/lottery"
	"github.com/maxogod/distro-lottery/src/server/config"
	"github.com/maxogod/distro-lottery/src/server/internal/sessions/manager"
	"github.com/maxogod/distro-lottery/src/server/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(agencies int) (manager.SessionManager, storage.BetStorage) {
	conf := &config.Config{
		IdleTimeout: 5 * time.Second,
		Lottery:     config.Lottery{Agencies: agencies, WinnerNumber: lottery.LOTTERY_WINNER_NUMBER},
	}
	betStorage := storage.NewInMemoryBetStorage()
	barrier := coordination.NewBarrier(agencies, lottery.NewEngine(betStorage, lottery.HasWon(conf.Lottery.WinnerNumber), agencies))
	return manager.NewSessionManager(conf, betStorage, barrier), betStorage
}

func waitFor(t *testing.T, condition func() bool) {
	assert.Eventually(t, condition, 2*time.Second, 10*time.Millisecond)
}

func TestSessionManager_SessionRemovesItselfWhenPeerLeaves(t *testing.T) {
	sm, betStorage := newManager(2)
	serverSide, clientSide := net.Pipe()

	session := sm.StartSession(context.Background(), network.NewConnectionFromExistent(serverSide))
	require.NotNil(t, session)
	assert.NotEmpty(t, session.GetId())
	assert.Equal(t, 1, sm.ActiveSessions())

	p := protocol.NewProtocol()
	bet := models.Bet{Agency: 1, FirstName: "A", LastName: "B", Document: "1", Birthdate: "2000-01-01", Number: 1}
	require.NoError(t, p.SendBatch(clientSide, []models.Bet{bet}))
	messageType, err := p.ReadMessageType(clientSide)
	require.NoError(t, err)
	assert.Equal(t, protocol.Success, messageType)

	require.NoError(t, clientSide.Close())
	sm.Wait()

	assert.Equal(t, 0, sm.ActiveSessions())
	assert.True(t, session.IsFinished())

	bets, err := betStorage.LoadBets(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.Bet{bet}, bets)
}

func TestSessionManager_CloseEndsEverySession(t *testing.T) {
	sm, _ := newManager(2)

	peers := make([]net.Conn, 0, 3)
	for range 3 {
		serverSide, clientSide := net.Pipe()
		peers = append(peers, clientSide)
		sm.StartSession(context.Background(), network.NewConnectionFromExistent(serverSide))
	}
	assert.Equal(t, 3, sm.ActiveSessions())

	sm.Close()
	sm.Wait()
	assert.Equal(t, 0, sm.ActiveSessions())

	for _, peer := range peers {
		_, err := network.ReadBytes(peer, 1)
		assert.ErrorIs(t, err, network.ErrConnectionClosed)
	}
}

func TestSessionManager_ContextCancelUnblocksWaiters(t *testing.T) {
	sm, _ := newManager(2)
	ctx, cancel := context.WithCancel(context.Background())

	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()
	session := sm.StartSession(ctx, network.NewConnectionFromExistent(serverSide))

	require.NoError(t, protocol.NewProtocol().SendGetLotteryResults(clientSide, 1))
	time.Sleep(20 * time.Millisecond)
	assert.False(t, session.IsFinished())

	cancel()
	waitFor(t, session.IsFinished)
	sm.Wait()
}

func TestSessionManager_ReapFinishedSessions(t *testing.T) {
	sm, _ := newManager(2)
	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()

	session := sm.StartSession(context.Background(), network.NewConnectionFromExistent(serverSide))
	session.Close()

	waitFor(t, func() bool {
		sm.ReapFinishedSessions()
		return sm.ActiveSessions() == 0
	})
	sm.Wait()
}
