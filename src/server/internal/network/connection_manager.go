package network

import (
	"fmt"
	"net"
	"sync"

	"github.com/maxogod/distro-lottery/src/common/network"
	"golang.org/x/net/netutil"
)

type connectionManager struct {
	port           int
	maxConnections int

	mu       sync.Mutex
	listener net.Listener
}

// NewConnectionManager listens on port serving at most maxConnections agencies
// at a time; further connections wait in the kernel accept queue.
func NewConnectionManager(port, maxConnections int) ConnectionManager {
	return &connectionManager{
		port:           port,
		maxConnections: maxConnections,
	}
}

func (cm *connectionManager) StartListening() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", cm.port))
	if err != nil {
		return err
	}
	if cm.maxConnections > 0 {
		ln = netutil.LimitListener(ln, cm.maxConnections)
	}

	cm.mu.Lock()
	cm.listener = ln
	cm.mu.Unlock()

	return nil
}

func (cm *connectionManager) AcceptConnection() (network.ConnectionInterface, error) {
	cm.mu.Lock()
	ln := cm.listener
	cm.mu.Unlock()
	if ln == nil {
		return nil, net.ErrClosed
	}

	conn, err := ln.Accept()
	if err != nil {
		return nil, err
	}
	return network.NewConnectionFromExistent(conn), nil
}

func (cm *connectionManager) Addr() string {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.listener == nil {
		return ""
	}
	return cm.listener.Addr().String()
}

func (cm *connectionManager) Close() error {
	cm.mu.Lock()
	ln := cm.listener
	cm.listener = nil
	cm.mu.Unlock()

	if ln != nil {
		return ln.Close()
	}
	return nil
}
