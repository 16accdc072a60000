package network

import (
	"io"
	"net"
	"sync"
	"time"
)

const WAIT_INTERVAL = 1 * time.Second

type connectionInterface struct {
	mu          sync.Mutex
	conn        net.Conn
	idleTimeout time.Duration
}

func NewConnection() ConnectionInterface {
	return &connectionInterface{}
}

func NewConnectionFromExistent(conn net.Conn) ConnectionInterface {
	return &connectionInterface{conn: conn}
}

func (c *connectionInterface) Connect(serverAddr string, retries int) error {
	if retries < 1 {
		retries = 1
	}

	var conn net.Conn
	var err error
	for i := range retries {
		conn, err = net.Dial("tcp", serverAddr)
		if err == nil {
			break
		}
		if i < retries-1 {
			time.Sleep(WAIT_INTERVAL)
		}
	}
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	return nil
}

func (c *connectionInterface) IsConnected() bool {
	return c.socket() != nil
}

func (c *connectionInterface) SetIdleTimeout(timeout time.Duration) {
	c.mu.Lock()
	c.idleTimeout = timeout
	c.mu.Unlock()
}

func (c *connectionInterface) RemoteAddr() string {
	conn := c.socket()
	if conn == nil {
		return ""
	}
	return conn.RemoteAddr().String()
}

func (c *connectionInterface) Read(buf []byte) (int, error) {
	conn := c.socket()
	if conn == nil {
		return 0, io.EOF
	}

	c.mu.Lock()
	timeout := c.idleTimeout
	c.mu.Unlock()

	if timeout > 0 {
		if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
			return 0, err
		}
	}
	return conn.Read(buf)
}

func (c *connectionInterface) Write(buf []byte) (int, error) {
	conn := c.socket()
	if conn == nil {
		return 0, io.EOF
	}
	return conn.Write(buf)
}

// Close is safe to call more than once and from a goroutine other than the
// one blocked on Read, which is how shutdown unblocks a session.
func (c *connectionInterface) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	if conn != nil {
		return conn.Close()
	}
	return nil
}

// --- PRIVATE METHODS ---

func (c *connectionInterface) socket() net.Conn {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}
