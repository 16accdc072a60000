package healthcheck

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/maxogod/distro-lottery/src/common/logger"
	"github.com/maxogod/distro-lottery/src/server/internal/metrics"
)

type pingServer struct {
	port     int
	server   *http.Server
	listener net.Listener
}

func NewPingServer(port int) PingServer {
	return &pingServer{
		port: port,
	}
}

func (p *pingServer) Run() error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ping", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("GET /metrics", metrics.Handler())

	listener, err := net.Listen("tcp", ":"+strconv.Itoa(p.port))
	if err != nil {
		logger.Logger.Errorf("action: ping_server_listen | port: %d | result: fail | error: %v", p.port, err)
		return err
	}
	p.listener = listener
	p.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Logger.Infof("Starting ping server on %s", listener.Addr())
	go func() {
		if err := p.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Logger.Errorf("Ping server failed: %v", err)
		}
	}()
	return nil
}

func (p *pingServer) Addr() string {
	if p.listener == nil {
		return ""
	}
	return p.listener.Addr().String()
}

func (p *pingServer) Shutdown(ctx context.Context) {
	if p.server != nil {
		if err := p.server.Shutdown(ctx); err != nil {
			logger.Logger.Errorf("Failed to close ping server: %v", err)
		}
	}
}
