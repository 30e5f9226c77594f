package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/lightningnetwork/lnd/kvdb"
	"github.com/lightningnetwork/lnd/signal"
	"go.uber.org/zap"

	"github.com/somanetwork/govmon/config"
	"github.com/somanetwork/govmon/metrics"
)

const rpcShutdownTimeout = 5 * time.Second

// Server is the main daemon construct for govmond. It handles spinning up
// the JSON-RPC server, the metrics server and the app, and closes the
// database on shutdown.
type Server struct {
	started int32

	cfg    *config.Config
	logger *zap.Logger

	app         *GovmonApp
	db          kvdb.Backend
	interceptor signal.Interceptor
}

func NewGovmonServer(cfg *config.Config, l *zap.Logger, app *GovmonApp, db kvdb.Backend, sig signal.Interceptor) *Server {
	return &Server{
		cfg:         cfg,
		logger:      l,
		app:         app,
		db:          db,
		interceptor: sig,
	}
}

// RunUntilShutdown runs the main govmond server loop until a signal is
// received to shut down the process.
func (s *Server) RunUntilShutdown() error {
	if atomic.AddInt32(&s.started, 1) != 1 {
		return nil
	}

	// Start the metrics server.
	promAddr, err := s.cfg.Metrics.Address()
	if err != nil {
		return fmt.Errorf("failed to get prometheus address: %w", err)
	}
	metricsServer, err := metrics.Start(promAddr, s.logger)
	if err != nil {
		return err
	}

	defer func() {
		s.logger.Info("Shutdown complete")
	}()

	defer func() {
		s.logger.Info("Closing database...")
		if err := s.db.Close(); err != nil {
			s.logger.Error("failed to close the database", zap.Error(err))
		}
		s.logger.Info("Database closed")
		metricsServer.Stop(context.Background())
		s.logger.Info("Metrics server stopped")
	}()

	if err := s.app.Start(); err != nil {
		return fmt.Errorf("failed to start the app: %w", err)
	}
	defer func() {
		if err := s.app.Stop(); err != nil {
			s.logger.Error("failed to stop the app", zap.Error(err))
		}
	}()

	rpcServer, err := NewRPCServer(s.app)
	if err != nil {
		return err
	}
	defer rpcServer.Stop()

	listenAddr := s.cfg.RPCListener
	lis, err := net.Listen("tcp", listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", listenAddr, err)
	}

	// plain HTTP POST on /, websocket upgrades on /ws
	mux := http.NewServeMux()
	mux.Handle("/", rpcServer)
	mux.Handle("/ws", rpcServer.WebsocketHandler([]string{"*"}))
	httpServer := &http.Server{Handler: mux}

	go func() {
		s.logger.Info("RPC server listening", zap.String("address", lis.Addr().String()))
		if err := httpServer.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("RPC server stopped unexpectedly", zap.Error(err))
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), rpcShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("RPC server shutdown failed", zap.Error(err))
		}
	}()

	s.logger.Info("govmond is fully active!")

	// Wait for shutdown signal from either a graceful server stop or from
	// the interrupt handler.
	<-s.interceptor.ShutdownChannel()

	return nil
}
