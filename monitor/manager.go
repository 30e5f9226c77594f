package monitor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"

	"github.com/somanetwork/govmon/config"
	"github.com/somanetwork/govmon/metrics"
	"github.com/somanetwork/govmon/observation"
	"github.com/somanetwork/govmon/seal"
)

var RtyErr = retry.LastErrorOnly(true)

// Manager runs one NodeMonitor per node, all feeding the same observation
// store. A node that cannot be reached or subscribed to does not affect the
// others.
type Manager struct {
	mu       sync.Mutex
	monitors map[string]*NodeMonitor

	cfg       *config.MonitorConfig
	dial      DialFunc
	store     *observation.Store
	recoverer *seal.Recoverer
	indexer   ValidatorIndexer
	metrics   *metrics.MonitorMetrics
	logger    *zap.Logger
}

func NewManager(
	logger *zap.Logger,
	cfg *config.MonitorConfig,
	dial DialFunc,
	store *observation.Store,
	recoverer *seal.Recoverer,
	indexer ValidatorIndexer,
	metrics *metrics.MonitorMetrics,
) *Manager {
	return &Manager{
		monitors:  make(map[string]*NodeMonitor),
		cfg:       cfg,
		dial:      dial,
		store:     store,
		recoverer: recoverer,
		indexer:   indexer,
		metrics:   metrics,
		logger:    logger,
	}
}

// StartAll starts a monitor for every endpoint. The returned error joins the
// failures of the endpoints that could not be started; the others keep
// running.
func (mgr *Manager) StartAll(endpoints []string) error {
	var errs []error
	for _, endpoint := range endpoints {
		if err := mgr.StartMonitor(endpoint); err != nil {
			mgr.logger.Error("failed to start the node monitor",
				zap.String("client", endpoint),
				zap.Error(err),
			)
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// StartMonitor connects to endpoint and starts following its heads. The
// endpoint doubles as the client id.
func (mgr *Manager) StartMonitor(endpoint string) error {
	mgr.mu.Lock()
	if m, ok := mgr.monitors[endpoint]; ok && m.IsRunning() {
		mgr.mu.Unlock()
		return fmt.Errorf("the monitor of %s is already running", endpoint)
	}
	mgr.mu.Unlock()

	source, err := mgr.dialWithRetry(endpoint)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}

	m := NewNodeMonitor(mgr.logger, endpoint, source, mgr.recoverer, mgr.indexer, mgr.store, mgr.metrics, mgr.cfg.HeaderBufferSize)
	if err := m.Start(); err != nil {
		source.Close()
		return err
	}

	mgr.mu.Lock()
	prev := mgr.monitors[endpoint]
	mgr.monitors[endpoint] = m
	mgr.mu.Unlock()

	// a halted monitor being replaced still holds its source
	if prev != nil {
		_ = prev.Stop()
	}

	return nil
}

func (mgr *Manager) dialWithRetry(endpoint string) (HeaderSource, error) {
	var source HeaderSource

	if err := retry.Do(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), mgr.cfg.DialTimeout)
		defer cancel()

		var err error
		source, err = mgr.dial(ctx, endpoint)
		return err
	}, retry.Attempts(mgr.cfg.DialAttempts), retry.Delay(mgr.cfg.DialRetryDelay), RtyErr, retry.OnRetry(func(n uint, err error) {
		mgr.logger.Debug(
			"failed to connect to the node",
			zap.String("client", endpoint),
			zap.Uint("attempt", n+1),
			zap.Uint("max_attempts", mgr.cfg.DialAttempts),
			zap.Error(err),
		)
	})); err != nil {
		return nil, err
	}

	return source, nil
}

// Running returns the client ids of the monitors still following their node.
func (mgr *Manager) Running() []string {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()

	var ids []string
	for id, m := range mgr.monitors {
		if m.IsRunning() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// StopAll stops every monitor, including the halted ones.
func (mgr *Manager) StopAll() error {
	mgr.mu.Lock()
	monitors := mgr.monitors
	mgr.monitors = make(map[string]*NodeMonitor)
	mgr.mu.Unlock()

	var errs []error
	for _, m := range monitors {
		if err := m.Stop(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
