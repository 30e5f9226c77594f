package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/kvdb"
	"go.uber.org/zap"

	"github.com/somanetwork/govmon/callabi"
	"github.com/somanetwork/govmon/config"
	"github.com/somanetwork/govmon/metrics"
	"github.com/somanetwork/govmon/monitor"
	"github.com/somanetwork/govmon/observation"
	"github.com/somanetwork/govmon/registry"
	"github.com/somanetwork/govmon/registry/store"
	"github.com/somanetwork/govmon/seal"
)

// GovmonApp ties the governance registry to its store and runs the node
// monitors that feed the observation store.
type GovmonApp struct {
	startOnce sync.Once
	stopOnce  sync.Once

	wg   sync.WaitGroup
	quit chan struct{}

	config *config.Config
	logger *zap.Logger

	registry     *registry.Registry
	dispatcher   *callabi.Dispatcher
	observations *observation.Store
	monitors     *monitor.Manager
	metrics      *metrics.MonitorMetrics
}

func NewGovmonAppFromConfig(cfg *config.Config, db kvdb.Backend, logger *zap.Logger) (*GovmonApp, error) {
	return NewGovmonApp(cfg, db, monitor.DialEth, logger)
}

func NewGovmonApp(
	cfg *config.Config,
	db kvdb.Backend,
	dial monitor.DialFunc,
	logger *zap.Logger,
) (*GovmonApp, error) {
	regStore, err := store.NewRegistryStore(db)
	if err != nil {
		return nil, fmt.Errorf("failed to initiate registry store: %w", err)
	}

	reg, err := loadRegistry(cfg, regStore, logger)
	if err != nil {
		return nil, err
	}

	recoverer, err := seal.NewRecoverer(cfg.Monitor.SignerCacheSize)
	if err != nil {
		return nil, err
	}

	observations := observation.NewStore(int(cfg.Monitor.MaxTrackedHeights))
	mm := metrics.NewMonitorMetrics()

	return &GovmonApp{
		quit:         make(chan struct{}),
		config:       cfg,
		logger:       logger,
		registry:     reg,
		dispatcher:   callabi.NewDispatcher(reg, logger),
		observations: observations,
		monitors:     monitor.NewManager(logger, cfg.Monitor, dial, observations, recoverer, reg, mm),
		metrics:      mm,
	}, nil
}

// loadRegistry restores the registry from the db, or builds it from the
// genesis file on the first start.
func loadRegistry(cfg *config.Config, regStore *store.RegistryStore, logger *zap.Logger) (*registry.Registry, error) {
	rm := metrics.NewRegistryMetrics()

	st, err := regStore.LoadState()
	if err == nil {
		logger.Info("restored the registry from the db",
			zap.Int("members", len(st.Members)),
			zap.Uint64("stake_supply", st.StakeSupply),
		)
		return registry.New(st, regStore, logger, rm), nil
	}
	if !errors.Is(err, store.ErrStateNotFound) {
		return nil, fmt.Errorf("failed to load the registry state: %w", err)
	}

	g, err := registry.LoadGenesis(cfg.GenesisFile)
	if err != nil {
		return nil, err
	}
	reg, err := registry.NewFromGenesis(g, regStore, logger, rm)
	if err != nil {
		return nil, err
	}
	logger.Info("initialized the registry from genesis",
		zap.String("genesis", cfg.GenesisFile),
		zap.Int("members", len(g.Users)),
	)

	return reg, nil
}

func (app *GovmonApp) GetConfig() *config.Config {
	return app.config
}

func (app *GovmonApp) Registry() *registry.Registry {
	return app.registry
}

func (app *GovmonApp) Dispatcher() *callabi.Dispatcher {
	return app.dispatcher
}

func (app *GovmonApp) Observations() *observation.Store {
	return app.observations
}

func (app *GovmonApp) Monitors() *monitor.Manager {
	return app.monitors
}

// Start starts the configured node monitors. Nodes that cannot be reached
// are logged and skipped; Start fails only when none of them runs.
func (app *GovmonApp) Start() error {
	var startErr error
	app.startOnce.Do(func() {
		app.logger.Info("Starting GovmonApp")

		app.wg.Add(1)
		go app.metricsUpdateLoop()

		if err := app.monitors.StartAll(app.config.Nodes); err != nil {
			if len(app.monitors.Running()) == 0 {
				startErr = fmt.Errorf("no node monitor could be started: %w", err)
				return
			}
			app.logger.Warn("some node monitors could not be started", zap.Error(err))
		}

		app.logger.Info("GovmonApp started", zap.Strings("monitors", app.monitors.Running()))
	})

	return startErr
}

func (app *GovmonApp) Stop() error {
	var stopErr error
	app.stopOnce.Do(func() {
		app.logger.Info("Stopping GovmonApp")

		if err := app.monitors.StopAll(); err != nil {
			stopErr = err
		}

		close(app.quit)
		app.wg.Wait()
		app.observations.Close()

		app.logger.Debug("GovmonApp successfully stopped")
	})

	return stopErr
}

func (app *GovmonApp) metricsUpdateLoop() {
	defer app.wg.Done()

	interval := app.config.Metrics.UpdateInterval
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			app.metrics.UpdateMonitorMetrics()
		case <-app.quit:
			return
		}
	}
}
