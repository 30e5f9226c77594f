package monitor

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/somanetwork/govmon/metrics"
	"github.com/somanetwork/govmon/observation"
	"github.com/somanetwork/govmon/seal"
	"github.com/somanetwork/govmon/types"
)

// NodeMonitor follows the new heads of one node and records every header in
// the shared observation store.
//
// A subscription failure halts the monitor; it is not resubscribed. Stop is
// still required to release the source.
type NodeMonitor struct {
	isStarted *atomic.Bool
	halted    *atomic.Bool
	wg        sync.WaitGroup
	quit      chan struct{}

	clientID   string
	source     HeaderSource
	recoverer  *seal.Recoverer
	indexer    ValidatorIndexer
	store      *observation.Store
	metrics    *metrics.MonitorMetrics
	bufferSize uint32
	logger     *zap.Logger
}

func NewNodeMonitor(
	logger *zap.Logger,
	clientID string,
	source HeaderSource,
	recoverer *seal.Recoverer,
	indexer ValidatorIndexer,
	store *observation.Store,
	metrics *metrics.MonitorMetrics,
	bufferSize uint32,
) *NodeMonitor {
	return &NodeMonitor{
		isStarted:  atomic.NewBool(false),
		halted:     atomic.NewBool(false),
		quit:       make(chan struct{}),
		clientID:   clientID,
		source:     source,
		recoverer:  recoverer,
		indexer:    indexer,
		store:      store,
		metrics:    metrics,
		bufferSize: bufferSize,
		logger:     logger.With(zap.String("client", clientID)),
	}
}

func (m *NodeMonitor) ClientID() string {
	return m.clientID
}

func (m *NodeMonitor) Start() error {
	if m.isStarted.Swap(true) {
		return fmt.Errorf("the monitor of %s is already started", m.clientID)
	}

	m.logger.Info("starting the node monitor")

	headers := make(chan *gethtypes.Header, m.bufferSize)
	sub, err := m.source.SubscribeNewHead(context.Background(), headers)
	if err != nil {
		m.isStarted.Store(false)
		return fmt.Errorf("failed to subscribe to new headers of %s: %w", m.clientID, err)
	}

	m.wg.Add(1)
	go m.followHeads(sub, headers)

	m.metrics.IncrementRunningMonitors()
	m.logger.Info("the node monitor is successfully started")

	return nil
}

// Stop ends the subscription and waits for the header being processed.
func (m *NodeMonitor) Stop() error {
	if !m.isStarted.Swap(false) {
		return fmt.Errorf("the monitor of %s has already stopped", m.clientID)
	}

	m.logger.Info("stopping the node monitor")
	close(m.quit)
	m.wg.Wait()
	m.source.Close()

	m.logger.Info("the node monitor is successfully stopped")

	return nil
}

// IsRunning is false once the monitor is stopped or its subscription failed.
func (m *NodeMonitor) IsRunning() bool {
	return m.isStarted.Load() && !m.halted.Load()
}

func (m *NodeMonitor) followHeads(sub ethereum.Subscription, headers <-chan *gethtypes.Header) {
	defer m.wg.Done()
	defer m.metrics.DecrementRunningMonitors()
	defer sub.Unsubscribe()

	for {
		select {
		case header := <-headers:
			m.handleHeader(header)
		case err := <-sub.Err():
			m.halted.Store(true)
			m.logger.Error("the header subscription failed, halting the node monitor", zap.Error(err))
			return
		case <-m.quit:
			m.logger.Debug("exiting the header loop")
			return
		}
	}
}

func (m *NodeMonitor) handleHeader(header *gethtypes.Header) {
	if header == nil || header.Number == nil {
		m.logger.Warn("received a header without a number")
		return
	}

	number := header.Number.Uint64()
	m.metrics.RecordHeader(m.clientID, number)

	obs := &types.HeaderObservation{
		ClientID:    m.clientID,
		Height:      number,
		Hash:        header.Hash(),
		ParentHash:  header.ParentHash,
		SignerIndex: types.UnknownSignerIndex,
	}

	signer, err := m.recoverer.Author(header)
	if err != nil {
		m.metrics.IncrementRecoveryFailures(m.clientID)
		m.logger.Warn("failed to recover the block signer",
			zap.Uint64("number", number),
			zap.String("hash", obs.Hash.Hex()),
			zap.Error(err),
		)
	} else {
		obs.Signer = signer
		obs.SignerIndex = m.indexer.IndexOf(signer)
		if !obs.SignerKnown() {
			m.metrics.IncrementUnknownSigners(m.clientID)
		}
	}

	res := m.store.Observe(obs)

	m.logger.Info("new header",
		zap.Uint64("number", number),
		zap.Int("signer_index", obs.SignerIndex),
		zap.Uint64("confirmations", res.Confirmations),
		zap.String("hash", obs.Hash.Hex()),
		zap.String("parent_hash", obs.ParentHash.Hex()),
	)

	if res.Fork != nil {
		if res.HashCreated {
			m.metrics.IncrementForksDetected()
		}
		hashes := make([]string, len(res.Fork.Hashes))
		for i, h := range res.Fork.Hashes {
			hashes[i] = h.Hex()
		}
		m.logger.Warn("fork detected",
			zap.Uint64("number", number),
			zap.Strings("hashes", hashes),
		)
	}
}
