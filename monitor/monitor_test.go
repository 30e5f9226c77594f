package monitor_test

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/event"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/somanetwork/govmon/config"
	"github.com/somanetwork/govmon/metrics"
	"github.com/somanetwork/govmon/monitor"
	"github.com/somanetwork/govmon/observation"
	"github.com/somanetwork/govmon/seal"
	"github.com/somanetwork/govmon/testutil"
	"github.com/somanetwork/govmon/testutil/mocks"
	"github.com/somanetwork/govmon/types"
)

const eventuallyWait = 10 * time.Second

// fakeNode serves one header subscription and lets the test push headers
// into it or break it.
type fakeNode struct {
	source  *mocks.MockHeaderSource
	headers chan chan<- *gethtypes.Header
	fail    chan error
}

func newFakeNode(ctl *gomock.Controller) *fakeNode {
	n := &fakeNode{
		source:  mocks.NewMockHeaderSource(ctl),
		headers: make(chan chan<- *gethtypes.Header, 1),
		fail:    make(chan error, 1),
	}
	n.source.EXPECT().SubscribeNewHead(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, ch chan<- *gethtypes.Header) (ethereum.Subscription, error) {
			n.headers <- ch
			return event.NewSubscription(func(quit <-chan struct{}) error {
				select {
				case err := <-n.fail:
					return err
				case <-quit:
					return nil
				}
			}), nil
		}).Times(1)
	n.source.EXPECT().Close().Times(1)
	return n
}

func (n *fakeNode) send(t *testing.T, headers ...*gethtypes.Header) {
	var ch chan<- *gethtypes.Header
	select {
	case ch = <-n.headers:
		n.headers <- ch
	case <-time.After(eventuallyWait):
		t.Fatalf("the monitor did not subscribe")
	}
	for _, h := range headers {
		ch <- h
	}
}

func newRecoverer(t *testing.T) *seal.Recoverer {
	rec, err := seal.NewRecoverer(seal.DefaultCacheSize)
	require.NoError(t, err)
	return rec
}

func FuzzNodeMonitor_ObservesHeaders(f *testing.F) {
	testutil.AddRandomSeedsToFuzzer(f, 10)
	f.Fuzz(func(t *testing.T, seed int64) {
		r := rand.New(rand.NewSource(seed))

		key, err := crypto.GenerateKey()
		require.NoError(t, err)
		signer := crypto.PubkeyToAddress(key.PublicKey)
		signerIndex := r.Intn(10)

		ctl := gomock.NewController(t)
		node := newFakeNode(ctl)
		indexer := mocks.NewMockValidatorIndexer(ctl)
		indexer.EXPECT().IndexOf(signer).Return(signerIndex).AnyTimes()

		store := observation.NewStore(0)
		defer store.Close()
		m := monitor.NewNodeMonitor(zap.NewNop(), "node-0", node.source, newRecoverer(t), indexer, store, metrics.NewMonitorMetrics(), 100)
		require.NoError(t, m.Start())
		require.True(t, m.IsRunning())

		numHeaders := uint64(r.Intn(10) + 1)
		hashes := make(map[uint64]common.Hash)
		var headers []*gethtypes.Header
		for height := uint64(1); height <= numHeaders; height++ {
			h := testutil.GenRandomHeader(r, height)
			require.NoError(t, seal.SealHeader(h, key))
			hashes[height] = h.Hash()
			headers = append(headers, h)
		}
		node.send(t, headers...)

		require.Eventually(t, func() bool {
			return len(store.Heights()) == int(numHeaders)
		}, eventuallyWait, 10*time.Millisecond)

		for height, hash := range hashes {
			entry, ok := store.Get(height)
			require.True(t, ok)
			require.Equal(t, []common.Hash{hash}, entry.Hashes)
			info := entry.Info[hash]
			require.Equal(t, signer, info.Signer)
			require.Equal(t, signerIndex, info.SignerIndex)
			require.Equal(t, uint64(1), info.Confirmations)
			require.Equal(t, []string{"node-0"}, info.Clients)
		}
		require.Empty(t, store.Forks())

		require.NoError(t, m.Stop())
		require.False(t, m.IsRunning())
		require.Error(t, m.Stop())
	})
}

func TestNodeMonitors_DetectFork(t *testing.T) {
	r := rand.New(rand.NewSource(10))
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	ctl := gomock.NewController(t)
	indexer := mocks.NewMockValidatorIndexer(ctl)
	indexer.EXPECT().IndexOf(gomock.Any()).Return(0).AnyTimes()

	store := observation.NewStore(0)
	defer store.Close()
	forks := make(chan observation.ForkEvent, 4)
	sub := store.SubscribeForks(forks)
	defer sub.Unsubscribe()

	recoverer := newRecoverer(t)
	nodeA, nodeB := newFakeNode(ctl), newFakeNode(ctl)
	monA := monitor.NewNodeMonitor(zap.NewNop(), "a", nodeA.source, recoverer, indexer, store, metrics.NewMonitorMetrics(), 10)
	monB := monitor.NewNodeMonitor(zap.NewNop(), "b", nodeB.source, recoverer, indexer, store, metrics.NewMonitorMetrics(), 10)
	require.NoError(t, monA.Start())
	require.NoError(t, monB.Start())

	shared := testutil.GenRandomHeader(r, 6)
	require.NoError(t, seal.SealHeader(shared, key))
	forkA := testutil.GenRandomHeader(r, 5)
	require.NoError(t, seal.SealHeader(forkA, key))
	forkB := testutil.GenRandomHeader(r, 5)
	require.NoError(t, seal.SealHeader(forkB, key))

	nodeA.send(t, forkA, shared)
	nodeB.send(t, forkB, shared)

	select {
	case ev := <-forks:
		require.Equal(t, uint64(5), ev.Height)
		require.ElementsMatch(t, []common.Hash{forkA.Hash(), forkB.Hash()}, ev.Hashes)
	case <-time.After(eventuallyWait):
		t.Fatalf("no fork event")
	}

	require.Eventually(t, func() bool {
		entry, ok := store.Get(6)
		return ok && entry.Info[shared.Hash()].Confirmations == 2
	}, eventuallyWait, 10*time.Millisecond)

	standing := store.Forks()
	require.Len(t, standing, 1)
	require.Equal(t, uint64(5), standing[0].Height)
	require.Equal(t, []string{"a"}, standing[0].Reporters[forkA.Hash()])
	require.Equal(t, []string{"b"}, standing[0].Reporters[forkB.Hash()])

	require.NoError(t, monA.Stop())
	require.NoError(t, monB.Stop())
}

func TestNodeMonitor_UnsealedHeader(t *testing.T) {
	r := rand.New(rand.NewSource(3))

	ctl := gomock.NewController(t)
	node := newFakeNode(ctl)
	// no signer is recovered, so the indexer is never asked
	indexer := mocks.NewMockValidatorIndexer(ctl)

	store := observation.NewStore(0)
	defer store.Close()
	m := monitor.NewNodeMonitor(zap.NewNop(), "node-0", node.source, newRecoverer(t), indexer, store, metrics.NewMonitorMetrics(), 10)
	require.NoError(t, m.Start())

	h := testutil.GenRandomHeader(r, 12)
	h.Extra = h.Extra[:16]
	node.send(t, h)

	require.Eventually(t, func() bool {
		_, ok := store.Get(12)
		return ok
	}, eventuallyWait, 10*time.Millisecond)

	entry, _ := store.Get(12)
	info := entry.Info[h.Hash()]
	require.Equal(t, types.UnknownSignerIndex, info.SignerIndex)
	require.Equal(t, common.Address{}, info.Signer)

	require.NoError(t, m.Stop())
}

func TestNodeMonitor_SubscriptionFailureHalts(t *testing.T) {
	ctl := gomock.NewController(t)
	node := newFakeNode(ctl)
	indexer := mocks.NewMockValidatorIndexer(ctl)

	store := observation.NewStore(0)
	defer store.Close()
	m := monitor.NewNodeMonitor(zap.NewNop(), "node-0", node.source, newRecoverer(t), indexer, store, metrics.NewMonitorMetrics(), 10)
	require.NoError(t, m.Start())
	require.True(t, m.IsRunning())

	node.fail <- errors.New("connection reset by peer")
	require.Eventually(t, func() bool {
		return !m.IsRunning()
	}, eventuallyWait, 10*time.Millisecond)

	// the source is released on stop
	require.NoError(t, m.Stop())
}

func TestNodeMonitor_SubscribeError(t *testing.T) {
	ctl := gomock.NewController(t)
	source := mocks.NewMockHeaderSource(ctl)
	source.EXPECT().SubscribeNewHead(gomock.Any(), gomock.Any()).Return(nil, errors.New("notifications not supported"))

	store := observation.NewStore(0)
	defer store.Close()
	m := monitor.NewNodeMonitor(zap.NewNop(), "node-0", source, newRecoverer(t), mocks.NewMockValidatorIndexer(ctl), store, metrics.NewMonitorMetrics(), 10)
	require.Error(t, m.Start())
	require.False(t, m.IsRunning())
}

func TestManager_IsolatesFailures(t *testing.T) {
	ctl := gomock.NewController(t)
	good := newFakeNode(ctl)
	indexer := mocks.NewMockValidatorIndexer(ctl)

	var (
		mu       sync.Mutex
		badDials int
	)
	dial := func(_ context.Context, endpoint string) (monitor.HeaderSource, error) {
		if endpoint == "ws://good:8546" {
			return good.source, nil
		}
		mu.Lock()
		badDials++
		mu.Unlock()
		return nil, errors.New("connection refused")
	}

	cfg := config.DefaultMonitorConfig()
	cfg.DialAttempts = 3
	cfg.DialRetryDelay = time.Millisecond

	store := observation.NewStore(0)
	defer store.Close()
	mgr := monitor.NewManager(zap.NewNop(), &cfg, dial, store, newRecoverer(t), indexer, metrics.NewMonitorMetrics())

	err := mgr.StartAll([]string{"ws://good:8546", "ws://bad:8546"})
	require.Error(t, err)
	require.Equal(t, []string{"ws://good:8546"}, mgr.Running())

	mu.Lock()
	require.Equal(t, 3, badDials)
	mu.Unlock()

	require.Error(t, mgr.StartMonitor("ws://good:8546"))

	require.NoError(t, mgr.StopAll())
	require.Empty(t, mgr.Running())
}
