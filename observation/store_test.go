package observation_test

import (
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/somanetwork/govmon/observation"
	"github.com/somanetwork/govmon/testutil"
	"github.com/somanetwork/govmon/types"
)

func report(client string, height uint64, hash common.Hash) *types.HeaderObservation {
	return &types.HeaderObservation{
		ClientID:    client,
		Height:      height,
		Hash:        hash,
		SignerIndex: 0,
	}
}

func TestObserve_Confirmations(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	s := observation.NewStore(0)
	hash := testutil.GenRandomHash(r)

	res := s.Observe(report("node-1", 10, hash))
	require.True(t, res.HeightCreated)
	require.True(t, res.HashCreated)
	require.Equal(t, uint64(1), res.Confirmations)
	require.Nil(t, res.Fork)

	res = s.Observe(report("node-2", 10, hash))
	require.False(t, res.HeightCreated)
	require.False(t, res.HashCreated)

	res = s.Observe(report("node-3", 10, hash))
	require.Equal(t, uint64(3), res.Confirmations)
	require.Nil(t, res.Fork)

	h, ok := s.Get(10)
	require.True(t, ok)
	require.Equal(t, []common.Hash{hash}, h.Hashes)
	require.Equal(t, uint64(3), h.Info[hash].Confirmations)
	require.Equal(t, []string{"node-1", "node-2", "node-3"}, h.Info[hash].Clients)
	require.Empty(t, s.Forks())
}

func TestObserve_DuplicateReportsCount(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	s := observation.NewStore(0)
	hash := testutil.GenRandomHash(r)

	s.Observe(report("node-1", 5, hash))
	res := s.Observe(report("node-1", 5, hash))
	require.Equal(t, uint64(2), res.Confirmations)

	h, ok := s.Get(5)
	require.True(t, ok)
	require.Equal(t, []string{"node-1", "node-1"}, h.Info[hash].Clients)
}

func TestObserve_Fork(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	s := observation.NewStore(0)
	defer s.Close()

	forkCh := make(chan observation.ForkEvent, 4)
	sub := s.SubscribeForks(forkCh)
	defer sub.Unsubscribe()

	a, b := testutil.GenRandomHash(r), testutil.GenRandomHash(r)
	s.Observe(report("node-1", 7, a))
	res := s.Observe(report("node-2", 7, b))
	require.True(t, res.HashCreated)
	require.NotNil(t, res.Fork)
	require.Equal(t, []common.Hash{a, b}, res.Fork.Hashes)
	require.Equal(t, []string{"node-1"}, res.Fork.Reporters[a])
	require.Equal(t, []string{"node-2"}, res.Fork.Reporters[b])

	select {
	case ev := <-forkCh:
		require.Equal(t, uint64(7), ev.Height)
		require.Len(t, ev.Hashes, 2)
	case <-time.After(time.Second):
		t.Fatal("no fork event delivered")
	}

	// both branches stay tracked and the alert stands
	res = s.Observe(report("node-3", 7, a))
	require.NotNil(t, res.Fork)
	require.Equal(t, uint64(2), res.Confirmations)

	h, ok := s.Get(7)
	require.True(t, ok)
	require.Len(t, h.Hashes, 2)

	forks := s.Forks()
	require.Len(t, forks, 1)
	require.Equal(t, []string{"node-1", "node-3"}, forks[0].Reporters[a])

	// only a new distinct hash publishes another event
	require.Len(t, forkCh, 0)
}

func TestObserve_Retention(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	s := observation.NewStore(3)

	a, b := testutil.GenRandomHash(r), testutil.GenRandomHash(r)
	s.Observe(report("node-1", 1, a))
	s.Observe(report("node-2", 1, b))

	for h := uint64(2); h <= 5; h++ {
		s.Observe(report("node-1", h, testutil.GenRandomHash(r)))
	}
	require.Equal(t, []uint64{3, 4, 5}, s.Heights())

	_, ok := s.Get(1)
	require.False(t, ok)
	// the fork alert for an evicted height is kept
	require.Len(t, s.Forks(), 1)

	res := s.Observe(report("node-1", 2, a))
	require.True(t, res.HeightCreated)
	require.Equal(t, []uint64{3, 4, 5}, s.Heights())
}

func FuzzObserve_Concurrent(f *testing.F) {
	testutil.AddRandomSeedsToFuzzer(f, 10)
	f.Fuzz(func(t *testing.T, seed int64) {
		r := rand.New(rand.NewSource(seed))

		numClients := int(r.Int63n(5) + 2)
		numHeights := uint64(r.Int63n(20) + 1)
		hashes := make([]common.Hash, numHeights)
		for i := range hashes {
			hashes[i] = testutil.GenRandomHash(r)
		}

		s := observation.NewStore(0)
		var wg sync.WaitGroup
		for c := 0; c < numClients; c++ {
			wg.Add(1)
			go func(client string) {
				defer wg.Done()
				for h := uint64(0); h < numHeights; h++ {
					s.Observe(report(client, h, hashes[h]))
				}
			}(fmt.Sprintf("node-%d", c))
		}
		wg.Wait()

		require.Len(t, s.Heights(), int(numHeights))
		for h := uint64(0); h < numHeights; h++ {
			got, ok := s.Get(h)
			require.True(t, ok)
			require.Equal(t, uint64(numClients), got.Info[hashes[h]].Confirmations)
		}
		require.Empty(t, s.Forks())
	})
}
