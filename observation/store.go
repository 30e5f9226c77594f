package observation

import (
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/google/btree"

	"github.com/somanetwork/govmon/types"
)

const btreeDegree = 32

// HashInfo is what the store knows about one block hash at one height.
type HashInfo struct {
	Signer        common.Address
	SignerIndex   int
	Confirmations uint64
	// Clients lists the reporting clients, one entry per report.
	Clients []string
}

func (h *HashInfo) copy() HashInfo {
	c := *h
	c.Clients = append([]string(nil), h.Clients...)
	return c
}

// Height is a point-in-time view of one tracked height.
type Height struct {
	Height uint64
	// Hashes are the block hashes in the order they were first reported.
	Hashes []common.Hash
	Info   map[common.Hash]HashInfo
}

// ForkEvent reports two or more distinct block hashes at the same height.
type ForkEvent struct {
	Height    uint64
	Hashes    []common.Hash
	Reporters map[common.Hash][]string
}

// Result is the outcome of one upsert.
type Result struct {
	HeightCreated bool
	HashCreated   bool
	Confirmations uint64
	// Fork is set whenever the height holds more than one hash.
	Fork *ForkEvent
}

type heightEntry struct {
	mu     sync.Mutex
	hashes map[common.Hash]*HashInfo
	order  []common.Hash
}

func (e *heightEntry) forkEvent(height uint64) *ForkEvent {
	ev := &ForkEvent{
		Height:    height,
		Hashes:    append([]common.Hash(nil), e.order...),
		Reporters: make(map[common.Hash][]string, len(e.order)),
	}
	for _, h := range e.order {
		ev.Reporters[h] = append([]string(nil), e.hashes[h].Clients...)
	}
	return ev
}

// Store indexes header observations by height and detects forks.
//
// The height index is guarded by a store-wide lock; the hash map of each
// height has its own lock so reports for different heights do not contend.
// When maxHeights is positive only the highest maxHeights heights are kept.
// Fork alerts are never cleared, not even when their height is evicted.
type Store struct {
	mu         sync.RWMutex
	heights    map[uint64]*heightEntry
	index      *btree.BTreeG[uint64]
	maxHeights int

	forksMu sync.RWMutex
	forks   map[uint64]*ForkEvent

	forkFeed event.Feed
	scope    event.SubscriptionScope
}

func NewStore(maxHeights int) *Store {
	return &Store{
		heights: make(map[uint64]*heightEntry),
		index: btree.NewG[uint64](btreeDegree, func(a, b uint64) bool {
			return a < b
		}),
		maxHeights: maxHeights,
		forks:      make(map[uint64]*ForkEvent),
	}
}

// Observe records one report. Duplicate reports from the same client count
// as further confirmations.
func (s *Store) Observe(obs *types.HeaderObservation) *Result {
	entry, created := s.entry(obs.Height)

	res := &Result{HeightCreated: created}

	entry.mu.Lock()
	info, ok := entry.hashes[obs.Hash]
	if !ok {
		info = &HashInfo{
			Signer:      obs.Signer,
			SignerIndex: obs.SignerIndex,
		}
		entry.hashes[obs.Hash] = info
		entry.order = append(entry.order, obs.Hash)
		res.HashCreated = true
	}
	info.Confirmations++
	info.Clients = append(info.Clients, obs.ClientID)
	res.Confirmations = info.Confirmations
	if len(entry.order) > 1 {
		res.Fork = entry.forkEvent(obs.Height)
	}
	entry.mu.Unlock()

	if res.Fork != nil {
		s.forksMu.Lock()
		s.forks[obs.Height] = res.Fork
		s.forksMu.Unlock()

		if res.HashCreated {
			s.forkFeed.Send(*res.Fork)
		}
	}

	return res
}

func (s *Store) entry(height uint64) (*heightEntry, bool) {
	s.mu.RLock()
	entry, ok := s.heights[height]
	s.mu.RUnlock()
	if ok {
		return entry, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// another report may have created it in between
	if entry, ok := s.heights[height]; ok {
		return entry, false
	}

	entry = &heightEntry{hashes: make(map[common.Hash]*HashInfo)}
	s.heights[height] = entry
	s.index.ReplaceOrInsert(height)
	s.evict()

	return entry, true
}

// evict drops the lowest heights beyond the retention bound. A report for a
// height below the retained window is still answered but not kept.
func (s *Store) evict() {
	if s.maxHeights <= 0 {
		return
	}
	for s.index.Len() > s.maxHeights {
		lowest, ok := s.index.DeleteMin()
		if !ok {
			return
		}
		delete(s.heights, lowest)
	}
}

// Get returns a copy of what is tracked at height.
func (s *Store) Get(height uint64) (*Height, bool) {
	s.mu.RLock()
	entry, ok := s.heights[height]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	h := &Height{
		Height: height,
		Hashes: append([]common.Hash(nil), entry.order...),
		Info:   make(map[common.Hash]HashInfo, len(entry.hashes)),
	}
	for hash, info := range entry.hashes {
		h.Info[hash] = info.copy()
	}
	return h, true
}

// Heights returns the tracked heights in ascending order.
func (s *Store) Heights() []uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	heights := make([]uint64, 0, s.index.Len())
	s.index.Ascend(func(h uint64) bool {
		heights = append(heights, h)
		return true
	})
	return heights
}

// Forks returns every standing fork alert ordered by height.
func (s *Store) Forks() []ForkEvent {
	s.forksMu.RLock()
	defer s.forksMu.RUnlock()

	forks := make([]ForkEvent, 0, len(s.forks))
	for _, f := range s.forks {
		forks = append(forks, *f)
	}
	sort.Slice(forks, func(i, j int) bool {
		return forks[i].Height < forks[j].Height
	})
	return forks
}

// SubscribeForks delivers a ForkEvent whenever a new distinct hash appears at
// an already tracked height. The channel should be buffered; a slow
// subscriber delays the reporting monitor.
func (s *Store) SubscribeForks(ch chan<- ForkEvent) event.Subscription {
	return s.scope.Track(s.forkFeed.Subscribe(ch))
}

// Close ends all fork subscriptions.
func (s *Store) Close() {
	s.scope.Close()
}
