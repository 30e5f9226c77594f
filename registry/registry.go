package registry

import (
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/somanetwork/govmon/metrics"
	"github.com/somanetwork/govmon/types"
)

// Persister stores a registry state. SaveState must not keep a reference to
// st after it returns.
type Persister interface {
	SaveState(st *State) error
}

// Registry is the governance state machine: roster, stake ledger, whitelist,
// committee and fee pot, guarded by the role model in permissions.go.
//
// Every mutation is validated against a private copy of the state, persisted,
// and only then made visible, so a failed operation changes nothing.
type Registry struct {
	mu sync.RWMutex
	st *State

	persister Persister
	metrics   *metrics.RegistryMetrics
	logger    *zap.Logger
}

// New creates a registry serving st. persister and m may be nil.
func New(st *State, persister Persister, logger *zap.Logger, m *metrics.RegistryMetrics) *Registry {
	r := &Registry{
		st:        st.clone(),
		persister: persister,
		metrics:   m,
		logger:    logger,
	}
	r.recordMetrics(&State{}, r.st)
	return r
}

// NewFromGenesis builds the initial state from g and persists it.
func NewFromGenesis(g *Genesis, persister Persister, logger *zap.Logger, m *metrics.RegistryMetrics) (*Registry, error) {
	st, err := g.State()
	if err != nil {
		return nil, err
	}
	if persister != nil {
		if err := persister.SaveState(st); err != nil {
			return nil, fmt.Errorf("failed to persist the genesis state: %w", err)
		}
	}
	return New(st, persister, logger, m), nil
}

// update runs op against a copy of the state and commits the copy when fn
// and the persister succeed.
func (r *Registry) update(op Op, caller, subject common.Address, fn func(next *State) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.apply(op, caller, subject, fn); err != nil {
		r.logger.Debug("registry operation rejected",
			zap.String("op", string(op)),
			zap.String("caller", caller.Hex()),
			zap.Error(err),
		)
		if r.metrics != nil {
			r.metrics.IncrementRejectedOps(string(op), types.ErrorCode(err))
		}
		return err
	}

	return nil
}

func (r *Registry) apply(op Op, caller, subject common.Address, fn func(next *State) error) error {
	if err := authorize(&r.st.Params, op, caller, subject); err != nil {
		return err
	}

	next := r.st.clone()
	if err := fn(next); err != nil {
		return err
	}

	if r.persister != nil {
		if err := r.persister.SaveState(next); err != nil {
			return fmt.Errorf("failed to persist the registry state: %w", err)
		}
	}

	prev := r.st
	r.st = next
	r.recordMetrics(prev, next)

	return nil
}

func (r *Registry) recordMetrics(prev, next *State) {
	if r.metrics == nil {
		return
	}

	current := make(map[common.Address]types.Role, len(next.Members))
	for i := range next.Members {
		m := &next.Members[i]
		current[m.Address] = m.Role
		r.metrics.RecordMember(m.Address.Hex(), m.Role.String(), m.Stake, m.CommissionRate().MustFloat64())
	}
	for _, m := range prev.Members {
		if role, ok := current[m.Address]; !ok || role != m.Role {
			r.metrics.RemoveMember(m.Address.Hex(), m.Role.String())
		}
	}
	for addr, bal := range next.Balances {
		r.metrics.RecordBalance(addr.Hex(), bal)
	}

	r.metrics.RecordStakeSupply(next.StakeSupply)
	r.metrics.RecordMinGasPrice(next.Params.MinGasPrice)
	r.metrics.RecordHeldBalance(next.HeldBalance)
	r.metrics.RecordCommittee(len(next.Committee), next.Params.MaxCommitteeSize)
}

// Snapshot returns a copy of the complete state.
func (r *Registry) Snapshot() *State {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.st.clone()
}
