package registry

import (
	"math"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/somanetwork/govmon/committee"
	"github.com/somanetwork/govmon/feedist"
	"github.com/somanetwork/govmon/types"
)

// SetCommitteeSize sets the maximum committee size used by the next
// SetCommittee. Zero makes the next committee empty.
func (r *Registry) SetCommitteeSize(caller common.Address, size uint64) error {
	return r.update(OpSetCommitteeSize, caller, common.Address{}, func(next *State) error {
		next.Params.MaxCommitteeSize = size
		return nil
	})
}

// SetCommittee selects and stores the committee for the coming epoch.
func (r *Registry) SetCommittee(caller common.Address) (types.Committee, error) {
	var selected types.Committee
	err := r.update(OpSetCommittee, caller, common.Address{}, func(next *State) error {
		selected = committee.Select(next.roster(), next.Params.MaxCommitteeSize)
		next.Committee = selected
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("committee updated",
		zap.Int("size", len(selected)),
		zap.Uint64("max_size", r.GetMaxCommitteeSize()),
	)
	return append(types.Committee(nil), selected...), nil
}

// GetCommittee returns the committee stored by the last SetCommittee, less
// the members removed since.
func (r *Registry) GetCommittee() types.Committee {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append(types.Committee(nil), r.st.Committee...)
}

func (r *Registry) GetMaxCommitteeSize() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.st.Params.MaxCommitteeSize
}

func (r *Registry) SetMinimumGasPrice(caller common.Address, price uint64) error {
	return r.update(OpSetMinimumGasPrice, caller, common.Address{}, func(next *State) error {
		next.Params.MinGasPrice = price
		return nil
	})
}

func (r *Registry) GetMinimumGasPrice() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.st.Params.MinGasPrice
}

// Params returns the governance parameters.
func (r *Registry) Params() Params {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.st.Params
}

func (r *Registry) GetBondingPeriod() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.st.Params.BondingPeriod
}

func (r *Registry) GetVersion() string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.st.Params.Version
}

func (r *Registry) GetOperator() common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.st.Params.Operator
}

func (r *Registry) GetDeployer() common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.st.Params.Deployer
}

// Deposit adds amount to the fee pot held by the registry.
func (r *Registry) Deposit(from common.Address, amount uint64) error {
	return r.update(OpDeposit, from, common.Address{}, func(next *State) error {
		if amount == 0 {
			return errorsmod.Wrap(types.ErrInvalidAmount, "cannot deposit zero")
		}
		if amount > math.MaxUint64-next.HeldBalance {
			return errorsmod.Wrapf(types.ErrInvalidAmount, "deposit %d overflows the held balance", amount)
		}
		next.HeldBalance += amount
		return nil
	})
}

// HeldBalance returns the fee pot waiting to be distributed.
func (r *Registry) HeldBalance() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.st.HeldBalance
}

// ExternalBalance returns the fees credited to addr so far.
func (r *Registry) ExternalBalance(addr common.Address) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.st.Balances[addr]
}

// Finalize distributes amount of the held fee pot to every account of the
// stake ledger in proportion to its stake. The rounding remainder stays in the pot.
func (r *Registry) Finalize(caller common.Address, amount uint64) (*feedist.Distribution, error) {
	var dist *feedist.Distribution
	err := r.update(OpFinalize, caller, common.Address{}, func(next *State) error {
		if amount > next.HeldBalance {
			return errorsmod.Wrapf(types.ErrInsufficientBalance, "holding %d, distributing %d", next.HeldBalance, amount)
		}

		var err error
		dist, err = feedist.Distribute(amount, next.stakeholders())
		if err != nil {
			return err
		}

		for _, p := range dist.Payouts {
			if p.Amount > math.MaxUint64-next.Balances[p.Address] {
				return errorsmod.Wrapf(types.ErrInvalidAmount, "payout overflows the balance of %s", p.Address.Hex())
			}
			next.Balances[p.Address] += p.Amount
		}
		next.HeldBalance -= dist.Paid
		return nil
	})
	if err != nil {
		return nil, err
	}

	if r.metrics != nil {
		for _, p := range dist.Payouts {
			r.metrics.RecordPayout(p.Address.Hex(), p.Amount)
		}
	}
	r.logger.Info("distributed fees",
		zap.Uint64("amount", amount),
		zap.Uint64("paid", dist.Paid),
		zap.Uint64("remainder", dist.Remainder),
		zap.Int("stakeholders", len(dist.Payouts)),
	)
	return dist, nil
}

// EconomicsData is the registry state relevant to fee and stake accounting.
type EconomicsData struct {
	Accounts        []common.Address
	UserTypes       []types.Role
	Stakes          []uint64
	CommissionRates []uint64
	MinGasPrice     uint64
	StakeSupply     uint64
}

// DumpEconomicsData returns a consistent view of the registry economics.
func (r *Registry) DumpEconomicsData() *EconomicsData {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d := &EconomicsData{
		MinGasPrice: r.st.Params.MinGasPrice,
		StakeSupply: r.st.StakeSupply,
	}
	for _, m := range r.st.Members {
		d.Accounts = append(d.Accounts, m.Address)
		d.UserTypes = append(d.UserTypes, m.Role)
		d.Stakes = append(d.Stakes, m.Stake)
		d.CommissionRates = append(d.CommissionRates, m.CommissionBps)
	}
	return d
}
