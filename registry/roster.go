package registry

import (
	"math"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/somanetwork/govmon/types"
)

// AddValidator registers a validator with an initial stake.
func (r *Registry) AddValidator(caller, addr common.Address, stake uint64, enode string) error {
	return r.addUser(OpAddValidator, caller, types.Member{
		Address: addr,
		Role:    types.RoleValidator,
		Stake:   stake,
		Enode:   enode,
	})
}

// AddParticipant registers a participant. Participants never sit in the
// committee.
func (r *Registry) AddParticipant(caller, addr common.Address, enode string) error {
	return r.addUser(OpAddParticipant, caller, types.Member{
		Address: addr,
		Role:    types.RoleParticipant,
		Enode:   enode,
	})
}

// AddStakeholder registers an account that holds stake and earns fees
// without being a committee candidate.
func (r *Registry) AddStakeholder(caller, addr common.Address, enode string, stake uint64) error {
	return r.addUser(OpAddStakeholder, caller, types.Member{
		Address: addr,
		Role:    types.RoleStakeholder,
		Stake:   stake,
		Enode:   enode,
	})
}

func (r *Registry) addUser(op Op, caller common.Address, m types.Member) error {
	err := r.update(op, caller, m.Address, func(next *State) error {
		if m.Address == (common.Address{}) {
			return errorsmod.Wrap(types.ErrInvalidCallData, "zero address")
		}
		if m.Enode == "" {
			return errorsmod.Wrap(types.ErrInvalidCallData, "empty entry point")
		}
		if next.indexOf(m.Address) >= 0 {
			return errorsmod.Wrapf(types.ErrDuplicateMember, "%s", m.Address.Hex())
		}
		if m.Stake > math.MaxUint64-next.StakeSupply {
			return errorsmod.Wrapf(types.ErrInvalidAmount, "stake %d overflows the supply", m.Stake)
		}

		next.StakeSupply += m.Stake
		// stake minted to the account before it registered moves into its record
		m.Stake += next.AccountStakes[m.Address]
		delete(next.AccountStakes, m.Address)
		next.Members = append(next.Members, m)
		next.whitelistAdd(m.Enode)
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Info("registered member",
		zap.String("address", m.Address.Hex()),
		zap.Stringer("role", m.Role),
		zap.Uint64("stake", m.Stake),
		zap.String("enode", m.Enode),
	)
	return nil
}

// RemoveUser unregisters addr. Stake still held is forfeited: it leaves the
// supply together with the member. The member's entry point leaves the
// whitelist unless another member uses it, and its committee seat stays empty
// until the next SetCommittee.
func (r *Registry) RemoveUser(caller, addr common.Address) error {
	var removed types.Member
	err := r.update(OpRemoveUser, caller, addr, func(next *State) error {
		i := next.indexOf(addr)
		if i < 0 {
			return errorsmod.Wrapf(types.ErrNotFound, "%s", addr.Hex())
		}
		removed = next.Members[i]

		next.Members = append(next.Members[:i], next.Members[i+1:]...)
		next.StakeSupply -= removed.Stake
		next.Committee = next.Committee.Without(addr)
		if !next.enodeOwned(removed.Enode) {
			next.whitelistRemove(removed.Enode)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if removed.Stake > 0 {
		r.logger.Warn("removed member forfeited its stake",
			zap.String("address", addr.Hex()),
			zap.Uint64("stake", removed.Stake),
		)
	}
	r.logger.Info("removed member",
		zap.String("address", addr.Hex()),
		zap.Stringer("role", removed.Role),
	)
	return nil
}

// AddWhitelistEntry allows an entry point that belongs to no member.
func (r *Registry) AddWhitelistEntry(caller common.Address, enode string) error {
	return r.update(OpAddWhitelistEntry, caller, common.Address{}, func(next *State) error {
		if enode == "" {
			return errorsmod.Wrap(types.ErrInvalidCallData, "empty entry point")
		}
		next.whitelistAdd(enode)
		return nil
	})
}

// RemoveWhitelistEntry removes an entry point added directly. Entry points of
// registered members leave only with their member.
func (r *Registry) RemoveWhitelistEntry(caller common.Address, enode string) error {
	return r.update(OpRemoveWhitelistEntry, caller, common.Address{}, func(next *State) error {
		if !next.whitelisted(enode) {
			return errorsmod.Wrapf(types.ErrNotFound, "entry point %q", enode)
		}
		if next.enodeOwned(enode) {
			return errorsmod.Wrapf(types.ErrEnodeInUse, "%q", enode)
		}
		next.whitelistRemove(enode)
		return nil
	})
}

// SetCommissionRate lets a member set its own commission, in basis points.
func (r *Registry) SetCommissionRate(caller common.Address, bps uint64) error {
	return r.update(OpSetCommissionRate, caller, caller, func(next *State) error {
		m := next.member(caller)
		if m == nil {
			return errorsmod.Wrapf(types.ErrNotFound, "%s", caller.Hex())
		}
		if bps > types.MaxCommissionBps {
			return errorsmod.Wrapf(types.ErrInvalidAmount, "commission rate %d exceeds %d", bps, types.MaxCommissionBps)
		}
		m.CommissionBps = bps
		return nil
	})
}

// GetValidators returns the validators in registration order.
func (r *Registry) GetValidators() []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.st.validators()
}

// GetStakeholders returns the accounts holding stake: members in
// registration order, then unregistered accounts by address.
func (r *Registry) GetStakeholders() []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var addrs []common.Address
	for _, h := range r.st.stakeholders() {
		addrs = append(addrs, h.Address)
	}
	return addrs
}

// GetWhitelist returns the whitelist in insertion order.
func (r *Registry) GetWhitelist() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]string(nil), r.st.Whitelist...)
}

// CheckMember reports whether addr is registered in any role.
func (r *Registry) CheckMember(addr common.Address) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.st.indexOf(addr) >= 0
}

// GetMember returns a copy of the member record of addr.
func (r *Registry) GetMember(addr common.Address) (types.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m := r.st.member(addr)
	if m == nil {
		return types.Member{}, errorsmod.Wrapf(types.ErrNotFound, "%s", addr.Hex())
	}
	return *m, nil
}

// IndexOf returns the position of addr in GetValidators, or
// types.UnknownSignerIndex when addr is not a validator.
func (r *Registry) IndexOf(addr common.Address) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for i, v := range r.st.validators() {
		if v == addr {
			return i
		}
	}
	return types.UnknownSignerIndex
}

// RetrieveState returns every member in registration order.
func (r *Registry) RetrieveState() []types.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]types.Member(nil), r.st.Members...)
}
