package registry

import (
	"math"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"github.com/somanetwork/govmon/types"
)

// MintStake creates amount new stake for addr. addr does not have to be a
// registered member.
func (r *Registry) MintStake(caller, addr common.Address, amount uint64) error {
	err := r.update(OpMintStake, caller, addr, func(next *State) error {
		if amount == 0 {
			return errorsmod.Wrap(types.ErrInvalidAmount, "cannot mint zero stake")
		}
		if addr == (common.Address{}) {
			return errorsmod.Wrap(types.ErrInvalidCallData, "zero address")
		}
		if amount > math.MaxUint64-next.StakeSupply {
			return errorsmod.Wrapf(types.ErrInvalidAmount, "minting %d overflows the supply", amount)
		}
		// a balance never exceeds the supply, so it cannot overflow either
		next.setStake(addr, next.stakeOf(addr)+amount)
		next.StakeSupply += amount
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Info("minted stake", zap.String("address", addr.Hex()), zap.Uint64("amount", amount))
	return nil
}

// RedeemStake destroys amount of the stake of addr.
func (r *Registry) RedeemStake(caller, addr common.Address, amount uint64) error {
	err := r.update(OpRedeemStake, caller, addr, func(next *State) error {
		if amount == 0 {
			return errorsmod.Wrap(types.ErrInvalidAmount, "cannot redeem zero stake")
		}
		stake := next.stakeOf(addr)
		if amount > stake {
			return errorsmod.Wrapf(types.ErrInsufficientStake, "%s holds %d, redeeming %d", addr.Hex(), stake, amount)
		}
		next.setStake(addr, stake-amount)
		next.StakeSupply -= amount
		return nil
	})
	if err != nil {
		return err
	}

	r.logger.Info("redeemed stake", zap.String("address", addr.Hex()), zap.Uint64("amount", amount))
	return nil
}

// Send moves amount of stake from the caller to another account. Both ends
// must be known to the registry, either as members or as stake holders.
func (r *Registry) Send(caller, from, to common.Address, amount uint64) error {
	return r.update(OpSend, caller, from, func(next *State) error {
		if amount == 0 {
			return errorsmod.Wrap(types.ErrInvalidAmount, "cannot send zero stake")
		}
		if !next.known(from) {
			return errorsmod.Wrapf(types.ErrNotFound, "sender %s", from.Hex())
		}
		if !next.known(to) {
			return errorsmod.Wrapf(types.ErrNotFound, "recipient %s", to.Hex())
		}
		balance := next.stakeOf(from)
		if amount > balance {
			return errorsmod.Wrapf(types.ErrInsufficientStake, "%s holds %d, sending %d", from.Hex(), balance, amount)
		}
		next.setStake(from, balance-amount)
		next.setStake(to, next.stakeOf(to)+amount)
		return nil
	})
}

// GetStake returns the stake held by addr, zero for accounts the ledger has
// never credited.
func (r *Registry) GetStake(addr common.Address) uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.st.stakeOf(addr)
}

// StakeSupply returns the total stake tracked by the registry.
func (r *Registry) StakeSupply() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.st.StakeSupply
}
