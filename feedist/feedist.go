package feedist

import (
	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/somanetwork/govmon/types"
)

// Holding is the stake an account holds when fees are distributed.
type Holding struct {
	Address common.Address
	Stake   uint64
}

type Payout struct {
	Address common.Address
	Amount  uint64
}

// Distribution is the outcome of splitting a fee pot. Payouts follow the
// order of the holdings they were computed from.
type Distribution struct {
	Payouts   []Payout
	Paid      uint64
	Remainder uint64
}

// Distribute splits amount among the holdings proportionally to stake,
// rounding every payout down. The remainder is not paid out and is reported
// so the caller can keep it.
func Distribute(amount uint64, holdings []Holding) (*Distribution, error) {
	if amount == 0 {
		return nil, errorsmod.Wrap(types.ErrEmptyPool, "amount is zero")
	}

	total := new(uint256.Int)
	for _, h := range holdings {
		total.Add(total, uint256.NewInt(h.Stake))
	}
	if total.IsZero() {
		return nil, errorsmod.Wrap(types.ErrEmptyPool, "total stake is zero")
	}

	pot := uint256.NewInt(amount)
	dist := &Distribution{Payouts: make([]Payout, 0, len(holdings))}
	for _, h := range holdings {
		// amount*stake/total never exceeds amount, so it fits into 64 bits
		share, _ := new(uint256.Int).MulDivOverflow(pot, uint256.NewInt(h.Stake), total)
		p := share.Uint64()
		dist.Payouts = append(dist.Payouts, Payout{Address: h.Address, Amount: p})
		dist.Paid += p
	}
	dist.Remainder = amount - dist.Paid

	return dist, nil
}
