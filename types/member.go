package types

import (
	"fmt"
	"strings"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
)

// MaxCommissionBps is the commission rate of 100%, in basis points.
const MaxCommissionBps = 10000

type Role uint8

const (
	RoleParticipant Role = 0
	RoleStakeholder Role = 1
	RoleValidator   Role = 2
)

func (r Role) String() string {
	switch r {
	case RoleParticipant:
		return "participant"
	case RoleStakeholder:
		return "stakeholder"
	case RoleValidator:
		return "validator"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

func (r Role) Valid() bool {
	return r <= RoleValidator
}

func ParseRole(s string) (Role, error) {
	switch strings.ToLower(s) {
	case "participant":
		return RoleParticipant, nil
	case "stakeholder":
		return RoleStakeholder, nil
	case "validator":
		return RoleValidator, nil
	default:
		return 0, fmt.Errorf("unknown role %q", s)
	}
}

func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("unknown role %d", r)
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}

// Member is a registered account of the governance registry.
type Member struct {
	Address common.Address `json:"address"`
	Role    Role           `json:"role"`
	Stake   uint64         `json:"stake"`
	// CommissionBps is the share of fee payouts the member keeps, in basis points.
	CommissionBps uint64 `json:"commissionBps"`
	Enode         string `json:"enode"`
}

// CommissionRate returns the commission as a decimal fraction.
func (m *Member) CommissionRate() sdkmath.LegacyDec {
	return sdkmath.LegacyNewDecWithPrec(int64(m.CommissionBps), 4)
}

// CommitteeMember is one seat of a committee together with its voting weight.
type CommitteeMember struct {
	Address common.Address `json:"address"`
	Weight  uint64         `json:"weight"`
}

type Committee []CommitteeMember

// Addresses returns the committee members in committee order.
func (c Committee) Addresses() []common.Address {
	addrs := make([]common.Address, len(c))
	for i, m := range c {
		addrs[i] = m.Address
	}
	return addrs
}

// Without returns the committee minus addr, keeping the order of the others.
func (c Committee) Without(addr common.Address) Committee {
	var out Committee
	for _, m := range c {
		if m.Address != addr {
			out = append(out, m)
		}
	}
	return out
}

// Weights returns the committee weights in committee order.
func (c Committee) Weights() []uint64 {
	weights := make([]uint64, len(c))
	for i, m := range c {
		weights[i] = m.Weight
	}
	return weights
}
