package registry

import (
	"bytes"
	"sort"

	"github.com/ethereum/go-ethereum/common"

	"github.com/somanetwork/govmon/feedist"
	"github.com/somanetwork/govmon/types"
)

// Params are the governance parameters of the registry.
type Params struct {
	Operator         common.Address
	Deployer         common.Address
	EpochTrigger     common.Address
	MinGasPrice      uint64
	BondingPeriod    uint64
	MaxCommitteeSize uint64
	Version          string
}

// State is the complete registry state. It is what gets persisted, and a
// copy of it is what readers get.
type State struct {
	Params Params
	// Members in registration order.
	Members     []types.Member
	Whitelist   []string
	Committee   types.Committee
	// AccountStakes holds the stake of accounts without a member record.
	// A member's stake lives in its record.
	AccountStakes map[common.Address]uint64
	StakeSupply   uint64
	// HeldBalance is the fee pot waiting to be distributed.
	HeldBalance uint64
	// Balances are the fees credited to accounts by finalize.
	Balances map[common.Address]uint64
}

func (s *State) clone() *State {
	c := &State{
		Params:      s.Params,
		Members:     append([]types.Member(nil), s.Members...),
		Whitelist:   append([]string(nil), s.Whitelist...),
		Committee:     append(types.Committee(nil), s.Committee...),
		AccountStakes: make(map[common.Address]uint64, len(s.AccountStakes)),
		StakeSupply:   s.StakeSupply,
		HeldBalance:   s.HeldBalance,
		Balances:      make(map[common.Address]uint64, len(s.Balances)),
	}
	for addr, stake := range s.AccountStakes {
		c.AccountStakes[addr] = stake
	}
	for addr, bal := range s.Balances {
		c.Balances[addr] = bal
	}
	return c
}

func (s *State) stakeOf(addr common.Address) uint64 {
	if m := s.member(addr); m != nil {
		return m.Stake
	}
	return s.AccountStakes[addr]
}

// setStake writes the ledger entry of addr. Zero entries of accounts without
// a member record are dropped.
func (s *State) setStake(addr common.Address, stake uint64) {
	if m := s.member(addr); m != nil {
		m.Stake = stake
		return
	}
	if stake == 0 {
		delete(s.AccountStakes, addr)
		return
	}
	if s.AccountStakes == nil {
		s.AccountStakes = make(map[common.Address]uint64)
	}
	s.AccountStakes[addr] = stake
}

func (s *State) indexOf(addr common.Address) int {
	for i := range s.Members {
		if s.Members[i].Address == addr {
			return i
		}
	}
	return -1
}

func (s *State) member(addr common.Address) *types.Member {
	if i := s.indexOf(addr); i >= 0 {
		return &s.Members[i]
	}
	return nil
}

// known reports whether addr is a member or holds stake.
func (s *State) known(addr common.Address) bool {
	return s.indexOf(addr) >= 0 || s.AccountStakes[addr] > 0
}

// stakeholders lists the ledger accounts with stake: members in registration
// order, then the other accounts by address.
func (s *State) stakeholders() []feedist.Holding {
	var holdings []feedist.Holding
	for _, m := range s.Members {
		if m.Stake > 0 {
			holdings = append(holdings, feedist.Holding{Address: m.Address, Stake: m.Stake})
		}
	}
	accounts := make([]common.Address, 0, len(s.AccountStakes))
	for addr := range s.AccountStakes {
		accounts = append(accounts, addr)
	}
	sort.Slice(accounts, func(i, j int) bool {
		return bytes.Compare(accounts[i][:], accounts[j][:]) < 0
	})
	for _, addr := range accounts {
		holdings = append(holdings, feedist.Holding{Address: addr, Stake: s.AccountStakes[addr]})
	}
	return holdings
}

func (s *State) enodeOwned(enode string) bool {
	for i := range s.Members {
		if s.Members[i].Enode == enode {
			return true
		}
	}
	return false
}

func (s *State) whitelisted(enode string) bool {
	for _, e := range s.Whitelist {
		if e == enode {
			return true
		}
	}
	return false
}

func (s *State) whitelistAdd(enode string) {
	if !s.whitelisted(enode) {
		s.Whitelist = append(s.Whitelist, enode)
	}
}

func (s *State) whitelistRemove(enode string) {
	for i, e := range s.Whitelist {
		if e == enode {
			s.Whitelist = append(s.Whitelist[:i], s.Whitelist[i+1:]...)
			return
		}
	}
}

func (s *State) roster() []types.CommitteeMember {
	roster := make([]types.CommitteeMember, 0, len(s.Members))
	for _, m := range s.Members {
		if m.Role != types.RoleValidator {
			continue
		}
		roster = append(roster, types.CommitteeMember{Address: m.Address, Weight: m.Stake})
	}
	return roster
}

func (s *State) validators() []common.Address {
	var addrs []common.Address
	for _, m := range s.Members {
		if m.Role == types.RoleValidator {
			addrs = append(addrs, m.Address)
		}
	}
	return addrs
}
