package registry

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/somanetwork/govmon/committee"
	"github.com/somanetwork/govmon/types"
)

const DefaultVersion = "v0.0.0"

type GenesisUser struct {
	Address        common.Address `json:"address"`
	Type           string         `json:"type"`
	Enode          string         `json:"enode"`
	Stake          uint64         `json:"stake"`
	CommissionRate uint64         `json:"commissionRate"`
}

// Genesis describes the registry at deployment.
type Genesis struct {
	Users []GenesisUser `json:"users"`
	// Whitelist holds entry points allowed in addition to the users' own.
	Whitelist     []string       `json:"whitelist,omitempty"`
	Operator      common.Address `json:"operator"`
	Deployer      common.Address `json:"deployer"`
	EpochTrigger  common.Address `json:"epochTrigger"`
	MinGasPrice   uint64         `json:"minGasPrice"`
	BondPeriod    uint64         `json:"bondPeriod"`
	CommitteeSize uint64         `json:"committeeSize"`
	Version       string         `json:"version,omitempty"`
}

// LoadGenesis reads a genesis from a JSON file.
func LoadGenesis(path string) (*Genesis, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open genesis file: %w", err)
	}
	defer f.Close()

	var g Genesis
	if err := json.NewDecoder(f).Decode(&g); err != nil {
		return nil, errorsmod.Wrapf(types.ErrInvalidGenesis, "failed to decode %s: %v", path, err)
	}
	return &g, nil
}

// WriteGenesis stores g as indented JSON.
func WriteGenesis(path string, g *Genesis) error {
	bz, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, bz, 0600)
}

// State validates the genesis and builds the initial registry state,
// including the initial committee.
func (g *Genesis) State() (*State, error) {
	if g.Operator == (common.Address{}) {
		return nil, errorsmod.Wrap(types.ErrInvalidGenesis, "operator is not set")
	}
	if g.Deployer == (common.Address{}) {
		return nil, errorsmod.Wrap(types.ErrInvalidGenesis, "deployer is not set")
	}
	if g.EpochTrigger == (common.Address{}) {
		return nil, errorsmod.Wrap(types.ErrInvalidGenesis, "epoch trigger is not set")
	}

	st := &State{
		Params: Params{
			Operator:         g.Operator,
			Deployer:         g.Deployer,
			EpochTrigger:     g.EpochTrigger,
			MinGasPrice:      g.MinGasPrice,
			BondingPeriod:    g.BondPeriod,
			MaxCommitteeSize: g.CommitteeSize,
			Version:          g.Version,
		},
		AccountStakes: make(map[common.Address]uint64),
		Balances:      make(map[common.Address]uint64),
	}
	if st.Params.Version == "" {
		st.Params.Version = DefaultVersion
	}

	for _, u := range g.Users {
		role, err := types.ParseRole(u.Type)
		if err != nil {
			return nil, errorsmod.Wrap(types.ErrInvalidGenesis, err.Error())
		}
		if u.Address == (common.Address{}) {
			return nil, errorsmod.Wrap(types.ErrInvalidGenesis, "user without address")
		}
		if u.Enode == "" {
			return nil, errorsmod.Wrapf(types.ErrInvalidGenesis, "user %s has no enode", u.Address.Hex())
		}
		if st.indexOf(u.Address) >= 0 {
			return nil, errorsmod.Wrapf(types.ErrInvalidGenesis, "user %s is listed twice", u.Address.Hex())
		}
		if u.CommissionRate > types.MaxCommissionBps {
			return nil, errorsmod.Wrapf(types.ErrInvalidGenesis, "user %s commission rate %d exceeds %d",
				u.Address.Hex(), u.CommissionRate, types.MaxCommissionBps)
		}
		if u.Stake > math.MaxUint64-st.StakeSupply {
			return nil, errorsmod.Wrap(types.ErrInvalidGenesis, "stake supply overflows")
		}

		st.Members = append(st.Members, types.Member{
			Address:       u.Address,
			Role:          role,
			Stake:         u.Stake,
			CommissionBps: u.CommissionRate,
			Enode:         u.Enode,
		})
		st.StakeSupply += u.Stake
		st.whitelistAdd(u.Enode)
	}
	for _, e := range g.Whitelist {
		if e == "" {
			return nil, errorsmod.Wrap(types.ErrInvalidGenesis, "empty whitelist entry")
		}
		st.whitelistAdd(e)
	}

	st.Committee = committee.Select(st.roster(), st.Params.MaxCommitteeSize)

	return st, nil
}
