package callabi

import (
	"fmt"
	"math/big"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"

	"github.com/somanetwork/govmon/registry"
	"github.com/somanetwork/govmon/types"
)

// Receipt is the outcome of a mutating call.
type Receipt struct {
	// Status is gethtypes.ReceiptStatusSuccessful or ReceiptStatusFailed.
	Status uint64
	Method string
	// Code is the registry error code, 0 on success.
	Code   uint32
	Err    error
	Return []byte
}

type handler func(caller common.Address, args []interface{}) ([]interface{}, error)

// Dispatcher decodes ABI call data and runs it against a registry.
type Dispatcher struct {
	reg    *registry.Registry
	logger *zap.Logger

	reads  map[string]handler
	writes map[string]handler
}

func NewDispatcher(reg *registry.Registry, logger *zap.Logger) *Dispatcher {
	d := &Dispatcher{reg: reg, logger: logger}
	d.reads = d.readHandlers()
	d.writes = d.writeHandlers()
	return d
}

func (d *Dispatcher) decode(input []byte) (*abi.Method, []interface{}, error) {
	if len(input) < 4 {
		return nil, nil, errorsmod.Wrapf(types.ErrInvalidCallData, "call data of %d bytes has no selector", len(input))
	}
	method, err := registryABI.MethodById(input[:4])
	if err != nil {
		return nil, nil, errorsmod.Wrap(types.ErrInvalidCallData, err.Error())
	}
	args, err := method.Inputs.Unpack(input[4:])
	if err != nil {
		return nil, nil, errorsmod.Wrapf(types.ErrInvalidCallData, "%s: %v", method.Name, err)
	}
	return method, args, nil
}

// Call runs a read method and returns its ABI encoded outputs.
func (d *Dispatcher) Call(caller common.Address, input []byte) ([]byte, error) {
	method, args, err := d.decode(input)
	if err != nil {
		return nil, err
	}
	h, ok := d.reads[method.Name]
	if !ok {
		return nil, errorsmod.Wrapf(types.ErrInvalidCallData, "%s changes the registry, send it as a transaction", method.Name)
	}

	outputs, err := h(caller, args)
	if err != nil {
		return nil, err
	}
	return method.Outputs.Pack(outputs...)
}

// Transact runs a mutating method. Failures, including malformed call data,
// are reported in the receipt.
func (d *Dispatcher) Transact(caller common.Address, input []byte) *Receipt {
	rcpt := &Receipt{Status: gethtypes.ReceiptStatusFailed}

	method, args, err := d.decode(input)
	if err != nil {
		return rcpt.fail(err)
	}
	rcpt.Method = method.Name

	h, ok := d.writes[method.Name]
	if !ok {
		return rcpt.fail(errorsmod.Wrapf(types.ErrInvalidCallData, "%s is a read method", method.Name))
	}

	outputs, err := h(caller, args)
	if err != nil {
		d.logger.Debug("transaction failed",
			zap.String("method", method.Name),
			zap.String("caller", caller.Hex()),
			zap.Error(err),
		)
		return rcpt.fail(err)
	}

	if rcpt.Return, err = method.Outputs.Pack(outputs...); err != nil {
		return rcpt.fail(fmt.Errorf("failed to encode the outputs of %s: %w", method.Name, err))
	}
	rcpt.Status = gethtypes.ReceiptStatusSuccessful
	return rcpt
}

func (r *Receipt) fail(err error) *Receipt {
	r.Err = err
	r.Code = types.ErrorCode(err)
	return r
}

func (d *Dispatcher) readHandlers() map[string]handler {
	return map[string]handler{
		"getValidators": func(common.Address, []interface{}) ([]interface{}, error) {
			return []interface{}{d.reg.GetValidators()}, nil
		},
		"validators": func(_ common.Address, args []interface{}) ([]interface{}, error) {
			i, err := uint64Arg(args, 0)
			if err != nil {
				return nil, err
			}
			vals := d.reg.GetValidators()
			if i >= uint64(len(vals)) {
				return nil, errorsmod.Wrapf(types.ErrNotFound, "validator %d of %d", i, len(vals))
			}
			return []interface{}{vals[i]}, nil
		},
		"getStakeholders": func(common.Address, []interface{}) ([]interface{}, error) {
			return []interface{}{d.reg.GetStakeholders()}, nil
		},
		"getWhitelist": func(common.Address, []interface{}) ([]interface{}, error) {
			return []interface{}{d.reg.GetWhitelist()}, nil
		},
		"getStake": func(_ common.Address, args []interface{}) ([]interface{}, error) {
			addr, err := addressArg(args, 0)
			if err != nil {
				return nil, err
			}
			return []interface{}{toBig(d.reg.GetStake(addr))}, nil
		},
		"getStakeSupply": func(common.Address, []interface{}) ([]interface{}, error) {
			return []interface{}{toBig(d.reg.StakeSupply())}, nil
		},
		"getMaxCommitteeSize": func(common.Address, []interface{}) ([]interface{}, error) {
			return []interface{}{toBig(d.reg.GetMaxCommitteeSize())}, nil
		},
		"getCommittee": func(common.Address, []interface{}) ([]interface{}, error) {
			c := d.reg.GetCommittee()
			return []interface{}{c.Addresses(), toBigs(c.Weights())}, nil
		},
		"checkMember": func(_ common.Address, args []interface{}) ([]interface{}, error) {
			addr, err := addressArg(args, 0)
			if err != nil {
				return nil, err
			}
			return []interface{}{d.reg.CheckMember(addr)}, nil
		},
		"retrieveState": func(common.Address, []interface{}) ([]interface{}, error) {
			members := d.reg.RetrieveState()
			accounts := make([]common.Address, len(members))
			roles := make([]uint8, len(members))
			stakes := make([]uint64, len(members))
			enodes := make([]string, len(members))
			rates := make([]uint64, len(members))
			for i, m := range members {
				accounts[i] = m.Address
				roles[i] = uint8(m.Role)
				stakes[i] = m.Stake
				enodes[i] = m.Enode
				rates[i] = m.CommissionBps
			}
			return []interface{}{accounts, roles, toBigs(stakes), enodes, toBigs(rates)}, nil
		},
		"getMinimumGasPrice": func(common.Address, []interface{}) ([]interface{}, error) {
			return []interface{}{toBig(d.reg.GetMinimumGasPrice())}, nil
		},
		"getBondingPeriod": func(common.Address, []interface{}) ([]interface{}, error) {
			return []interface{}{toBig(d.reg.GetBondingPeriod())}, nil
		},
		"getVersion": func(common.Address, []interface{}) ([]interface{}, error) {
			return []interface{}{d.reg.GetVersion()}, nil
		},
		"getOperator": func(common.Address, []interface{}) ([]interface{}, error) {
			return []interface{}{d.reg.GetOperator()}, nil
		},
		"getDeployer": func(common.Address, []interface{}) ([]interface{}, error) {
			return []interface{}{d.reg.GetDeployer()}, nil
		},
		"getHeldBalance": func(common.Address, []interface{}) ([]interface{}, error) {
			return []interface{}{toBig(d.reg.HeldBalance())}, nil
		},
		"getExternalBalance": func(_ common.Address, args []interface{}) ([]interface{}, error) {
			addr, err := addressArg(args, 0)
			if err != nil {
				return nil, err
			}
			return []interface{}{toBig(d.reg.ExternalBalance(addr))}, nil
		},
		"dumpEconomicsData": func(common.Address, []interface{}) ([]interface{}, error) {
			data := d.reg.DumpEconomicsData()
			roles := make([]uint8, len(data.UserTypes))
			for i, r := range data.UserTypes {
				roles[i] = uint8(r)
			}
			return []interface{}{
				data.Accounts,
				roles,
				toBigs(data.Stakes),
				toBigs(data.CommissionRates),
				toBig(data.MinGasPrice),
				toBig(data.StakeSupply),
			}, nil
		},
	}
}

func (d *Dispatcher) writeHandlers() map[string]handler {
	return map[string]handler{
		"addValidator": func(caller common.Address, args []interface{}) ([]interface{}, error) {
			addr, err := addressArg(args, 0)
			if err != nil {
				return nil, err
			}
			stake, err := uint64Arg(args, 1)
			if err != nil {
				return nil, err
			}
			enode, err := stringArg(args, 2)
			if err != nil {
				return nil, err
			}
			return nil, d.reg.AddValidator(caller, addr, stake, enode)
		},
		"addParticipant": func(caller common.Address, args []interface{}) ([]interface{}, error) {
			addr, err := addressArg(args, 0)
			if err != nil {
				return nil, err
			}
			enode, err := stringArg(args, 1)
			if err != nil {
				return nil, err
			}
			return nil, d.reg.AddParticipant(caller, addr, enode)
		},
		"addStakeholder": func(caller common.Address, args []interface{}) ([]interface{}, error) {
			addr, err := addressArg(args, 0)
			if err != nil {
				return nil, err
			}
			enode, err := stringArg(args, 1)
			if err != nil {
				return nil, err
			}
			stake, err := uint64Arg(args, 2)
			if err != nil {
				return nil, err
			}
			return nil, d.reg.AddStakeholder(caller, addr, enode, stake)
		},
		"removeUser": func(caller common.Address, args []interface{}) ([]interface{}, error) {
			addr, err := addressArg(args, 0)
			if err != nil {
				return nil, err
			}
			return nil, d.reg.RemoveUser(caller, addr)
		},
		"addWhitelistEntry": func(caller common.Address, args []interface{}) ([]interface{}, error) {
			enode, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}
			return nil, d.reg.AddWhitelistEntry(caller, enode)
		},
		"removeWhitelistEntry": func(caller common.Address, args []interface{}) ([]interface{}, error) {
			enode, err := stringArg(args, 0)
			if err != nil {
				return nil, err
			}
			return nil, d.reg.RemoveWhitelistEntry(caller, enode)
		},
		"mintStake": func(caller common.Address, args []interface{}) ([]interface{}, error) {
			addr, amount, err := addressAmountArgs(args)
			if err != nil {
				return nil, err
			}
			return nil, d.reg.MintStake(caller, addr, amount)
		},
		"redeemStake": func(caller common.Address, args []interface{}) ([]interface{}, error) {
			addr, amount, err := addressAmountArgs(args)
			if err != nil {
				return nil, err
			}
			return nil, d.reg.RedeemStake(caller, addr, amount)
		},
		"send": func(caller common.Address, args []interface{}) ([]interface{}, error) {
			to, amount, err := addressAmountArgs(args)
			if err != nil {
				return nil, err
			}
			return nil, d.reg.Send(caller, caller, to, amount)
		},
		"setCommissionRate": func(caller common.Address, args []interface{}) ([]interface{}, error) {
			bps, err := uint64Arg(args, 0)
			if err != nil {
				return nil, err
			}
			return nil, d.reg.SetCommissionRate(caller, bps)
		},
		"setCommitteeSize": func(caller common.Address, args []interface{}) ([]interface{}, error) {
			size, err := uint64Arg(args, 0)
			if err != nil {
				return nil, err
			}
			return nil, d.reg.SetCommitteeSize(caller, size)
		},
		"setCommittee": func(caller common.Address, _ []interface{}) ([]interface{}, error) {
			c, err := d.reg.SetCommittee(caller)
			if err != nil {
				return nil, err
			}
			return []interface{}{c.Addresses(), toBigs(c.Weights())}, nil
		},
		"setMinimumGasPrice": func(caller common.Address, args []interface{}) ([]interface{}, error) {
			price, err := uint64Arg(args, 0)
			if err != nil {
				return nil, err
			}
			return nil, d.reg.SetMinimumGasPrice(caller, price)
		},
		"deposit": func(caller common.Address, args []interface{}) ([]interface{}, error) {
			amount, err := uint64Arg(args, 0)
			if err != nil {
				return nil, err
			}
			return nil, d.reg.Deposit(caller, amount)
		},
		"finalize": func(caller common.Address, args []interface{}) ([]interface{}, error) {
			amount, err := uint64Arg(args, 0)
			if err != nil {
				return nil, err
			}
			dist, err := d.reg.Finalize(caller, amount)
			if err != nil {
				return nil, err
			}
			accounts := make([]common.Address, len(dist.Payouts))
			amounts := make([]uint64, len(dist.Payouts))
			for i, p := range dist.Payouts {
				accounts[i] = p.Address
				amounts[i] = p.Amount
			}
			return []interface{}{accounts, toBigs(amounts)}, nil
		},
	}
}

func addressArg(args []interface{}, i int) (common.Address, error) {
	addr, ok := args[i].(common.Address)
	if !ok {
		return common.Address{}, errorsmod.Wrapf(types.ErrInvalidCallData, "argument %d is not an address", i)
	}
	return addr, nil
}

func stringArg(args []interface{}, i int) (string, error) {
	s, ok := args[i].(string)
	if !ok {
		return "", errorsmod.Wrapf(types.ErrInvalidCallData, "argument %d is not a string", i)
	}
	return s, nil
}

func uint64Arg(args []interface{}, i int) (uint64, error) {
	v, ok := args[i].(*big.Int)
	if !ok || v.Sign() < 0 || !v.IsUint64() {
		return 0, errorsmod.Wrapf(types.ErrInvalidCallData, "argument %d does not fit in 64 bits", i)
	}
	return v.Uint64(), nil
}

func addressAmountArgs(args []interface{}) (common.Address, uint64, error) {
	addr, err := addressArg(args, 0)
	if err != nil {
		return common.Address{}, 0, err
	}
	amount, err := uint64Arg(args, 1)
	if err != nil {
		return common.Address{}, 0, err
	}
	return addr, amount, nil
}

func toBig(v uint64) *big.Int {
	return new(big.Int).SetUint64(v)
}

func toBigs(vs []uint64) []*big.Int {
	out := make([]*big.Int, len(vs))
	for i, v := range vs {
		out[i] = toBig(v)
	}
	return out
}
