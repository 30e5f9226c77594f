package registry

import (
	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"

	"github.com/somanetwork/govmon/types"
)

// Permission is the role a caller needs to run an operation.
type Permission uint8

const (
	PermAnyone Permission = iota
	PermOperator
	PermEpochTrigger
	PermDeployer
	// PermSelf requires the caller to be the account the operation acts on.
	PermSelf
)

func (p Permission) String() string {
	switch p {
	case PermAnyone:
		return "anyone"
	case PermOperator:
		return "operator"
	case PermEpochTrigger:
		return "epoch-trigger"
	case PermDeployer:
		return "deployer"
	case PermSelf:
		return "self"
	default:
		return "unknown"
	}
}

type Op string

const (
	OpAddValidator         Op = "addValidator"
	OpAddParticipant       Op = "addParticipant"
	OpAddStakeholder       Op = "addStakeholder"
	OpRemoveUser           Op = "removeUser"
	OpAddWhitelistEntry    Op = "addWhitelistEntry"
	OpRemoveWhitelistEntry Op = "removeWhitelistEntry"
	OpMintStake            Op = "mintStake"
	OpRedeemStake          Op = "redeemStake"
	OpSend                 Op = "send"
	OpSetCommissionRate    Op = "setCommissionRate"
	OpSetCommitteeSize     Op = "setCommitteeSize"
	OpSetCommittee         Op = "setCommittee"
	OpSetMinimumGasPrice   Op = "setMinimumGasPrice"
	OpDeposit              Op = "deposit"
	OpFinalize             Op = "finalize"
)

var permissions = map[Op]Permission{
	OpAddValidator:         PermOperator,
	OpAddParticipant:       PermOperator,
	OpAddStakeholder:       PermOperator,
	OpRemoveUser:           PermOperator,
	OpAddWhitelistEntry:    PermOperator,
	OpRemoveWhitelistEntry: PermOperator,
	OpMintStake:            PermOperator,
	OpRedeemStake:          PermOperator,
	OpSend:                 PermSelf,
	OpSetCommissionRate:    PermSelf,
	OpSetCommitteeSize:     PermOperator,
	OpSetCommittee:         PermEpochTrigger,
	OpSetMinimumGasPrice:   PermOperator,
	OpDeposit:              PermAnyone,
	OpFinalize:             PermDeployer,
}

// PermissionOf returns the permission an operation requires. Unknown
// operations require the operator.
func PermissionOf(op Op) Permission {
	if p, ok := permissions[op]; ok {
		return p
	}
	return PermOperator
}

// Ops returns every gated operation.
func Ops() []Op {
	ops := make([]Op, 0, len(permissions))
	for op := range permissions {
		ops = append(ops, op)
	}
	return ops
}

// authorize checks caller against the permission of op. subject is the
// account the operation acts on and only matters for PermSelf.
func authorize(p *Params, op Op, caller, subject common.Address) error {
	var allowed bool
	switch perm := PermissionOf(op); perm {
	case PermAnyone:
		allowed = true
	case PermOperator:
		allowed = caller == p.Operator
	case PermEpochTrigger:
		allowed = caller == p.EpochTrigger
	case PermDeployer:
		allowed = caller == p.Deployer
	case PermSelf:
		allowed = caller == subject
	}
	if !allowed {
		return errorsmod.Wrapf(types.ErrUnauthorized, "%s requires %s, caller %s", op, PermissionOf(op), caller.Hex())
	}
	return nil
}
