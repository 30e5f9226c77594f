package types

import (
	errorsmod "cosmossdk.io/errors"
)

// Codespace is the error namespace of every registry and monitor error.
const Codespace = "govmon"

var (
	ErrUnauthorized        = errorsmod.Register(Codespace, 2, "caller lacks the required role")
	ErrNotFound            = errorsmod.Register(Codespace, 3, "account is not registered")
	ErrDuplicateMember     = errorsmod.Register(Codespace, 4, "account is already registered")
	ErrInvalidAmount       = errorsmod.Register(Codespace, 5, "amount must be positive")
	ErrInsufficientStake   = errorsmod.Register(Codespace, 6, "stake balance is too low")
	ErrInsufficientBalance = errorsmod.Register(Codespace, 7, "registry holds less than the requested amount")
	ErrEmptyPool           = errorsmod.Register(Codespace, 8, "nothing to distribute")
	ErrMalformedSeal       = errorsmod.Register(Codespace, 9, "header seal is malformed")
	ErrInvalidSignature    = errorsmod.Register(Codespace, 10, "signature does not recover to a valid key")
	ErrEnodeInUse          = errorsmod.Register(Codespace, 11, "entry point is owned by a registered member")
	ErrInvalidCallData     = errorsmod.Register(Codespace, 12, "call data cannot be decoded")
	ErrInvalidGenesis      = errorsmod.Register(Codespace, 13, "genesis is invalid")
)

// ErrorCode returns the registered code of err, 0 for nil and 1 for errors
// outside the govmon codespace.
func ErrorCode(err error) uint32 {
	if err == nil {
		return 0
	}
	codespace, code, _ := errorsmod.ABCIInfo(err, false)
	if codespace != Codespace {
		return 1
	}
	return code
}
