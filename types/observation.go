package types

import (
	"github.com/ethereum/go-ethereum/common"
)

// UnknownSignerIndex marks a signer that is not in the validator list, or a
// header whose signer could not be recovered.
const UnknownSignerIndex = -1

// HeaderObservation is one report of a block header by one monitored node.
type HeaderObservation struct {
	ClientID    string
	Height      uint64
	Hash        common.Hash
	ParentHash  common.Hash
	Signer      common.Address
	SignerIndex int
}

// SignerKnown reports whether the signer was matched against the validator list.
func (o *HeaderObservation) SignerKnown() bool {
	return o.SignerIndex != UnknownSignerIndex
}
