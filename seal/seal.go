package seal

import (
	"crypto/ecdsa"
	"io"

	errorsmod "cosmossdk.io/errors"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"golang.org/x/crypto/sha3"

	"github.com/somanetwork/govmon/types"
)

const (
	ExtraVanity = 32                     // Fixed number of extra-data prefix bytes reserved for signer vanity
	ExtraSeal   = crypto.SignatureLength // Fixed number of extra-data suffix bytes reserved for signer seal
)

// Signature is a seal split into its components.
type Signature struct {
	R [32]byte
	S [32]byte
	V byte
}

// Bytes returns the 65 byte [R || S || V] form with V normalised to 0 or 1.
func (s *Signature) Bytes() []byte {
	b := make([]byte, ExtraSeal)
	copy(b[:32], s.R[:])
	copy(b[32:64], s.S[:])
	b[64] = s.V
	if b[64] >= 27 {
		b[64] -= 27
	}
	return b
}

// SplitSignature splits a 65 byte seal into r, s and the recovery id.
func SplitSignature(sealBytes []byte) (*Signature, error) {
	if len(sealBytes) != ExtraSeal {
		return nil, errorsmod.Wrapf(types.ErrMalformedSeal, "seal is %d bytes, want %d", len(sealBytes), ExtraSeal)
	}
	sig := new(Signature)
	copy(sig.R[:], sealBytes[:32])
	copy(sig.S[:], sealBytes[32:64])
	sig.V = sealBytes[64]
	return sig, nil
}

// ExtractSeal returns the seal stored at the tail of the header extra-data,
// after the vanity prefix.
func ExtractSeal(extra []byte) ([]byte, error) {
	if len(extra) < ExtraVanity+ExtraSeal {
		return nil, errorsmod.Wrapf(types.ErrMalformedSeal,
			"extra-data is %d bytes, want at least %d", len(extra), ExtraVanity+ExtraSeal)
	}
	return extra[len(extra)-ExtraSeal:], nil
}

// SigHash returns the hash a block producer signs: the header encoding with
// the seal stripped from the extra-data.
func SigHash(header *gethtypes.Header) (hash common.Hash, err error) {
	if len(header.Extra) < ExtraVanity+ExtraSeal {
		return common.Hash{}, errorsmod.Wrapf(types.ErrMalformedSeal,
			"extra-data is %d bytes, want at least %d", len(header.Extra), ExtraVanity+ExtraSeal)
	}
	hasher := sha3.NewLegacyKeccak256()
	if err := encodeSigHeader(hasher, header); err != nil {
		return common.Hash{}, err
	}
	hasher.Sum(hash[:0])
	return hash, nil
}

func encodeSigHeader(w io.Writer, header *gethtypes.Header) error {
	return rlp.Encode(w, []interface{}{
		header.ParentHash,
		header.UncleHash,
		header.Coinbase,
		header.Root,
		header.TxHash,
		header.ReceiptHash,
		header.Bloom,
		header.Difficulty,
		header.Number,
		header.GasLimit,
		header.GasUsed,
		header.Time,
		header.Extra[:len(header.Extra)-ExtraSeal],
		header.MixDigest,
		header.Nonce,
	})
}

// RecoverSigner recovers the address whose key produced sig over hash.
func RecoverSigner(hash common.Hash, sig *Signature) (common.Address, error) {
	pubkey, err := crypto.Ecrecover(hash.Bytes(), sig.Bytes())
	if err != nil {
		return common.Address{}, errorsmod.Wrap(types.ErrInvalidSignature, err.Error())
	}

	var signer common.Address
	copy(signer[:], crypto.Keccak256(pubkey[1:])[12:])
	return signer, nil
}

// Author recovers the producer of a sealed header without caching.
func Author(header *gethtypes.Header) (common.Address, error) {
	sealBytes, err := ExtractSeal(header.Extra)
	if err != nil {
		return common.Address{}, err
	}
	sig, err := SplitSignature(sealBytes)
	if err != nil {
		return common.Address{}, err
	}
	hash, err := SigHash(header)
	if err != nil {
		return common.Address{}, err
	}
	return RecoverSigner(hash, sig)
}

// SealHeader signs the header with key and writes the seal into the tail of
// its extra-data. Extra-data shorter than the vanity is padded, and a slot
// for the seal is appended when the extra-data cannot hold one yet.
func SealHeader(header *gethtypes.Header, key *ecdsa.PrivateKey) error {
	if len(header.Extra) < ExtraVanity {
		header.Extra = append(header.Extra, make([]byte, ExtraVanity-len(header.Extra))...)
	}
	if len(header.Extra) < ExtraVanity+ExtraSeal {
		header.Extra = append(header.Extra, make([]byte, ExtraSeal)...)
	}

	hash, err := SigHash(header)
	if err != nil {
		return err
	}
	sig, err := crypto.Sign(hash.Bytes(), key)
	if err != nil {
		return err
	}
	copy(header.Extra[len(header.Extra)-ExtraSeal:], sig)

	return nil
}
