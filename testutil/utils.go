package testutil

import (
	"encoding/hex"
	"math/big"
	"math/rand"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"github.com/somanetwork/govmon/types"
)

func AddRandomSeedsToFuzzer(f *testing.F, num uint) {
	// Seed based on the current time
	r := rand.New(rand.NewSource(time.Now().Unix()))
	var idx uint
	for idx = 0; idx < num; idx++ {
		f.Add(r.Int63())
	}
}

func GenRandomByteArray(r *rand.Rand, length uint64) []byte {
	newHeaderBytes := make([]byte, length)
	r.Read(newHeaderBytes)
	return newHeaderBytes
}

func GenRandomHexStr(r *rand.Rand, length uint64) string {
	randBytes := GenRandomByteArray(r, length)
	return hex.EncodeToString(randBytes)
}

func GenRandomAddress(r *rand.Rand) common.Address {
	return common.BytesToAddress(GenRandomByteArray(r, common.AddressLength))
}

func GenRandomHash(r *rand.Rand) common.Hash {
	return common.BytesToHash(GenRandomByteArray(r, common.HashLength))
}

func GenRandomEnode(r *rand.Rand) string {
	return "enode://" + GenRandomHexStr(r, 64) + "@127.0.0.1:30303"
}

// GenRandomRoster returns n committee candidates with distinct addresses.
// Weights are drawn from a small range so ties are common.
func GenRandomRoster(r *rand.Rand, n int) []types.CommitteeMember {
	seen := make(map[common.Address]bool, n)
	roster := make([]types.CommitteeMember, 0, n)
	for len(roster) < n {
		addr := GenRandomAddress(r)
		if seen[addr] {
			continue
		}
		seen[addr] = true
		roster = append(roster, types.CommitteeMember{
			Address: addr,
			Weight:  uint64(r.Int63n(10)),
		})
	}
	return roster
}

// GenRandomHeader returns an unsealed header at the given height with room
// for a seal in its extra-data.
func GenRandomHeader(r *rand.Rand, height uint64) *gethtypes.Header {
	return &gethtypes.Header{
		ParentHash:  GenRandomHash(r),
		UncleHash:   gethtypes.EmptyUncleHash,
		Coinbase:    GenRandomAddress(r),
		Root:        GenRandomHash(r),
		TxHash:      gethtypes.EmptyTxsHash,
		ReceiptHash: gethtypes.EmptyReceiptsHash,
		Difficulty:  big.NewInt(r.Int63n(3) + 1),
		Number:      new(big.Int).SetUint64(height),
		GasLimit:    uint64(r.Int63n(10_000_000)),
		GasUsed:     uint64(r.Int63n(1_000_000)),
		Time:        uint64(r.Int63n(2_000_000_000)),
		Extra:       append(GenRandomByteArray(r, 32), make([]byte, 65)...),
	}
}
