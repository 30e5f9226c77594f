package seal

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/hashicorp/golang-lru/arc/v2"
)

// DefaultCacheSize is the number of recent block signers kept in memory.
const DefaultCacheSize = 4096

// Recoverer recovers block producers and remembers the signers of recently
// seen headers. Several monitors observe the same blocks, so most headers are
// recovered once.
type Recoverer struct {
	signatures *arc.ARCCache[common.Hash, common.Address]
}

func NewRecoverer(cacheSize int) (*Recoverer, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	signatures, err := arc.NewARC[common.Hash, common.Address](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create the signature cache: %w", err)
	}
	return &Recoverer{signatures: signatures}, nil
}

// Author returns the producer of the header. Failed recoveries are not cached.
func (r *Recoverer) Author(header *gethtypes.Header) (common.Address, error) {
	hash := header.Hash()
	if signer, known := r.signatures.Get(hash); known {
		return signer, nil
	}

	signer, err := Author(header)
	if err != nil {
		return common.Address{}, err
	}

	r.signatures.Add(hash, signer)
	return signer, nil
}

// Cached returns the number of signers currently cached.
func (r *Recoverer) Cached() int {
	return r.signatures.Len()
}
