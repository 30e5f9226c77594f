package monitor

import (
	"context"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// HeaderSource delivers the new chain heads of one node. *ethclient.Client
// satisfies it.
type HeaderSource interface {
	SubscribeNewHead(ctx context.Context, ch chan<- *gethtypes.Header) (ethereum.Subscription, error)
	Close()
}

// ValidatorIndexer maps a block signer to its position in the validator
// list, or types.UnknownSignerIndex.
type ValidatorIndexer interface {
	IndexOf(addr common.Address) int
}

// DialFunc connects to the node behind endpoint.
type DialFunc func(ctx context.Context, endpoint string) (HeaderSource, error)

// DialEth connects to a websocket or IPC endpoint through ethclient.
func DialEth(ctx context.Context, endpoint string) (HeaderSource, error) {
	c, err := ethclient.DialContext(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return c, nil
}
