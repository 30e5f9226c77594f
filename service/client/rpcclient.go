package client

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/somanetwork/govmon/observation"
	"github.com/somanetwork/govmon/service"
	"github.com/somanetwork/govmon/types"
)

type GovmonRPCClient struct {
	client *rpc.Client
}

// NewGovmonRPCClient connects to the JSON-RPC endpoint of a govmond daemon.
func NewGovmonRPCClient(ctx context.Context, endpoint string) (*GovmonRPCClient, error) {
	c, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}

	return NewGovmonRPCClientWithClient(c), nil
}

func NewGovmonRPCClientWithClient(c *rpc.Client) *GovmonRPCClient {
	return &GovmonRPCClient{client: c}
}

func (c *GovmonRPCClient) Close() {
	c.client.Close()
}

func (c *GovmonRPCClient) Call(ctx context.Context, caller common.Address, input []byte) ([]byte, error) {
	var out hexutil.Bytes
	if err := c.client.CallContext(ctx, &out, service.GovNamespace+"_call", caller, hexutil.Bytes(input)); err != nil {
		return nil, err
	}

	return out, nil
}

func (c *GovmonRPCClient) SendTransaction(ctx context.Context, caller common.Address, input []byte) (*service.RPCReceipt, error) {
	var rcpt service.RPCReceipt
	if err := c.client.CallContext(ctx, &rcpt, service.GovNamespace+"_sendTransaction", caller, hexutil.Bytes(input)); err != nil {
		return nil, err
	}

	return &rcpt, nil
}

func (c *GovmonRPCClient) GetValidators(ctx context.Context) ([]common.Address, error) {
	var res []common.Address
	if err := c.client.CallContext(ctx, &res, service.GovNamespace+"_getValidators"); err != nil {
		return nil, err
	}

	return res, nil
}

func (c *GovmonRPCClient) GetWhitelist(ctx context.Context) ([]string, error) {
	var res []string
	if err := c.client.CallContext(ctx, &res, service.GovNamespace+"_getWhitelist"); err != nil {
		return nil, err
	}

	return res, nil
}

func (c *GovmonRPCClient) GetCommittee(ctx context.Context) (types.Committee, error) {
	var res types.Committee
	if err := c.client.CallContext(ctx, &res, service.GovNamespace+"_getCommittee"); err != nil {
		return nil, err
	}

	return res, nil
}

func (c *GovmonRPCClient) RetrieveState(ctx context.Context) ([]types.Member, error) {
	var res []types.Member
	if err := c.client.CallContext(ctx, &res, service.GovNamespace+"_retrieveState"); err != nil {
		return nil, err
	}

	return res, nil
}

func (c *GovmonRPCClient) Forks(ctx context.Context) ([]observation.ForkEvent, error) {
	var res []observation.ForkEvent
	if err := c.client.CallContext(ctx, &res, service.MonitorNamespace+"_forks"); err != nil {
		return nil, err
	}

	return res, nil
}

func (c *GovmonRPCClient) Observations(ctx context.Context, height uint64) (*observation.Height, error) {
	var res observation.Height
	if err := c.client.CallContext(ctx, &res, service.MonitorNamespace+"_observations", hexutil.Uint64(height)); err != nil {
		return nil, err
	}

	return &res, nil
}

// SubscribeForks delivers the fork events detected from now on. The client
// must be connected over a transport with notifications.
func (c *GovmonRPCClient) SubscribeForks(ctx context.Context, ch chan<- observation.ForkEvent) (*rpc.ClientSubscription, error) {
	return c.client.Subscribe(ctx, service.MonitorNamespace, ch, "newForks")
}

func (c *GovmonRPCClient) RunningMonitors(ctx context.Context) ([]string, error) {
	var res []string
	if err := c.client.CallContext(ctx, &res, service.MonitorNamespace+"_running"); err != nil {
		return nil, err
	}

	return res, nil
}
