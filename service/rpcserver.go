package service

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/somanetwork/govmon/observation"
	"github.com/somanetwork/govmon/types"
)

const (
	GovNamespace     = "gov"
	MonitorNamespace = "monitor"

	forkBufferSize = 16
)

// RPCReceipt is the JSON form of a callabi.Receipt.
type RPCReceipt struct {
	Status hexutil.Uint64 `json:"status"`
	Method string         `json:"method"`
	Code   uint32         `json:"code"`
	Error  string         `json:"error,omitempty"`
	Return hexutil.Bytes  `json:"return,omitempty"`
}

// GovAPI exposes the registry under the gov namespace.
type GovAPI struct {
	app *GovmonApp
}

// Call runs a read method of the registry.
func (api *GovAPI) Call(caller common.Address, input hexutil.Bytes) (hexutil.Bytes, error) {
	return api.app.Dispatcher().Call(caller, input)
}

// SendTransaction runs a mutating method of the registry as caller.
// Authentication of the caller is left to the transport.
func (api *GovAPI) SendTransaction(caller common.Address, input hexutil.Bytes) *RPCReceipt {
	rcpt := api.app.Dispatcher().Transact(caller, input)
	res := &RPCReceipt{
		Status: hexutil.Uint64(rcpt.Status),
		Method: rcpt.Method,
		Code:   rcpt.Code,
		Return: rcpt.Return,
	}
	if rcpt.Err != nil {
		res.Error = rcpt.Err.Error()
	}
	return res
}

func (api *GovAPI) GetValidators() []common.Address {
	return api.app.Registry().GetValidators()
}

func (api *GovAPI) GetWhitelist() []string {
	return api.app.Registry().GetWhitelist()
}

func (api *GovAPI) GetCommittee() types.Committee {
	return api.app.Registry().GetCommittee()
}

func (api *GovAPI) RetrieveState() []types.Member {
	return api.app.Registry().RetrieveState()
}

// MonitorAPI exposes the observation store under the monitor namespace.
type MonitorAPI struct {
	app *GovmonApp
}

// Forks returns the standing fork alerts.
func (api *MonitorAPI) Forks() []observation.ForkEvent {
	return api.app.Observations().Forks()
}

// Observations returns what the monitors reported at height.
func (api *MonitorAPI) Observations(height hexutil.Uint64) (*observation.Height, error) {
	h, ok := api.app.Observations().Get(uint64(height))
	if !ok {
		return nil, fmt.Errorf("height %d is not tracked", uint64(height))
	}
	return h, nil
}

// NewForks streams every fork event to the subscriber, as
// monitor_subscribe("newForks"). It needs a transport with notifications,
// such as the websocket endpoint.
func (api *MonitorAPI) NewForks(ctx context.Context) (*rpc.Subscription, error) {
	notifier, supported := rpc.NotifierFromContext(ctx)
	if !supported {
		return nil, rpc.ErrNotificationsUnsupported
	}

	rpcSub := notifier.CreateSubscription()

	// subscribe before returning so no fork is missed in between
	forks := make(chan observation.ForkEvent, forkBufferSize)
	sub := api.app.Observations().SubscribeForks(forks)

	go func() {
		defer sub.Unsubscribe()

		for {
			select {
			case fork := <-forks:
				if err := notifier.Notify(rpcSub.ID, fork); err != nil {
					return
				}
			case <-sub.Err():
				return
			case <-rpcSub.Err():
				return
			}
		}
	}()

	return rpcSub, nil
}

// Running returns the client ids of the running node monitors.
func (api *MonitorAPI) Running() []string {
	return api.app.Monitors().Running()
}

func apis(app *GovmonApp) []rpc.API {
	return []rpc.API{
		{Namespace: GovNamespace, Service: &GovAPI{app}},
		{Namespace: MonitorNamespace, Service: &MonitorAPI{app}},
	}
}

// NewRPCServer serves the gov and monitor APIs of app.
func NewRPCServer(app *GovmonApp) (*rpc.Server, error) {
	srv := rpc.NewServer()
	for _, api := range apis(app) {
		if err := srv.RegisterName(api.Namespace, api.Service); err != nil {
			srv.Stop()
			return nil, fmt.Errorf("failed to register the %s API: %w", api.Namespace, err)
		}
	}
	return srv, nil
}
