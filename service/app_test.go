package service_test

import (
	"context"
	"math/big"
	"math/rand"
	"os"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/somanetwork/govmon/callabi"
	"github.com/somanetwork/govmon/config"
	"github.com/somanetwork/govmon/monitor"
	"github.com/somanetwork/govmon/observation"
	"github.com/somanetwork/govmon/registry"
	"github.com/somanetwork/govmon/seal"
	"github.com/somanetwork/govmon/service"
	"github.com/somanetwork/govmon/service/client"
	"github.com/somanetwork/govmon/testutil"
	testlog "github.com/somanetwork/govmon/testutil/log"
	"github.com/somanetwork/govmon/testutil/mocks"
)

const eventuallyWait = 10 * time.Second

func newHeaderSource(ctl *gomock.Controller, headers chan<- chan<- *gethtypes.Header) *mocks.MockHeaderSource {
	source := mocks.NewMockHeaderSource(ctl)
	source.EXPECT().SubscribeNewHead(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, ch chan<- *gethtypes.Header) (ethereum.Subscription, error) {
			headers <- ch
			return event.NewSubscription(func(quit <-chan struct{}) error {
				<-quit
				return nil
			}), nil
		}).Times(1)
	source.EXPECT().Close().Times(1)
	return source
}

func TestGovmonApp_EndToEnd(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	homePath := t.TempDir()

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	validator := crypto.PubkeyToAddress(key.PublicKey)
	operator := testutil.GenRandomAddress(r)
	deployer := testutil.GenRandomAddress(r)

	cfg := config.DefaultConfigWithHome(homePath)
	cfg.Nodes = []string{"ws://node-a:8546"}
	require.NoError(t, registry.WriteGenesis(cfg.GenesisFile, &registry.Genesis{
		Operator:      operator,
		Deployer:      deployer,
		EpochTrigger:  deployer,
		CommitteeSize: 3,
		Users: []registry.GenesisUser{
			{Address: validator, Type: "validator", Enode: testutil.GenRandomEnode(r), Stake: 100},
		},
	}))

	ctl := gomock.NewController(t)
	subscriptions := make(chan chan<- *gethtypes.Header, 1)
	source := newHeaderSource(ctl, subscriptions)
	dial := func(_ context.Context, endpoint string) (monitor.HeaderSource, error) {
		require.Equal(t, "ws://node-a:8546", endpoint)
		return source, nil
	}

	db, err := cfg.DatabaseConfig.GetDbBackend()
	require.NoError(t, err)
	app, err := service.NewGovmonApp(&cfg, db, dial, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, app.Start())

	srv, err := service.NewRPCServer(app)
	require.NoError(t, err)
	c := client.NewGovmonRPCClientWithClient(rpc.DialInProc(srv))
	ctx := context.Background()

	vals, err := c.GetValidators(ctx)
	require.NoError(t, err)
	require.Equal(t, []common.Address{validator}, vals)

	participant := testutil.GenRandomAddress(r)
	input, err := callabi.Pack("addParticipant", participant, testutil.GenRandomEnode(r))
	require.NoError(t, err)
	rcpt, err := c.SendTransaction(ctx, operator, input)
	require.NoError(t, err)
	require.Equal(t, gethtypes.ReceiptStatusSuccessful, uint64(rcpt.Status))

	rcpt, err = c.SendTransaction(ctx, participant, input)
	require.NoError(t, err)
	require.Equal(t, gethtypes.ReceiptStatusFailed, uint64(rcpt.Status))
	require.NotEmpty(t, rcpt.Error)

	input, err = callabi.Pack("getStake", validator)
	require.NoError(t, err)
	out, err := c.Call(ctx, common.Address{}, input)
	require.NoError(t, err)
	values, err := callabi.UnpackOutputs("getStake", out)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(100), values[0])

	members, err := c.RetrieveState(ctx)
	require.NoError(t, err)
	require.Len(t, members, 2)
	whitelist, err := c.GetWhitelist(ctx)
	require.NoError(t, err)
	require.Len(t, whitelist, 2)

	// a header sealed by the validator shows up with its index
	var headers chan<- *gethtypes.Header
	select {
	case headers = <-subscriptions:
	case <-time.After(eventuallyWait):
		t.Fatalf("the monitor did not subscribe")
	}
	h := testutil.GenRandomHeader(r, 42)
	require.NoError(t, seal.SealHeader(h, key))
	headers <- h

	require.Eventually(t, func() bool {
		obs, err := c.Observations(ctx, 42)
		return err == nil && obs.Info[h.Hash()].SignerIndex == 0
	}, eventuallyWait, 10*time.Millisecond)
	testlog.Logf(t, "observed header %s at height 42", h.Hash().Hex())

	_, err = c.Observations(ctx, 41)
	require.Error(t, err)

	running, err := c.RunningMonitors(ctx)
	require.NoError(t, err)
	require.Equal(t, cfg.Nodes, running)

	forks, err := c.Forks(ctx)
	require.NoError(t, err)
	require.Empty(t, forks)

	// two blocks at one height reach the fork subscribers
	forkCh := make(chan observation.ForkEvent, 4)
	forkSub, err := c.SubscribeForks(ctx, forkCh)
	require.NoError(t, err)
	a, b := testutil.GenRandomHeader(r, 43), testutil.GenRandomHeader(r, 43)
	require.NoError(t, seal.SealHeader(a, key))
	require.NoError(t, seal.SealHeader(b, key))
	headers <- a
	headers <- b
	select {
	case fork := <-forkCh:
		require.Equal(t, uint64(43), fork.Height)
		require.ElementsMatch(t, []common.Hash{a.Hash(), b.Hash()}, fork.Hashes)
	case err := <-forkSub.Err():
		t.Fatalf("fork subscription failed: %v", err)
	case <-time.After(eventuallyWait):
		t.Fatalf("no fork notification")
	}
	forkSub.Unsubscribe()

	forks, err = c.Forks(ctx)
	require.NoError(t, err)
	require.Len(t, forks, 1)

	c.Close()
	srv.Stop()
	require.NoError(t, app.Stop())
	require.NoError(t, db.Close())

	// the second start restores the registry from the db, not the genesis
	require.NoError(t, os.Remove(cfg.GenesisFile))
	cfg.Nodes = nil
	db, err = cfg.DatabaseConfig.GetDbBackend()
	require.NoError(t, err)
	defer func() {
		require.NoError(t, db.Close())
	}()
	restored, err := service.NewGovmonApp(&cfg, db, dial, zap.NewNop())
	require.NoError(t, err)
	require.True(t, restored.Registry().CheckMember(participant))
	require.Equal(t, uint64(100), restored.Registry().StakeSupply())
}

func TestGovmonApp_NoReachableNode(t *testing.T) {
	r := rand.New(rand.NewSource(8))
	homePath := t.TempDir()

	cfg := config.DefaultConfigWithHome(homePath)
	cfg.Nodes = []string{"ws://down:8546"}
	cfg.Monitor.DialAttempts = 1
	require.NoError(t, registry.WriteGenesis(cfg.GenesisFile, &registry.Genesis{
		Operator:     testutil.GenRandomAddress(r),
		Deployer:     testutil.GenRandomAddress(r),
		EpochTrigger: testutil.GenRandomAddress(r),
	}))

	dial := func(context.Context, string) (monitor.HeaderSource, error) {
		return nil, os.ErrDeadlineExceeded
	}

	db, err := cfg.DatabaseConfig.GetDbBackend()
	require.NoError(t, err)
	defer func() {
		require.NoError(t, db.Close())
	}()
	app, err := service.NewGovmonApp(&cfg, db, dial, zap.NewNop())
	require.NoError(t, err)

	err = app.Start()
	require.Error(t, err)
	testlog.Logf(t, "start failed as expected: %v", err)
	require.NoError(t, app.Stop())
}

func TestGovmonApp_MissingGenesis(t *testing.T) {
	cfg := config.DefaultConfigWithHome(t.TempDir())

	db, err := cfg.DatabaseConfig.GetDbBackend()
	require.NoError(t, err)
	defer func() {
		require.NoError(t, db.Close())
	}()

	_, err = service.NewGovmonApp(&cfg, db, monitor.DialEth, zap.NewNop())
	require.Error(t, err)
}
