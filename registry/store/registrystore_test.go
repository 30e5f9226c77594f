package store_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/somanetwork/govmon/config"
	"github.com/somanetwork/govmon/registry"
	"github.com/somanetwork/govmon/registry/store"
	"github.com/somanetwork/govmon/testutil"
)

func openStore(t *testing.T, homePath string) *store.RegistryStore {
	db, err := config.DefaultDBConfigWithHomePath(homePath).GetDbBackend()
	require.NoError(t, err)
	s, err := store.NewRegistryStore(db)
	require.NoError(t, err)
	return s
}

func TestLoadState_Empty(t *testing.T) {
	s := openStore(t, t.TempDir())
	defer func() {
		require.NoError(t, s.Close())
	}()

	_, err := s.LoadState()
	require.ErrorIs(t, err, store.ErrStateNotFound)
}

// FuzzRegistryStore tests that the state written by registry operations
// survives reopening the db
func FuzzRegistryStore(f *testing.F) {
	testutil.AddRandomSeedsToFuzzer(f, 10)
	f.Fuzz(func(t *testing.T, seed int64) {
		r := rand.New(rand.NewSource(seed))
		homePath := t.TempDir()

		operator := testutil.GenRandomAddress(r)
		deployer := testutil.GenRandomAddress(r)
		epochTrigger := testutil.GenRandomAddress(r)
		g := &registry.Genesis{
			Operator:      operator,
			Deployer:      deployer,
			EpochTrigger:  epochTrigger,
			MinGasPrice:   uint64(r.Int63n(10000)),
			BondPeriod:    uint64(r.Int63n(1000)),
			CommitteeSize: uint64(r.Intn(3) + 1),
			Whitelist:     []string{testutil.GenRandomEnode(r)},
		}
		numUsers := r.Intn(5) + 2
		for i := 0; i < numUsers; i++ {
			g.Users = append(g.Users, registry.GenesisUser{
				Address:        testutil.GenRandomAddress(r),
				Type:           "validator",
				Enode:          testutil.GenRandomEnode(r),
				Stake:          uint64(r.Int63n(1000) + 1),
				CommissionRate: uint64(r.Intn(10001)),
			})
		}

		s := openStore(t, homePath)
		reg, err := registry.NewFromGenesis(g, s, zap.NewNop(), nil)
		require.NoError(t, err)

		participant := testutil.GenRandomAddress(r)
		require.NoError(t, reg.AddParticipant(operator, participant, testutil.GenRandomEnode(r)))
		require.NoError(t, reg.MintStake(operator, participant, uint64(r.Int63n(100)+1)))
		holder := testutil.GenRandomAddress(r)
		require.NoError(t, reg.MintStake(operator, holder, uint64(r.Int63n(100)+1)))
		require.NoError(t, reg.Deposit(participant, 1000))
		_, err = reg.Finalize(deployer, uint64(r.Int63n(1000)+1))
		require.NoError(t, err)
		_, err = reg.SetCommittee(epochTrigger)
		require.NoError(t, err)
		require.NoError(t, reg.RemoveUser(operator, g.Users[0].Address))

		expected := reg.Snapshot()
		require.NoError(t, s.Close())

		reopened := openStore(t, homePath)
		defer func() {
			require.NoError(t, reopened.Close())
		}()
		actual, err := reopened.LoadState()
		require.NoError(t, err)

		require.Equal(t, expected.Params, actual.Params)
		require.Equal(t, expected.Members, actual.Members)
		require.Equal(t, expected.Whitelist, actual.Whitelist)
		require.Equal(t, expected.Committee, actual.Committee)
		require.Equal(t, expected.StakeSupply, actual.StakeSupply)
		require.Equal(t, expected.HeldBalance, actual.HeldBalance)
		require.Equal(t, expected.Balances, actual.Balances)
		require.Equal(t, expected.AccountStakes, actual.AccountStakes)

		// a registry restored from the db serves the same state
		restored := registry.New(actual, nil, zap.NewNop(), nil)
		require.Equal(t, reg.GetValidators(), restored.GetValidators())
		require.Equal(t, reg.StakeSupply(), restored.StakeSupply())
		require.Equal(t, reg.GetStake(holder), restored.GetStake(holder))
	})
}
