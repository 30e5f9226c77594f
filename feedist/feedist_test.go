package feedist_test

import (
	"math"
	"math/big"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/somanetwork/govmon/feedist"
	"github.com/somanetwork/govmon/testutil"
	"github.com/somanetwork/govmon/types"
)

func FuzzDistribute(f *testing.F) {
	testutil.AddRandomSeedsToFuzzer(f, 10)
	f.Fuzz(func(t *testing.T, seed int64) {
		r := rand.New(rand.NewSource(seed))

		holdings := make([]feedist.Holding, r.Intn(10)+1)
		total := new(big.Int)
		for i := range holdings {
			holdings[i] = feedist.Holding{
				Address: testutil.GenRandomAddress(r),
				Stake:   uint64(r.Int63n(1_000_000)) + 1,
			}
			total.Add(total, new(big.Int).SetUint64(holdings[i].Stake))
		}
		amount := uint64(r.Int63())

		dist, err := feedist.Distribute(amount, holdings)
		require.NoError(t, err)
		require.Len(t, dist.Payouts, len(holdings))
		require.LessOrEqual(t, dist.Paid, amount)
		require.Equal(t, amount, dist.Paid+dist.Remainder)
		// every payout loses less than one unit to rounding
		require.Less(t, dist.Remainder, uint64(len(holdings)))

		for i, p := range dist.Payouts {
			require.Equal(t, holdings[i].Address, p.Address)
			exact := new(big.Int).Mul(new(big.Int).SetUint64(amount), new(big.Int).SetUint64(holdings[i].Stake))
			exact.Div(exact, total)
			require.Equal(t, exact.Uint64(), p.Amount)
		}
	})
}

func TestDistribute_Remainder(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	a, b, c := testutil.GenRandomAddress(r), testutil.GenRandomAddress(r), testutil.GenRandomAddress(r)

	dist, err := feedist.Distribute(100, []feedist.Holding{{a, 1}, {b, 1}, {c, 1}})
	require.NoError(t, err)
	require.Equal(t, []feedist.Payout{{a, 33}, {b, 33}, {c, 33}}, dist.Payouts)
	require.Equal(t, uint64(99), dist.Paid)
	require.Equal(t, uint64(1), dist.Remainder)
}

func TestDistribute_LargeValues(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	a, b := testutil.GenRandomAddress(r), testutil.GenRandomAddress(r)

	dist, err := feedist.Distribute(math.MaxUint64, []feedist.Holding{{a, math.MaxUint64}, {b, math.MaxUint64}})
	require.NoError(t, err)
	require.Equal(t, uint64(math.MaxUint64/2), dist.Payouts[0].Amount)
	require.Equal(t, uint64(1), dist.Remainder)
}

func TestDistribute_EmptyPool(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	a := testutil.GenRandomAddress(r)

	_, err := feedist.Distribute(100, []feedist.Holding{{a, 0}})
	require.ErrorIs(t, err, types.ErrEmptyPool)

	_, err = feedist.Distribute(100, nil)
	require.ErrorIs(t, err, types.ErrEmptyPool)

	_, err = feedist.Distribute(0, []feedist.Holding{{a, 10}})
	require.ErrorIs(t, err, types.ErrEmptyPool)
}
