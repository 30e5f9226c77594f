package committee_test

import (
	"math/rand"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/somanetwork/govmon/committee"
	"github.com/somanetwork/govmon/testutil"
	"github.com/somanetwork/govmon/types"
)

func FuzzSelect_FullRoster(f *testing.F) {
	testutil.AddRandomSeedsToFuzzer(f, 10)
	f.Fuzz(func(t *testing.T, seed int64) {
		r := rand.New(rand.NewSource(seed))

		roster := testutil.GenRandomRoster(r, int(r.Int63n(20)+1))
		maxSize := uint64(len(roster)) + uint64(r.Int63n(5))

		c := committee.Select(roster, maxSize)
		require.ElementsMatch(t, roster, []types.CommitteeMember(c))

		shuffled := make([]types.CommitteeMember, len(roster))
		copy(shuffled, roster)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		require.Equal(t, c, committee.Select(shuffled, maxSize))
	})
}

func FuzzSelect_Truncated(f *testing.F) {
	testutil.AddRandomSeedsToFuzzer(f, 10)
	f.Fuzz(func(t *testing.T, seed int64) {
		r := rand.New(rand.NewSource(seed))

		roster := testutil.GenRandomRoster(r, int(r.Int63n(20)+2))
		maxSize := uint64(r.Int63n(int64(len(roster)-1)) + 1)
		before := make([]types.CommitteeMember, len(roster))
		copy(before, roster)

		c := committee.Select(roster, maxSize)
		require.Len(t, c, int(maxSize))
		require.Equal(t, before, roster)

		// idempotent
		require.Equal(t, c, committee.Select(roster, maxSize))
		require.Equal(t, c, committee.Select(c, maxSize))

		// nobody left out outranks a selected member
		selected := make(map[common.Address]bool)
		for _, m := range c {
			selected[m.Address] = true
		}
		lowest := c[len(c)-1]
		for _, m := range roster {
			if selected[m.Address] {
				continue
			}
			require.LessOrEqual(t, m.Weight, lowest.Weight)
		}
	})
}

func TestSelect_TieBreak(t *testing.T) {
	a := common.HexToAddress("0x0000000000000000000000000000000000000001")
	b := common.HexToAddress("0x0000000000000000000000000000000000000002")
	c := common.HexToAddress("0x0000000000000000000000000000000000000003")
	roster := []types.CommitteeMember{
		{Address: c, Weight: 10},
		{Address: b, Weight: 10},
		{Address: a, Weight: 5},
	}

	got := committee.Select(roster, 2)
	require.Equal(t, types.Committee{{Address: b, Weight: 10}, {Address: c, Weight: 10}}, got)

	got = committee.Select(roster, 1)
	require.Equal(t, []common.Address{b}, got.Addresses())
}

func TestSelect_ZeroSize(t *testing.T) {
	roster := testutil.GenRandomRoster(rand.New(rand.NewSource(1)), 4)
	require.Empty(t, committee.Select(roster, 0))
	require.Empty(t, committee.Select(nil, 3))
}
