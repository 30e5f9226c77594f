package committee

import (
	"bytes"
	"sort"

	"github.com/somanetwork/govmon/types"
)

// Select derives the committee from a roster of candidates.
//
// Candidates are ranked by weight, highest first, and ties are broken by
// address in ascending byte order. The first maxSize ranked candidates form
// the committee. When the roster fits within maxSize every candidate is kept;
// maxSize 0 yields an empty committee. The roster is not modified and the
// result does not depend on its order.
func Select(roster []types.CommitteeMember, maxSize uint64) types.Committee {
	if maxSize == 0 || len(roster) == 0 {
		return types.Committee{}
	}

	ranked := make(types.Committee, len(roster))
	copy(ranked, roster)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranks(ranked[i], ranked[j])
	})

	if uint64(len(ranked)) > maxSize {
		ranked = ranked[:maxSize]
	}

	return ranked
}

func ranks(a, b types.CommitteeMember) bool {
	if a.Weight != b.Weight {
		return a.Weight > b.Weight
	}
	return bytes.Compare(a.Address.Bytes(), b.Address.Bytes()) < 0
}
