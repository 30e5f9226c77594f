package store

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/lightningnetwork/lnd/kvdb"

	"github.com/somanetwork/govmon/registry"
	"github.com/somanetwork/govmon/types"
)

var (
	// mapping of the registry state:
	//   params -> rlp(storedParams)
	//   ledger -> rlp(storedLedger)
	//   committee -> rlp([]types.CommitteeMember)
	//   members/<position> -> rlp(storedMember)
	//   whitelist/<position> -> enode
	//   balances/<address> -> balance
	//   stakes/<address> -> stake of an account without a member record
	registryBucketName = []byte("registry")

	paramsKey       = []byte("params")
	ledgerKey       = []byte("ledger")
	committeeKey    = []byte("committee")
	membersBucket   = []byte("members")
	whitelistBucket = []byte("whitelist")
	balancesBucket  = []byte("balances")
	stakesBucket    = []byte("stakes")
)

type storedParams struct {
	Operator         common.Address
	Deployer         common.Address
	EpochTrigger     common.Address
	MinGasPrice      uint64
	BondingPeriod    uint64
	MaxCommitteeSize uint64
	Version          string
}

type storedLedger struct {
	StakeSupply uint64
	HeldBalance uint64
}

type storedMember struct {
	Address       common.Address
	Role          uint8
	Stake         uint64
	CommissionBps uint64
	Enode         string
}

// RegistryStore keeps the latest registry state in a kvdb backend. Every
// save replaces the previous state in a single transaction.
type RegistryStore struct {
	db kvdb.Backend
}

func NewRegistryStore(db kvdb.Backend) (*RegistryStore, error) {
	s := &RegistryStore{db}
	if err := s.initBuckets(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *RegistryStore) initBuckets() error {
	return kvdb.Batch(s.db, func(tx kvdb.RwTx) error {
		_, err := tx.CreateTopLevelBucket(registryBucketName)
		if err != nil {
			return err
		}

		return nil
	})
}

func positionKey(i int) []byte {
	var k [8]byte
	binary.BigEndian.PutUint64(k[:], uint64(i))
	return k[:]
}

// SaveState replaces the stored state with st.
func (s *RegistryStore) SaveState(st *registry.State) error {
	params, err := rlp.EncodeToBytes(&storedParams{
		Operator:         st.Params.Operator,
		Deployer:         st.Params.Deployer,
		EpochTrigger:     st.Params.EpochTrigger,
		MinGasPrice:      st.Params.MinGasPrice,
		BondingPeriod:    st.Params.BondingPeriod,
		MaxCommitteeSize: st.Params.MaxCommitteeSize,
		Version:          st.Params.Version,
	})
	if err != nil {
		return fmt.Errorf("failed to encode the registry params: %w", err)
	}
	ledger, err := rlp.EncodeToBytes(&storedLedger{StakeSupply: st.StakeSupply, HeldBalance: st.HeldBalance})
	if err != nil {
		return fmt.Errorf("failed to encode the registry ledger: %w", err)
	}
	committee, err := rlp.EncodeToBytes([]types.CommitteeMember(st.Committee))
	if err != nil {
		return fmt.Errorf("failed to encode the committee: %w", err)
	}
	members := make([][]byte, len(st.Members))
	for i, m := range st.Members {
		members[i], err = rlp.EncodeToBytes(&storedMember{
			Address:       m.Address,
			Role:          uint8(m.Role),
			Stake:         m.Stake,
			CommissionBps: m.CommissionBps,
			Enode:         m.Enode,
		})
		if err != nil {
			return fmt.Errorf("failed to encode member %s: %w", m.Address.Hex(), err)
		}
	}

	return kvdb.Batch(s.db, func(tx kvdb.RwTx) error {
		bucket := tx.ReadWriteBucket(registryBucketName)
		if bucket == nil {
			return ErrCorruptedRegistryDb
		}

		if err := bucket.Put(paramsKey, params); err != nil {
			return err
		}
		if err := bucket.Put(ledgerKey, ledger); err != nil {
			return err
		}
		if err := bucket.Put(committeeKey, committee); err != nil {
			return err
		}

		membersB, err := recreateNestedBucket(bucket, membersBucket)
		if err != nil {
			return err
		}
		for i, m := range members {
			if err := membersB.Put(positionKey(i), m); err != nil {
				return err
			}
		}

		whitelistB, err := recreateNestedBucket(bucket, whitelistBucket)
		if err != nil {
			return err
		}
		for i, e := range st.Whitelist {
			if err := whitelistB.Put(positionKey(i), []byte(e)); err != nil {
				return err
			}
		}

		if err := putAmounts(bucket, balancesBucket, st.Balances); err != nil {
			return err
		}

		return putAmounts(bucket, stakesBucket, st.AccountStakes)
	})
}

func putAmounts(parent kvdb.RwBucket, key []byte, amounts map[common.Address]uint64) error {
	b, err := recreateNestedBucket(parent, key)
	if err != nil {
		return err
	}
	for addr, amount := range amounts {
		var v [8]byte
		binary.BigEndian.PutUint64(v[:], amount)
		if err := b.Put(addr.Bytes(), v[:]); err != nil {
			return err
		}
	}

	return nil
}

func readAmounts(b kvdb.RBucket, amounts map[common.Address]uint64) error {
	return b.ForEach(func(k, v []byte) error {
		if len(k) != common.AddressLength || len(v) != 8 {
			return fmt.Errorf("%w: malformed amount entry", ErrCorruptedRegistryDb)
		}
		amounts[common.BytesToAddress(k)] = binary.BigEndian.Uint64(v)
		return nil
	})
}

func recreateNestedBucket(parent kvdb.RwBucket, key []byte) (kvdb.RwBucket, error) {
	if parent.NestedReadWriteBucket(key) != nil {
		if err := parent.DeleteNestedBucket(key); err != nil {
			return nil, err
		}
	}
	return parent.CreateBucket(key)
}

// LoadState returns the stored state, or ErrStateNotFound when nothing has
// been saved yet.
func (s *RegistryStore) LoadState() (*registry.State, error) {
	st := newState()

	err := s.db.View(func(tx kvdb.RTx) error {
		bucket := tx.ReadBucket(registryBucketName)
		if bucket == nil {
			return ErrCorruptedRegistryDb
		}

		paramsBytes := bucket.Get(paramsKey)
		if paramsBytes == nil {
			return ErrStateNotFound
		}
		var params storedParams
		if err := rlp.DecodeBytes(paramsBytes, &params); err != nil {
			return fmt.Errorf("%w: params: %v", ErrCorruptedRegistryDb, err)
		}
		st.Params = registry.Params{
			Operator:         params.Operator,
			Deployer:         params.Deployer,
			EpochTrigger:     params.EpochTrigger,
			MinGasPrice:      params.MinGasPrice,
			BondingPeriod:    params.BondingPeriod,
			MaxCommitteeSize: params.MaxCommitteeSize,
			Version:          params.Version,
		}

		var ledger storedLedger
		if err := rlp.DecodeBytes(bucket.Get(ledgerKey), &ledger); err != nil {
			return fmt.Errorf("%w: ledger: %v", ErrCorruptedRegistryDb, err)
		}
		st.StakeSupply = ledger.StakeSupply
		st.HeldBalance = ledger.HeldBalance

		var committee []types.CommitteeMember
		if err := rlp.DecodeBytes(bucket.Get(committeeKey), &committee); err != nil {
			return fmt.Errorf("%w: committee: %v", ErrCorruptedRegistryDb, err)
		}
		if len(committee) > 0 {
			st.Committee = committee
		}

		membersB := bucket.NestedReadBucket(membersBucket)
		whitelistB := bucket.NestedReadBucket(whitelistBucket)
		balancesB := bucket.NestedReadBucket(balancesBucket)
		stakesB := bucket.NestedReadBucket(stakesBucket)
		if membersB == nil || whitelistB == nil || balancesB == nil || stakesB == nil {
			return ErrCorruptedRegistryDb
		}

		// keys are big endian positions, so the cursor order is the stored order
		if err := membersB.ForEach(func(_, v []byte) error {
			var m storedMember
			if err := rlp.DecodeBytes(v, &m); err != nil {
				return fmt.Errorf("%w: member: %v", ErrCorruptedRegistryDb, err)
			}
			role := types.Role(m.Role)
			if !role.Valid() {
				return fmt.Errorf("%w: member %s has role %d", ErrCorruptedRegistryDb, m.Address.Hex(), m.Role)
			}
			st.Members = append(st.Members, types.Member{
				Address:       m.Address,
				Role:          role,
				Stake:         m.Stake,
				CommissionBps: m.CommissionBps,
				Enode:         m.Enode,
			})
			return nil
		}); err != nil {
			return err
		}

		if err := whitelistB.ForEach(func(_, v []byte) error {
			st.Whitelist = append(st.Whitelist, string(v))
			return nil
		}); err != nil {
			return err
		}

		if err := readAmounts(balancesB, st.Balances); err != nil {
			return err
		}

		return readAmounts(stakesB, st.AccountStakes)
	}, func() {
		st = newState()
	})
	if err != nil {
		return nil, err
	}

	return st, nil
}

func newState() *registry.State {
	return &registry.State{
		AccountStakes: make(map[common.Address]uint64),
		Balances:      make(map[common.Address]uint64),
	}
}

func (s *RegistryStore) Close() error {
	if err := s.db.Close(); err != nil {
		return err
	}

	return nil
}
