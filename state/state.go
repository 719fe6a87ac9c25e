package state

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/syndtr/goleveldb/leveldb"
)

var (
	keyLock = []byte("lock")
	keyHead = []byte("head")
)

func nonceKey(addr common.Address) []byte {
	return append([]byte("nonce/"), addr.Bytes()...)
}

func blockTimeKey(n uint64) []byte {
	return append([]byte("head/"), encodeUint64(n)...)
}

func txKey(h common.Hash) []byte {
	return append([]byte("tx/"), h.Bytes()...)
}

// Effect describes what executing a transaction changes besides the nonce.
type Effect struct {
	IncCounter bool
	Withdraw   bool
}

// State is the higher-level wrapper around StateDB used by the dev node.
// Writes that belong to one transaction are committed in one batch.
type State struct {
	mu sync.Mutex
	db *StateDB
}

// NewState opens the StateDB at path.
func NewState(path string) (*State, error) {
	db, err := NewStateDB(path)
	if err != nil {
		return nil, err
	}
	return &State{db: db}, nil
}

// NewMemoryState opens an in-memory state. Used by tests and --dev runs.
func NewMemoryState() (*State, error) {
	db, err := NewMemoryStateDB()
	if err != nil {
		return nil, err
	}
	return &State{db: db}, nil
}

func (s *State) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// ------------------- LOCK ---------------------

// InstallLock records the Lock contract unless one is already installed and
// returns the installed contract.
func (s *State) InstallLock(addr, owner common.Address, unlockTime uint64) (*LockInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.lock()
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	info := &LockInfo{
		Address:    addr,
		Owner:      owner,
		UnlockTime: unlockTime,
		Counter:    big.NewInt(0),
	}
	b := new(leveldb.Batch)
	if err := putJSON(b, keyLock, info); err != nil {
		return nil, err
	}
	return info, s.db.write(b)
}

// Lock returns the installed contract.
func (s *State) Lock() (*LockInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lock()
}

func (s *State) lock() (*LockInfo, error) {
	var info LockInfo
	if err := s.db.getJSON(keyLock, &info); err != nil {
		return nil, err
	}
	if info.Counter == nil {
		info.Counter = big.NewInt(0)
	}
	return &info, nil
}

// ------------------- ACCOUNTS ---------------------

func (s *State) GetNonce(addr common.Address) (uint64, error) {
	return s.db.getUint64(nonceKey(addr))
}

// ------------------- HEAD ---------------------

func (s *State) Head() (Head, error) {
	var h Head
	err := s.db.getJSON(keyHead, &h)
	if errors.Is(err, ErrNotFound) {
		return Head{}, nil
	}
	return h, err
}

// SetHead moves the head and records the block's timestamp.
func (s *State) SetHead(h Head) error {
	b := new(leveldb.Batch)
	if err := putJSON(b, keyHead, h); err != nil {
		return err
	}
	b.Put(blockTimeKey(h.Number), encodeUint64(h.Time))
	return s.db.write(b)
}

// BlockTime returns the timestamp block n was produced at. Blocks the head
// never passed through report 0; blocks above the head are ErrNotFound.
func (s *State) BlockTime(n uint64) (uint64, error) {
	head, err := s.Head()
	if err != nil {
		return 0, err
	}
	if n > head.Number {
		return 0, ErrNotFound
	}
	if n == head.Number {
		return head.Time, nil
	}
	return s.db.getUint64(blockTimeKey(n))
}

// ------------------- TRANSACTIONS ---------------------

// CommitTx bumps the sender nonce, applies eff to the Lock contract and
// stores rec, all in one batch. The nonce must still be rec.Nonce.
func (s *State) CommitTx(rec *TxRecord, eff Effect) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nonce, err := s.db.getUint64(nonceKey(rec.From))
	if err != nil {
		return err
	}
	if nonce != rec.Nonce {
		return fmt.Errorf("nonce changed: got %d want %d", rec.Nonce, nonce)
	}

	b := new(leveldb.Batch)
	b.Put(nonceKey(rec.From), encodeUint64(nonce+1))

	if eff.IncCounter || eff.Withdraw {
		info, err := s.lock()
		if err != nil {
			return fmt.Errorf("load lock: %w", err)
		}
		if eff.IncCounter {
			info.Counter = new(big.Int).Add(info.Counter, big.NewInt(1))
		}
		if eff.Withdraw {
			info.Withdrawn = true
		}
		if err := putJSON(b, keyLock, info); err != nil {
			return err
		}
	}

	if err := putJSON(b, txKey(rec.Hash), rec); err != nil {
		return err
	}
	return s.db.write(b)
}

// GetTx returns a committed transaction or ErrNotFound.
func (s *State) GetTx(h common.Hash) (*TxRecord, error) {
	var rec TxRecord
	if err := s.db.getJSON(txKey(h), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
