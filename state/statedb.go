package state

import (
	"encoding/binary"
	"encoding/json"
	"errors"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/storage"
)

// ErrNotFound is returned when a key has no value.
var ErrNotFound = errors.New("not found")

// StateDB is the low-level LevelDB wrapper.
type StateDB struct {
	db *leveldb.DB
}

// NewStateDB opens the LevelDB at path.
func NewStateDB(path string) (*StateDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &StateDB{db: db}, nil
}

// NewMemoryStateDB opens a LevelDB that lives in memory only.
func NewMemoryStateDB() (*StateDB, error) {
	db, err := leveldb.Open(storage.NewMemStorage(), nil)
	if err != nil {
		return nil, err
	}
	return &StateDB{db: db}, nil
}

func (s *StateDB) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *StateDB) get(key []byte) ([]byte, error) {
	data, err := s.db.Get(key, nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, ErrNotFound
	}
	return data, err
}

func (s *StateDB) getUint64(key []byte) (uint64, error) {
	data, err := s.get(key)
	if errors.Is(err, ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(data), nil
}

func (s *StateDB) getJSON(key []byte, v interface{}) error {
	data, err := s.get(key)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (s *StateDB) write(b *leveldb.Batch) error {
	return s.db.Write(b, nil)
}

func encodeUint64(v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return b[:]
}
