package state

import (
	"encoding/json"

	"github.com/syndtr/goleveldb/leveldb"
)

func putJSON(b *leveldb.Batch, key []byte, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	b.Put(key, data)
	return nil
}
