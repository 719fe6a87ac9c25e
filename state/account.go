package state

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Head is the latest produced block.
type Head struct {
	Number uint64 `json:"number"`
	Time   uint64 `json:"time"`
}

// LockInfo is the deployed Lock contract the node emulates.
type LockInfo struct {
	Address    common.Address `json:"address"`
	Owner      common.Address `json:"owner"`
	UnlockTime uint64         `json:"unlockTime"`
	Counter    *big.Int       `json:"counter"`
	Withdrawn  bool           `json:"withdrawn"`
}

// TxRecord is an executed transaction.
type TxRecord struct {
	Hash        common.Hash     `json:"hash"`
	From        common.Address  `json:"from"`
	To          *common.Address `json:"to"`
	Nonce       uint64          `json:"nonce"`
	Gas         uint64          `json:"gas"`
	GasPrice    *big.Int        `json:"gasPrice"`
	Input       hexutil.Bytes   `json:"input"`
	Raw         hexutil.Bytes   `json:"raw"` // signed RLP/typed encoding
	BlockNumber uint64          `json:"blockNumber"`
	Time        uint64          `json:"time"`
	Status      uint64          `json:"status"` // 1 success, 0 reverted
	Logs        []LogRecord     `json:"logs"`
}

// LogRecord is an event emitted by an executed transaction.
type LogRecord struct {
	Address common.Address `json:"address"`
	Topics  []common.Hash  `json:"topics"`
	Data    hexutil.Bytes  `json:"data"`
}
