package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	gethrpc "github.com/ethereum/go-ethereum/rpc"

	"github.com/Siasom1/orderly-counter/contracts/lock"
	"github.com/Siasom1/orderly-counter/events"
	"github.com/Siasom1/orderly-counter/params"
	"github.com/Siasom1/orderly-counter/state"
)

//
// ------------------------------------------------------------
// Ethereum JSON-RPC (MINIMAL)
// ------------------------------------------------------------
// Transactions execute on arrival against the emulated Lock contract.
//

const intrinsicGas = 21_000

type callArgs struct {
	From  *common.Address `json:"from"`
	To    *common.Address `json:"to"`
	Data  *hexutil.Bytes  `json:"data"`
	Input *hexutil.Bytes  `json:"input"`
}

func (a callArgs) data() []byte {
	if a.Input != nil {
		return *a.Input
	}
	if a.Data != nil {
		return *a.Data
	}
	return nil
}

// dispatch routes one request. The returned error is always *RPCError or nil.
func (s *Server) dispatch(req RPCRequest) (interface{}, *RPCError) {
	switch req.Method {

	case "eth_chainId":
		return hexutil.Uint64(s.chain.ChainID), nil

	case "net_version":
		return fmt.Sprintf("%d", s.chain.ChainID), nil

	case "web3_clientVersion":
		return params.DevClientVersion, nil

	case "eth_blockNumber":
		head, err := s.state.Head()
		if err != nil {
			return nil, errServer("%v", err)
		}
		return hexutil.Uint64(head.Number), nil

	case "eth_gasPrice":
		return (*hexutil.Big)(s.baseFee()), nil

	case "eth_getBlockByNumber":
		var (
			number gethrpc.BlockNumber
			full   bool
		)
		if err := parseParams(req.Params, &number, &full); err != nil {
			return nil, err
		}
		return s.blockByNumber(number)

	case "eth_getTransactionCount":
		var (
			addr  common.Address
			block gethrpc.BlockNumberOrHash
		)
		if err := parseParams(req.Params, &addr, &block); err != nil {
			return nil, err
		}
		nonce, err := s.state.GetNonce(addr)
		if err != nil {
			return nil, errServer("%v", err)
		}
		return hexutil.Uint64(nonce), nil

	case "eth_call":
		var (
			args  callArgs
			block gethrpc.BlockNumberOrHash
		)
		if err := parseParams(req.Params, &args, &block); err != nil {
			return nil, err
		}
		return s.call(args)

	case "eth_sendRawTransaction":
		var raw hexutil.Bytes
		if err := parseParams(req.Params, &raw); err != nil {
			return nil, err
		}
		if len(raw) == 0 {
			return nil, errInvalidParams("missing raw tx")
		}
		return s.sendRawTransaction(raw)

	case "eth_getTransactionByHash":
		var h common.Hash
		if err := parseParams(req.Params, &h); err != nil {
			return nil, err
		}
		return s.transactionByHash(h)

	case "eth_getTransactionReceipt":
		var h common.Hash
		if err := parseParams(req.Params, &h); err != nil {
			return nil, err
		}
		return s.transactionReceipt(h)

	default:
		return nil, errMethodNotFound(req.Method)
	}
}

//
// ------------------------------------------------------------
// Blocks
// ------------------------------------------------------------
//

// blockHash is the synthetic hash of block n. Parent links stay consistent
// without storing headers.
func blockHash(n uint64) common.Hash {
	return crypto.Keccak256Hash([]byte("orderly-dev-block"), new(big.Int).SetUint64(n).Bytes())
}

func (s *Server) baseFee() *big.Int {
	return new(big.Int).SetUint64(s.chain.BaseFeeWei)
}

func (s *Server) header(number, time uint64) *gethtypes.Header {
	h := &gethtypes.Header{
		UncleHash:   gethtypes.EmptyUncleHash,
		Root:        common.Hash{},
		TxHash:      gethtypes.EmptyTxsHash,
		ReceiptHash: gethtypes.EmptyReceiptsHash,
		Difficulty:  big.NewInt(0),
		Number:      new(big.Int).SetUint64(number),
		GasLimit:    s.chain.GasLimit,
		Time:        time,
		Extra:       []byte{},
		BaseFee:     s.baseFee(),
	}
	if number > 0 {
		h.ParentHash = blockHash(number - 1)
	}
	return h
}

func (s *Server) blockByNumber(number gethrpc.BlockNumber) (interface{}, *RPCError) {
	head, err := s.state.Head()
	if err != nil {
		return nil, errServer("%v", err)
	}

	var n uint64
	switch {
	case number == gethrpc.EarliestBlockNumber:
		n = 0
	case number < 0: // latest, pending, safe, finalized
		n = head.Number
	default:
		n = uint64(number.Int64())
	}
	if n > head.Number {
		return nil, nil
	}
	ts, err := s.state.BlockTime(n)
	if err != nil {
		return nil, errServer("%v", err)
	}

	data, err := json.Marshal(s.header(n, ts))
	if err != nil {
		return nil, errServer("%v", err)
	}
	var block map[string]interface{}
	if err := json.Unmarshal(data, &block); err != nil {
		return nil, errServer("%v", err)
	}
	block["hash"] = blockHash(n)
	block["transactions"] = []interface{}{}
	block["uncles"] = []interface{}{}
	return block, nil
}

//
// ------------------------------------------------------------
// Calls
// ------------------------------------------------------------
//

func (s *Server) call(args callArgs) (interface{}, *RPCError) {
	info, err := s.state.Lock()
	if err != nil && !errors.Is(err, state.ErrNotFound) {
		return nil, errServer("%v", err)
	}
	if info == nil || args.To == nil || *args.To != info.Address {
		// no code at the target
		return hexutil.Bytes{}, nil
	}

	data := args.data()
	method, err := lock.MethodByData(data)
	if err != nil {
		return nil, &RPCError{Code: codeExecReverted, Message: "execution reverted"}
	}

	var out []byte
	switch method.Name {
	case lock.MethodCounter:
		out, err = method.Outputs.Pack(info.Counter)
	case lock.MethodOwner:
		out, err = method.Outputs.Pack(info.Owner)
	case lock.MethodUnlockTime:
		out, err = method.Outputs.Pack(new(big.Int).SetUint64(info.UnlockTime))
	default:
		out = []byte{}
	}
	if err != nil {
		return nil, errServer("%v", err)
	}
	return hexutil.Bytes(out), nil
}

//
// ------------------------------------------------------------
// Transactions
// ------------------------------------------------------------
//

func (s *Server) sendRawTransaction(raw []byte) (interface{}, *RPCError) {
	tx := new(gethtypes.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return nil, errInvalidParams("rlp decode failed: %v", err)
	}

	if tx.Protected() && tx.ChainId().Uint64() != s.chain.ChainID {
		return nil, errServer("invalid chain id: have %d want %d", tx.ChainId().Uint64(), s.chain.ChainID)
	}

	from, err := gethtypes.Sender(s.signer, tx)
	if err != nil {
		return nil, errServer("invalid sender: %v", err)
	}

	expected, err := s.state.GetNonce(from)
	if err != nil {
		return nil, errServer("%v", err)
	}
	switch {
	case tx.Nonce() < expected:
		return nil, errServer("nonce too low: address %s, tx: %d state: %d", from.Hex(), tx.Nonce(), expected)
	case tx.Nonce() > expected:
		return nil, errServer("nonce too high: address %s, tx: %d state: %d", from.Hex(), tx.Nonce(), expected)
	}

	if tx.Gas() < intrinsicGas {
		return nil, errServer("intrinsic gas too low: have %d, want %d", tx.Gas(), intrinsicGas)
	}
	if tx.Gas() > s.chain.GasLimit {
		return nil, errServer("exceeds block gas limit")
	}
	if tx.GasFeeCap().Cmp(s.baseFee()) < 0 {
		return nil, errServer("max fee per gas less than block base fee: address %s, maxFeePerGas: %s, baseFee: %s",
			from.Hex(), tx.GasFeeCap(), s.baseFee())
	}

	head, err := s.state.Head()
	if err != nil {
		return nil, errServer("%v", err)
	}

	rec := &state.TxRecord{
		Hash:        tx.Hash(),
		From:        from,
		To:          tx.To(),
		Nonce:       tx.Nonce(),
		Gas:         tx.Gas(),
		GasPrice:    tx.GasPrice(),
		Input:       tx.Data(),
		Raw:         raw,
		BlockNumber: head.Number,
		Time:        head.Time,
		Status:      gethtypes.ReceiptStatusSuccessful,
		Logs:        []state.LogRecord{},
	}

	eff, rerr := s.execute(rec, head)
	if rerr != nil {
		return nil, rerr
	}

	if err := s.state.CommitTx(rec, eff); err != nil {
		return nil, errServer("%v", err)
	}

	ev := events.TxEvent{Hash: rec.Hash, From: from, Nonce: rec.Nonce, Status: rec.Status}
	if info, err := s.state.Lock(); err == nil {
		ev.Counter = info.Counter.String()
	}
	if s.bus != nil {
		s.bus.PublishTx(ev)
	}
	s.logger.Debug("executed tx", "hash", rec.Hash.Hex(), "from", from.Hex(), "nonce", rec.Nonce, "status", rec.Status)

	return rec.Hash, nil
}

// execute decides the effect of rec against the Lock contract. Calls that
// revert keep status 0 and still consume the nonce.
func (s *Server) execute(rec *state.TxRecord, head state.Head) (state.Effect, *RPCError) {
	info, err := s.state.Lock()
	if errors.Is(err, state.ErrNotFound) || (err == nil && (rec.To == nil || *rec.To != info.Address)) {
		return state.Effect{}, nil
	}
	if err != nil {
		return state.Effect{}, errServer("%v", err)
	}

	method, err := lock.MethodByData(rec.Input)
	if err != nil {
		rec.Status = gethtypes.ReceiptStatusFailed
		return state.Effect{}, nil
	}

	switch method.Name {
	case lock.MethodInc:
		return state.Effect{IncCounter: true}, nil

	case lock.MethodWithdraw:
		if info.Withdrawn || rec.From != info.Owner || head.Time < info.UnlockTime {
			rec.Status = gethtypes.ReceiptStatusFailed
			return state.Effect{}, nil
		}
		lg, err := lock.WithdrawalLog(info.Address, big.NewInt(0), new(big.Int).SetUint64(head.Time))
		if err != nil {
			return state.Effect{}, errServer("%v", err)
		}
		rec.Logs = append(rec.Logs, state.LogRecord{Address: lg.Address, Topics: lg.Topics, Data: lg.Data})
		return state.Effect{Withdraw: true}, nil

	default:
		// views sent as transactions change nothing
		return state.Effect{}, nil
	}
}

func (s *Server) loadTx(h common.Hash) (*state.TxRecord, *gethtypes.Transaction, *RPCError) {
	rec, err := s.state.GetTx(h)
	if errors.Is(err, state.ErrNotFound) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, errServer("%v", err)
	}

	tx := new(gethtypes.Transaction)
	if err := tx.UnmarshalBinary(rec.Raw); err != nil {
		return nil, nil, errServer("stored tx: %v", err)
	}
	return rec, tx, nil
}

func (s *Server) transactionByHash(h common.Hash) (interface{}, *RPCError) {
	rec, tx, rerr := s.loadTx(h)
	if rerr != nil || rec == nil {
		return nil, rerr // JSON-RPC expects null when not found
	}

	data, err := json.Marshal(tx)
	if err != nil {
		return nil, errServer("%v", err)
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, errServer("%v", err)
	}
	obj["from"] = rec.From
	obj["blockHash"] = blockHash(rec.BlockNumber)
	obj["blockNumber"] = hexutil.Uint64(rec.BlockNumber)
	obj["transactionIndex"] = hexutil.Uint64(0)
	return obj, nil
}

func (s *Server) transactionReceipt(h common.Hash) (interface{}, *RPCError) {
	rec, tx, rerr := s.loadTx(h)
	if rerr != nil || rec == nil {
		return nil, rerr
	}

	var bloom gethtypes.Bloom
	logs := make([]map[string]interface{}, 0, len(rec.Logs))
	for i, l := range rec.Logs {
		bloom.Add(l.Address.Bytes())
		for _, topic := range l.Topics {
			bloom.Add(topic.Bytes())
		}
		logs = append(logs, map[string]interface{}{
			"address":          l.Address,
			"topics":           l.Topics,
			"data":             l.Data,
			"blockNumber":      hexutil.Uint64(rec.BlockNumber),
			"blockHash":        blockHash(rec.BlockNumber),
			"transactionHash":  rec.Hash,
			"transactionIndex": hexutil.Uint64(0),
			"logIndex":         hexutil.Uint(i),
			"removed":          false,
		})
	}

	var to interface{}
	if rec.To != nil {
		to = *rec.To
	}

	return map[string]interface{}{
		"type":              hexutil.Uint64(tx.Type()),
		"transactionHash":   rec.Hash,
		"transactionIndex":  hexutil.Uint64(0),
		"blockNumber":       hexutil.Uint64(rec.BlockNumber),
		"blockHash":         blockHash(rec.BlockNumber),
		"from":              rec.From,
		"to":                to,
		"cumulativeGasUsed": hexutil.Uint64(intrinsicGas),
		"gasUsed":           hexutil.Uint64(intrinsicGas),
		"effectiveGasPrice": (*hexutil.Big)(rec.GasPrice),
		"contractAddress":   nil,
		"status":            hexutil.Uint64(rec.Status),
		"logs":              logs,
		"logsBloom":         bloom,
	}, nil
}

func chainIDBig(id uint64) *big.Int {
	return new(big.Int).SetUint64(id)
}
