// Package lock provides Go bindings for the Lock counter contract.
package lock

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ABIJSON is the Lock contract interface as emitted by solc 0.8.24.
const ABIJSON = `[
	{"inputs":[{"internalType":"uint256","name":"_unlockTime","type":"uint256"}],"stateMutability":"payable","type":"constructor"},
	{"anonymous":false,"inputs":[{"indexed":false,"internalType":"uint256","name":"amount","type":"uint256"},{"indexed":false,"internalType":"uint256","name":"when","type":"uint256"}],"name":"Withdrawal","type":"event"},
	{"inputs":[],"name":"counter","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"inc","outputs":[],"stateMutability":"nonpayable","type":"function"},
	{"inputs":[],"name":"owner","outputs":[{"internalType":"address payable","name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"unlockTime","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"withdraw","outputs":[],"stateMutability":"nonpayable","type":"function"}
]`

const (
	MethodCounter    = "counter"
	MethodInc        = "inc"
	MethodOwner      = "owner"
	MethodUnlockTime = "unlockTime"
	MethodWithdraw   = "withdraw"
	EventWithdrawal  = "Withdrawal"
)

var parsedABI = mustParseABI()

func mustParseABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(ABIJSON))
	if err != nil {
		panic(fmt.Sprintf("lock: parse ABI: %v", err))
	}
	return parsed
}

// ABI returns the parsed contract interface.
func ABI() abi.ABI {
	return parsedABI
}

// MethodByData resolves the method the 4-byte selector of data names.
func MethodByData(data []byte) (*abi.Method, error) {
	return parsedABI.MethodById(data)
}

// ErrNotWithdrawal is returned when a log is not a Withdrawal event.
var ErrNotWithdrawal = errors.New("log is not a Withdrawal event")

// Caller is the read side of an RPC client.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Lock is a read binding plus calldata builders for one deployed contract.
type Lock struct {
	address common.Address
	caller  Caller
}

// Withdrawal is the decoded Withdrawal event.
type Withdrawal struct {
	Amount *big.Int
	When   *big.Int
	Raw    types.Log
}

func New(address common.Address, caller Caller) *Lock {
	return &Lock{address: address, caller: caller}
}

func (l *Lock) Address() common.Address {
	return l.address
}

// Counter calls counter().
func (l *Lock) Counter(ctx context.Context) (*big.Int, error) {
	out, err := l.call(ctx, MethodCounter)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// UnlockTime calls unlockTime().
func (l *Lock) UnlockTime(ctx context.Context) (*big.Int, error) {
	out, err := l.call(ctx, MethodUnlockTime)
	if err != nil {
		return nil, err
	}
	return *abi.ConvertType(out[0], new(*big.Int)).(**big.Int), nil
}

// Owner calls owner().
func (l *Lock) Owner(ctx context.Context) (common.Address, error) {
	out, err := l.call(ctx, MethodOwner)
	if err != nil {
		return common.Address{}, err
	}
	return *abi.ConvertType(out[0], new(common.Address)).(*common.Address), nil
}

func (l *Lock) call(ctx context.Context, method string) ([]interface{}, error) {
	data, err := parsedABI.Pack(method)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}

	to := l.address
	res, err := l.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}

	out, err := parsedABI.Unpack(method, res)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("unpack %s: empty result", method)
	}
	return out, nil
}

// IncData returns the calldata for inc().
func IncData() []byte {
	data, _ := parsedABI.Pack(MethodInc)
	return data
}

// WithdrawData returns the calldata for withdraw().
func WithdrawData() []byte {
	data, _ := parsedABI.Pack(MethodWithdraw)
	return data
}

// ParseWithdrawal decodes a Withdrawal event log.
func ParseWithdrawal(log types.Log) (*Withdrawal, error) {
	ev := parsedABI.Events[EventWithdrawal]
	if len(log.Topics) == 0 || log.Topics[0] != ev.ID {
		return nil, ErrNotWithdrawal
	}

	out, err := parsedABI.Unpack(EventWithdrawal, log.Data)
	if err != nil {
		return nil, fmt.Errorf("unpack Withdrawal: %w", err)
	}

	return &Withdrawal{
		Amount: *abi.ConvertType(out[0], new(*big.Int)).(**big.Int),
		When:   *abi.ConvertType(out[1], new(*big.Int)).(**big.Int),
		Raw:    log,
	}, nil
}

// WithdrawalLog builds the log a Withdrawal emission produces at address.
func WithdrawalLog(address common.Address, amount, when *big.Int) (types.Log, error) {
	ev := parsedABI.Events[EventWithdrawal]
	data, err := ev.Inputs.Pack(amount, when)
	if err != nil {
		return types.Log{}, fmt.Errorf("pack Withdrawal: %w", err)
	}
	return types.Log{
		Address: address,
		Topics:  []common.Hash{ev.ID},
		Data:    data,
	}, nil
}
