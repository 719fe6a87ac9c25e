package lock

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCaller struct {
	counter    *big.Int
	owner      common.Address
	unlockTime *big.Int
	err        error
	lastTo     common.Address
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lastTo = *msg.To

	method, err := parsedABI.MethodById(msg.Data)
	if err != nil {
		return nil, err
	}
	switch method.Name {
	case MethodCounter:
		return method.Outputs.Pack(f.counter)
	case MethodOwner:
		return method.Outputs.Pack(f.owner)
	case MethodUnlockTime:
		return method.Outputs.Pack(f.unlockTime)
	}
	return nil, errors.New("unexpected method")
}

func TestSelectors(t *testing.T) {
	tests := map[string]string{
		MethodCounter:    "0x61bc221a",
		MethodInc:        "0x371303c0",
		MethodOwner:      "0x8da5cb5b",
		MethodUnlockTime: "0x251c1aa3",
		MethodWithdraw:   "0x3ccfd60b",
	}

	for name, want := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, want, hexutil.Encode(ABI().Methods[name].ID))
		})
	}

	assert.Equal(t, "0x371303c0", hexutil.Encode(IncData()))
	assert.Equal(t, "0x3ccfd60b", hexutil.Encode(WithdrawData()))
}

func TestLock_Views(t *testing.T) {
	addr := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")
	owner := common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")
	fc := &fakeCaller{
		counter:    big.NewInt(42),
		owner:      owner,
		unlockTime: big.NewInt(1_700_000_000),
	}
	l := New(addr, fc)
	ctx := context.Background()

	c, err := l.Counter(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(42), c.Int64())
	assert.Equal(t, addr, fc.lastTo)

	o, err := l.Owner(ctx)
	require.NoError(t, err)
	assert.Equal(t, owner, o)

	u, err := l.UnlockTime(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1_700_000_000), u.Int64())
}

func TestLock_CallError(t *testing.T) {
	boom := errors.New("connection refused")
	l := New(common.Address{}, &fakeCaller{err: boom})

	_, err := l.Counter(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "call counter")
}

func TestParseWithdrawal(t *testing.T) {
	addr := common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

	lg, err := WithdrawalLog(addr, big.NewInt(1e18), big.NewInt(1_700_000_123))
	require.NoError(t, err)

	ev, err := ParseWithdrawal(lg)
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", ev.Amount.String())
	assert.Equal(t, int64(1_700_000_123), ev.When.Int64())
	assert.Equal(t, addr, ev.Raw.Address)

	_, err = ParseWithdrawal(types.Log{Topics: []common.Hash{{0x01}}})
	assert.ErrorIs(t, err, ErrNotWithdrawal)

	_, err = ParseWithdrawal(types.Log{})
	assert.ErrorIs(t, err, ErrNotWithdrawal)
}
