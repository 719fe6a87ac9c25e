package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_FanOut(t *testing.T) {
	bus := NewEventBus()
	a := bus.SubscribeTxs()
	b := bus.SubscribeTxs()

	bus.PublishTx(TxEvent{Nonce: 3})

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	assert.Equal(t, uint64(3), (<-a).Nonce)
	assert.Equal(t, uint64(3), (<-b).Nonce)
}

func TestEventBus_NonBlockingWhenFull(t *testing.T) {
	bus := NewEventBus()
	ch := bus.SubscribeBlocks()

	for i := 0; i < 100; i++ {
		bus.PublishBlock(BlockEvent{Number: uint64(i)})
	}

	assert.Len(t, ch, cap(ch))
	assert.Equal(t, uint64(0), (<-ch).Number)
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus()
	txs := bus.SubscribeTxs()
	blocks := bus.SubscribeBlocks()

	bus.UnsubscribeTxs(txs)
	bus.UnsubscribeBlocks(blocks)

	bus.PublishTx(TxEvent{})
	bus.PublishBlock(BlockEvent{})

	assert.Len(t, txs, 0)
	assert.Len(t, blocks, 0)
}
