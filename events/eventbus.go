package events

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// BlockEvent announces a new head.
type BlockEvent struct {
	Number  uint64 `json:"number"`
	Time    uint64 `json:"time"`
	BaseFee string `json:"baseFee"`
}

// TxEvent announces an executed transaction.
type TxEvent struct {
	Hash    common.Hash    `json:"hash"`
	From    common.Address `json:"from"`
	Nonce   uint64         `json:"nonce"`
	Status  uint64         `json:"status"`
	Counter string         `json:"counter,omitempty"`
}

type EventBus struct {
	mu        sync.RWMutex
	blockSubs []chan BlockEvent
	txSubs    []chan TxEvent
}

func NewEventBus() *EventBus {
	return &EventBus{
		blockSubs: make([]chan BlockEvent, 0),
		txSubs:    make([]chan TxEvent, 0),
	}
}

// -------------------- Blocks --------------------

func (b *EventBus) SubscribeBlocks() <-chan BlockEvent {
	ch := make(chan BlockEvent, 16)

	b.mu.Lock()
	b.blockSubs = append(b.blockSubs, ch)
	b.mu.Unlock()

	return ch
}

func (b *EventBus) PublishBlock(ev BlockEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.blockSubs {
		// non-blocking send
		select {
		case ch <- ev:
		default:
		}
	}
}

// -------------------- Transactions --------------------

func (b *EventBus) SubscribeTxs() <-chan TxEvent {
	ch := make(chan TxEvent, 64)

	b.mu.Lock()
	b.txSubs = append(b.txSubs, ch)
	b.mu.Unlock()

	return ch
}

func (b *EventBus) PublishTx(ev TxEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.txSubs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// -------------------- Unsubscribe --------------------

// UnsubscribeBlocks drops ch. It is not closed so late publishers never panic.
func (b *EventBus) UnsubscribeBlocks(ch <-chan BlockEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, c := range b.blockSubs {
		if c == ch {
			b.blockSubs = append(b.blockSubs[:i], b.blockSubs[i+1:]...)
			return
		}
	}
}

// UnsubscribeTxs drops ch.
func (b *EventBus) UnsubscribeTxs(ch <-chan TxEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, c := range b.txSubs {
		if c == ch {
			b.txSubs = append(b.txSubs[:i], b.txSubs[i+1:]...)
			return
		}
	}
}
