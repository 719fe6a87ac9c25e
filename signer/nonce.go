package signer

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// NonceSource reports the next nonce the chain expects for an account.
type NonceSource interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

// NonceManager hands out consecutive nonces without a round trip per
// transaction. The first call fetches the pending nonce from the chain.
type NonceManager struct {
	mu          sync.Mutex
	src         NonceSource
	account     common.Address
	next        uint64
	initialized bool
}

func NewNonceManager(src NonceSource, account common.Address) *NonceManager {
	return &NonceManager{src: src, account: account}
}

// Next returns the nonce for the next transaction and reserves it.
func (m *NonceManager) Next(ctx context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initialized {
		n, err := m.src.PendingNonceAt(ctx, m.account)
		if err != nil {
			return 0, fmt.Errorf("fetch pending nonce: %w", err)
		}
		m.next = n
		m.initialized = true
	}

	n := m.next
	m.next++
	return n, nil
}

// Resync replaces the local counter with the chain's pending nonce and
// returns it. Called after a failed send.
func (m *NonceManager) Resync(ctx context.Context) (uint64, error) {
	n, err := m.src.PendingNonceAt(ctx, m.account)
	if err != nil {
		return 0, fmt.Errorf("resync nonce: %w", err)
	}

	m.mu.Lock()
	m.next = n
	m.initialized = true
	m.mu.Unlock()

	return n, nil
}

// Peek returns the nonce Next would hand out, if it is known yet.
func (m *NonceManager) Peek() (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.next, m.initialized
}
