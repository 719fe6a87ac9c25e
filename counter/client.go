// Package counter drives a deployed Lock contract: it reads the counter,
// submits a batch of inc() transactions and reads the counter again.
package counter

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Siasom1/orderly-counter/contracts/lock"
	"github.com/Siasom1/orderly-counter/log"
	"github.com/Siasom1/orderly-counter/metrics"
	"github.com/Siasom1/orderly-counter/signer"
)

// Backend is the subset of ethclient.Client the counter needs.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

type Client struct {
	backend  Backend
	settings Settings
	signer   *signer.Signer
	nonces   *signer.NonceManager
	lock     *lock.Lock
	logger   *log.Logger
	metrics  *metrics.Counter
	closer   func()
}

// Report summarises one run.
type Report struct {
	RunID    uuid.UUID      `json:"runId"`
	ChainID  uint64         `json:"chainId"`
	Sender   common.Address `json:"sender"`
	Contract common.Address `json:"contract"`
	GasPrice *big.Int       `json:"gasPrice"`
	Start    *big.Int       `json:"start"`
	Finish   *big.Int       `json:"finish"`
	Sent     int            `json:"sent"`
	Failed   int            `json:"failed"`
	TxHashes []common.Hash  `json:"txHashes"`
}

// Delta is Finish - Start.
func (r *Report) Delta() *big.Int {
	if r.Start == nil || r.Finish == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Sub(r.Finish, r.Start)
}

// Dial connects to s.RPCURL and builds a Client on top of it.
func Dial(ctx context.Context, s Settings, logger *log.Logger, m *metrics.Counter) (*Client, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	ec, err := ethclient.DialContext(ctx, s.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", s.RPCURL, err)
	}

	c, err := New(ctx, ec, s, logger, m)
	if err != nil {
		ec.Close()
		return nil, err
	}
	c.closer = ec.Close
	return c, nil
}

// New builds a Client on an existing backend. The signer is bound to the
// chain id the backend reports.
func New(ctx context.Context, backend Backend, s Settings, logger *log.Logger, m *metrics.Counter) (*Client, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Discard()
	}
	if m == nil {
		m = metrics.NewCounter(prometheus.NewRegistry())
	}

	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("get chain id: %w", err)
	}

	sg, err := signer.FromHex(s.PrivateKey, chainID)
	if err != nil {
		return nil, err
	}

	return &Client{
		backend:  backend,
		settings: s,
		signer:   sg,
		nonces:   signer.NewNonceManager(backend, sg.Address()),
		lock:     lock.New(s.Contract, backend),
		logger:   logger,
		metrics:  m,
	}, nil
}

func (c *Client) Close() {
	if c.closer != nil {
		c.closer()
	}
}

func (c *Client) Address() common.Address {
	return c.signer.Address()
}

func (c *Client) ChainID() *big.Int {
	return c.signer.ChainID()
}

func (c *Client) Lock() *lock.Lock {
	return c.lock
}

// GasPrice returns the latest base fee times the configured multiplier.
func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	head, err := c.backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("get latest header: %w", err)
	}
	if head == nil || head.BaseFee == nil {
		return nil, ErrNoBaseFee
	}
	return new(big.Int).Mul(head.BaseFee, big.NewInt(c.settings.FeeMultiplier)), nil
}

// Inc submits one inc() transaction. If the send fails because the chain is
// already past the reserved nonce, it is retried once with the chain's nonce.
func (c *Client) Inc(ctx context.Context, gasPrice *big.Int) (common.Hash, error) {
	nonce, err := c.nonces.Next(ctx)
	if err != nil {
		return common.Hash{}, err
	}

	hash, sendErr := c.send(ctx, nonce, gasPrice)
	if sendErr == nil {
		return hash, nil
	}

	chainNonce, err := c.nonces.Resync(ctx)
	if err != nil || chainNonce <= nonce {
		return common.Hash{}, sendErr
	}

	c.logger.Debug("retrying with chain nonce", "stale", nonce, "nonce", chainNonce)

	nonce, err = c.nonces.Next(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	hash, err = c.send(ctx, nonce, gasPrice)
	if err != nil {
		_, _ = c.nonces.Resync(ctx)
		return common.Hash{}, err
	}
	return hash, nil
}

func (c *Client) send(ctx context.Context, nonce uint64, gasPrice *big.Int) (common.Hash, error) {
	to := c.lock.Address()
	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &to,
		Gas:      c.settings.GasLimit,
		GasPrice: gasPrice,
		Data:     lock.IncData(),
	})

	signed, err := c.signer.SignTx(tx)
	if err != nil {
		return common.Hash{}, err
	}
	if err := c.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("send tx nonce %d: %w", nonce, err)
	}
	return signed.Hash(), nil
}

// Run reads the counter, sends Settings.Txs inc() calls, waits
// Settings.Settle and reads the counter again. A failed send is logged and
// counted; it does not stop the run.
func (c *Client) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:    uuid.New(),
		ChainID:  c.signer.ChainID().Uint64(),
		Sender:   c.signer.Address(),
		Contract: c.lock.Address(),
		TxHashes: []common.Hash{},
	}
	logger := c.logger.With("run", report.RunID.String())

	gasPrice, err := c.GasPrice(ctx)
	if err != nil {
		return report, err
	}
	report.GasPrice = gasPrice

	start, err := c.lock.Counter(ctx)
	if err != nil {
		return report, err
	}
	report.Start = start
	c.metrics.Value.WithLabelValues("start").Set(float64(start.Uint64()))
	logger.Info("counter start value", "value", start, "sender", report.Sender.Hex(), "gas_price", gasPrice)

	for i := 0; i < c.settings.Txs; i++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		hash, err := c.Inc(ctx, gasPrice)
		if err != nil {
			report.Failed++
			c.metrics.TxsFailed.Inc()
			logger.Warn("tx failed", "idx", i, "err", err)
			continue
		}

		report.Sent++
		report.TxHashes = append(report.TxHashes, hash)
		c.metrics.TxsSent.Inc()
		logger.Info("tx sent", "idx", i, "hash", hash.Hex())
	}

	if err := sleepCtx(ctx, c.settings.Settle); err != nil {
		return report, err
	}

	finish, err := c.lock.Counter(ctx)
	if err != nil {
		return report, err
	}
	report.Finish = finish
	c.metrics.Value.WithLabelValues("finish").Set(float64(finish.Uint64()))
	logger.Info("counter finish value", "value", finish, "sent", report.Sent, "failed", report.Failed)

	return report, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
