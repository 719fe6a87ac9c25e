package producer

import (
	"math/big"
	"sync"
	"time"

	"github.com/Siasom1/orderly-counter/events"
	"github.com/Siasom1/orderly-counter/log"
	"github.com/Siasom1/orderly-counter/params"
	"github.com/Siasom1/orderly-counter/state"
)

// BlockProducer advances the dev node head on a fixed interval. Transactions
// execute on arrival, so a block only moves the number and timestamp forward.
type BlockProducer struct {
	state    *state.State
	logger   *log.Logger
	quit     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	interval time.Duration
	baseFee  string
	events   *events.EventBus
	now      func() time.Time
}

func NewBlockProducer(st *state.State, logger *log.Logger, cfg *params.ChainConfig, bus *events.EventBus) *BlockProducer {
	return &BlockProducer{
		state:    st,
		logger:   logger,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		interval: cfg.BlockTime(),
		baseFee:  new(big.Int).SetUint64(cfg.BaseFeeWei).String(),
		events:   bus,
		now:      time.Now,
	}
}

func (bp *BlockProducer) Start() {
	bp.logger.Info("starting block producer", "interval", bp.interval)

	go func() {
		defer close(bp.done)

		ticker := time.NewTicker(bp.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := bp.ProduceBlock(); err != nil {
					bp.logger.Error("failed to produce block", "err", err)
				}
			case <-bp.quit:
				return
			}
		}
	}()
}

// Stop halts the ticker loop and waits for it to exit. Safe to call twice.
func (bp *BlockProducer) Stop() {
	bp.stopOnce.Do(func() {
		bp.logger.Info("stopping block producer")
		close(bp.quit)
		<-bp.done
	})
}

// ---------------------------------------------------------
// Produce a new block
// ---------------------------------------------------------

// ProduceBlock moves the head to the next number and publishes it.
func (bp *BlockProducer) ProduceBlock() (state.Head, error) {
	head, err := bp.state.Head()
	if err != nil {
		return state.Head{}, err
	}

	next := state.Head{
		Number: head.Number + 1,
		Time:   uint64(bp.now().Unix()),
	}
	if next.Time < head.Time {
		next.Time = head.Time
	}

	if err := bp.state.SetHead(next); err != nil {
		return state.Head{}, err
	}

	if bp.events != nil {
		bp.events.PublishBlock(events.BlockEvent{
			Number:  next.Number,
			Time:    next.Time,
			BaseFee: bp.baseFee,
		})
	}

	bp.logger.Debug("produced block", "number", next.Number, "time", next.Time)
	return next, nil
}
