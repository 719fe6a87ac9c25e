package node

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Siasom1/orderly-counter/consensus/producer"
	"github.com/Siasom1/orderly-counter/events"
	"github.com/Siasom1/orderly-counter/explorer"
	"github.com/Siasom1/orderly-counter/log"
	"github.com/Siasom1/orderly-counter/params"
	"github.com/Siasom1/orderly-counter/rpc"
	"github.com/Siasom1/orderly-counter/state"
)

const unlockDelay = 365 * 24 * time.Hour

type Node struct {
	Config        *Config
	Logger        *log.Logger
	ChainConfig   *params.ChainConfig
	State         *state.State
	BlockProducer *producer.BlockProducer
	RPCServer     *rpc.Server
	ExplorerAPI   *explorer.ExplorerAPI
	Events        *events.EventBus
	Registry      *prometheus.Registry

	now func() time.Time
}

func NewNode(cfg *Config) *Node {
	return &Node{
		Config:      cfg,
		Logger:      log.NewLogger(cfg.LogLevel),
		ChainConfig: cfg.ChainConfig(),
		Registry:    prometheus.NewRegistry(),
		now:         time.Now,
	}
}

func (n *Node) Start() error {
	n.Logger.Info("starting orderly dev node",
		"chainId", n.ChainConfig.ChainID,
		"datadir", n.dataDirLabel(),
		"rpcPort", n.Config.RPCPort,
	)

	// ------------------------------------------------
	// 1. EventBus
	// ------------------------------------------------
	n.Events = events.NewEventBus()

	// ------------------------------------------------
	// 2. State
	// ------------------------------------------------
	var (
		st  *state.State
		err error
	)
	if n.Config.InMemory {
		st, err = state.NewMemoryState()
	} else {
		st, err = state.NewState(n.Config.DataDir)
	}
	if err != nil {
		n.Logger.Error("failed to open state", "err", err)
		return fmt.Errorf("open state: %w", err)
	}
	n.State = st

	if err := n.initGenesis(); err != nil {
		_ = n.State.Close()
		return err
	}

	// ------------------------------------------------
	// 3. Block producer
	// ------------------------------------------------
	n.BlockProducer = producer.NewBlockProducer(n.State, n.Logger, n.ChainConfig, n.Events)
	n.BlockProducer.Start()

	// ------------------------------------------------
	// 4. RPC server
	// ------------------------------------------------
	n.RPCServer = rpc.NewServer(n.State, n.Events, n.ChainConfig, n.Logger, n.Registry)

	// ------------------------------------------------
	// 5. Explorer API (REST + live streams) on the RPC port
	// ------------------------------------------------
	n.ExplorerAPI = explorer.NewExplorerAPI(n.State, n.Events)
	n.RPCServer.Mount("/explorer/", n.ExplorerAPI.Handler())

	addr := net.JoinHostPort(n.Config.RPCHost, strconv.Itoa(n.Config.RPCPort))
	if err := n.RPCServer.Start(addr); err != nil {
		n.BlockProducer.Stop()
		_ = n.State.Close()
		return err
	}

	n.Logger.Info("node started", "rpc", n.RPCServer.URL())
	return nil
}

// initGenesis sets the first head and installs the Lock contract on a fresh
// data dir. Reopened data dirs keep what they have.
func (n *Node) initGenesis() error {
	head, err := n.State.Head()
	if err != nil {
		return fmt.Errorf("load head: %w", err)
	}
	now := uint64(n.now().Unix())
	if head.Number == 0 && head.Time == 0 {
		if err := n.State.SetHead(state.Head{Number: 0, Time: now}); err != nil {
			return fmt.Errorf("write genesis head: %w", err)
		}
	}

	unlock := n.Config.UnlockTime
	if unlock == 0 {
		unlock = uint64(n.now().Add(unlockDelay).Unix())
	}
	info, err := n.State.InstallLock(n.Config.Contract, n.Config.Owner, unlock)
	if err != nil {
		return fmt.Errorf("install lock: %w", err)
	}

	n.Logger.Info("lock contract ready",
		"address", info.Address.Hex(),
		"owner", info.Owner.Hex(),
		"unlockTime", info.UnlockTime,
		"counter", info.Counter.String(),
	)
	return nil
}

// URL is the JSON-RPC endpoint once started.
func (n *Node) URL() string {
	if n.RPCServer == nil {
		return ""
	}
	return n.RPCServer.URL()
}

func (n *Node) Stop() {
	n.Logger.Info("stopping orderly dev node")

	if n.RPCServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := n.RPCServer.Stop(ctx); err != nil {
			n.Logger.Warn("rpc shutdown", "err", err)
		}
		cancel()
	}
	if n.BlockProducer != nil {
		n.BlockProducer.Stop()
	}
	if n.State != nil {
		if err := n.State.Close(); err != nil {
			n.Logger.Warn("close state", "err", err)
		}
	}

	n.Logger.Info("node stopped")
}

func (n *Node) dataDirLabel() string {
	if n.Config.InMemory {
		return "memory"
	}
	return n.Config.DataDir
}
