package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Siasom1/orderly-counter/node"
)

func main() {
	def := node.DefaultConfig()

	// CLI flags
	dataDir := flag.String("datadir", def.DataDir, "Data directory")
	dev := flag.Bool("dev", false, "Keep state in memory only")
	host := flag.String("rpchost", def.RPCHost, "RPC listen host")
	rpcPort := flag.Int("rpcport", def.RPCPort, "RPC port")
	chainID := flag.Uint64("chainid", def.ChainID, "Chain id")
	blockTime := flag.Duration("blocktime", def.BlockTime, "Block interval")
	logLevel := flag.String("loglevel", def.LogLevel, "Log level: debug/info/warn/error")
	contract := flag.String("contract", def.Contract.Hex(), "Lock contract address")
	owner := flag.String("owner", def.Owner.Hex(), "Lock owner address")
	unlock := flag.Uint64("unlocktime", 0, "Lock unlock time (unix seconds, 0 = one year from first start)")

	flag.Parse()

	for name, v := range map[string]string{"contract": *contract, "owner": *owner} {
		if !common.IsHexAddress(v) {
			fmt.Fprintf(os.Stderr, "invalid --%s: %q\n", name, v)
			os.Exit(2)
		}
	}

	cfg := &node.Config{
		DataDir:    *dataDir,
		InMemory:   *dev,
		ChainID:    *chainID,
		RPCHost:    *host,
		RPCPort:    *rpcPort,
		LogLevel:   *logLevel,
		BlockTime:  *blockTime,
		Contract:   common.HexToAddress(*contract),
		Owner:      common.HexToAddress(*owner),
		UnlockTime: *unlock,
	}

	n := node.NewNode(cfg)
	if err := n.Start(); err != nil {
		fmt.Fprintln(os.Stderr, "error starting node:", err)
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	done := make(chan struct{})
	go func() {
		n.Stop()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		fmt.Fprintln(os.Stderr, "shutdown timed out")
		os.Exit(1)
	}
}
