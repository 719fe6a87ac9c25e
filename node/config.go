package node

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Siasom1/orderly-counter/params"
)

// DefaultContract is where the first deployment from the first dev account lands.
var DefaultContract = common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3")

// DefaultOwner is the first dev account.
var DefaultOwner = common.HexToAddress("0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266")

type Config struct {
	DataDir  string
	InMemory bool
	ChainID  uint64
	RPCHost  string
	RPCPort  int // 0 picks a free port
	LogLevel string

	BlockTime time.Duration

	Contract   common.Address
	Owner      common.Address
	UnlockTime uint64 // unix seconds, 0 means one year after first start
}

func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()

	return &Config{
		DataDir:   filepath.Join(home, ".orderly-dev"),
		ChainID:   params.DevChainID,
		RPCHost:   "127.0.0.1",
		RPCPort:   8545,
		LogLevel:  "info",
		BlockTime: params.OrderlyDevChainConfig().BlockTime(),
		Contract:  DefaultContract,
		Owner:     DefaultOwner,
	}
}

// ChainConfig is the dev chain config with the overrides from c applied.
func (c *Config) ChainConfig() *params.ChainConfig {
	cfg := params.OrderlyDevChainConfig()
	if c.ChainID != 0 {
		cfg.ChainID = c.ChainID
	}
	if c.BlockTime > 0 {
		cfg.BlockTimeSeconds = uint64(c.BlockTime / time.Second)
		if cfg.BlockTimeSeconds == 0 {
			cfg.BlockTimeSeconds = 1
		}
	}
	return cfg
}
