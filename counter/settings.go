package counter

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/Siasom1/orderly-counter/config"
	"github.com/Siasom1/orderly-counter/params"
)

var (
	ErrNoRPCURL   = errors.New("rpc url is required (L2_RPC_URL)")
	ErrNoAccount  = errors.New("signing key is required (PRIVATE_KEY)")
	ErrNoContract = errors.New("contract address is required (CONTRACT_ADDR)")
	ErrNoBaseFee  = errors.New("latest block has no base fee")
)

// Settings drive one counter run.
type Settings struct {
	RPCURL        string
	PrivateKey    string
	Contract      common.Address
	Txs           int
	GasLimit      uint64
	FeeMultiplier int64
	Settle        time.Duration
}

func DefaultSettings() Settings {
	return Settings{
		Txs:           params.DefaultTxs,
		GasLimit:      params.DefaultGasLimit,
		FeeMultiplier: params.DefaultFeeMultiplier,
		Settle:        params.DefaultSettle,
	}
}

// SettingsFromNetwork fills the endpoint and credential from a loaded network
// entry and parses contract. Run parameters keep their defaults.
func SettingsFromNetwork(n config.NetworkConfig, contract string) (Settings, error) {
	s := DefaultSettings()
	s.RPCURL = n.URL
	s.PrivateKey, _ = n.Account()

	if contract == "" {
		return s, ErrNoContract
	}
	if !common.IsHexAddress(contract) {
		return s, fmt.Errorf("%w: %q is not a hex address", ErrNoContract, contract)
	}
	s.Contract = common.HexToAddress(contract)

	return s, s.Validate()
}

// Validate reports the first missing or out-of-range setting.
func (s Settings) Validate() error {
	switch {
	case s.RPCURL == "":
		return ErrNoRPCURL
	case s.PrivateKey == "":
		return ErrNoAccount
	case s.Contract == (common.Address{}):
		return ErrNoContract
	case s.Txs < 0:
		return fmt.Errorf("txs must not be negative, got %d", s.Txs)
	case s.GasLimit == 0:
		return errors.New("gas limit must be positive")
	case s.FeeMultiplier <= 0:
		return fmt.Errorf("fee multiplier must be positive, got %d", s.FeeMultiplier)
	case s.Settle < 0:
		return fmt.Errorf("settle must not be negative, got %s", s.Settle)
	}
	return nil
}
