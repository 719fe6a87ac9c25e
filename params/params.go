package params

import "time"

// ------------------------------------------------------------
// TOOLCHAIN
// ------------------------------------------------------------

const (
	// CompilerVersion is the solc version the Lock contract is built with.
	CompilerVersion = "0.8.24"

	// NetworkName is the only network entry the loader registers.
	NetworkName = "orderlyTestnet"
)

// ------------------------------------------------------------
// ENVIRONMENT
// ------------------------------------------------------------

const (
	EnvRPCURL     = "L2_RPC_URL"
	EnvPrivateKey = "PRIVATE_KEY"
	EnvContract   = "CONTRACT_ADDR"
)

// ------------------------------------------------------------
// COUNTER CLIENT DEFAULTS
// ------------------------------------------------------------

const (
	DefaultTxs           = 10
	DefaultGasLimit      = uint64(3_000_000)
	DefaultFeeMultiplier = int64(2)
	DefaultSettle        = 10 * time.Second
)

// ------------------------------------------------------------
// DEV NODE
// ------------------------------------------------------------

const (
	DevChainID       uint64 = 291
	DevClientVersion        = "OrderlyDev/v0.1.0"
)
