package params

import "time"

// ChainConfig describes the L2 the counter client talks to and the dev node serves.
type ChainConfig struct {
	ChainID          uint64 `json:"chainId"`
	BlockTimeSeconds uint64 `json:"blockTimeSeconds"`
	GasLimit         uint64 `json:"gasLimit"`
	BaseFeeWei       uint64 `json:"baseFeeWei"`
}

func OrderlyDevChainConfig() *ChainConfig {
	return &ChainConfig{
		ChainID:          DevChainID,
		BlockTimeSeconds: 2,
		GasLimit:         30_000_000,
		BaseFeeWei:       1_000_000_000, // 1 gwei
	}
}

// BlockTime returns the block interval as a duration.
func (c *ChainConfig) BlockTime() time.Duration {
	return time.Duration(c.BlockTimeSeconds) * time.Second
}
