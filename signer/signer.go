// Package signer turns a raw hex credential into a chain-bound transaction
// signer and tracks the sender's nonce locally.
package signer

import (
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrInvalidKey = errors.New("invalid private key")

// Signer signs transactions for one key on one chain.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
	signer  types.Signer
}

// StripHexPrefix removes a leading 0x or 0X.
func StripHexPrefix(s string) string {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return s[2:]
	}
	return s
}

// ParseKey decodes a secp256k1 private key from hex, with or without prefix.
func ParseKey(hexKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(StripHexPrefix(hexKey))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return key, nil
}

func New(key *ecdsa.PrivateKey, chainID *big.Int) *Signer {
	id := new(big.Int).Set(chainID)
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: id,
		signer:  types.LatestSignerForChainID(id),
	}
}

// FromHex parses hexKey and binds it to chainID.
func FromHex(hexKey string, chainID *big.Int) (*Signer, error) {
	key, err := ParseKey(hexKey)
	if err != nil {
		return nil, err
	}
	return New(key, chainID), nil
}

func (s *Signer) Address() common.Address {
	return s.address
}

func (s *Signer) ChainID() *big.Int {
	return new(big.Int).Set(s.chainID)
}

// SignTx signs tx for the bound chain.
func (s *Signer) SignTx(tx *types.Transaction) (*types.Transaction, error) {
	signed, err := types.SignTx(tx, s.signer, s.key)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}
	return signed, nil
}

// Sender recovers the sender of a transaction signed for the bound chain.
func (s *Signer) Sender(tx *types.Transaction) (common.Address, error) {
	return types.Sender(s.signer, tx)
}
