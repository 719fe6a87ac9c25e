// Package wallet stores a signing key on disk encrypted under a passphrase.
package wallet

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"golang.org/x/crypto/scrypt"
)

const (
	keyFileVersion = 1
	cipherName     = "aes-256-gcm"
	kdfName        = "scrypt"
)

var (
	ErrDecrypt         = errors.New("could not decrypt key with given passphrase")
	ErrAddressMismatch = errors.New("decrypted key does not match key file address")
	ErrUnsupported     = errors.New("unsupported key file")
)

// ScryptParams tunes the key derivation.
type ScryptParams struct {
	N     int `json:"n"`
	R     int `json:"r"`
	P     int `json:"p"`
	DKLen int `json:"dklen"`
}

var (
	StandardScrypt = ScryptParams{N: 1 << 18, R: 8, P: 1, DKLen: 32}
	LightScrypt    = ScryptParams{N: 1 << 12, R: 8, P: 6, DKLen: 32}
)

// maxScrypt bounds the work a key file may ask Open for.
var maxScrypt = ScryptParams{N: StandardScrypt.N, R: StandardScrypt.R, P: LightScrypt.P, DKLen: 32}

func (p ScryptParams) withinLimits() bool {
	return p.N > 1 && p.N <= maxScrypt.N &&
		p.R > 0 && p.R <= maxScrypt.R &&
		p.P > 0 && p.P <= maxScrypt.P &&
		p.DKLen == maxScrypt.DKLen
}

type kdfJSON struct {
	ScryptParams
	Salt string `json:"salt"`
}

type cryptoJSON struct {
	Cipher     string  `json:"cipher"`
	CipherText string  `json:"ciphertext"`
	Nonce      string  `json:"nonce"`
	KDF        string  `json:"kdf"`
	KDFParams  kdfJSON `json:"kdfparams"`
}

// KeyFile is the on-disk form of an encrypted key.
type KeyFile struct {
	ID      uuid.UUID      `json:"id"`
	Address common.Address `json:"address"`
	Crypto  cryptoJSON     `json:"crypto"`
	Version int            `json:"version"`
}

// Seal encrypts key with the standard scrypt parameters.
func Seal(key *ecdsa.PrivateKey, passphrase string) (*KeyFile, error) {
	return SealWithParams(key, passphrase, StandardScrypt)
}

func SealWithParams(key *ecdsa.PrivateKey, passphrase string, p ScryptParams) (*KeyFile, error) {
	salt := make([]byte, 32)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("read salt: %w", err)
	}

	gcm, err := newGCM(passphrase, salt, p)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("read nonce: %w", err)
	}

	ciphertext := gcm.Seal(nil, nonce, crypto.FromECDSA(key), nil)

	return &KeyFile{
		ID:      uuid.New(),
		Address: crypto.PubkeyToAddress(key.PublicKey),
		Crypto: cryptoJSON{
			Cipher:     cipherName,
			CipherText: hex.EncodeToString(ciphertext),
			Nonce:      hex.EncodeToString(nonce),
			KDF:        kdfName,
			KDFParams:  kdfJSON{ScryptParams: p, Salt: hex.EncodeToString(salt)},
		},
		Version: keyFileVersion,
	}, nil
}

// Open decrypts the key and checks it against the recorded address.
func Open(kf *KeyFile, passphrase string) (*ecdsa.PrivateKey, error) {
	if kf.Version != keyFileVersion || kf.Crypto.Cipher != cipherName || kf.Crypto.KDF != kdfName {
		return nil, ErrUnsupported
	}
	if !kf.Crypto.KDFParams.ScryptParams.withinLimits() {
		return nil, fmt.Errorf("%w: scrypt parameters out of range", ErrUnsupported)
	}

	salt, err := hex.DecodeString(kf.Crypto.KDFParams.Salt)
	if err != nil {
		return nil, fmt.Errorf("decode salt: %w", err)
	}
	nonce, err := hex.DecodeString(kf.Crypto.Nonce)
	if err != nil {
		return nil, fmt.Errorf("decode nonce: %w", err)
	}
	ciphertext, err := hex.DecodeString(kf.Crypto.CipherText)
	if err != nil {
		return nil, fmt.Errorf("decode ciphertext: %w", err)
	}

	gcm, err := newGCM(passphrase, salt, kf.Crypto.KDFParams.ScryptParams)
	if err != nil {
		return nil, err
	}
	if len(nonce) != gcm.NonceSize() {
		return nil, ErrUnsupported
	}

	plain, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}

	key, err := crypto.ToECDSA(plain)
	if err != nil {
		return nil, fmt.Errorf("decode key: %w", err)
	}
	if crypto.PubkeyToAddress(key.PublicKey) != kf.Address {
		return nil, ErrAddressMismatch
	}
	return key, nil
}

func newGCM(passphrase string, salt []byte, p ScryptParams) (cipher.AEAD, error) {
	derived, err := scrypt.Key([]byte(passphrase), salt, p.N, p.R, p.P, p.DKLen)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// WriteFile stores kf at path, readable by the owner only.
func WriteFile(path string, kf *KeyFile) error {
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// ReadFile loads a key file from path.
func ReadFile(path string) (*KeyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var kf KeyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse key file: %w", err)
	}
	return &kf, nil
}
