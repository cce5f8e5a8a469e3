// Package crypto seals account secrets at rest and hashes them for authorization.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	// KeySize is the required size for AES-256 keys.
	KeySize = 32
	// NonceSize is the GCM nonce size.
	NonceSize = 12

	sealPrefix = "SEAL[v"
	sealFormat = "SEAL[v%d]:"
)

var (
	ErrInvalidKey       = errors.New("invalid sealing key: must be 32 bytes")
	ErrInvalidSealed    = errors.New("invalid sealed value")
	ErrUnsealFailed     = errors.New("unseal failed")
	ErrVersionMissing   = errors.New("key version not configured")
	ErrNoKeysConfigured = errors.New("no sealing keys configured")
)

// sealer is one AES-256-GCM key at a fixed version.
// The owner id is bound as additional data, so a sealed value copied onto
// another account row fails to open.
type sealer struct {
	aead    cipher.AEAD
	version int
}

func newSealer(key []byte, version int) (*sealer, error) {
	if len(key) != KeySize {
		return nil, ErrInvalidKey
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return &sealer{aead: aead, version: version}, nil
}

// seal returns SEAL[vN]:base64(nonce|ciphertext|tag).
func (s *sealer) seal(plaintext, owner string) (string, error) {
	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	out := s.aead.Seal(nonce, nonce, []byte(plaintext), []byte(owner))
	return fmt.Sprintf(sealFormat, s.version) + base64.StdEncoding.EncodeToString(out), nil
}

func (s *sealer) open(sealed, owner string) (string, error) {
	idx := strings.Index(sealed, "]:")
	if !strings.HasPrefix(sealed, sealPrefix) || idx == -1 {
		return "", ErrInvalidSealed
	}
	data, err := base64.StdEncoding.DecodeString(sealed[idx+2:])
	if err != nil {
		return "", fmt.Errorf("base64 decode: %w", err)
	}
	if len(data) < NonceSize+s.aead.Overhead() {
		return "", ErrInvalidSealed
	}
	plaintext, err := s.aead.Open(nil, data[:NonceSize], data[NonceSize:], []byte(owner))
	if err != nil {
		return "", ErrUnsealFailed
	}
	return string(plaintext), nil
}

// SealedVersion extracts the key version from a sealed value, 0 if malformed.
func SealedVersion(sealed string) int {
	if !strings.HasPrefix(sealed, sealPrefix) {
		return 0
	}
	var version int
	if _, err := fmt.Sscanf(sealed, sealFormat, &version); err != nil {
		return 0
	}
	return version
}
