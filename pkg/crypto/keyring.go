package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sort"
)

// Keyring holds every configured sealing key version. New values are sealed
// with the highest version; older versions stay available for opening until
// rows are resealed. A Keyring is immutable and safe for concurrent use.
type Keyring struct {
	currentVer int
	sealers    map[int]*sealer
}

// NewKeyring builds a keyring from base64-encoded keys indexed by version.
func NewKeyring(keys map[int]string) (*Keyring, error) {
	if len(keys) == 0 {
		return nil, ErrNoKeysConfigured
	}
	kr := &Keyring{sealers: make(map[int]*sealer, len(keys))}

	versions := make([]int, 0, len(keys))
	for v := range keys {
		versions = append(versions, v)
	}
	sort.Ints(versions)

	for _, v := range versions {
		if v <= 0 {
			return nil, fmt.Errorf("key version %d: versions start at 1", v)
		}
		raw, err := base64.StdEncoding.DecodeString(keys[v])
		if err != nil {
			return nil, fmt.Errorf("decode key v%d: %w", v, err)
		}
		s, err := newSealer(raw, v)
		if err != nil {
			return nil, fmt.Errorf("key v%d: %w", v, err)
		}
		kr.sealers[v] = s
		kr.currentVer = v
	}
	return kr, nil
}

// Seal encrypts plaintext for owner with the current key version.
func (kr *Keyring) Seal(plaintext, owner string) (string, error) {
	return kr.sealers[kr.currentVer].seal(plaintext, owner)
}

// Open decrypts a value produced by Seal for the same owner.
func (kr *Keyring) Open(sealed, owner string) (string, error) {
	version := SealedVersion(sealed)
	if version == 0 {
		return "", ErrInvalidSealed
	}

	s, ok := kr.sealers[version]
	if !ok {
		return "", fmt.Errorf("%w: v%d", ErrVersionMissing, version)
	}
	return s.open(sealed, owner)
}

// Reseal re-encrypts sealed under the current key version.
func (kr *Keyring) Reseal(sealed, owner string) (string, error) {
	plaintext, err := kr.Open(sealed, owner)
	if err != nil {
		return "", fmt.Errorf("open for reseal: %w", err)
	}
	return kr.Seal(plaintext, owner)
}

// CurrentVersion returns the version new values are sealed with.
func (kr *Keyring) CurrentVersion() int {
	return kr.currentVer
}

// GenerateKey returns a new random base64-encoded AES-256 key.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", fmt.Errorf("generate random key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
