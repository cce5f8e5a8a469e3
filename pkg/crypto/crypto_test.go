package crypto

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func testKey(fill byte) string {
	key := make([]byte, KeySize)
	for i := range key {
		key[i] = fill + byte(i)
	}
	return base64.StdEncoding.EncodeToString(key)
}

func TestSealOpen(t *testing.T) {
	kr, err := NewKeyring(map[int]string{1: testKey(0)})
	if err != nil {
		t.Fatalf("NewKeyring failed: %v", err)
	}

	tests := []struct {
		name      string
		plaintext string
	}{
		{"empty", ""},
		{"short", "hello"},
		{"venue_secret", "j9ey6Lk2xR6V-qJRfN-HqD2nfOGme0FnBddp1cxqK6k8Gbj1"},
		{"long", strings.Repeat("secret", 40)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sealed, err := kr.Seal(tt.plaintext, "owner-1")
			if err != nil {
				t.Fatalf("Seal failed: %v", err)
			}
			if !strings.HasPrefix(sealed, "SEAL[v1]:") {
				t.Errorf("sealed value missing version prefix: %s", sealed)
			}
			if tt.plaintext != "" && strings.Contains(sealed, tt.plaintext) {
				t.Errorf("sealed value leaks plaintext")
			}

			opened, err := kr.Open(sealed, "owner-1")
			if err != nil {
				t.Fatalf("Open failed: %v", err)
			}
			if opened != tt.plaintext {
				t.Errorf("opened = %q, want %q", opened, tt.plaintext)
			}
		})
	}
}

func TestSealBoundToOwner(t *testing.T) {
	kr, _ := NewKeyring(map[int]string{1: testKey(0)})

	sealed, err := kr.Seal("secret", "owner-1")
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	if _, err := kr.Open(sealed, "owner-2"); !errors.Is(err, ErrUnsealFailed) {
		t.Errorf("expected ErrUnsealFailed for foreign owner, got %v", err)
	}
}

func TestSealDifferentCiphertexts(t *testing.T) {
	kr, _ := NewKeyring(map[int]string{1: testKey(0)})

	c1, _ := kr.Seal("same-secret", "owner")
	c2, _ := kr.Seal("same-secret", "owner")
	if c1 == c2 {
		t.Error("expected different sealed values for same plaintext")
	}
}

func TestKeyringRotation(t *testing.T) {
	old, err := NewKeyring(map[int]string{1: testKey(0)})
	if err != nil {
		t.Fatalf("NewKeyring failed: %v", err)
	}
	sealed, _ := old.Seal("secret", "owner")

	kr, err := NewKeyring(map[int]string{1: testKey(0), 2: testKey(100)})
	if err != nil {
		t.Fatalf("NewKeyring failed: %v", err)
	}
	if kr.CurrentVersion() != 2 {
		t.Fatalf("expected current version 2, got %d", kr.CurrentVersion())
	}

	resealed, err := kr.Reseal(sealed, "owner")
	if err != nil {
		t.Fatalf("Reseal failed: %v", err)
	}
	if SealedVersion(resealed) != 2 {
		t.Errorf("expected resealed value at v2, got %s", resealed)
	}
	if got, _ := kr.Open(resealed, "owner"); got != "secret" {
		t.Errorf("opened = %q, want secret", got)
	}
	if _, err := old.Open(resealed, "owner"); !errors.Is(err, ErrVersionMissing) {
		t.Errorf("expected ErrVersionMissing from old keyring, got %v", err)
	}
}

func TestInvalidKeys(t *testing.T) {
	if _, err := NewKeyring(nil); !errors.Is(err, ErrNoKeysConfigured) {
		t.Errorf("expected ErrNoKeysConfigured, got %v", err)
	}
	short := base64.StdEncoding.EncodeToString([]byte("short"))
	if _, err := NewKeyring(map[int]string{1: short}); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("expected ErrInvalidKey, got %v", err)
	}
	if _, err := NewKeyring(map[int]string{1: "!!!"}); err == nil {
		t.Errorf("expected error for non-base64 key")
	}
}

func TestOpenInvalid(t *testing.T) {
	kr, _ := NewKeyring(map[int]string{1: testKey(0)})

	invalids := []string{
		"",
		"not-sealed",
		"SEAL[v1]:",
		"SEAL[v1]:!!!invalid",
		"SEAL[v1]:" + base64.StdEncoding.EncodeToString([]byte("tiny")),
	}
	for _, invalid := range invalids {
		if _, err := kr.Open(invalid, "owner"); err == nil {
			t.Errorf("expected error for invalid sealed value: %q", invalid)
		}
	}
}

func TestSealedVersion(t *testing.T) {
	tests := []struct {
		sealed   string
		expected int
	}{
		{"SEAL[v1]:data", 1},
		{"SEAL[v2]:data", 2},
		{"SEAL[v10]:data", 10},
		{"invalid", 0},
		{"SEAL[vX]:data", 0},
	}

	for _, tt := range tests {
		if got := SealedVersion(tt.sealed); got != tt.expected {
			t.Errorf("SealedVersion(%q) = %d, want %d", tt.sealed, got, tt.expected)
		}
	}
}

func TestGenerateKey(t *testing.T) {
	k, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey failed: %v", err)
	}
	if _, err := NewKeyring(map[int]string{1: k}); err != nil {
		t.Errorf("generated key rejected: %v", err)
	}
}

func TestHashSecret(t *testing.T) {
	long := strings.Repeat("x", 100)
	hash, err := HashSecret(long, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashSecret failed: %v", err)
	}
	if strings.Contains(hash, long) {
		t.Fatalf("hash leaks secret")
	}

	if !VerifySecret(hash, long) {
		t.Errorf("expected matching secret to verify")
	}
	// Differs only past byte 72.
	if VerifySecret(hash, strings.Repeat("x", 99)+"y") {
		t.Errorf("expected secrets differing after 72 bytes to be distinguished")
	}
	if VerifySecret(hash, "") {
		t.Errorf("expected empty secret to fail")
	}
	if VerifySecret("", long) {
		t.Errorf("expected empty hash to fail")
	}
}
