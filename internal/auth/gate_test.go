package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"

	"margin-gateway/pkg/crypto"
	"margin-gateway/pkg/db"
)

func TestAuthorize(t *testing.T) {
	const secret = "j9ey6Lk2xR6V-qJRfN-HqD2nfOGme0FnBddp1cxqK6k8Gbj1"
	hash, err := crypto.HashSecret(secret, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashSecret: %v", err)
	}
	acc := &db.Account{PublicID: "pub", SecretHash: hash}

	tests := []struct {
		name     string
		account  *db.Account
		provided string
		want     bool
	}{
		{"matching secret", acc, secret, true},
		{"wrong secret", acc, secret + "x", false},
		{"missing header", acc, "", false},
		{"prefix only", acc, secret[:10], false},
		{"nil account", nil, secret, false},
		{"account without hash", &db.Account{PublicID: "pub"}, secret, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Authorize(tt.account, tt.provided); got != tt.want {
				t.Errorf("Authorize = %v, want %v", got, tt.want)
			}
		})
	}
}
