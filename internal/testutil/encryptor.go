package testutil

import (
	"ovc-go/internal/encryption"
)

// NewTestEncryptor creates a deterministic encryptor that accepts any passphrase.
func NewTestEncryptor() *encryption.TestEncryptor {
	return encryption.NewTestEncryptor()
}
