package encryption

import (
	"bytes"
	"errors"
	"testing"

	"ovc-go/internal/config"
)

func TestTestEncryptor_EncryptDecrypt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input []byte
	}{
		{name: "simple text", input: []byte("hello world")},
		{name: "empty", input: []byte{}},
		{name: "large data", input: bytes.Repeat([]byte("abcdef"), 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := NewTestEncryptor()

			var encrypted bytes.Buffer
			if err := e.Encrypt(bytes.NewReader(tt.input), &encrypted); err != nil {
				t.Fatalf("Encrypt() error = %v", err)
			}
			if !bytes.HasPrefix(encrypted.Bytes(), testHeader) {
				t.Error("encrypted output does not start with test header")
			}

			ctx, err := e.Unlock("any-passphrase")
			if err != nil {
				t.Fatalf("Unlock() error = %v", err)
			}

			var decrypted bytes.Buffer
			if err := ctx.Decrypt(bytes.NewReader(encrypted.Bytes()), &decrypted); err != nil {
				t.Fatalf("Decrypt() error = %v", err)
			}
			if !bytes.Equal(decrypted.Bytes(), tt.input) {
				t.Errorf("round-trip failed: got %q, want %q", decrypted.Bytes(), tt.input)
			}
		})
	}
}

func TestTestEncryptor_Passphrase(t *testing.T) {
	t.Parallel()

	e := &TestEncryptor{Passphrase: "secret"}
	if _, err := e.Unlock("guess"); !errors.Is(err, ErrWrongPassphrase) {
		t.Errorf("Unlock() error = %v, want ErrWrongPassphrase", err)
	}
	if _, err := e.Unlock("secret"); err != nil {
		t.Errorf("Unlock() error = %v", err)
	}
}

func TestTestDecryptionContext_InvalidInput(t *testing.T) {
	t.Parallel()

	for name, data := range map[string][]byte{
		"invalid header":   []byte("NOT_VALID_HEADER_data"),
		"truncated header": []byte("OVC"),
		"empty input":      nil,
	} {
		t.Run(name, func(t *testing.T) {
			var out bytes.Buffer
			if err := (&TestDecryptionContext{}).Decrypt(bytes.NewReader(data), &out); err == nil {
				t.Error("Decrypt() should return error")
			}
		})
	}
}

func TestNewEncryptorFromConfig(t *testing.T) {
	t.Parallel()

	t.Run("none disables encryption", func(t *testing.T) {
		for _, typ := range []string{"", "none"} {
			e, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: typ})
			if err != nil || e != nil {
				t.Errorf("NewEncryptorFromConfig(%q) = %v, %v, want nil, nil", typ, e, err)
			}
		}
	})

	t.Run("age", func(t *testing.T) {
		e, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: "age", PublicKeyPath: "/k/ovc.pub", PrivateKeyPath: "/k/ovc.key"})
		if err != nil {
			t.Fatalf("NewEncryptorFromConfig() error = %v", err)
		}
		if _, ok := e.(*AgeEncryptor); !ok {
			t.Errorf("got %T, want *AgeEncryptor", e)
		}
	})

	t.Run("age without key paths", func(t *testing.T) {
		if _, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: "age"}); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := NewEncryptorFromConfig(config.EncryptionConfig{Type: "rot13"}); err == nil {
			t.Error("expected error")
		}
	})
}
