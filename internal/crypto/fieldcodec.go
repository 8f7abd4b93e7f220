// Package crypto implements the field-level encryption used for PII columns.
// Values are stored as hex envelopes of the form nonce:tag:ciphertext so they
// fit in plain text columns next to legacy unencrypted rows.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/pqlammy/Gennerweb-sub000/internal/logger"
)

const (
	keySize   = 32
	nonceSize = 12
	tagSize   = 16
)

// ErrInvalidKeySize indicates the configured secret does not yield 32 key bytes.
var ErrInvalidKeySize = errors.New("encryption key must be 32 bytes (32 ASCII chars or 64 hex chars)")

// KeyFromSecret derives the 32-byte key from the configured secret. A secret
// that is exactly 32 bytes after UTF-8 interpretation is used as-is; a 64
// character hex string is decoded. Anything else is rejected.
func KeyFromSecret(secret string) ([]byte, error) {
	raw := []byte(secret)
	if len(raw) == keySize {
		return raw, nil
	}
	if len(raw) == keySize*2 {
		decoded, err := hex.DecodeString(secret)
		if err == nil {
			return decoded, nil
		}
	}
	return nil, ErrInvalidKeySize
}

// Encrypt seals a single field value into an envelope. The empty string is
// returned unchanged: encrypting it would publish one fixed ciphertext for
// every blank field, so blanks stay blank. This asymmetry is intentional and
// covered by tests.
func Encrypt(plaintext string, key []byte) (string, error) {
	if plaintext == "" {
		return "", nil
	}
	gcm, err := newGCM(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, []byte(plaintext), nil)
	ciphertext := sealed[:len(sealed)-tagSize]
	tag := sealed[len(sealed)-tagSize:]

	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(tag) + ":" + hex.EncodeToString(ciphertext), nil
}

// Decrypt opens an envelope produced by Encrypt. Values that do not parse as
// an envelope are returned unchanged so pre-encryption rows keep working. An
// envelope that parses but fails authentication is also returned unchanged,
// with the failure logged, so one corrupted field never breaks a read.
func Decrypt(value string, key []byte) string {
	plaintext, parsed, err := DecryptStrict(value, key)
	if err != nil {
		if parsed {
			logger.Warn("field decrypt failed, returning stored value: %v", err)
		} else {
			logger.Error("field decrypt: %v", err)
		}
		return value
	}
	if !parsed {
		return value
	}
	return plaintext
}

// DecryptStrict is the error-propagating variant used by the key rotation
// batch, where silently carrying an undecryptable value forward would bake
// corruption into the re-encrypted data. parsed reports whether the value
// looked like an envelope at all; legacy plaintext comes back with
// parsed == false and no error.
func DecryptStrict(value string, key []byte) (plaintext string, parsed bool, err error) {
	if value == "" {
		return "", false, nil
	}
	parts := strings.Split(value, ":")
	if len(parts) != 3 {
		return value, false, nil
	}

	nonce, decodeErr := hex.DecodeString(parts[0])
	if decodeErr != nil || len(nonce) != nonceSize {
		return value, false, nil
	}
	tag, decodeErr := hex.DecodeString(parts[1])
	if decodeErr != nil || len(tag) != tagSize {
		return value, false, nil
	}
	ciphertext, decodeErr := hex.DecodeString(parts[2])
	if decodeErr != nil {
		return value, false, nil
	}

	gcm, err := newGCM(key)
	if err != nil {
		return "", true, err
	}

	opened, err := gcm.Open(nil, nonce, append(ciphertext, tag...), nil)
	if err != nil {
		return "", true, fmt.Errorf("authentication failed: %w", err)
	}
	return string(opened), true, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != keySize {
		return nil, ErrInvalidKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
