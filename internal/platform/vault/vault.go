// Package vault protects medical note text at rest.
//
// The configured passphrase is hashed with SHA-256 into an AES-256 key; the
// passphrase itself is never used as key material. Ciphertext is AES-CBC with
// PKCS#7 padding, encoded as standard base64 so it fits a text column and a
// JSON string.
package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"unicode/utf8"
)

// FieldEncryptor is the contract record services depend on.
type FieldEncryptor interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Vault encrypts and decrypts note bodies under one derived key.
//
// Every call uses the same all-zero IV, so equal plaintexts produce equal
// ciphertexts under a given key and the scheme leaks plaintext equality.
// It is kept so that notes written by earlier releases stay readable; moving
// to a random per-record IV changes the stored format and needs every row
// re-encrypted (see Rekey).
//
// A Vault is immutable after New and safe for concurrent use.
type Vault struct {
	block cipher.Block
}

// zeroIV is never written to.
var zeroIV = make([]byte, aes.BlockSize)

// New derives the key from secret and returns a ready Vault. An empty secret
// yields a *ConfigurationError.
func New(secret string) (*Vault, error) {
	if secret == "" {
		return nil, &ConfigurationError{Setting: "ENCRYPTION_KEY", Reason: "is not set"}
	}

	key := DeriveKey(secret)
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("vault: create cipher: %w", err)
	}
	return &Vault{block: block}, nil
}

// DeriveKey maps a passphrase to its 256-bit key. The same passphrase always
// derives the same key, so stored ciphertext survives restarts without the
// key ever being persisted.
func DeriveKey(secret string) [32]byte {
	return sha256.Sum256([]byte(secret))
}

// Encrypt returns the base64 ciphertext of plaintext.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	if !utf8.ValidString(plaintext) {
		return "", ErrInvalidPlaintext
	}
	return base64.StdEncoding.EncodeToString(v.EncryptBytes([]byte(plaintext))), nil
}

// Decrypt reverses Encrypt. Any failure is a *DecryptionError.
func (v *Vault) Decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", decryptionError("base64 decode", err)
	}

	plaintext, err := v.DecryptBytes(data)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(plaintext) {
		return "", decryptionError("plaintext is not valid UTF-8", nil)
	}
	return string(plaintext), nil
}

// EncryptBytes pads data to the block size and encrypts it in CBC mode.
func (v *Vault) EncryptBytes(data []byte) []byte {
	padded := pkcs7Pad(data, aes.BlockSize)
	out := make([]byte, len(padded))
	cipher.NewCBCEncrypter(v.block, zeroIV).CryptBlocks(out, padded)
	return out
}

// DecryptBytes decrypts CBC ciphertext and strips the padding.
func (v *Vault) DecryptBytes(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, decryptionError("ciphertext is empty", nil)
	}
	if len(data)%aes.BlockSize != 0 {
		return nil, decryptionError(fmt.Sprintf("ciphertext length %d is not a multiple of %d", len(data), aes.BlockSize), nil)
	}

	out := make([]byte, len(data))
	cipher.NewCBCDecrypter(v.block, zeroIV).CryptBlocks(out, data)

	plaintext, err := pkcs7Unpad(out, aes.BlockSize)
	if err != nil {
		return nil, decryptionError("wrong key or corrupted ciphertext", err)
	}
	return plaintext, nil
}
