package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"
)

const testSecret = "correct horse battery staple"

func newTestVault(t *testing.T, secret string) *Vault {
	t.Helper()
	v, err := New(secret)
	if err != nil {
		t.Fatalf("create vault: %v", err)
	}
	return v
}

func TestNew(t *testing.T) {
	t.Run("valid secret", func(t *testing.T) {
		v, err := New(testSecret)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v == nil {
			t.Fatal("expected non-nil vault")
		}
	})

	t.Run("empty secret", func(t *testing.T) {
		_, err := New("")
		if err == nil {
			t.Fatal("expected error for empty secret")
		}
		var cfgErr *ConfigurationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected *ConfigurationError, got %T", err)
		}
		if cfgErr.Setting != "ENCRYPTION_KEY" {
			t.Errorf("expected setting ENCRYPTION_KEY, got %q", cfgErr.Setting)
		}
	})
}

func TestDeriveKey(t *testing.T) {
	a := DeriveKey(testSecret)
	b := DeriveKey(testSecret)
	if a != b {
		t.Fatal("same secret must derive the same key")
	}
	if a == DeriveKey(testSecret+"!") {
		t.Fatal("different secrets must derive different keys")
	}
	if a != sha256.Sum256([]byte(testSecret)) {
		t.Fatal("expected key to be the SHA-256 digest of the passphrase")
	}
}

func TestEncryptDecrypt(t *testing.T) {
	v := newTestVault(t, testSecret)

	cases := []string{
		"",
		"a",
		"exactly sixteen!",
		"Patient reports hypoglycemia episodes after evening insulin.",
		"HbA1c 7.2%, follow up in 3 months",
		"日本語のメモ",
		"emoji 🩸💉",
		strings.Repeat("x", 4096),
	}

	for _, plaintext := range cases {
		name := plaintext
		if len(name) > 32 {
			name = name[:32]
		}
		t.Run(name, func(t *testing.T) {
			ciphertext, err := v.Encrypt(plaintext)
			if err != nil {
				t.Fatalf("encrypt: %v", err)
			}
			if ciphertext == plaintext {
				t.Fatal("ciphertext should differ from plaintext")
			}
			if _, err := base64.StdEncoding.DecodeString(ciphertext); err != nil {
				t.Fatalf("ciphertext is not standard base64: %v", err)
			}

			decrypted, err := v.Decrypt(ciphertext)
			if err != nil {
				t.Fatalf("decrypt: %v", err)
			}
			if decrypted != plaintext {
				t.Fatalf("round trip mismatch: got %q, want %q", decrypted, plaintext)
			}
		})
	}
}

func TestEncryptDecrypt_Random(t *testing.T) {
	v := newTestVault(t, testSecret)
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		runes := make([]rune, rng.Intn(200))
		for j := range runes {
			r := rune(rng.Intn(0x10FFFF))
			if !utf8.ValidRune(r) {
				r = 'x'
			}
			runes[j] = r
		}
		plaintext := string(runes)

		ciphertext, err := v.Encrypt(plaintext)
		if err != nil {
			t.Fatalf("encrypt #%d: %v", i, err)
		}
		got, err := v.Decrypt(ciphertext)
		if err != nil {
			t.Fatalf("decrypt #%d: %v", i, err)
		}
		if got != plaintext {
			t.Fatalf("round trip #%d mismatch", i)
		}
	}
}

// The IV is fixed, so encryption is deterministic under one key.
func TestEncrypt_Deterministic(t *testing.T) {
	v := newTestVault(t, testSecret)

	a, err := v.Encrypt("same note")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	b, err := v.Encrypt("same note")
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if a != b {
		t.Fatal("expected identical ciphertexts for identical plaintexts")
	}

	other := newTestVault(t, testSecret)
	c, _ := other.Encrypt("same note")
	if a != c {
		t.Fatal("expected a vault rebuilt from the same secret to produce the same ciphertext")
	}
}

// Ciphertext must be plain AES-256-CBC, PKCS#7, zero IV, SHA-256 key so that
// rows written by earlier releases remain readable.
func TestEncrypt_StoredFormat(t *testing.T) {
	v := newTestVault(t, testSecret)
	plaintext := "format check"

	ciphertext, err := v.Encrypt(plaintext)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(raw) != aes.BlockSize {
		t.Fatalf("expected one block for a 12-byte plaintext, got %d bytes", len(raw))
	}

	key := sha256.Sum256([]byte(testSecret))
	block, err := aes.NewCipher(key[:])
	if err != nil {
		t.Fatalf("cipher: %v", err)
	}
	out := make([]byte, len(raw))
	cipher.NewCBCDecrypter(block, make([]byte, aes.BlockSize)).CryptBlocks(out, raw)

	if got := string(out[:len(plaintext)]); got != plaintext {
		t.Fatalf("expected %q, got %q", plaintext, got)
	}
	for i := len(plaintext); i < len(out); i++ {
		if out[i] != byte(aes.BlockSize-len(plaintext)) {
			t.Fatalf("expected PKCS#7 padding byte %d at %d, got %d", aes.BlockSize-len(plaintext), i, out[i])
		}
	}
}

// Rows written by the previous backend, which used the same passphrase
// derivation and AES-CBC parameters. These values were generated outside Go
// and must keep decrypting byte for byte.
func TestStoredCiphertextVectors(t *testing.T) {
	const legacySecret = "DiaFitSuperSecretEncryptionKey2024!"
	v := newTestVault(t, legacySecret)

	if got := DeriveKey(legacySecret); base64.StdEncoding.EncodeToString(got[:]) != "MwJ5QlPjL3A0QbWMsfZbW+OMLS+KPd5gVbBI/DoZTd0=" {
		t.Fatalf("unexpected derived key %x", got)
	}

	vectors := []struct {
		plaintext  string
		ciphertext string
	}{
		{"Patient is allergic to penicillin.", "ySLtgqZp15i7mhvxI+e7eXOKUmHz1YsIbdTjJjOLahA4lg9GbA5ZDjxR5wGFXale"},
		{"Glykämie 5,8 mmol/L nüchtern", "nEkphbk3eTvWQnzUYcgBSeD9Hxxbmwacx4tmVr6l78Q="},
		{"", "u1s2W3dw15CPPPjKb8udyg=="},
	}
	for _, tt := range vectors {
		t.Run(tt.plaintext, func(t *testing.T) {
			got, err := v.Encrypt(tt.plaintext)
			if err != nil {
				t.Fatalf("encrypt: %v", err)
			}
			if got != tt.ciphertext {
				t.Errorf("Encrypt(%q) = %q, want %q", tt.plaintext, got, tt.ciphertext)
			}
			plain, err := v.Decrypt(tt.ciphertext)
			if err != nil {
				t.Fatalf("decrypt: %v", err)
			}
			if plain != tt.plaintext {
				t.Errorf("Decrypt = %q, want %q", plain, tt.plaintext)
			}
		})
	}
}

func TestEncrypt_InvalidUTF8(t *testing.T) {
	v := newTestVault(t, testSecret)
	_, err := v.Encrypt("\xff\xfe")
	if !errors.Is(err, ErrInvalidPlaintext) {
		t.Fatalf("expected ErrInvalidPlaintext, got %v", err)
	}
}

func TestDecrypt_Errors(t *testing.T) {
	v := newTestVault(t, testSecret)

	cases := map[string]string{
		"not base64":         "this is not base64!!",
		"empty":              "",
		"not block aligned":  base64.StdEncoding.EncodeToString([]byte("short")),
		"seventeen bytes":    base64.StdEncoding.EncodeToString(make([]byte, 17)),
		"url-safe alphabet":  "-_-_-_-_-_-_-_-_-_-_-w==",
		"truncated encoding": "YWJj=",
	}

	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := v.Decrypt(input)
			if err == nil {
				t.Fatal("expected error")
			}
			var decErr *DecryptionError
			if !errors.As(err, &decErr) {
				t.Fatalf("expected *DecryptionError, got %T: %v", err, err)
			}
			if !errors.Is(err, ErrDecryption) {
				t.Fatal("expected errors.Is(err, ErrDecryption)")
			}
		})
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	right := newTestVault(t, testSecret)
	wrong := newTestVault(t, "a different passphrase")

	plaintexts := []string{"glucose 180 after lunch", "", "x", strings.Repeat("note ", 20)}
	for _, p := range plaintexts {
		c, err := right.Encrypt(p)
		if err != nil {
			t.Fatalf("encrypt: %v", err)
		}
		got, err := wrong.Decrypt(c)
		if err == nil && got == p {
			t.Fatalf("wrong key must not reveal the plaintext %q", p)
		}
		if err != nil && !errors.Is(err, ErrDecryption) {
			t.Fatalf("expected a decryption error, got %v", err)
		}
	}
}

func TestDecrypt_TamperedCiphertext(t *testing.T) {
	v := newTestVault(t, testSecret)
	c, _ := v.Encrypt("short")
	raw, _ := base64.StdEncoding.DecodeString(c)
	raw[len(raw)-1] ^= 0xff

	got, err := v.Decrypt(base64.StdEncoding.EncodeToString(raw))
	if err == nil && got == "short" {
		t.Fatal("tampered ciphertext must not decrypt to the original plaintext")
	}
}

func TestVault_Concurrent(t *testing.T) {
	v := newTestVault(t, testSecret)

	var wg sync.WaitGroup
	errs := make(chan error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p := strings.Repeat("n", i)
			c, err := v.Encrypt(p)
			if err != nil {
				errs <- err
				return
			}
			got, err := v.Decrypt(c)
			if err != nil {
				errs <- err
				return
			}
			if got != p {
				errs <- errors.New("round trip mismatch")
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
