package vault

import "fmt"

// Rekey decrypts ciphertext with from and encrypts the result with to. It is
// the building block for moving stored notes to a new passphrase; no key
// version is stored with the ciphertext, so callers must know which secret
// each row was written under.
func Rekey(ciphertext string, from, to FieldEncryptor) (string, error) {
	plaintext, err := from.Decrypt(ciphertext)
	if err != nil {
		return "", fmt.Errorf("rekey: %w", err)
	}
	out, err := to.Encrypt(plaintext)
	if err != nil {
		return "", fmt.Errorf("rekey: %w", err)
	}
	return out, nil
}

const selfTestProbe = "diafit vault self-test: ünïcødé ✓"

// SelfTest round-trips a fixed sample through v.
func (v *Vault) SelfTest() error {
	c, err := v.Encrypt(selfTestProbe)
	if err != nil {
		return err
	}
	p, err := v.Decrypt(c)
	if err != nil {
		return err
	}
	if p != selfTestProbe {
		return fmt.Errorf("vault self-test: round trip mismatch")
	}
	return nil
}
