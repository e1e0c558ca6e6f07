package vault

import (
	"errors"
	"fmt"
)

// ErrDecryption matches every *DecryptionError via errors.Is.
var ErrDecryption = errors.New("vault: decryption failed")

// ErrInvalidPlaintext is returned by Encrypt for text that is not valid UTF-8.
var ErrInvalidPlaintext = errors.New("vault: plaintext is not valid UTF-8")

// ConfigurationError reports a vault that cannot be built from the process
// configuration. It is fatal at startup.
type ConfigurationError struct {
	Setting string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("vault: %s %s", e.Setting, e.Reason)
}

// DecryptionError reports ciphertext that could not be turned back into
// plaintext: bad encoding, wrong length, bad padding or a wrong key.
type DecryptionError struct {
	Reason string
	Err    error
}

func (e *DecryptionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("vault decrypt: %s: %v", e.Reason, e.Err)
	}
	return "vault decrypt: " + e.Reason
}

func (e *DecryptionError) Unwrap() error { return e.Err }

func (e *DecryptionError) Is(target error) bool { return target == ErrDecryption }

func decryptionError(reason string, err error) error {
	return &DecryptionError{Reason: reason, Err: err}
}
