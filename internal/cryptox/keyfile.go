package cryptox

import (
	"crypto/rand"
	"errors"
	"fmt"
	"os"
)

// KeySize is the length of the device key (AES-256).
const KeySize = 32

var ErrInvalidKey = errors.New("invalid device key")

// LoadOrCreateKey returns the device key stored at path, creating the file
// with a fresh random key (mode 0600) when it does not exist yet.
func LoadOrCreateKey(path string) ([]byte, error) {
	key, err := readKey(path)
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	key = make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate device key: %w", err)
	}

	f, err := createKeyFile(path)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			// created concurrently, use the winner's key
			return readKey(path)
		}
		return nil, fmt.Errorf("create key file: %w", err)
	}
	if err := writeKey(f, key); err != nil {
		// never leave a truncated key behind
		_ = os.Remove(path)
		return nil, err
	}
	return key, nil
}

// keyWriter is the part of *os.File used to persist a new key.
type keyWriter interface {
	Write(p []byte) (int, error)
	Close() error
}

// createKeyFile creates the key file exclusively. Tests replace it.
var createKeyFile = func(path string) (keyWriter, error) {
	return os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
}

func writeKey(w keyWriter, key []byte) error {
	if _, err := w.Write(key); err != nil {
		_ = w.Close()
		return fmt.Errorf("write key file: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close key file: %w", err)
	}
	return nil
}

func readKey(path string) ([]byte, error) {
	key, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("read key file: %w", err)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: %s holds %d bytes, want %d", ErrInvalidKey, path, len(key), KeySize)
	}
	return key, nil
}
