// Package cryptox holds the cryptographic primitives of the secure tier:
// password hashing and verification, AES-GCM sealing of stored values and
// device key management.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
)

// envelopeVersion is the current version of the sealed value format.
const envelopeVersion = 1

// ErrOpen is returned when a sealed value cannot be authenticated, either
// because the key is wrong or the data was modified.
var ErrOpen = errors.New("sealed value cannot be opened")

// envelope is the stored form of a sealed value.
type envelope struct {
	V      int    `json:"v"`
	Nonce  []byte `json:"nonce"`
	Cipher []byte `json:"cipher"`
}

// EncryptEntry serializes the given entry to JSON and encrypts it using AES-GCM.
//
// The key must be a valid AES key length (16, 24, or 32 bytes for AES-128,
// AES-192, or AES-256 respectively). A new random 12-byte nonce is generated
// for each encryption. ad is authenticated but not encrypted; the same ad must
// be passed to DecryptEntry.
func EncryptEntry(entry any, key, ad []byte) (ciphertext, nonce []byte, err error) {
	plaintext, err := json.Marshal(entry)
	if err != nil {
		return nil, nil, err
	}

	aesgcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce = make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, err
	}

	ciphertext = aesgcm.Seal(nil, nonce, plaintext, ad)
	return ciphertext, nonce, nil
}

// DecryptEntry decrypts the given ciphertext using AES-GCM and unmarshals
// the resulting JSON into v. The key, nonce and ad must match the values
// used by EncryptEntry.
func DecryptEntry(ciphertext, nonce, key, ad []byte, v any) error {
	aesgcm, err := newGCM(key)
	if err != nil {
		return err
	}
	if len(nonce) != aesgcm.NonceSize() {
		return ErrOpen
	}

	plaintext, err := aesgcm.Open(nil, nonce, ciphertext, ad)
	if err != nil {
		return ErrOpen
	}

	return json.Unmarshal(plaintext, v)
}

// Seal encrypts v under key and returns a self-describing blob suitable for
// a key/value store. ad binds the blob to its storage key.
func Seal(v any, key, ad []byte) ([]byte, error) {
	ct, nonce, err := EncryptEntry(v, key, ad)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{V: envelopeVersion, Nonce: nonce, Cipher: ct})
}

// Open reverses Seal, decoding the plaintext JSON into v.
func Open(blob, key, ad []byte, v any) error {
	var env envelope
	if err := json.Unmarshal(blob, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.V != envelopeVersion {
		return fmt.Errorf("unsupported envelope version %d", env.V)
	}
	return DecryptEntry(env.Cipher, env.Nonce, key, ad, v)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
