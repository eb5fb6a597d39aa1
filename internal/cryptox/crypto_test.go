package cryptox

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func testKey(t *testing.T) []byte {
	t.Helper()
	return bytes.Repeat([]byte{7}, KeySize)
}

func TestDeriveArgon2id_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := deriveArgon2id(password, salt, DefaultArgon2Params)
	key2 := deriveArgon2id(password, salt, DefaultArgon2Params)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}
	assert.Len(t, key1, int(DefaultArgon2Params.KeyLength))
}

func TestEncodeArgon2id_CarriesDerivedKey(t *testing.T) {
	salt := []byte("fixed-salt-0001")
	p := DefaultArgon2Params

	encoded := encodeArgon2id("secret-password", salt, p)

	parts := strings.Split(encoded, "$")
	require.Len(t, parts, 6)
	assert.Equal(t, "argon2id", parts[1])
	assert.Equal(t, "v=19", parts[2])
	assert.Equal(t, fmt.Sprintf("m=%d,t=%d,p=%d", p.Memory, p.Iterations, p.Parallelism), parts[3])
	assert.Equal(t, base64.RawStdEncoding.EncodeToString(salt), parts[4])

	want := deriveArgon2id([]byte("secret-password"), salt, p)
	assert.Equal(t, base64.RawStdEncoding.EncodeToString(want), parts[5])
	assert.True(t, verifyArgon2id("secret-password", encoded))
}

func TestDeriveArgon2id_DifferentSalts(t *testing.T) {
	password := []byte("secret-password")

	key1 := deriveArgon2id(password, []byte("salt-1"), DefaultArgon2Params)
	key2 := deriveArgon2id(password, []byte("salt-2"), DefaultArgon2Params)

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}
}

func TestSealOpen_RoundTrip(t *testing.T) {
	key := testKey(t)
	in := sample{ID: "1", Name: "A"}

	blob, err := Seal(in, key, []byte("user_profile"))
	require.NoError(t, err)
	assert.NotContains(t, string(blob), `"name":"A"`, "plaintext must not leak into the blob")

	var out sample
	require.NoError(t, Open(blob, key, []byte("user_profile"), &out))
	assert.Equal(t, in, out)
}

func TestSeal_FreshNonceEachTime(t *testing.T) {
	key := testKey(t)
	a, err := Seal("same", key, nil)
	require.NoError(t, err)
	b, err := Seal("same", key, nil)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestOpen_WrongKeyOrAssociatedData(t *testing.T) {
	key := testKey(t)
	blob, err := Seal(sample{ID: "1"}, key, []byte("k1"))
	require.NoError(t, err)

	var out sample
	require.ErrorIs(t, Open(blob, bytes.Repeat([]byte{8}, KeySize), []byte("k1"), &out), ErrOpen)
	require.ErrorIs(t, Open(blob, key, []byte("k2"), &out), ErrOpen)
}

func TestOpen_TamperedCipher(t *testing.T) {
	key := testKey(t)
	blob, err := Seal(sample{ID: "1"}, key, nil)
	require.NoError(t, err)

	var env envelope
	require.NoError(t, json.Unmarshal(blob, &env))
	env.Cipher[0] ^= 0xFF
	tampered, err := json.Marshal(env)
	require.NoError(t, err)

	var out sample
	require.ErrorIs(t, Open(tampered, key, nil, &out), ErrOpen)
}

func TestOpen_GarbageAndVersion(t *testing.T) {
	key := testKey(t)
	var out sample

	require.Error(t, Open([]byte("not json"), key, nil, &out))

	future, err := json.Marshal(envelope{V: envelopeVersion + 1})
	require.NoError(t, err)
	err = Open(future, key, nil, &out)
	require.ErrorContains(t, err, "unsupported envelope version")

	short, err := json.Marshal(envelope{V: envelopeVersion, Nonce: []byte{1}, Cipher: []byte{2}})
	require.NoError(t, err)
	require.ErrorIs(t, Open(short, key, nil, &out), ErrOpen)
}

func TestEncryptEntry_BadKeyLength(t *testing.T) {
	_, _, err := EncryptEntry(sample{}, []byte("short"), nil)
	require.Error(t, err)
}
