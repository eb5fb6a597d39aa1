package cryptox

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// cheap parameters keep the suite fast
var testArgon2Params = Argon2Params{Memory: 64, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32}

func newArgonHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(AlgorithmArgon2id, testArgon2Params, bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func newBcryptHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(AlgorithmBcrypt, testArgon2Params, bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestHashVerify_RoundTripBothAlgorithms(t *testing.T) {
	passwords := []string{"pw", "", "pässwörd 🔑", strings.Repeat("x", 200)}

	for _, h := range []*PasswordHasher{newArgonHasher(t), newBcryptHasher(t)} {
		t.Run(string(h.Algorithm()), func(t *testing.T) {
			for _, pw := range passwords {
				hash, err := h.Hash(pw)
				require.NoError(t, err)
				assert.True(t, h.Verify(pw, hash), "password %q must verify", pw)
				assert.False(t, h.Verify(pw+"!", hash), "different password must not verify")
			}
		})
	}
}

func TestHash_Salted(t *testing.T) {
	h := newArgonHasher(t)
	a, err := h.Hash("pw")
	require.NoError(t, err)
	b, err := h.Hash("pw")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
	assert.True(t, strings.HasPrefix(a, "$argon2id$v=19$m=64,t=1,p=1$"), a)
}

func TestVerify_AcceptsEitherAlgorithm(t *testing.T) {
	argonHash, err := newArgonHasher(t).Hash("pw")
	require.NoError(t, err)
	bcryptHash, err := newBcryptHasher(t).Hash("pw")
	require.NoError(t, err)

	assert.True(t, newBcryptHasher(t).Verify("pw", argonHash))
	assert.True(t, newArgonHasher(t).Verify("pw", bcryptHash))
}

func TestBcrypt_LongPasswordsDifferBeyond72Bytes(t *testing.T) {
	h := newBcryptHasher(t)
	base := strings.Repeat("a", 80)
	hash, err := h.Hash(base + "1")
	require.NoError(t, err)
	assert.False(t, h.Verify(base+"2", hash))
}

func TestVerify_MalformedHashesAreFalse(t *testing.T) {
	h := newArgonHasher(t)
	good, err := h.Hash("pw")
	require.NoError(t, err)
	parts := strings.Split(good, "$")

	cases := map[string]string{
		"empty":          "",
		"plaintext":      "pw",
		"unknown prefix": "$scrypt$abc",
		"too few parts":  "$argon2id$v=19$m=64,t=1,p=1$c2FsdA",
		"bad version":    strings.Join([]string{"", "argon2id", "v=18", parts[3], parts[4], parts[5]}, "$"),
		"bad params":     strings.Join([]string{"", "argon2id", "v=19", "m=x,t=1,p=1", parts[4], parts[5]}, "$"),
		"zero iters":     strings.Join([]string{"", "argon2id", "v=19", "m=64,t=0,p=1", parts[4], parts[5]}, "$"),
		"zero threads":   strings.Join([]string{"", "argon2id", "v=19", "m=64,t=1,p=0", parts[4], parts[5]}, "$"),
		"huge memory":    strings.Join([]string{"", "argon2id", "v=19", "m=4294967295,t=1,p=1", parts[4], parts[5]}, "$"),
		"bad salt b64":   strings.Join([]string{"", "argon2id", "v=19", parts[3], "!!", parts[5]}, "$"),
		"bad key b64":    strings.Join([]string{"", "argon2id", "v=19", parts[3], parts[4], "!!"}, "$"),
		"empty key":      strings.Join([]string{"", "argon2id", "v=19", parts[3], parts[4], ""}, "$"),
		"bcrypt garbage": "$2a$10$short",
		"bcrypt cost 31": "$2a$31$abcdefghijklmnopqrstuuabcdefghijklmnopqrstuvwxyz01234",
	}

	for name, hash := range cases {
		t.Run(name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.False(t, h.Verify("pw", hash))
			})
		})
	}
}

func TestNewPasswordHasher_RejectsBadParameters(t *testing.T) {
	_, err := NewPasswordHasher("md5", testArgon2Params, bcrypt.MinCost)
	require.ErrorIs(t, err, ErrUnknownAlgorithm)

	_, err = NewPasswordHasher(AlgorithmBcrypt, testArgon2Params, MaxBcryptCost+1)
	require.Error(t, err)

	bad := testArgon2Params
	bad.Iterations = 0
	_, err = NewPasswordHasher(AlgorithmArgon2id, bad, bcrypt.MinCost)
	require.Error(t, err)

	bad = testArgon2Params
	bad.SaltLength = 4
	_, err = NewPasswordHasher(AlgorithmArgon2id, bad, bcrypt.MinCost)
	require.Error(t, err)

	_, err = NewPasswordHasher(AlgorithmArgon2id, DefaultArgon2Params, bcrypt.MinCost)
	require.NoError(t, err)
}
