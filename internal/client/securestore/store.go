package securestore

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/vitalkeeper/internal/client/models"
	"github.com/dmitrijs2005/vitalkeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/vitalkeeper/internal/common"
	"github.com/dmitrijs2005/vitalkeeper/internal/cryptox"
	"github.com/dmitrijs2005/vitalkeeper/internal/logging"
)

type Store struct {
	repo   kv.Repository
	key    []byte
	hasher *cryptox.PasswordHasher
	log    logging.Logger
}

// New returns a Store sealing values into repo with key, which must be
// cryptox.KeySize bytes long.
func New(repo kv.Repository, key []byte, hasher *cryptox.PasswordHasher, log logging.Logger) (*Store, error) {
	if len(key) != cryptox.KeySize {
		return nil, fmt.Errorf("%w: need %d bytes, got %d", cryptox.ErrInvalidKey, cryptox.KeySize, len(key))
	}
	if hasher == nil {
		return nil, errors.New("password hasher is required")
	}
	if log == nil {
		log = logging.Discard()
	}
	return &Store{
		repo:   repo,
		key:    append([]byte(nil), key...),
		hasher: hasher,
		log:    log.With("tier", common.TierSecure),
	}, nil
}

// HashPassword returns a salted one-way hash of plaintext. Any string,
// including the empty one, is accepted.
func (s *Store) HashPassword(plaintext string) (string, error) {
	h, err := s.hasher.Hash(plaintext)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return h, nil
}

// VerifyPassword reports whether plaintext matches hash. A malformed or
// unsupported hash yields false.
func (s *Store) VerifyPassword(plaintext, hash string) bool {
	return s.hasher.Verify(plaintext, hash)
}

// RemoveItem deletes key. Removing an absent key is not an error.
func (s *Store) RemoveItem(ctx context.Context, key string) error {
	if err := s.repo.Delete(ctx, key); err != nil {
		return common.NewStorageError(common.TierSecure, "remove", key, err)
	}
	s.log.Debug(ctx, "item removed", "key", key)
	return nil
}

// SetItem seals v and stores it under key, replacing any previous value.
func SetItem[T models.Record](ctx context.Context, s *Store, key string, v T) error {
	if err := models.Validate(v); err != nil {
		return common.NewStorageError(common.TierSecure, "set", key, err)
	}
	blob, err := cryptox.Seal(v, s.key, []byte(key))
	if err != nil {
		return common.NewStorageError(common.TierSecure, "set", key, err)
	}
	if err := s.repo.Set(ctx, key, blob); err != nil {
		return common.NewStorageError(common.TierSecure, "set", key, err)
	}
	s.log.Debug(ctx, "item stored", "key", key)
	return nil
}

// GetItem loads and opens the value under key. A missing key yields the zero
// value and false.
func GetItem[T models.Record](ctx context.Context, s *Store, key string) (T, bool, error) {
	var zero T

	blob, err := s.repo.Get(ctx, key)
	if err != nil {
		return zero, false, common.NewStorageError(common.TierSecure, "get", key, err)
	}
	if blob == nil {
		return zero, false, nil
	}

	var v T
	if err := cryptox.Open(blob, s.key, []byte(key), &v); err != nil {
		s.log.Warn(ctx, "unreadable item", "key", key, "error", err)
		return zero, false, common.NewStorageError(common.TierSecure, "get", key, err)
	}
	if err := models.Validate(v); err != nil {
		s.log.Warn(ctx, "invalid item", "key", key, "error", err)
		return zero, false, common.NewStorageError(common.TierSecure, "get", key, err)
	}
	return v, true, nil
}
