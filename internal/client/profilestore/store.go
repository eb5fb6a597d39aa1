// Package profilestore keeps the single user profile of the device across
// three tiers: secure (encrypted, authoritative), plain (JSON, survives a
// lost secure tier) and ephemeral (session summary, process lifetime).
package profilestore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/vitalkeeper/internal/client/models"
	"github.com/dmitrijs2005/vitalkeeper/internal/client/repositories/kv"
	"github.com/dmitrijs2005/vitalkeeper/internal/client/securestore"
	"github.com/dmitrijs2005/vitalkeeper/internal/common"
	"github.com/dmitrijs2005/vitalkeeper/internal/logging"
)

type Store struct {
	secure    *securestore.Store
	plain     kv.Repository
	ephemeral kv.Repository
	log       logging.Logger
}

func New(secure *securestore.Store, plain, ephemeral kv.Repository, log logging.Logger) *Store {
	if log == nil {
		log = logging.Discard()
	}
	return &Store{secure: secure, plain: plain, ephemeral: ephemeral, log: log}
}

// SaveUser writes p to the secure, plain and ephemeral tiers in that order.
// The first failure is returned; tiers already written are left as they are.
func (s *Store) SaveUser(ctx context.Context, p models.UserProfile) error {
	if err := securestore.SetItem(ctx, s.secure, models.ProfileKey, p); err != nil {
		return err
	}
	if err := setJSON(ctx, s.plain, common.TierPlain, models.ProfileKey, p); err != nil {
		return err
	}
	if err := setJSON(ctx, s.ephemeral, common.TierEphemeral, models.SessionKey, p.Summary()); err != nil {
		return err
	}
	s.log.Debug(ctx, "profile saved", "user_id", p.ID)
	return nil
}

// GetUser returns the stored profile. The secure tier is consulted first;
// on a miss the plain tier is read and, when it has the profile, copied back
// into the secure tier. Only tier faults are errors.
func (s *Store) GetUser(ctx context.Context) (models.UserProfile, bool, error) {
	p, ok, err := securestore.GetItem[models.UserProfile](ctx, s.secure, models.ProfileKey)
	if err != nil || ok {
		return p, ok, err
	}

	p, ok, err = getJSON[models.UserProfile](ctx, s.plain, common.TierPlain, models.ProfileKey)
	if err != nil || !ok {
		return models.UserProfile{}, false, err
	}

	if err := securestore.SetItem(ctx, s.secure, models.ProfileKey, p); err != nil {
		return models.UserProfile{}, false, err
	}
	s.log.Info(ctx, "profile restored to secure tier from plain tier", "user_id", p.ID)
	return p, true, nil
}

// UpdateUser merges upd into the stored profile, saves the result to every
// tier and returns it. Without a stored profile it fails with
// common.ErrNoProfileToUpdate.
func (s *Store) UpdateUser(ctx context.Context, upd models.ProfileUpdate) (models.UserProfile, error) {
	p, ok, err := s.GetUser(ctx)
	if err != nil {
		return models.UserProfile{}, err
	}
	if !ok {
		return models.UserProfile{}, common.ErrNoProfileToUpdate
	}

	merged := upd.Apply(p)
	if err := s.SaveUser(ctx, merged); err != nil {
		return models.UserProfile{}, err
	}
	return merged, nil
}

// ClearUser removes the profile from the secure and plain tiers and the
// session summary from the ephemeral tier. Each tier is attempted even if
// another fails; failures are logged and not returned.
func (s *Store) ClearUser(ctx context.Context) {
	if err := s.secure.RemoveItem(ctx, models.ProfileKey); err != nil {
		s.log.Warn(ctx, "clear profile", "tier", common.TierSecure, "error", err)
	}
	if err := s.plain.Delete(ctx, models.ProfileKey); err != nil {
		s.log.Warn(ctx, "clear profile", "tier", common.TierPlain, "error", err)
	}
	if err := s.ephemeral.Delete(ctx, models.SessionKey); err != nil {
		s.log.Warn(ctx, "clear session", "tier", common.TierEphemeral, "error", err)
	}
}

// IsAuthenticated reports whether a profile is stored.
func (s *Store) IsAuthenticated(ctx context.Context) (bool, error) {
	_, ok, err := s.GetUser(ctx)
	return ok, err
}

// SessionSummary returns the summary written by the last SaveUser of this
// process, if any.
func (s *Store) SessionSummary(ctx context.Context) (models.SessionSummary, bool, error) {
	return getJSON[models.SessionSummary](ctx, s.ephemeral, common.TierEphemeral, models.SessionKey)
}

func setJSON[T models.Record](ctx context.Context, repo kv.Repository, tier common.Tier, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return common.NewStorageError(tier, "set", key, err)
	}
	return common.NewStorageError(tier, "set", key, repo.Set(ctx, key, data))
}

func getJSON[T models.Record](ctx context.Context, repo kv.Repository, tier common.Tier, key string) (T, bool, error) {
	var zero T

	data, err := repo.Get(ctx, key)
	if err != nil {
		return zero, false, common.NewStorageError(tier, "get", key, err)
	}
	if data == nil {
		return zero, false, nil
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, false, common.NewStorageError(tier, "get", key, fmt.Errorf("decode: %w", err))
	}
	if err := models.Validate(v); err != nil {
		return zero, false, common.NewStorageError(tier, "get", key, err)
	}
	return v, true, nil
}
