package securestore

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/vitalkeeper/internal/client/models"
	"github.com/dmitrijs2005/vitalkeeper/internal/common"
	"github.com/dmitrijs2005/vitalkeeper/internal/cryptox"
)

func (s *Store) GetCredential(ctx context.Context, email string) (models.CredentialHash, bool, error) {
	return GetItem[models.CredentialHash](ctx, s, models.CredentialKey(email))
}

func (s *Store) SetCredential(ctx context.Context, email string, hash models.CredentialHash) error {
	return SetItem(ctx, s, models.CredentialKey(email), hash)
}

// RenameCredential re-keys the credential of from to to in one repository
// operation, replacing any credential already stored for to. It returns an
// error matching common.ErrorNotFound when from has no credential.
func (s *Store) RenameCredential(ctx context.Context, from, to string) error {
	fromKey, toKey := models.CredentialKey(from), models.CredentialKey(to)

	hash, ok, err := s.GetCredential(ctx, from)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("credential for %q: %w", from, common.ErrorNotFound)
	}
	if from == to {
		return nil
	}

	// the ciphertext is bound to its key, so it has to be sealed again
	blob, err := cryptox.Seal(hash, s.key, []byte(toKey))
	if err != nil {
		return common.NewStorageError(common.TierSecure, "rename", fromKey, err)
	}
	if err := s.repo.Move(ctx, fromKey, toKey, blob); err != nil {
		return common.NewStorageError(common.TierSecure, "rename", fromKey, err)
	}
	s.log.Info(ctx, "credential re-keyed")
	return nil
}
