// Package common defines shared constants and sentinel errors used across
// VitalKeeper components. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Session errors.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrProfileNotFound    = errors.New("user data not found")
	ErrNotLoggedIn        = errors.New("no user logged in")
	ErrNoProfileToUpdate  = errors.New("no user found to update")

	// ErrStorage is matched by every *StorageError.
	ErrStorage = errors.New("storage error")
)

// Tier names a storage tier.
type Tier string

const (
	TierSecure    Tier = "secure"
	TierPlain     Tier = "plain"
	TierEphemeral Tier = "ephemeral"
)

// StorageError reports a fault in one storage tier. It matches ErrStorage
// and unwraps to the underlying cause.
type StorageError struct {
	Tier Tier
	Op   string
	Key  string
	Err  error
}

// NewStorageError wraps err as a StorageError. A nil err yields nil.
func NewStorageError(tier Tier, op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Tier: tier, Op: op, Key: key, Err: err}
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("%s tier %s: %v", e.Tier, e.Op, e.Err)
	}
	return fmt.Sprintf("%s tier %s %q: %v", e.Tier, e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorage }
