// Package models defines the records persisted by the storage tiers: the
// user profile, its session summary and the credential hash.
package models

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Storage keys shared by every tier.
const (
	ProfileKey          = "user_profile"
	SessionKey          = "user_session"
	credentialKeyPrefix = "password_"
)

// CredentialKey returns the secure-tier key holding the password hash for
// email. Emails are used verbatim, so the key is case-sensitive.
func CredentialKey(email string) string {
	return credentialKeyPrefix + email
}

// UserProfile is the single identity record of the device. Timestamps are
// epoch milliseconds.
type UserProfile struct {
	ID        string `json:"id" validate:"required"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt" validate:"gte=0"`
	LastLogin int64  `json:"lastLogin" validate:"gte=0"`
}

// Summary projects the profile onto the fields kept in the ephemeral tier.
func (p UserProfile) Summary() SessionSummary {
	return SessionSummary{ID: p.ID, Name: p.Name, Email: p.Email}
}

// SessionSummary is the informational copy of the signed-in user kept for
// the lifetime of the process.
type SessionSummary struct {
	ID    string `json:"id" validate:"required"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CredentialHash is an encoded one-way password hash.
type CredentialHash string

// Record is the closed set of shapes the typed secure accessors accept.
type Record interface {
	UserProfile | SessionSummary | CredentialHash
}

// ProfileUpdate is a partial profile: nil fields are left unchanged. ID and
// CreatedAt are immutable and therefore absent.
type ProfileUpdate struct {
	Email     *string
	Name      *string
	LastLogin *int64
}

// Apply returns p with every non-nil field of u copied over it.
func (u ProfileUpdate) Apply(p UserProfile) UserProfile {
	if u.Email != nil {
		p.Email = *u.Email
	}
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.LastLogin != nil {
		p.LastLogin = *u.LastLogin
	}
	return p
}

// IsEmpty reports whether u changes nothing.
func (u ProfileUpdate) IsEmpty() bool {
	return u.Email == nil && u.Name == nil && u.LastLogin == nil
}

var ErrInvalidRecord = errors.New("invalid record")

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks a decoded record against its shape rules.
func Validate[T Record](v T) error {
	var err error
	switch r := any(v).(type) {
	case CredentialHash:
		err = validatorInstance().Var(string(r), "required")
	default:
		err = validatorInstance().Struct(r)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	return nil
}
