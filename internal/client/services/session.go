// Package services contains application services for the VitalKeeper client.
// This file defines the session controller: login, signup, logout and
// profile updates over the credential and profile stores, plus the
// observable session state.
package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/vitalkeeper/internal/client/models"
	"github.com/dmitrijs2005/vitalkeeper/internal/common"
	"github.com/dmitrijs2005/vitalkeeper/internal/logging"
	"github.com/google/uuid"
)

// CredentialStore hashes, verifies and persists password hashes keyed by
// email. *securestore.Store implements it.
type CredentialStore interface {
	HashPassword(plaintext string) (string, error)
	VerifyPassword(plaintext, hash string) bool
	GetCredential(ctx context.Context, email string) (models.CredentialHash, bool, error)
	SetCredential(ctx context.Context, email string, hash models.CredentialHash) error
	RenameCredential(ctx context.Context, from, to string) error
}

// ProfileRepository persists the device's single user profile.
// *profilestore.Store implements it.
type ProfileRepository interface {
	SaveUser(ctx context.Context, p models.UserProfile) error
	GetUser(ctx context.Context) (models.UserProfile, bool, error)
	UpdateUser(ctx context.Context, upd models.ProfileUpdate) (models.UserProfile, error)
	ClearUser(ctx context.Context)
}

// Option customizes a SessionController.
type Option func(*SessionController)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *SessionController) { c.now = now }
}

// WithIDGenerator replaces the random UUID generator used for new users.
func WithIDGenerator(newID func() string) Option {
	return func(c *SessionController) { c.newID = newID }
}

// SessionController owns the authentication state of the device.
//
// States: unauthenticated (initial) and authenticated, the latter always
// paired with the current profile. Operations are not serialized against
// each other: two concurrent UpdateProfile calls may lose one update. The
// mutex only guarantees that CurrentUser and IsAuthenticated never observe
// a half-applied transition.
type SessionController struct {
	creds    CredentialStore
	profiles ProfileRepository
	log      logging.Logger
	now      func() time.Time
	newID    func() string

	mu            sync.RWMutex
	user          models.UserProfile
	authenticated bool
}

// NewSessionController restores the session from storage: a stored profile
// means the device is logged in. A storage fault is logged and leaves the
// controller unauthenticated.
func NewSessionController(ctx context.Context, creds CredentialStore, profiles ProfileRepository, log logging.Logger, opts ...Option) *SessionController {
	if log == nil {
		log = logging.Discard()
	}
	c := &SessionController{
		creds:    creds,
		profiles: profiles,
		log:      log,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}

	p, ok, err := profiles.GetUser(ctx)
	switch {
	case err != nil:
		c.log.Warn(ctx, "session restore failed", "error", err)
	case ok:
		c.setAuthenticated(p)
		c.log.Debug(ctx, "session restored", "user_id", p.ID)
	}
	return c
}

// Login checks password against the credential stored for email, stamps
// LastLogin on the stored profile and authenticates the session.
//
// A missing credential and a wrong password both yield
// common.ErrInvalidCredentials. A valid credential without a stored profile
// yields common.ErrProfileNotFound.
func (c *SessionController) Login(ctx context.Context, email, password string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	hash, ok, err := c.creds.GetCredential(ctx, email)
	if err != nil {
		return err
	}
	if !ok || !c.creds.VerifyPassword(password, string(hash)) {
		c.log.Info(ctx, "login rejected")
		return common.ErrInvalidCredentials
	}

	p, ok, err := c.profiles.GetUser(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrProfileNotFound
	}

	p.LastLogin = c.loginStamp(p.LastLogin)
	if err := c.profiles.SaveUser(ctx, p); err != nil {
		return err
	}

	c.setAuthenticated(p)
	c.log.Info(ctx, "logged in", "user_id", p.ID)
	return nil
}

// Signup creates a new identity for email and authenticates it. An existing
// credential or profile is replaced.
func (c *SessionController) Signup(ctx context.Context, email, password, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	hash, err := c.creds.HashPassword(password)
	if err != nil {
		var se *common.StorageError
		if !errors.As(err, &se) {
			err = common.NewStorageError(common.TierSecure, "hash", models.CredentialKey(email), err)
		}
		return err
	}

	now := c.now().UnixMilli()
	p := models.UserProfile{
		ID:        c.newID(),
		Email:     email,
		Name:      name,
		CreatedAt: now,
		LastLogin: now,
	}

	if err := c.creds.SetCredential(ctx, email, models.CredentialHash(hash)); err != nil {
		return err
	}
	if err := c.profiles.SaveUser(ctx, p); err != nil {
		return err
	}

	c.setAuthenticated(p)
	c.log.Info(ctx, "signed up", "user_id", p.ID)
	return nil
}

// Logout removes the stored profile and ends the session. Credentials stay
// in place.
func (c *SessionController) Logout(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.profiles.ClearUser(ctx)

	c.mu.Lock()
	id := c.user.ID
	c.user = models.UserProfile{}
	c.authenticated = false
	c.mu.Unlock()

	c.log.Info(ctx, "logged out", "user_id", id)
	return nil
}

// UpdateProfile merges upd into the stored and in-memory profile. It needs an
// authenticated session.
//
// When upd changes the email, the credential is re-keyed to the new email
// before the profile is written. If the write fails, the credential ends up
// under whichever email the stored profile carries.
func (c *SessionController) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.RLock()
	current, authed := c.user, c.authenticated
	c.mu.RUnlock()
	if !authed {
		return common.ErrNotLoggedIn
	}

	rekeyed := false
	if upd.Email != nil && *upd.Email != current.Email {
		err := c.creds.RenameCredential(ctx, current.Email, *upd.Email)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			c.log.Warn(ctx, "no credential to re-key", "user_id", current.ID)
		case err != nil:
			return err
		default:
			rekeyed = true
		}
	}

	if _, err := c.profiles.UpdateUser(ctx, upd); err != nil {
		if rekeyed {
			c.settleRekey(ctx, current, *upd.Email)
		}
		return err
	}

	c.mu.Lock()
	c.user = upd.Apply(c.user)
	c.mu.Unlock()

	c.log.Info(ctx, "profile updated", "user_id", current.ID)
	return nil
}

// settleRekey runs after a failed profile write that followed a credential
// re-key from current.Email to newEmail. SaveUser writes the secure tier
// first, so the stored profile may already carry newEmail; in that case the
// credential stays under newEmail and the in-memory profile follows the
// stored one. Otherwise the credential is moved back.
func (c *SessionController) settleRekey(ctx context.Context, current models.UserProfile, newEmail string) {
	stored, found, err := c.profiles.GetUser(ctx)
	if err == nil && found && stored.Email == newEmail {
		c.mu.Lock()
		c.user = stored
		c.mu.Unlock()
		c.log.Warn(ctx, "profile partially saved, keeping new email", "user_id", current.ID)
		return
	}
	if err != nil {
		c.log.Warn(ctx, "stored profile unreadable after failed update", "user_id", current.ID, "error", err)
	}
	if rerr := c.creds.RenameCredential(ctx, newEmail, current.Email); rerr != nil {
		c.log.Error(ctx, "credential restore failed", "user_id", current.ID, "error", rerr)
	}
}

// CurrentUser returns the authenticated profile, if any.
func (c *SessionController) CurrentUser() (models.UserProfile, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user, c.authenticated
}

func (c *SessionController) IsAuthenticated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.authenticated
}

func (c *SessionController) setAuthenticated(p models.UserProfile) {
	c.mu.Lock()
	c.user = p
	c.authenticated = true
	c.mu.Unlock()
}

// loginStamp returns the current time in epoch milliseconds, moved past prev
// when the clock has not advanced.
func (c *SessionController) loginStamp(prev int64) int64 {
	now := c.now().UnixMilli()
	if now <= prev {
		return prev + 1
	}
	return now
}
