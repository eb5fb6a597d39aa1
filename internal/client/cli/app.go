package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"os"

	"github.com/dmitrijs2005/vitalkeeper/internal/client/config"
	"github.com/dmitrijs2005/vitalkeeper/internal/client/models"
	"github.com/dmitrijs2005/vitalkeeper/internal/client/profilestore"
	"github.com/dmitrijs2005/vitalkeeper/internal/client/securestore"
	"github.com/dmitrijs2005/vitalkeeper/internal/client/services"
	"github.com/dmitrijs2005/vitalkeeper/internal/client/storage"
	"github.com/dmitrijs2005/vitalkeeper/internal/common"
	"github.com/dmitrijs2005/vitalkeeper/internal/cryptox"
	"github.com/dmitrijs2005/vitalkeeper/internal/logging"
)

// sessionAPI is the part of *services.SessionController the CLI drives.
type sessionAPI interface {
	Login(ctx context.Context, email, password string) error
	Signup(ctx context.Context, email, password, name string) error
	Logout(ctx context.Context) error
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) error
	CurrentUser() (models.UserProfile, bool)
	IsAuthenticated() bool
}

// summaryReader reads the session summary kept in the ephemeral tier.
type summaryReader interface {
	SessionSummary(ctx context.Context) (models.SessionSummary, bool, error)
}

type App struct {
	config    *config.Config
	session   sessionAPI
	summaries summaryReader
	log       logging.Logger
	reader    *bufio.Reader
	out       io.Writer
	closers   []io.Closer
}

// NewApp opens the storage tiers described by c and restores the session.
// The caller must Close the returned App.
func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	if err := c.PrepareDataDir(); err != nil {
		return nil, err
	}

	key, err := cryptox.LoadOrCreateKey(c.KeyPath())
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(key)

	hasher, err := c.NewPasswordHasher()
	if err != nil {
		return nil, err
	}

	tiers, err := storage.OpenTiers(ctx, c)
	if err != nil {
		return nil, err
	}

	secure, err := securestore.New(tiers.Secure, key, hasher, log)
	if err != nil {
		_ = tiers.Close()
		return nil, err
	}
	profiles := profilestore.New(secure, tiers.Plain, tiers.Ephemeral, log)
	log.Debug(ctx, "storage ready",
		"data_dir", c.DataDir, "plain_backend", c.PlainBackend, "hash", hasher.Algorithm())

	return &App{
		config:    c,
		session:   services.NewSessionController(ctx, secure, profiles, log),
		summaries: profiles,
		log:       log,
		reader:    bufio.NewReader(os.Stdin),
		out:       os.Stdout,
		closers:   []io.Closer{tiers},
	}, nil
}

// Close releases the storage handles.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

func (a *App) isLoggedIn() bool {
	return a.session.IsAuthenticated()
}

// getStatus labels the prompt. The session summary written during this run
// is preferred; a session restored at startup has none yet, so the
// controller's profile is used instead.
func (a *App) getStatus(ctx context.Context) string {
	u, ok := a.session.CurrentUser()
	if !ok {
		return "(guest)"
	}
	if sum, found := a.sessionSummary(ctx); found && sum.ID == u.ID {
		return "(" + sum.Email + ")"
	}
	return "(" + u.Email + ")"
}

func (a *App) sessionSummary(ctx context.Context) (models.SessionSummary, bool) {
	if a.summaries == nil {
		return models.SessionSummary{}, false
	}
	sum, found, err := a.summaries.SessionSummary(ctx)
	if err != nil {
		a.log.Debug(ctx, "session summary unavailable", "err", err)
		return models.SessionSummary{}, false
	}
	return sum, found
}
