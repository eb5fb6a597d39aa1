package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/dmitrijs2005/vitalkeeper/internal/common"
	"github.com/dmitrijs2005/vitalkeeper/internal/cryptox"
	"github.com/dmitrijs2005/vitalkeeper/internal/filex"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Plain tier backends.
const (
	BackendBolt   = "bbolt"
	BackendSQLite = "sqlite"
)

// Config holds runtime settings for the VitalKeeper client.
//
// File names (SecureDBFile, PlainDBFile, KeyFile) are resolved against
// DataDir unless absolute. Argon2Memory is in KiB.
type Config struct {
	DataDir      string `env:"DATA_DIR" validate:"required"`
	SecureDBFile string `env:"SECURE_DB_FILE" validate:"required"`
	PlainBackend string `env:"PLAIN_BACKEND" validate:"oneof=bbolt sqlite"`
	PlainDBFile  string `env:"PLAIN_DB_FILE" validate:"required_if=PlainBackend bbolt"`
	KeyFile      string `env:"KEY_FILE" validate:"required"`

	HashAlgorithm     string `env:"HASH_ALGORITHM" validate:"oneof=argon2id bcrypt"`
	Argon2Memory      uint32 `env:"ARGON2_MEMORY" validate:"gte=8,lte=1048576"`
	Argon2Iterations  uint32 `env:"ARGON2_ITERATIONS" validate:"gte=1,lte=64"`
	Argon2Parallelism uint8  `env:"ARGON2_PARALLELISM" validate:"gte=1"`
	BcryptCost        int    `env:"BCRYPT_COST" validate:"gte=4,lte=16"`

	LogLevel  string `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat string `env:"LOG_FORMAT" validate:"oneof=text json"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.DataDir = "~/." + common.AppName
	c.SecureDBFile = "vault.db"
	c.PlainBackend = BackendBolt
	c.PlainDBFile = "profile.db"
	c.KeyFile = "device.key"

	c.HashAlgorithm = string(cryptox.AlgorithmArgon2id)
	c.Argon2Memory = cryptox.DefaultArgon2Params.Memory
	c.Argon2Iterations = cryptox.DefaultArgon2Params.Iterations
	c.Argon2Parallelism = cryptox.DefaultArgon2Params.Parallelism
	c.BcryptCost = 10

	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// .env, the environment, JSON (if present) and command-line flags (if
// present). Later sources take precedence over earlier ones. args are the
// command-line arguments without the program name.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseJson(cfg, args); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges and enumerations.
func (c *Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SecureDBPath is the SQLite database holding the secure tier (and the plain
// tier when PlainBackend is sqlite).
func (c *Config) SecureDBPath() string { return c.resolve(c.SecureDBFile) }

// PlainDBPath is the bbolt file holding the plain tier.
func (c *Config) PlainDBPath() string { return c.resolve(c.PlainDBFile) }

// KeyPath is the device key file.
func (c *Config) KeyPath() string { return c.resolve(c.KeyFile) }

// Argon2Params converts the argon2 settings, keeping the default salt and
// key lengths.
func (c *Config) Argon2Params() cryptox.Argon2Params {
	p := cryptox.DefaultArgon2Params
	p.Memory = c.Argon2Memory
	p.Iterations = c.Argon2Iterations
	p.Parallelism = c.Argon2Parallelism
	return p
}

// NewPasswordHasher builds the hasher selected by HashAlgorithm.
func (c *Config) NewPasswordHasher() (*cryptox.PasswordHasher, error) {
	return cryptox.NewPasswordHasher(cryptox.Algorithm(c.HashAlgorithm), c.Argon2Params(), c.BcryptCost)
}

func (c *Config) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// PrepareDataDir creates DataDir if needed and replaces it with its absolute
// form, so the derived paths no longer depend on "~" or the working
// directory.
func (c *Config) PrepareDataDir() error {
	dir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		return fmt.Errorf("prepare data dir: %w", err)
	}
	c.DataDir = dir
	return nil
}
