package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/vitalkeeper/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields distinguish "absent" from a zero value, so a partial file only
// overrides what it names.
type JsonConfig struct {
	DataDir           *string `json:"data_dir"`
	SecureDBFile      *string `json:"secure_db_file"`
	PlainBackend      *string `json:"plain_backend"`
	PlainDBFile       *string `json:"plain_db_file"`
	KeyFile           *string `json:"key_file"`
	HashAlgorithm     *string `json:"hash_algorithm"`
	Argon2Memory      *uint32 `json:"argon2_memory"`
	Argon2Iterations  *uint32 `json:"argon2_iterations"`
	Argon2Parallelism *uint8  `json:"argon2_parallelism"`
	BcryptCost        *int    `json:"bcrypt_cost"`
	LogLevel          *string `json:"log_level"`
	LogFormat         *string `json:"log_format"`
}

// parseJson overlays Config with values loaded from a JSON file whose path
// comes from -c / -config in args. Without such a flag it does nothing.
func parseJson(cfg *Config, args []string) error {
	jsonConfigFile := flagx.JsonConfigFlags(args)
	if jsonConfigFile == "" {
		return nil
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config file %s: %w", jsonConfigFile, err)
	}

	set(&cfg.DataDir, jc.DataDir)
	set(&cfg.SecureDBFile, jc.SecureDBFile)
	set(&cfg.PlainBackend, jc.PlainBackend)
	set(&cfg.PlainDBFile, jc.PlainDBFile)
	set(&cfg.KeyFile, jc.KeyFile)
	set(&cfg.HashAlgorithm, jc.HashAlgorithm)
	set(&cfg.Argon2Memory, jc.Argon2Memory)
	set(&cfg.Argon2Iterations, jc.Argon2Iterations)
	set(&cfg.Argon2Parallelism, jc.Argon2Parallelism)
	set(&cfg.BcryptCost, jc.BcryptCost)
	set(&cfg.LogLevel, jc.LogLevel)
	set(&cfg.LogFormat, jc.LogFormat)

	return nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
