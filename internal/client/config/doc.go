// Package config loads runtime configuration for the VitalKeeper client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional .env file in the working directory (godotenv); it only fills
//     variables that are not already set in the process environment.
//  3. Environment variables prefixed with VITALKEEPER_ (see parseEnv).
//  4. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  5. Command-line flags (see parseFlags), which override earlier values.
//
// The merged result is validated before it is returned.
//
// Supported flags
//
//	-d string   data directory
//	-l string   log level (debug, info, warn, error)
//
// # JSON schema
//
//	{
//	  "data_dir": "~/.vitalkeeper",
//	  "secure_db_file": "vault.db",
//	  "plain_backend": "bbolt",
//	  "plain_db_file": "profile.db",
//	  "key_file": "device.key",
//	  "hash_algorithm": "argon2id",
//	  "argon2_memory": 65536,
//	  "argon2_iterations": 1,
//	  "argon2_parallelism": 4,
//	  "bcrypt_cost": 10,
//	  "log_level": "info",
//	  "log_format": "text"
//	}
//
// Keys missing from the file keep their previous value.
package config
