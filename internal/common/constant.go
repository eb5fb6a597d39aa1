package common

// AppName is used for the default data directory and the CLI root command.
const AppName = "vitalkeeper"

// EnvPrefix prefixes every environment variable read by the config loader.
const EnvPrefix = "VITALKEEPER_"
