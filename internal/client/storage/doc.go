// Package storage opens the local storage tiers of the client.
//
// InitDatabase opens the SQLite database and applies the embedded goose
// migrations; OpenTiers builds the secure, plain and ephemeral repositories
// from configuration and owns their handles until Close.
package storage
