// Package kv implements the key/value storage tiers behind the secure,
// plain and ephemeral stores.
//
// Three backends satisfy Repository:
//
//   - SQLiteRepository: a table in the local SQLite database (secure tier,
//     optionally plain tier).
//   - BoltRepository: a bucket in a bbolt file (default plain tier).
//   - MemoryRepository: a process-lifetime map (ephemeral tier).
//
// Values are opaque non-empty byte slices; encoding and encryption are the
// caller's concern. Get returns (nil, nil) for a missing key, Delete of a
// missing key succeeds, and Move re-keys a value atomically.
package kv
