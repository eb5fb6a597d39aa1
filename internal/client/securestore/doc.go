// Package securestore is the secure storage tier: password hashing and an
// encrypted, typed key/value store.
//
// Every value is JSON-encoded and sealed with AES-256-GCM under the device
// key before it reaches the underlying repository. The storage key is bound
// to the ciphertext as associated data, so a value copied to another key no
// longer opens.
//
// Typed access goes through the generic SetItem and GetItem functions, whose
// type parameter is limited to models.Record. Every failure of the tier
// (backend fault, undecodable or unauthenticated blob, record failing
// validation) is reported as a *common.StorageError with Tier "secure".
package securestore
