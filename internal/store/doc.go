// Package store persists the current [models.Credential] in a key-value medium.
//
// # Key-Value Backends
//
// [KeyValue] abstracts the medium. Three implementations are provided:
//   - [MemoryKV] : process-local map, used by tests and the "memory" backend
//   - [SQLiteKV] : the kv table created by the embedded migrations in package shared
//   - [RedisKV] : a prefixed key in Redis
//
// # Credential Store
//
// [CredentialStore] keeps the credential under a single key as JSON {accessToken, expiresAt}.
// Expiry is enforced lazily on [CredentialStore.Load]: an expired or malformed record is deleted and reported as absent.
// There is no background eviction.
package store
