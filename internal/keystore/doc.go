// Package keystore is the durable local store for chat session keys.
//
// A [Store] is a small string key/value interface. Chat keys live under the
// name "chat:aes:<chatId>" with the raw key encoded as unpadded URL-safe
// base64; use [LoadChatKey] and [SaveChatKey] rather than building names by
// hand.
//
// Three implementations are provided:
//
//   - [MemoryStore]: process-local, for tests and ephemeral sessions.
//   - [FileStore]: a JSON file written atomically, optionally sealed with a
//     passphrase (scrypt + ChaCha20-Poly1305).
//   - [SQLiteStore]: a single-table SQLite database.
package keystore
