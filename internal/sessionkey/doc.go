// Package sessionkey resolves the symmetric session key of a chat.
//
// Resolution order for [Manager.Resolve]:
//
//  1. the in-memory cache, authoritative for the running session;
//  2. the durable local store ("chat:aes:<chatId>");
//  3. the caller's wrapped copy on the key-distribution service, unwrapped
//     with the session keypair;
//  4. a freshly generated key, wrapped for every participant that has a
//     published public key and submitted to the service on a best-effort
//     basis.
//
// Concurrent resolutions of the same chat id share one in-flight attempt, so
// at most one key is generated per chat id at a time. A caller whose context
// ends stops waiting but does not cancel the shared attempt. Writes of a
// chat's key are serialized: a resolution that finds the key was rotated,
// imported or forgotten while it was looking it up discards its result.
//
// When the service is unavailable (network failure, no answer within the
// resolve timeout, 408, 429 or 5xx) the
// manager derives a deterministic, non-secret key from the chat id and the
// participant ids, as older clients did. That key is never cached or
// persisted, so the next resolution retries the service. Use
// [WithoutDeterministicFallback] to fail with
// [ErrKeyDistributionUnavailable] instead.
package sessionkey
