// Package keyserver is an in-memory development implementation of the key
// distribution service consumed by the client: public key publication, the
// user directory, and per-user wrapped chat session keys.
//
// Callers identify themselves with "Authorization: Bearer <userId>". There
// is no authentication; the server is meant for tests and local
// development only.
package keyserver
