// Package crypto is the primitive provider for the sigilchat end-to-end
// encryption subsystem. Every other package reaches the platform's
// cryptographic facilities through it, so algorithm choices and parameter
// checks live in one place.
//
// # Algorithm Suite
//
//   - RSA-OAEP with SHA-256: wraps short symmetric keys for a single
//     recipient. Moduli of 2048, 3072 and 4096 bits are accepted.
//
//   - AES-GCM (128 or 256 bit keys, 96-bit nonces, 128-bit tags):
//     authenticated encryption of message bodies.
//
//   - RSASSA-PKCS1-v1_5 and RSASSA-PSS (salt length 32) with SHA-256, and
//     ML-DSA-65 (NIST FIPS 204): signatures for the certificate simulator.
//
//   - SHA-256 and SHA-512 digests, HKDF-SHA-256 (RFC 5869).
//
// Unknown algorithm names and unsupported sizes fail with
// [ErrUnsupportedAlgorithm]. An AEAD authentication failure is always
// reported as [ErrIntegrity] with no further detail.
//
// # Key Formats
//
// Public keys are exchanged as PEM text. [ExportPublicKeyPEM] always emits
// SPKI ("PUBLIC KEY") framing with 64-character lines. [ParsePublicKeyPEM]
// additionally accepts legacy PKCS#1 ("RSA PUBLIC KEY") framing, which is
// re-wrapped into SPKI before import. Anything else fails with
// [ErrUnrecognizedKeyFormat].
//
// # Encoding
//
//   - [ToBase64URL]/[FromBase64URL]: URL-safe base64 without padding.
//     Decoding tolerates missing padding and rejects characters outside the
//     URL-safe alphabet with [ErrEncoding].
//
//   - [ToBase64]/[FromBase64]: standard base64 with padding.
//
//   - [ToHex]: uppercase hexadecimal, used for fingerprints and serials.
//
//   - [IntToBytes]/[BytesToInt]: minimal big-endian integer codec.
package crypto
