package crypto

const (
	// AESKeySize is the size of an AES-256 key in bytes.
	AESKeySize = 32
	// AES128KeySize is the size of an AES-128 key in bytes.
	AES128KeySize = 16
	// AESNonceSize is the size of an AES-GCM nonce in bytes.
	AESNonceSize = 12
	// AESTagSize is the size of an AES-GCM authentication tag in bytes.
	AESTagSize = 16

	// RSAWrapBits is the modulus size used for key-wrapping keypairs.
	RSAWrapBits = 4096
	// RSASigningBits is the modulus size used for certificate issuer keys.
	RSASigningBits = 2048

	// PSSSaltLength is the salt length used for RSASSA-PSS signatures.
	PSSSaltLength = 32

	// HKDFContext is the default HKDF info string for domain separation.
	HKDFContext = "sigilchat:dh:v1"
)

// Hash names a digest algorithm accepted by [Digest].
type Hash string

const (
	SHA256 Hash = "SHA-256"
	SHA512 Hash = "SHA-512"
)
