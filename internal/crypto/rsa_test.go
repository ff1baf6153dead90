package crypto

import (
	"bytes"
	"crypto/rsa"
	"errors"
	"sync"
	"testing"
)

var testRSAKey = sync.OnceValue(func() *rsa.PrivateKey {
	key, err := GenerateRSAKey(2048)
	if err != nil {
		panic(err)
	}
	return key
})

func TestGenerateRSAKey_Unsupported(t *testing.T) {
	for _, bits := range []int{0, 512, 1024, 2047, 8192} {
		if _, err := GenerateRSAKey(bits); !errors.Is(err, ErrUnsupportedAlgorithm) {
			t.Errorf("GenerateRSAKey(%d) error = %v, want ErrUnsupportedAlgorithm", bits, err)
		}
	}
}

func TestWrapKey_UnwrapKey(t *testing.T) {
	key := testRSAKey()
	raw, _ := GenerateAESKey(256)

	wrapped, err := WrapKey(&key.PublicKey, raw)
	if err != nil {
		t.Fatalf("WrapKey() error = %v", err)
	}
	if len(wrapped) != key.Size() {
		t.Errorf("wrapped length = %d, want %d", len(wrapped), key.Size())
	}

	got, err := UnwrapKey(key, wrapped)
	if err != nil {
		t.Fatalf("UnwrapKey() error = %v", err)
	}
	if !bytes.Equal(got, raw) {
		t.Error("UnwrapKey() returned different key material")
	}

	again, _ := WrapKey(&key.PublicKey, raw)
	if bytes.Equal(again, wrapped) {
		t.Error("WrapKey() is deterministic, OAEP must be randomized")
	}
}

func TestUnwrapKey_Failures(t *testing.T) {
	key := testRSAKey()
	raw, _ := GenerateAESKey(256)
	wrapped, _ := WrapKey(&key.PublicKey, raw)

	tampered := append([]byte(nil), wrapped...)
	tampered[10] ^= 0xff

	if _, err := UnwrapKey(key, tampered); !errors.Is(err, ErrWrapFailed) {
		t.Errorf("UnwrapKey(tampered) error = %v, want ErrWrapFailed", err)
	}
	if _, err := UnwrapKey(nil, wrapped); !errors.Is(err, ErrWrapFailed) {
		t.Errorf("UnwrapKey(nil) error = %v, want ErrWrapFailed", err)
	}
	if _, err := WrapKey(nil, raw); !errors.Is(err, ErrWrapFailed) {
		t.Errorf("WrapKey(nil) error = %v, want ErrWrapFailed", err)
	}
	if _, err := WrapKey(&key.PublicKey, make([]byte, 300)); !errors.Is(err, ErrWrapFailed) {
		t.Errorf("WrapKey(oversized) error = %v, want ErrWrapFailed", err)
	}
}

func TestSignatures(t *testing.T) {
	key := testRSAKey()
	msg := []byte(`{"serial":"ABC123"}`)

	tests := []struct {
		name   string
		sign   func(*rsa.PrivateKey, []byte) ([]byte, error)
		verify func(*rsa.PublicKey, []byte, []byte) bool
	}{
		{"pkcs1v15", SignPKCS1v15, VerifyPKCS1v15},
		{"pss", SignPSS, VerifyPSS},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := tt.sign(key, msg)
			if err != nil {
				t.Fatalf("sign error = %v", err)
			}
			if !tt.verify(&key.PublicKey, msg, sig) {
				t.Error("valid signature rejected")
			}
			if tt.verify(&key.PublicKey, []byte(`{"serial":"ABC124"}`), sig) {
				t.Error("signature accepted for a different message")
			}
			if tt.verify(&key.PublicKey, msg, sig[1:]) {
				t.Error("truncated signature accepted")
			}
			if tt.verify(nil, msg, sig) {
				t.Error("nil key accepted")
			}
		})
	}
}

func TestMLDSA(t *testing.T) {
	pub, priv, err := GenerateMLDSAKey()
	if err != nil {
		t.Fatalf("GenerateMLDSAKey() error = %v", err)
	}

	msg := []byte("certificate body")
	sig, err := SignMLDSA(priv, msg)
	if err != nil {
		t.Fatalf("SignMLDSA() error = %v", err)
	}
	if len(sig) != MLDSASignatureSize {
		t.Errorf("signature length = %d, want %d", len(sig), MLDSASignatureSize)
	}
	if !VerifyMLDSA(pub, msg, sig) {
		t.Error("VerifyMLDSA() rejected a valid signature")
	}
	if VerifyMLDSA(pub, []byte("other"), sig) {
		t.Error("VerifyMLDSA() accepted a signature for a different message")
	}
	if VerifyMLDSA(pub, msg, sig[:100]) {
		t.Error("VerifyMLDSA() accepted a short signature")
	}

	packed, err := pub.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}
	parsed, err := ParseMLDSAPublicKey(packed)
	if err != nil {
		t.Fatalf("ParseMLDSAPublicKey() error = %v", err)
	}
	if !VerifyMLDSA(parsed, msg, sig) {
		t.Error("parsed key rejected a valid signature")
	}
	if _, err := ParseMLDSAPublicKey(packed[:10]); !errors.Is(err, ErrInvalidPublicKey) {
		t.Errorf("ParseMLDSAPublicKey(short) error = %v, want ErrInvalidPublicKey", err)
	}
}
