package crypto

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestBase64URLRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", []byte{}},
		{"simple", []byte("hello")},
		{"binary zeros", []byte{0x00, 0x00, 0x00}},
		{"binary all ones", []byte{0xff, 0xff, 0xff}},
		{"url unsafe chars", []byte{0xfb, 0xf0}},
		{"single byte", []byte{0x42}},
		{"two bytes", []byte{0x42, 0x43}},
		{"large data", make([]byte, 10000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded := ToBase64URL(tt.data)
			if strings.ContainsAny(encoded, "=+/") {
				t.Errorf("ToBase64URL() = %q contains padding or non-urlsafe chars", encoded)
			}
			decoded, err := FromBase64URL(encoded)
			if err != nil {
				t.Fatalf("FromBase64URL() error = %v", err)
			}
			if !bytes.Equal(decoded, tt.data) {
				t.Errorf("round trip failed: got %v, want %v", decoded, tt.data)
			}
		})
	}
}

func TestFromBase64URL_Padding(t *testing.T) {
	tests := []struct {
		input string
		want  []byte
	}{
		{"YQ", []byte("a")},
		{"YQ==", []byte("a")},
		{"YWI", []byte("ab")},
		{"YWI=", []byte("ab")},
		{"YWJj", []byte("abc")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := FromBase64URL(tt.input)
			if err != nil {
				t.Fatalf("FromBase64URL(%q) error = %v", tt.input, err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("FromBase64URL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFromBase64URL_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"standard plus", "+/8"},
		{"standard slash", "ab/c"},
		{"whitespace", "YW Jj"},
		{"newline", "YWJj\nYWJj"},
		{"inner padding", "YQ==YQ"},
		{"impossible length", "A"},
		{"non ascii", "YWJjé"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromBase64URL(tt.input); !errors.Is(err, ErrEncoding) {
				t.Errorf("FromBase64URL(%q) error = %v, want ErrEncoding", tt.input, err)
			}
		})
	}
}

func TestBase64StandardRoundTrip(t *testing.T) {
	data := []byte{0xfb, 0xff, 0x00, 0x10}
	encoded := ToBase64(data)
	if encoded != "+/8AEA==" {
		t.Errorf("ToBase64() = %q, want %q", encoded, "+/8AEA==")
	}

	decoded, err := FromBase64(encoded)
	if err != nil {
		t.Fatalf("FromBase64() error = %v", err)
	}
	if !bytes.Equal(decoded, data) {
		t.Errorf("FromBase64() = %v, want %v", decoded, data)
	}

	if _, err := FromBase64("!!"); !errors.Is(err, ErrEncoding) {
		t.Errorf("FromBase64() error = %v, want ErrEncoding", err)
	}
}
