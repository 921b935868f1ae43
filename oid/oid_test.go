package oid

import "testing"

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		name    string
		input   string
		wantErr bool
	}{
		{
			name:  "valid blake3",
			input: "blake3:" + hexOf('a', 64),
		},
		{
			name:  "valid sha256",
			input: "sha256:" + hexOf('b', 64),
		},
		{
			name:  "valid xxh3",
			input: "xxh3:" + hexOf('c', 16),
		},
		{
			name:    "missing separator",
			input:   "blake3" + hexOf('a', 64),
			wantErr: true,
		},
		{
			name:    "wrong hex length",
			input:   "sha256:abcd",
			wantErr: true,
		},
		{
			name:    "non-hex character",
			input:   "sha256:" + hexOf('z', 64),
			wantErr: true,
		},
		{
			name:    "unknown algorithm",
			input:   "md5:" + hexOf('a', 32),
			wantErr: true,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			o, err := Parse(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("Parse(%q) = %v, want error", tc.input, o)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) unexpected error: %v", tc.input, err)
			}
			if o.String() != tc.input {
				t.Fatalf("round-trip mismatch: got %q, want %q", o.String(), tc.input)
			}
		})
	}
}

func TestStoragePath(t *testing.T) {
	o, err := New(BLAKE3, hexOf('a', 64))
	if err != nil {
		t.Fatal(err)
	}
	want := "blake3/aa/" + hexOf('a', 62)
	if got := o.StoragePath(); got != want {
		t.Fatalf("StoragePath() = %q, want %q", got, want)
	}
}

func TestDigestBytesDeterministic(t *testing.T) {
	for _, algo := range []Algorithm{BLAKE3, SHA256, XXH3} {
		b := []byte("a,b,c\n1,2,3\n")
		h1, err := DigestBytes(b, algo)
		if err != nil {
			t.Fatal(err)
		}
		h2, err := DigestBytes(b, algo)
		if err != nil {
			t.Fatal(err)
		}
		if h1 != h2 {
			t.Fatalf("%s: digest not deterministic: %q != %q", algo, h1, h2)
		}
		if len(h1) != algo.HexLen() {
			t.Fatalf("%s: digest length = %d, want %d", algo, len(h1), algo.HexLen())
		}
	}
}

func hexOf(c byte, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = c
	}
	return string(b)
}
