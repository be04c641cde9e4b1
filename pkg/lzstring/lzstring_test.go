package lzstring

import (
	"errors"
	"strconv"
	"strings"
	"testing"
)

func TestCompressEmpty(t *testing.T) {
	// An empty input encodes only the end-of-stream marker.
	if got := CompressToEncodedURIComponent(""); got != "Q" {
		t.Errorf("CompressToEncodedURIComponent(\"\") = %q, want %q", got, "Q")
	}
	got, err := DecompressFromEncodedURIComponent("Q")
	if err != nil {
		t.Fatalf("DecompressFromEncodedURIComponent(Q) error: %v", err)
	}
	if got != "" {
		t.Errorf("DecompressFromEncodedURIComponent(Q) = %q, want empty", got)
	}
}

// Tokens produced by the lz-string JavaScript library for the same input.
func TestCompressMatchesJavaScript(t *testing.T) {
	tests := []struct {
		in, token string
	}{
		{"1", "IxA"},
		{"7", "OxA"},
		{"1,2,3", "IwGgTCDMQ"},
		{"10,20,30", "IwBgNATODMJA"},
		{"école", "JcYw9gNgpkA"},
		{"日本", "qemhpzI"},
		{"😀", "rwbgA9o"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := CompressToEncodedURIComponent(tt.in); got != tt.token {
				t.Errorf("CompressToEncodedURIComponent(%q) = %q, want %q", tt.in, got, tt.token)
			}
			got, err := DecompressFromEncodedURIComponent(tt.token)
			if err != nil {
				t.Fatalf("DecompressFromEncodedURIComponent(%q): %v", tt.token, err)
			}
			if got != tt.in {
				t.Errorf("DecompressFromEncodedURIComponent(%q) = %q, want %q", tt.token, got, tt.in)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	var ids []string
	for i := range 500 {
		ids = append(ids, strconv.Itoa(i*7919%100003))
	}

	tests := []struct {
		name string
		in   string
	}{
		{"single char", "a"},
		{"id list", "1,2,3"},
		{"repetitive", strings.Repeat("abc", 200)},
		{"long id list", strings.Join(ids, ",")},
		{"json", `{"projects":[10,20],"users":[]}`},
		{"latin1", "modèle, café, naïve"},
		{"wide", "日本語のテキスト"},
		{"surrogate pairs", "graph 🌲🌳🌲🌳 forest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := CompressToEncodedURIComponent(tt.in)
			for _, r := range token {
				if !strings.ContainsRune(uriAlphabet, r) {
					t.Fatalf("token %q contains non URI-safe rune %q", token, r)
				}
			}
			got, err := DecompressFromEncodedURIComponent(token)
			if err != nil {
				t.Fatalf("decompress error: %v", err)
			}
			if got != tt.in {
				t.Errorf("round trip = %q, want %q", got, tt.in)
			}
		})
	}
}

func TestCompressShrinksRepetitiveInput(t *testing.T) {
	in := strings.Repeat("1234,", 400)
	if token := CompressToEncodedURIComponent(in); len(token) >= len(in)/4 {
		t.Errorf("token length %d not meaningfully smaller than input %d", len(token), len(in))
	}
}

func TestDecompressSpaceAsPlus(t *testing.T) {
	in := strings.Repeat("zz~~", 40)
	token := CompressToEncodedURIComponent(in)
	if !strings.Contains(token, "+") {
		t.Skip("token has no '+' to mangle")
	}
	got, err := DecompressFromEncodedURIComponent(strings.ReplaceAll(token, "+", " "))
	if err != nil {
		t.Fatalf("decompress error: %v", err)
	}
	if got != in {
		t.Errorf("got %q, want %q", got, in)
	}
}

func TestDecompressCorrupt(t *testing.T) {
	for _, token := range []string{"", "!!", "é", "AAAA/"} {
		if _, err := DecompressFromEncodedURIComponent(token); !errors.Is(err, ErrCorrupt) {
			t.Errorf("DecompressFromEncodedURIComponent(%q) error = %v, want ErrCorrupt", token, err)
		}
	}
}
