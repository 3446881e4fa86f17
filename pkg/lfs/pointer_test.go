package lfs

import (
	"strings"
	"testing"
)

const testOID = "a665a45920422f9d417e4867efdc4fb8a04a1f3fff1fa07e998e86f7f7a27ae3"

func TestKeyForOID(t *testing.T) {
	key := KeyForOID(testOID)
	if key != "lfs/a6/65/"+testOID {
		t.Errorf("got %q", key)
	}

	oid, ok := OIDFromKey(key)
	if !ok || oid != testOID {
		t.Errorf("round trip failed: %q %v", oid, ok)
	}
}

func TestOIDFromKeyRejectsForeignKeys(t *testing.T) {
	tests := []string{
		"hf-model-alice-m/config.json",
		"lfs/a6/65/short",
		"lfs/xx/65/" + testOID,
		"lfs/a6/65/" + strings.ToUpper(testOID),
		"lfs/" + testOID,
	}
	for _, key := range tests {
		if _, ok := OIDFromKey(key); ok {
			t.Errorf("accepted %q", key)
		}
	}
}

func TestMatchesSuffixRule(t *testing.T) {
	rules := []string{".safetensors", ".GGUF"}
	tests := []struct {
		path string
		want bool
	}{
		{"model.safetensors", true},
		{"model.SAFETENSORS", true},
		{"nested/dir/Model.SafeTensors", true},
		{"quant.gguf", true},
		{"README.md", false},
		{"safetensors", false},
	}
	for _, tt := range tests {
		if got := MatchesSuffixRule(tt.path, rules); got != tt.want {
			t.Errorf("MatchesSuffixRule(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestPointerRoundTrip(t *testing.T) {
	text := PointerText(testOID, 1234)
	if !strings.Contains(text, "oid sha256:"+testOID) || !strings.Contains(text, "size 1234") {
		t.Errorf("unexpected pointer body:\n%s", text)
	}

	oid, size, ok := ParsePointer([]byte(text))
	if !ok || oid != testOID || size != 1234 {
		t.Errorf("got (%q, %d, %v)", oid, size, ok)
	}

	if _, _, ok := ParsePointer([]byte("not a pointer")); ok {
		t.Error("accepted garbage")
	}
}
