package blobstore

import "testing"

func TestParseS3URI(t *testing.T) {
	tests := []struct {
		name    string
		uri     string
		bucket  string
		key     string
		wantErr bool
	}{
		{
			name:   "simple",
			uri:    "s3://hub/lfs/ab/cd/abcd",
			bucket: "hub",
			key:    "lfs/ab/cd/abcd",
		},
		{
			name:   "nested key",
			uri:    "s3://bucket/hf-model-alice-m1/README.md",
			bucket: "bucket",
			key:    "hf-model-alice-m1/README.md",
		},
		{
			name:    "missing scheme",
			uri:     "http://bucket/key",
			wantErr: true,
		},
		{
			name:    "no key",
			uri:     "s3://bucket",
			wantErr: true,
		},
		{
			name:    "empty bucket",
			uri:     "s3:///key",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bucket, key, err := ParseS3URI(tt.uri)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.uri)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if bucket != tt.bucket || key != tt.key {
				t.Errorf("got (%q, %q), want (%q, %q)", bucket, key, tt.bucket, tt.key)
			}
		})
	}
}

func TestS3URIRoundTrip(t *testing.T) {
	uri := S3URI("hub", "lfs/ab/cd/abcd")
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bucket != "hub" || key != "lfs/ab/cd/abcd" {
		t.Errorf("round trip mismatch: got (%q, %q)", bucket, key)
	}
}

func TestHexToChecksumBase64(t *testing.T) {
	// sha256("") in hex and base64.
	const hexDigest = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	const wantB64 = "47DEQpj8HBSa+/TImW+5JCeuQeRkm5NMpJWZG3hSuFU="

	got, err := HexToChecksumBase64(hexDigest)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != wantB64 {
		t.Errorf("got %q, want %q", got, wantB64)
	}

	if _, err := HexToChecksumBase64("zz"); err == nil {
		t.Error("expected error for invalid hex")
	}
	if _, err := HexToChecksumBase64("abcd"); err == nil {
		t.Error("expected error for short digest")
	}
}

func TestTrimETag(t *testing.T) {
	if got := trimETag(`"abc123"`); got != "abc123" {
		t.Errorf("got %q", got)
	}
	if got := trimETag("abc123"); got != "abc123" {
		t.Errorf("got %q", got)
	}
}
