package lfs

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	lfspointer "github.com/git-lfs/git-lfs/v3/lfs"
)

var oidPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// ValidOID reports whether oid is a lowercase hex SHA-256.
func ValidOID(oid string) bool {
	return oidPattern.MatchString(oid)
}

// KeyForOID returns the blob store key for an LFS object. Objects are
// sharded by the first two byte pairs of the oid so listings under lfs/
// stay shallow.
func KeyForOID(oid string) string {
	return fmt.Sprintf("lfs/%s/%s/%s", oid[:2], oid[2:4], oid)
}

// OIDFromKey inverts KeyForOID. ok is false when key is not a sharded
// LFS object key.
func OIDFromKey(key string) (oid string, ok bool) {
	parts := strings.Split(key, "/")
	if len(parts) != 4 || parts[0] != "lfs" {
		return "", false
	}
	oid = parts[3]
	if !ValidOID(oid) || parts[1] != oid[:2] || parts[2] != oid[2:4] {
		return "", false
	}
	return oid, true
}

// MatchesSuffixRule reports whether path ends in one of the LFS suffix
// rules. Matching is case-insensitive, so MODEL.SAFETENSORS tracks the
// same as model.safetensors.
func MatchesSuffixRule(path string, rules []string) bool {
	lower := strings.ToLower(path)
	for _, suffix := range rules {
		if strings.HasSuffix(lower, strings.ToLower(suffix)) {
			return true
		}
	}
	return false
}

// PointerText renders the canonical Git LFS pointer file body.
func PointerText(oid string, size int64) string {
	var buf bytes.Buffer
	_, _ = lfspointer.EncodePointer(&buf, lfspointer.NewPointer(oid, size, nil))
	return buf.String()
}

// ParsePointer parses a pointer file body. ok is false when the content
// is not a well-formed pointer.
func ParsePointer(data []byte) (oid string, size int64, ok bool) {
	p, err := lfspointer.DecodePointer(bytes.NewReader(data))
	if err != nil {
		return "", 0, false
	}
	if !ValidOID(p.Oid) {
		return "", 0, false
	}
	return p.Oid, p.Size, true
}
