package commitengine

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

const testOID = "a665a45920422f9d417e4867efdc4fb8a04a1f3fff1fa07e998e86f7f7a27ae3"

func b64(s string) string { return base64.StdEncoding.EncodeToString([]byte(s)) }

func TestParseCommit(t *testing.T) {
	stream := strings.Join([]string{
		`{"key":"header","value":{"summary":"Add files","description":"details","parentCommit":"abc"}}`,
		fmt.Sprintf(`{"key":"file","value":{"path":"README.md","content":%q,"encoding":"base64"}}`, b64("hello")),
		fmt.Sprintf(`{"key":"lfsFile","value":{"path":"model.bin","algo":"sha256","oid":%q,"size":1000}}`, testOID),
		`{"key":"deletedFile","value":{"path":"old.txt"}}`,
		`{"key":"deletedFolder","value":{"path":"legacy/"}}`,
	}, "\n")

	commit, err := ParseCommit(strings.NewReader(stream))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if commit.Header.Summary != "Add files" || commit.Header.ParentCommit != "abc" {
		t.Errorf("got header %+v", commit.Header)
	}
	if len(commit.Files) != 1 || commit.Files[0].Path != "README.md" || string(commit.Files[0].Data) != "hello" {
		t.Errorf("got files %+v", commit.Files)
	}
	if len(commit.LFSFiles) != 1 || commit.LFSFiles[0].OID != testOID || commit.LFSFiles[0].Size != 1000 {
		t.Errorf("got lfs files %+v", commit.LFSFiles)
	}
	if len(commit.DeletedFiles) != 1 || commit.DeletedFiles[0] != "old.txt" {
		t.Errorf("got deleted files %v", commit.DeletedFiles)
	}
	if len(commit.DeletedFolders) != 1 || commit.DeletedFolders[0] != "legacy" {
		t.Errorf("got deleted folders %v", commit.DeletedFolders)
	}
}

func TestParseCommitRejects(t *testing.T) {
	tests := []struct {
		name   string
		stream string
	}{
		{"empty stream", ""},
		{"missing header", `{"key":"deletedFile","value":{"path":"x"}}`},
		{"empty summary", `{"key":"header","value":{"summary":""}}`},
		{
			"duplicate header",
			`{"key":"header","value":{"summary":"a"}}` + "\n" + `{"key":"header","value":{"summary":"b"}}`,
		},
		{
			"bad base64",
			`{"key":"header","value":{"summary":"a"}}` + "\n" + `{"key":"file","value":{"path":"x","content":"%%%"}}`,
		},
		{
			"path traversal",
			`{"key":"header","value":{"summary":"a"}}` + "\n" + `{"key":"deletedFile","value":{"path":"../../etc/passwd"}}`,
		},
		{
			"malformed oid",
			`{"key":"header","value":{"summary":"a"}}` + "\n" + `{"key":"lfsFile","value":{"path":"x","oid":"zz","size":1}}`,
		},
		{
			"conflicting records for one path",
			`{"key":"header","value":{"summary":"a"}}` + "\n" +
				`{"key":"deletedFile","value":{"path":"x"}}` + "\n" +
				fmt.Sprintf(`{"key":"lfsFile","value":{"path":"x","oid":%q,"size":1}}`, testOID),
		},
		{
			"not json",
			`{"key":"header","value":{"summary":"a"}}` + "\n" + `garbage`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCommit(strings.NewReader(tt.stream))
			if !errors.Is(err, models.ErrValidation) {
				t.Errorf("got %v, want validation error", err)
			}
		})
	}
}

func TestParseCommitSkipsUnknownKinds(t *testing.T) {
	stream := strings.Join([]string{
		`{"key":"header","value":{"summary":"a"}}`,
		`{"key":"rename","value":{"from":"x","to":"y"}}`,
		fmt.Sprintf(`{"key":"file","value":{"path":"README.md","content":%q}}`, b64("hi")),
	}, "\n")

	commit, err := ParseCommit(strings.NewReader(stream))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(commit.Files) != 1 || commit.Files[0].Path != "README.md" {
		t.Errorf("got files %+v", commit.Files)
	}
	if len(commit.LFSFiles) != 0 || len(commit.DeletedFiles) != 0 {
		t.Errorf("unknown record leaked into commit: %+v", commit)
	}
}

func TestCleanPath(t *testing.T) {
	if p, err := cleanPath("/weights/model.bin/"); err != nil || p != "weights/model.bin" {
		t.Errorf("got (%q, %v)", p, err)
	}
	for _, bad := range []string{"", "a//b", "./x", "a/../b"} {
		if _, err := cleanPath(bad); err == nil {
			t.Errorf("accepted %q", bad)
		}
	}
}
