package commitengine

import (
	"bufio"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/kohakuhub/kohakuhub/internal/logger"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
)

// maxLineBytes caps one NDJSON line. Inline payloads are base64 and
// bounded by the LFS threshold well below this.
const maxLineBytes = 64 << 20

// Record kinds in the commit stream.
const (
	kindHeader        = "header"
	kindFile          = "file"
	kindLFSFile       = "lfsFile"
	kindDeletedFile   = "deletedFile"
	kindDeletedFolder = "deletedFolder"
)

// Header is the first record of every commit stream.
type Header struct {
	Summary      string `json:"summary"`
	Description  string `json:"description,omitempty"`
	ParentCommit string `json:"parentCommit,omitempty"`
}

// InlineFile is a decoded inline blob targeted at a path.
type InlineFile struct {
	Path string
	Data []byte
}

// LFSFile references a previously uploaded LFS object.
type LFSFile struct {
	Path string `json:"path"`
	Algo string `json:"algo"`
	OID  string `json:"oid"`
	Size int64  `json:"size"`
}

// Commit is a fully parsed commit stream.
type Commit struct {
	Header         Header
	Files          []InlineFile
	LFSFiles       []LFSFile
	DeletedFiles   []string
	DeletedFolders []string
}

type rawRecord struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

type rawFile struct {
	Path     string `json:"path"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type rawDelete struct {
	Path string `json:"path"`
}

// ParseCommit reads the full NDJSON stream and validates every record
// before anything is returned. The first record must be the header;
// malformed input fails the whole commit.
func ParseCommit(r io.Reader) (*Commit, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	commit := &Commit{}
	seen := make(map[string]string) // path -> record kind
	line := 0
	for scanner.Scan() {
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		line++

		var record rawRecord
		if err := json.Unmarshal([]byte(text), &record); err != nil {
			return nil, fmt.Errorf("%w: line %d is not valid JSON", models.ErrValidation, line)
		}

		if line == 1 {
			if record.Key != kindHeader {
				return nil, fmt.Errorf("%w: first record must be the header", models.ErrValidation)
			}
			if err := json.Unmarshal(record.Value, &commit.Header); err != nil {
				return nil, fmt.Errorf("%w: malformed header", models.ErrValidation)
			}
			if commit.Header.Summary == "" {
				return nil, fmt.Errorf("%w: commit summary is required", models.ErrValidation)
			}
			continue
		}

		switch record.Key {
		case kindHeader:
			return nil, fmt.Errorf("%w: duplicate header at line %d", models.ErrValidation, line)

		case kindFile:
			var raw rawFile
			if err := json.Unmarshal(record.Value, &raw); err != nil {
				return nil, fmt.Errorf("%w: malformed file record at line %d", models.ErrValidation, line)
			}
			path, err := cleanPath(raw.Path)
			if err != nil {
				return nil, err
			}
			if raw.Encoding != "" && raw.Encoding != "base64" {
				return nil, fmt.Errorf("%w: unsupported encoding %q for %s", models.ErrValidation, raw.Encoding, path)
			}
			data, err := base64.StdEncoding.DecodeString(raw.Content)
			if err != nil {
				return nil, fmt.Errorf("%w: invalid base64 content for %s", models.ErrValidation, path)
			}
			if err := markPath(seen, path, kindFile); err != nil {
				return nil, err
			}
			commit.Files = append(commit.Files, InlineFile{Path: path, Data: data})

		case kindLFSFile:
			var lfsFile LFSFile
			if err := json.Unmarshal(record.Value, &lfsFile); err != nil {
				return nil, fmt.Errorf("%w: malformed lfsFile record at line %d", models.ErrValidation, line)
			}
			path, err := cleanPath(lfsFile.Path)
			if err != nil {
				return nil, err
			}
			lfsFile.Path = path
			if lfsFile.Algo != "" && lfsFile.Algo != "sha256" {
				return nil, fmt.Errorf("%w: unsupported hash algo %q for %s", models.ErrValidation, lfsFile.Algo, path)
			}
			if !oidPattern.MatchString(lfsFile.OID) {
				return nil, fmt.Errorf("%w: malformed oid for %s", models.ErrValidation, path)
			}
			if lfsFile.Size < 0 {
				return nil, fmt.Errorf("%w: negative size for %s", models.ErrValidation, path)
			}
			if err := markPath(seen, path, kindLFSFile); err != nil {
				return nil, err
			}
			commit.LFSFiles = append(commit.LFSFiles, lfsFile)

		case kindDeletedFile, kindDeletedFolder:
			var raw rawDelete
			if err := json.Unmarshal(record.Value, &raw); err != nil {
				return nil, fmt.Errorf("%w: malformed delete record at line %d", models.ErrValidation, line)
			}
			path, err := cleanPath(raw.Path)
			if err != nil {
				return nil, err
			}
			if err := markPath(seen, path, record.Key); err != nil {
				return nil, err
			}
			if record.Key == kindDeletedFile {
				commit.DeletedFiles = append(commit.DeletedFiles, path)
			} else {
				commit.DeletedFolders = append(commit.DeletedFolders, path)
			}

		default:
			// Unknown kinds are skipped so older servers accept streams
			// from newer clients.
			logger.Debug("Skipping unknown commit record kind", "kind", record.Key, "line", line)
		}
	}
	if err := scanner.Err(); err != nil {
		if err == bufio.ErrTooLong {
			return nil, fmt.Errorf("%w: record exceeds %d bytes", models.ErrValidation, maxLineBytes)
		}
		return nil, err
	}
	if line == 0 {
		return nil, fmt.Errorf("%w: empty commit stream", models.ErrValidation)
	}
	return commit, nil
}

// cleanPath validates a repo-relative path.
func cleanPath(p string) (string, error) {
	p = strings.TrimSpace(strings.Trim(p, "/"))
	if p == "" {
		return "", fmt.Errorf("%w: empty path", models.ErrValidation)
	}
	for _, segment := range strings.Split(p, "/") {
		if segment == "" || segment == "." || segment == ".." {
			return "", fmt.Errorf("%w: invalid path %q", models.ErrValidation, p)
		}
	}
	return p, nil
}

// markPath rejects two records targeting the same path.
func markPath(seen map[string]string, path, kind string) error {
	if prev, ok := seen[path]; ok {
		return fmt.Errorf("%w: path %q targeted by both %s and %s", models.ErrValidation, path, prev, kind)
	}
	seen[path] = kind
	return nil
}
