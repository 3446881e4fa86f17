package handlers

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/ssh"
)

// testAuthorizedKey generates an ed25519 key in authorized_keys format.
func testAuthorizedKey(t *testing.T, comment string) string {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	sshPub, err := ssh.NewPublicKey(pub)
	if err != nil {
		t.Fatalf("failed to convert key: %v", err)
	}
	line := bytes.TrimSpace(ssh.MarshalAuthorizedKey(sshPub))
	if comment != "" {
		line = append(append(line, ' '), comment...)
	}
	return string(line)
}

func TestAddSSHKey(t *testing.T) {
	fs := newFakeStore()
	h := &Handler{deps: Deps{Store: fs}}
	user := testUser()

	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r := asUser(httptest.NewRequest(http.MethodPost, "/api/user/keys", strings.NewReader(body)), user)
		h.AddSSHKey(rec, r)
		return rec
	}

	t.Run("valid key registered", func(t *testing.T) {
		key := testAuthorizedKey(t, "alice@laptop")
		body, _ := json.Marshal(map[string]string{"key": key})
		rec := post(string(body))
		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}

		var resp map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if resp["key_type"] != "ssh-ed25519" {
			t.Errorf("key_type = %v", resp["key_type"])
		}
		if !strings.HasPrefix(resp["fingerprint"].(string), "SHA256:") {
			t.Errorf("fingerprint = %v", resp["fingerprint"])
		}
		// Title falls back to the key comment.
		if resp["title"] != "alice@laptop" {
			t.Errorf("title = %v", resp["title"])
		}
	})

	t.Run("duplicate fingerprint conflicts", func(t *testing.T) {
		key := testAuthorizedKey(t, "")
		body, _ := json.Marshal(map[string]string{"key": key})
		if rec := post(string(body)); rec.Code != http.StatusCreated {
			t.Fatalf("first add failed: %d", rec.Code)
		}
		if rec := post(string(body)); rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", rec.Code)
		}
	})

	t.Run("malformed key rejected", func(t *testing.T) {
		rec := post(`{"key":"not a key"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("anonymous rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodPost, "/api/user/keys", strings.NewReader(`{}`))
		h.AddSSHKey(rec, r)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want 401", rec.Code)
		}
	})
}

func TestDeleteSSHKey(t *testing.T) {
	fs := newFakeStore()
	h := &Handler{deps: Deps{Store: fs}}
	user := testUser()

	key := testAuthorizedKey(t, "")
	body, _ := json.Marshal(map[string]string{"key": key, "title": "laptop"})
	rec := httptest.NewRecorder()
	h.AddSSHKey(rec, asUser(httptest.NewRequest(http.MethodPost, "/api/user/keys", bytes.NewReader(body)), user))
	if rec.Code != http.StatusCreated {
		t.Fatalf("setup add failed: %d", rec.Code)
	}
	var created map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	id := created["id"].(string)

	rec = httptest.NewRecorder()
	r := asUser(httptest.NewRequest(http.MethodDelete, "/api/user/keys/"+id, nil), user)
	h.DeleteSSHKey(rec, withURLParam(r, "id", id))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if len(fs.keys) != 0 {
		t.Error("key still present")
	}
}
