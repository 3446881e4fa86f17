package gitbridge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/pktline"
	"github.com/go-git/go-git/v5/plumbing/protocol/packp/sideband"
)

func TestAdvertiseUploadPack(t *testing.T) {
	backend, blobs := testFixture()
	service := testService(backend, blobs)

	var out bytes.Buffer
	if err := service.Advertise(context.Background(), testRepo(), UploadPackService, &out); err != nil {
		t.Fatalf("advertise failed: %v", err)
	}

	adv := out.String()
	for _, want := range []string{
		"# service=git-upload-pack",
		" HEAD\x00",
		"side-band-64k",
		"symref=HEAD:refs/heads/main",
		"agent=kohakuhub/1.0.0",
		"refs/heads/main",
	} {
		if !strings.Contains(adv, want) {
			t.Errorf("advertisement missing %q:\n%s", want, adv)
		}
	}
	if !strings.HasSuffix(adv, "0000") {
		t.Error("advertisement does not end with a flush pkt")
	}
}

func TestAdvertiseReceivePack(t *testing.T) {
	backend, blobs := testFixture()
	service := testService(backend, blobs)

	var out bytes.Buffer
	if err := service.Advertise(context.Background(), testRepo(), ReceivePackService, &out); err != nil {
		t.Fatalf("advertise failed: %v", err)
	}
	adv := out.String()
	if !strings.Contains(adv, "report-status") {
		t.Errorf("receive-pack advertisement missing report-status:\n%s", adv)
	}
	if strings.Contains(adv, "symref=") {
		t.Errorf("receive-pack advertisement should not carry symref:\n%s", adv)
	}
}

func TestAdvertiseUnknownService(t *testing.T) {
	backend, blobs := testFixture()
	service := testService(backend, blobs)
	err := service.Advertise(context.Background(), testRepo(), "git-annex", io.Discard)
	if err == nil {
		t.Fatal("expected an error for an unknown service")
	}
}

func TestUploadPack(t *testing.T) {
	backend, blobs := testFixture()
	service := testService(backend, blobs)
	ctx := context.Background()

	snap, err := service.snapshotFor(ctx, testRepo(), "main")
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}

	var req bytes.Buffer
	enc := pktline.NewEncoder(&req)
	enc.Encodef("want %s\n", snap.CommitHash)
	enc.Flush()
	enc.EncodeString("done\n")

	var out bytes.Buffer
	if err := service.UploadPack(ctx, testRepo(), &req, &out); err != nil {
		t.Fatalf("upload-pack failed: %v", err)
	}

	resp := out.Bytes()
	if !bytes.HasPrefix(resp, []byte("0008NAK\n")) {
		t.Fatalf("response does not start with NAK: %q", resp[:min(16, len(resp))])
	}

	st := decodePack(t, resp[len("0008NAK\n"):])
	if got := fileContents(t, st, snap.CommitHash, "README.md"); got != "hello world\n" {
		t.Errorf("cloned README = %q", got)
	}
}

func TestUploadPackSideband(t *testing.T) {
	backend, blobs := testFixture()
	service := testService(backend, blobs)
	ctx := context.Background()

	snap, err := service.snapshotFor(ctx, testRepo(), "main")
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}

	var req bytes.Buffer
	enc := pktline.NewEncoder(&req)
	enc.Encodef("want %s side-band-64k agent=git/2.43\n", snap.CommitHash)
	enc.Flush()
	enc.EncodeString("done\n")

	var out bytes.Buffer
	if err := service.UploadPack(ctx, testRepo(), &req, &out); err != nil {
		t.Fatalf("upload-pack failed: %v", err)
	}

	resp := out.Bytes()
	if !bytes.HasPrefix(resp, []byte("0008NAK\n")) {
		t.Fatalf("response does not start with NAK")
	}

	demux := sideband.NewDemuxer(sideband.Sideband64k, bytes.NewReader(resp[len("0008NAK\n"):]))
	pack, err := io.ReadAll(demux)
	if err != nil {
		t.Fatalf("failed to demux sideband: %v", err)
	}
	st := decodePack(t, pack)
	if got := fileContents(t, st, snap.CommitHash, "README.md"); got != "hello world\n" {
		t.Errorf("cloned README = %q", got)
	}
}

func TestUploadPackUnknownWant(t *testing.T) {
	backend, blobs := testFixture()
	service := testService(backend, blobs)

	var req bytes.Buffer
	enc := pktline.NewEncoder(&req)
	enc.Encodef("want %s\n", strings.Repeat("d", 40))
	enc.Flush()
	enc.EncodeString("done\n")

	var out bytes.Buffer
	err := service.UploadPack(context.Background(), testRepo(), &req, &out)
	if err == nil {
		t.Fatal("expected an error for an unknown want")
	}
	if !strings.Contains(out.String(), "ERR ") {
		t.Errorf("response missing ERR pkt: %q", out.String())
	}
}

func TestUploadPackWithoutDone(t *testing.T) {
	backend, blobs := testFixture()
	service := testService(backend, blobs)
	ctx := context.Background()

	snap, err := service.snapshotFor(ctx, testRepo(), "main")
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}

	var req bytes.Buffer
	enc := pktline.NewEncoder(&req)
	enc.Encodef("want %s\n", snap.CommitHash)
	enc.Flush()
	enc.Encodef("have %s\n", strings.Repeat("e", 40))
	enc.Flush()

	var out bytes.Buffer
	if err := service.UploadPack(ctx, testRepo(), &req, &out); err != nil {
		t.Fatalf("upload-pack failed: %v", err)
	}
	if got := out.String(); got != "0008NAK\n0000" {
		t.Errorf("negotiation round = %q, want NAK and flush only", got)
	}
}

func TestReceivePack(t *testing.T) {
	backend, blobs := testFixture()
	service := testService(backend, blobs)

	newHash := strings.Repeat("a", 40)
	var req bytes.Buffer
	enc := pktline.NewEncoder(&req)
	enc.Encodef("%s %s refs/heads/main\x00report-status agent=git/2.43\n", plumbing.ZeroHash, newHash)
	enc.Flush()
	req.WriteString("PACKjunkjunkjunk")

	var out bytes.Buffer
	if err := service.ReceivePack(context.Background(), testRepo(), &req, &out); err != nil {
		t.Fatalf("receive-pack failed: %v", err)
	}

	resp := out.String()
	if !strings.Contains(resp, "unpack ok") {
		t.Errorf("response missing unpack ok: %q", resp)
	}
	if !strings.Contains(resp, "ok refs/heads/main") {
		t.Errorf("response missing ref status: %q", resp)
	}
}

func TestParseUploadPackRequest(t *testing.T) {
	hash := strings.Repeat("b", 40)
	var req bytes.Buffer
	enc := pktline.NewEncoder(&req)
	enc.Encodef("want %s multi_ack side-band-64k agent=git/2.43\n", hash)
	enc.Encodef("want %s\n", strings.Repeat("c", 40))
	enc.Flush()
	enc.Encodef("have %s\n", strings.Repeat("e", 40))
	enc.EncodeString("done\n")

	wants, caps, done, err := parseUploadPackRequest(&req)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if len(wants) != 2 || wants[0] != plumbing.NewHash(hash) {
		t.Errorf("wants = %v", wants)
	}
	if !caps["side-band-64k"] || !caps["agent"] {
		t.Errorf("caps = %v", caps)
	}
	if !done {
		t.Error("done not detected")
	}

	if _, _, _, err := parseUploadPackRequest(strings.NewReader(fmt.Sprintf("%04x%s", 4+len("deepen 1\n"), "deepen 1\n"))); err == nil {
		t.Error("deepen request should be rejected")
	}
}
