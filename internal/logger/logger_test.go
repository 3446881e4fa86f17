package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureOutput redirects logger output to a buffer for testing.
// Returns the buffer and a cleanup function to restore original output.
func captureOutput() (*bytes.Buffer, func()) {
	buf := new(bytes.Buffer)

	mu.Lock()
	originalOutput := output
	originalColor := useColor
	output = buf
	useColor = false
	mu.Unlock()

	reconfigure()

	cleanup := func() {
		mu.Lock()
		output = originalOutput
		useColor = originalColor
		mu.Unlock()
		reconfigure()
	}

	return buf, cleanup
}

func TestLevelFiltering(t *testing.T) {
	t.Run("DebugLevelShowsAllMessages", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("DEBUG")

		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")

		out := buf.String()
		assert.Contains(t, out, "debug message")
		assert.Contains(t, out, "info message")
		assert.Contains(t, out, "warn message")
		assert.Contains(t, out, "error message")
	})

	t.Run("InfoLevelFiltersDebug", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")

		Debug("debug message")
		Info("info message")

		out := buf.String()
		assert.NotContains(t, out, "debug message")
		assert.Contains(t, out, "info message")
	})

	t.Run("ErrorLevelShowsOnlyErrors", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("ERROR")

		Debug("debug message")
		Info("info message")
		Warn("warn message")
		Error("error message")

		out := buf.String()
		assert.NotContains(t, out, "debug message")
		assert.NotContains(t, out, "info message")
		assert.NotContains(t, out, "warn message")
		assert.Contains(t, out, "error message")
	})

	t.Run("InvalidLevelIsIgnored", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetLevel("VERBOSE")

		Info("still visible")
		assert.Contains(t, buf.String(), "still visible")
	})
}

func TestStructuredFields(t *testing.T) {
	t.Run("TextFormatRendersKeyValuePairs", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetFormat("text")

		Info("repo created", KeyRepo, "alice/bert", KeySize, int64(42))

		out := buf.String()
		assert.Contains(t, out, "repo created")
		assert.Contains(t, out, "repo=alice/bert")
		assert.Contains(t, out, "size=42")
	})

	t.Run("ValuesWithSpacesAreQuoted", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetFormat("text")

		Info("commit", "summary", "add model weights")

		assert.Contains(t, buf.String(), `summary="add model weights"`)
	})

	t.Run("JSONFormatEmitsValidJSON", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetFormat("json")
		defer SetFormat("text")

		Info("lfs upload", KeyOID, "abc123", KeySize, int64(1024))

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "lfs upload", entry["msg"])
		assert.Equal(t, "abc123", entry[KeyOID])
		assert.Equal(t, float64(1024), entry[KeySize])
	})
}

func TestContextFields(t *testing.T) {
	t.Run("LogContextFieldsArePrepended", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		SetFormat("text")

		lc := NewLogContext("req-1", "GET", "/api/models/a/b", "10.0.0.1")
		ctx := WithContext(context.Background(), lc.WithUser("alice").WithRepo("a/b"))

		InfoCtx(ctx, "resolved")

		out := buf.String()
		assert.Contains(t, out, "request_id=req-1")
		assert.Contains(t, out, "user=alice")
		assert.Contains(t, out, "repo=a/b")
		assert.Contains(t, out, "client_ip=10.0.0.1")
	})

	t.Run("MissingLogContextIsHarmless", func(t *testing.T) {
		buf, cleanup := captureOutput()
		defer cleanup()

		SetLevel("INFO")
		InfoCtx(context.Background(), "no context")

		assert.Contains(t, buf.String(), "no context")
	})

	t.Run("FromContextReturnsNilForBareContext", func(t *testing.T) {
		assert.Nil(t, FromContext(context.Background()))
		assert.Nil(t, FromContext(nil))
	})
}

func TestLogContext(t *testing.T) {
	t.Run("WithUserDoesNotMutateOriginal", func(t *testing.T) {
		lc := NewLogContext("r", "GET", "/", "127.0.0.1")
		derived := lc.WithUser("bob")

		assert.Empty(t, lc.User)
		assert.Equal(t, "bob", derived.User)
	})

	t.Run("CloneOfNilIsNil", func(t *testing.T) {
		var lc *LogContext
		assert.Nil(t, lc.Clone())
		assert.Nil(t, lc.WithUser("x"))
	})

	t.Run("DurationMsIsNonNegative", func(t *testing.T) {
		lc := NewLogContext("r", "GET", "/", "127.0.0.1")
		assert.GreaterOrEqual(t, lc.DurationMs(), float64(0))

		var empty *LogContext
		assert.Equal(t, float64(0), empty.DurationMs())
	})
}

func TestColorTextHandler(t *testing.T) {
	t.Run("WithGroupPrefixesKeys", func(t *testing.T) {
		buf := new(bytes.Buffer)
		l := slog.New(NewColorTextHandler(buf, nil, false).WithGroup("s3"))

		l.Info("put", "bucket", "hub")

		assert.Contains(t, buf.String(), "s3.bucket=hub")
	})

	t.Run("WithAttrsCarriesBoundFields", func(t *testing.T) {
		buf := new(bytes.Buffer)
		l := slog.New(NewColorTextHandler(buf, nil, false)).With("component", "gitbridge")

		l.Info("pack built")

		out := buf.String()
		assert.Contains(t, out, "component=gitbridge")
		assert.Contains(t, out, "pack built")
	})

	t.Run("ColorDisabledOutputHasNoEscapes", func(t *testing.T) {
		buf := new(bytes.Buffer)
		l := slog.New(NewColorTextHandler(buf, nil, false))

		l.Warn("slow probe", "source", "hf")

		assert.False(t, strings.Contains(buf.String(), "\033["))
	})
}
