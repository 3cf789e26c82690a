package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture sends text output at lvl to a buffer and restores the previous
// sink when the test ends.
func capture(t *testing.T, lvl string) *bytes.Buffer {
	t.Helper()

	mu.Lock()
	prevOut, prevCloser, prevColor, prevFormat := out, closer, color, format
	mu.Unlock()
	prevLevel := level.Level()

	buf := new(bytes.Buffer)
	InitWithWriter(buf, lvl, "text", false)

	t.Cleanup(func() {
		mu.Lock()
		out, closer, color, format = prevOut, prevCloser, prevColor, prevFormat
		mu.Unlock()
		level.Set(prevLevel)
		rebuild()
	})
	return buf
}

func logAll() {
	Debug("debug message")
	Info("info message")
	Warn("warn message")
	Error("error message")
}

func TestLevelFiltering(t *testing.T) {
	tests := []struct {
		level string
		shown []string
		quiet []string
	}{
		{level: "DEBUG", shown: []string{"[DEBUG] debug", "[INFO] info", "[WARN] warn", "[ERROR] error"}},
		{level: "INFO", shown: []string{"[INFO] info", "[WARN] warn", "[ERROR] error"}, quiet: []string{"debug"}},
		{level: "warn", shown: []string{"[WARN] warn", "[ERROR] error"}, quiet: []string{"debug", "info"}},
		{level: "Error", shown: []string{"[ERROR] error"}, quiet: []string{"debug", "info", "warn"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := capture(t, tt.level)
			logAll()

			for _, s := range tt.shown {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.quiet {
				assert.NotContains(t, buf.String(), s+" message")
			}
		})
	}
}

func TestSetLevel(t *testing.T) {
	buf := capture(t, "ERROR")

	Info("hidden")
	SetLevel("INFO")
	Info("visible")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")
	assert.Equal(t, "INFO", GetLevel())

	SetLevel("LOUD")
	assert.Equal(t, "INFO", GetLevel())

	SetLevel("warning")
	assert.Equal(t, "WARN", GetLevel())
}

func TestTextFormat(t *testing.T) {
	t.Run("line layout", func(t *testing.T) {
		buf := capture(t, "INFO")
		Info("user logged in", "username", "alice", "user_id", 42)

		line := strings.TrimSuffix(buf.String(), "\n")
		assert.Regexp(t, `^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] \[INFO\] user logged in username=alice user_id=42$`, line)

		ts, err := time.ParseInLocation(TextTimeLayout, line[1:len(TextTimeLayout)+1], time.Local)
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now(), ts, time.Minute)
	})

	t.Run("quotes strings that need it", func(t *testing.T) {
		buf := capture(t, "INFO")
		Info("upload stored", Path("/My Docs/a b.txt"), Filename("plain.txt"), "note", `a="b"`)

		assert.Contains(t, buf.String(), `path="/My Docs/a b.txt"`)
		assert.Contains(t, buf.String(), "filename=plain.txt")
		assert.Contains(t, buf.String(), `note="a=\"b\""`)
	})

	t.Run("value kinds", func(t *testing.T) {
		buf := capture(t, "INFO")
		Info("stats", DurationMs(1.5), "ok", true, "wait", 2*time.Second)

		assert.Contains(t, buf.String(), "duration_ms=1.500")
		assert.Contains(t, buf.String(), "ok=true")
		assert.Contains(t, buf.String(), "wait=2s")
	})

	t.Run("empty error attr is dropped", func(t *testing.T) {
		buf := capture(t, "INFO")
		Info("done", Err(nil), Size(3))

		assert.Contains(t, buf.String(), "done size=3\n")
	})

	t.Run("color", func(t *testing.T) {
		var buf bytes.Buffer
		slog.New(NewColorTextHandler(&buf, nil, true)).Warn("careful", "k", "v")

		assert.Contains(t, buf.String(), "[\033[33mWARN\033[0m]")
		assert.Contains(t, buf.String(), "\033[36mk\033[0m=v")
	})
}

func TestTextHandlerAttrsAndGroups(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(NewColorTextHandler(&buf, nil, false))

	base.With("worker", 2).WithGroup("queue").With("pending", 3).Info("tick", "drained", 1)
	assert.Contains(t, buf.String(), "tick worker=2 queue.pending=3 queue.drained=1\n")

	buf.Reset()
	base.Info("nested", slog.Group("blob", "size", 10, slog.Group("ref", "count", 2)))
	assert.Contains(t, buf.String(), "nested blob.size=10 blob.ref.count=2\n")

	buf.Reset()
	base.Debug("below the default minimum")
	assert.Empty(t, buf.String())
}

func TestJSONFormat(t *testing.T) {
	buf := capture(t, "INFO")
	SetFormat("JSON")

	Info("blob registered", Digest("deadbeef"), RefCount(2))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "blob registered", rec["msg"])
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "deadbeef", rec[KeyDigest])
	assert.Contains(t, rec, "time")

	buf.Reset()
	SetFormat("xml")
	Info("still json")
	assert.True(t, strings.HasPrefix(buf.String(), "{"))
}

func TestContextLogging(t *testing.T) {
	buf := capture(t, "DEBUG")

	lc := NewLogContext("10.0.0.7").WithOperation("upload").WithUser("u-1", "alice")
	lc.RequestID = "req-9"
	lc = lc.WithTrace("trace-1", "span-1")
	ctx := WithContext(context.Background(), lc)

	InfoCtx(ctx, "stored", FileID("f-1"))
	line := buf.String()
	assert.Contains(t, line, "stored trace_id=trace-1 span_id=span-1 request_id=req-9 operation=upload client_ip=10.0.0.7 user_id=u-1 file_id=f-1")

	buf.Reset()
	DebugCtx(context.Background(), "plain", "k", "v")
	WarnCtx(context.TODO(), "todo")
	ErrorCtx(WithContext(context.Background(), &LogContext{}), "empty")
	assert.Contains(t, buf.String(), "[DEBUG] plain k=v\n")
	assert.Contains(t, buf.String(), "[WARN] todo\n")
	assert.Contains(t, buf.String(), "[ERROR] empty\n")
}

func TestLogContext(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
	assert.Nil(t, (*LogContext)(nil).Clone())
	assert.Nil(t, (*LogContext)(nil).WithOperation("x"))
	assert.Zero(t, (*LogContext)(nil).DurationMs())

	lc := NewLogContext("127.0.0.1")
	assert.False(t, lc.StartTime.IsZero())

	moved := lc.WithOperation("move")
	assert.Equal(t, "move", moved.Operation)
	assert.Empty(t, lc.Operation, "copies must not alias the original")

	lc.StartTime = time.Now().Add(-50 * time.Millisecond)
	assert.GreaterOrEqual(t, lc.DurationMs(), 50.0)
}

func TestFieldHelpers(t *testing.T) {
	assert.Equal(t, KeyDigest, Digest("deadbeef").Key)
	assert.Equal(t, slog.Attr{}, Err(nil))
	assert.Equal(t, KeyError, Err(assert.AnError).Key)
	assert.Equal(t, assert.AnError.Error(), Err(assert.AnError).Value.String())
	assert.Equal(t, "PermissionDenied", ErrorCode("PermissionDenied").Value.String())
}

func TestInit(t *testing.T) {
	capture(t, "INFO")

	path := filepath.Join(t.TempDir(), "drive.log")
	require.NoError(t, Init(Config{Level: "debug", Format: "json", Output: path}))
	Debug("to file", Entries(3))

	// Switching back closes the file.
	require.NoError(t, Init(Config{Output: "stderr", Format: "text"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"to file"`)
	assert.Contains(t, string(data), `"entries":3`)

	err = Init(Config{Output: filepath.Join(t.TempDir(), "missing", "dir", "x.log")})
	assert.ErrorContains(t, err, "failed to open log file")
}

func TestConcurrentLogging(t *testing.T) {
	buf := capture(t, "INFO")

	const goroutines, perGoroutine = 8, 100
	var wg sync.WaitGroup
	for i := range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range perGoroutine {
				Info("tick", Worker(i), "n", j)
			}
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, goroutines*perGoroutine)
}

func TestConcurrentReconfigure(t *testing.T) {
	InitWithWriter(io.Discard, "INFO", "text", false)
	t.Cleanup(func() { InitWithWriter(os.Stdout, "INFO", "text", isTerminal(os.Stdout)) })

	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 50 {
				SetLevel([]string{"DEBUG", "INFO", "WARN", "ERROR"}[i])
				SetFormat([]string{"text", "json"}[i%2])
			}
		}()
		go func() {
			defer wg.Done()
			for range 50 {
				Info("concurrent")
			}
		}()
	}
	wg.Wait()
}
