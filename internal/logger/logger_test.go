package logger

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoggerTextFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "eoss", Config{Level: "INFO", Format: "text"})

	l.Info("object uploaded", "object_name", "abc123", "size", 42)

	out := buf.String()
	require.Contains(t, out, "object uploaded")
	require.Contains(t, out, "object_name=abc123")
	require.Contains(t, out, "size=42")
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "eoss", Config{Level: "WARN", Format: "text"})

	l.Debug("should not appear")
	l.Info("also should not appear")
	l.Warn("this should appear")

	out := buf.String()
	require.NotContains(t, out, "should not appear")
	require.Contains(t, out, "this should appear")
}

func TestLoggerJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "mds_client", Config{Level: "DEBUG", Format: "json"})

	l.Error("exec failed", "statement", "INSERT")

	out := buf.String()
	require.True(t, strings.Contains(out, `"msg":"exec failed"`))
	require.True(t, strings.Contains(out, `"statement":"INSERT"`))
}

func TestLoggerRawWritesAccessLine(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, "access_log", Config{Level: "INFO", Format: "text"})

	l.Raw("req-1 12 127.0.0.1 PUT /eoss/v1/object/hello.txt 201 curl/8.0")

	require.Equal(t, "req-1 12 127.0.0.1 PUT /eoss/v1/object/hello.txt 201 curl/8.0\n", buf.String())
}

func TestNewCreatesLogFile(t *testing.T) {
	dir := t.TempDir()
	l, err := New(dir, "eoss.log", "eoss", Config{Level: "INFO", Format: "text"})
	require.NoError(t, err)
	defer l.Close()

	l.Info("started")

	data, err := os.ReadFile(dir + "/eoss.log")
	require.NoError(t, err)
	require.Contains(t, string(data), "started")
}
