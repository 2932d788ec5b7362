package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LevelsAndFormats(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := New(Options{Level: "warn", Format: "json", Output: &buf})
	require.NoError(t, err)
	defer closer.Close()

	log.Info("hidden")
	log.WithField("suite", "Posts API").Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(out)), &entry))
	assert.Equal(t, "shown", entry["msg"])
	assert.Equal(t, "Posts API", entry["suite"])
}

func TestNew_VerboseForcesDebug(t *testing.T) {
	log, _, err := New(Options{Level: "error", Verbose: true, Output: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestNew_InvalidOptions(t *testing.T) {
	_, _, err := New(Options{Level: "chatty"})
	assert.Error(t, err)

	_, _, err = New(Options{Format: "xml"})
	assert.Error(t, err)
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "run.log")
	log, closer, err := New(Options{File: path, MaxSizeMB: 1, MaxBackups: 2, Output: &bytes.Buffer{}})
	require.NoError(t, err)

	log.Info("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestRotatingFile_Rotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	rf, err := NewRotatingFile(path, 10, 2)
	require.NoError(t, err)

	for _, chunk := range []string{"aaaaaaaa\n", "bbbbbbbb\n", "cccccccc\n", "dddddddd\n"} {
		_, err := rf.Write([]byte(chunk))
		require.NoError(t, err)
	}
	require.NoError(t, rf.Close())

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "dddddddd\n", string(current))

	first, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, "cccccccc\n", string(first))

	second, err := os.ReadFile(path + ".2")
	require.NoError(t, err)
	assert.Equal(t, "bbbbbbbb\n", string(second))

	_, err = os.Stat(path + ".3")
	assert.True(t, os.IsNotExist(err), "only maxBackups files are kept")
}

func TestRotatingFile_NoBackupsTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	rf, err := NewRotatingFile(path, 5, 0)
	require.NoError(t, err)

	_, err = rf.Write([]byte("12345"))
	require.NoError(t, err)
	_, err = rf.Write([]byte("678"))
	require.NoError(t, err)
	require.NoError(t, rf.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "678", string(data))
}

func TestRotatingFile_WriteAfterClose(t *testing.T) {
	rf, err := NewRotatingFile(filepath.Join(t.TempDir(), "app.log"), 0, 0)
	require.NoError(t, err)
	require.NoError(t, rf.Close())

	_, err = rf.Write([]byte("late"))
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.NoError(t, rf.Close())
}

func TestCorrelationID(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, CorrelationID(ctx))

	ctx, id := EnsureCorrelationID(ctx)
	require.NotEmpty(t, id)
	assert.Equal(t, id, CorrelationID(ctx))

	same, again := EnsureCorrelationID(ctx)
	assert.Equal(t, id, again)
	assert.Equal(t, ctx, same)
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Options{Format: "json", Output: &buf})
	require.NoError(t, err)

	ctx := WithCorrelationID(context.Background(), "run-42")
	FromContext(ctx, log).Info("tagged")
	FromContext(context.Background(), log).Info("untagged")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"correlation_id":"run-42"`)
	assert.NotContains(t, lines[1], CorrelationField)
}
