package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WithValidConfig(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:   "json stdout",
			config: Config{Level: "debug", Format: "json", Output: "stdout"},
		},
		{
			name:   "text stderr",
			config: Config{Level: "info", Format: "text", Output: "stderr"},
		},
		{
			name:   "empty output defaults to stderr",
			config: Config{Level: "info", Format: "text"},
		},
		{
			name:   "file in nested directory",
			config: Config{Level: "warn", Format: "json", Output: filepath.Join(tempDir, "logs", "trash-expiry.log")},
		},
		{
			name:    "invalid level",
			config:  Config{Level: "verbose", Format: "json", Output: "stdout"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			config:  Config{Level: "debug", Format: "xml", Output: "stdout"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.config)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	tests := []struct {
		level     string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{level: "debug", wantDebug: true, wantInfo: true, wantWarn: true},
		{level: "info", wantInfo: true, wantWarn: true},
		{level: "warn", wantWarn: true},
		{level: "error"},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			log, err := NewWithWriter(buf, tt.level, "json")
			require.NoError(t, err)

			log.Debug("debug message")
			log.Info("info message")
			log.Warn("warn message")
			log.Error("error message", nil)

			output := buf.String()
			assert.Equal(t, tt.wantDebug, strings.Contains(output, "debug message"))
			assert.Equal(t, tt.wantInfo, strings.Contains(output, "info message"))
			assert.Equal(t, tt.wantWarn, strings.Contains(output, "warn message"))
			assert.Contains(t, output, "error message")
		})
	}
}

func TestLogger_ErrorIncludesCause(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := NewWithWriter(buf, "info", "json")
	require.NoError(t, err)

	log.Error("deletion failed", errors.New("permission denied"), Field{Key: "path", Value: "/tmp/x"})

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "deletion failed", record["msg"])
	assert.Equal(t, "permission denied", record["error"])
	assert.Equal(t, "/tmp/x", record["path"])
}

func TestLogger_With(t *testing.T) {
	buf := &bytes.Buffer{}
	log, err := NewWithWriter(buf, "info", "text")
	require.NoError(t, err)

	log.With(Field{Key: "run_id", Value: "abc"}).InfoCtx(context.Background(), "pass finished")

	assert.Contains(t, buf.String(), "run_id=abc")
	assert.Contains(t, buf.String(), "pass finished")
}

func TestParseLevel(t *testing.T) {
	lvl, ok := ParseLevel("WARNING")
	assert.True(t, ok)
	assert.Equal(t, slog.LevelWarn, lvl)

	_, ok = ParseLevel("loud")
	assert.False(t, ok)
}

func TestDiscard(t *testing.T) {
	log := Discard()
	assert.False(t, log.Enabled(slog.LevelDebug))
	log.Info("nothing happens")
}
