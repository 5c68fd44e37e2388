package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"bogus", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseLevel(tt.in))
		})
	}
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zerolog.InfoLevel, false)
	l.Debug().Msg("hidden")
	l.Info().Str("emotion", "happy").Msg("recommended")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "recommended", entry["message"])
	assert.Equal(t, "happy", entry["emotion"])
	assert.NotContains(t, entry, "caller")
}

func TestNew_ConsoleDebugHasCaller(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, zerolog.DebugLevel, true)
	l.Debug().Msg("details")
	assert.Contains(t, buf.String(), "details")
	assert.Contains(t, buf.String(), "logger_test.go")
}

func TestInit_File(t *testing.T) {
	orig := zlog.Logger
	level := zerolog.GlobalLevel()
	t.Cleanup(func() {
		zlog.Logger = orig
		zerolog.SetGlobalLevel(level)
	})

	path := filepath.Join(t.TempDir(), "moodbox.log")
	closer, err := Init(Config{Output: path, Level: "info"})
	require.NoError(t, err)
	zlog.Info().Msg("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"to file"`)

	_, err = Init(Config{Output: filepath.Join(t.TempDir(), "missing", "x.log")})
	assert.Error(t, err)
}
