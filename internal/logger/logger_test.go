package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/dbsmedya/shopsync/internal/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.LoggingConfig
	}{
		{"json to stderr", config.LoggingConfig{Level: "info", Format: "json", Output: "stderr"}},
		{"text to stdout", config.LoggingConfig{Level: "debug", Format: "text", Output: "stdout"}},
		{"empty config", config.LoggingConfig{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(&tt.cfg)
			require.NoError(t, err)
			require.NotNil(t, log)
			log.Infow("test message", "key", "value")
		})
	}
}

func TestNewDefault(t *testing.T) {
	log := NewDefault()
	require.NotNil(t, log)
	log.Infow("default logger works")
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shopsync.log")
	log, err := New(&config.LoggingConfig{Level: "info", Format: "json", Output: path})
	require.NoError(t, err)

	log.Infow("written to file", "entity", "orders")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "written to file")
	assert.Contains(t, string(data), `"entity":"orders"`)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"", zapcore.InfoLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseLevel(tt.in), tt.in)
	}
}

func TestWithContext(t *testing.T) {
	log := NewDefault()

	withEntity := log.WithEntity("orders")
	require.NotNil(t, withEntity)
	assert.NotSame(t, log, withEntity)

	withStore := log.WithStore("acme-shop")
	require.NotNil(t, withStore)

	withFields := log.WithFields(map[string]interface{}{"job_id": "42", "mode": "bulk"})
	require.NotNil(t, withFields)
	withFields.Infow("context attached")
}
