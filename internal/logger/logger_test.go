package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultLogger(t *testing.T) {
	_, err := New(NewDefaultFileLogConfig())
	require.NoError(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{"DEBUG", zerolog.DebugLevel, false},
		{" warn ", zerolog.WarnLevel, false},
		{"loud", zerolog.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, ParseFormat("JSON"))
	assert.Equal(t, FormatText, ParseFormat("text"))
	assert.Equal(t, FormatConsole, ParseFormat("console"))
	assert.Equal(t, FormatConsole, ParseFormat("fancy"))
	assert.Equal(t, "json", FormatJSON.String())
}

func TestBuild_JSONConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log, err := NewLoggerBuilder().
		WithConfig(FileLogConfig{LogFormat: "json", LogLevel: "warn"}).
		WithConsoleOutput(&buf).
		Build()
	require.NoError(t, err)

	log.Info().Msg("hidden")
	log.Warn().Str("component", "Test").Msg("shown")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)
	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "Test", entry["component"])
	assert.Contains(t, entry, "time")
}

func TestBuild_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ogpreview.log")
	var console bytes.Buffer
	log, err := NewLoggerBuilder().
		WithConfig(FileLogConfig{LogFile: path, LogFormat: "json"}).
		WithConsoleOutput(&console).
		Build()
	require.NoError(t, err)

	log.Info().Msg("to file")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"to file"`)
	assert.Contains(t, console.String(), "to file")
}

func TestFromFileConfig_Defaults(t *testing.T) {
	lc := FromFileConfig(FileLogConfig{LogLevel: "nonsense"})
	assert.Equal(t, zerolog.InfoLevel, lc.Level)
	assert.Equal(t, DefaultMaxLogSizeMB, lc.MaxSizeMB)
	assert.Equal(t, DefaultMaxLogBackups, lc.MaxBackups)
	assert.False(t, lc.EnableFile)
}
