// cmd/server/main_test.go
package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/jason-s-yu/happyfamilies/internal/catalog"
	"github.com/jason-s-yu/happyfamilies/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlagsOverrideConfig(t *testing.T) {
	cfg := config.Config{Port: "3001", LogLevel: "info", LogFormat: "text"}
	cmd := newCmd(&cfg)
	require.NoError(t, cmd.ParseFlags([]string{"--port", "9000", "--log_level", "debug"}))

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestInvalidLogLevelIsRejected(t *testing.T) {
	cfg := config.Config{Port: "3001", LogLevel: "info", LogFormat: "text"}
	cmd := newCmd(&cfg)
	cmd.SetArgs([]string{"families", "list", "--log-level", "loud"})
	cmd.SetOut(&bytes.Buffer{})
	assert.Error(t, cmd.Execute())
}

func TestFamiliesListUsesMemoryCatalog(t *testing.T) {
	cfg := config.Config{Port: "3001", LogLevel: "error", LogFormat: "text"}
	cmd := newCmd(&cfg)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"families", "list"})
	require.NoError(t, cmd.Execute())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, len(catalog.DefaultFamilies)+1)
	assert.True(t, strings.HasPrefix(lines[0], "ID"))
	assert.True(t, strings.HasPrefix(lines[1], "baker"))
}

func TestFamiliesGenerateNeedsKey(t *testing.T) {
	cfg := config.Config{Port: "3001", LogLevel: "error", LogFormat: "text"}
	cmd := newCmd(&cfg)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"families", "generate", "--count", "2"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestHistorianNeedsBackends(t *testing.T) {
	cfg := config.Config{Port: "3001", LogLevel: "error", LogFormat: "text"}
	cmd := newCmd(&cfg)
	cmd.SetArgs([]string{"historian"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DATABASE_URL")
}
