// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T) string
		want   map[string]string
		errMsg string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "anthropic-api-key", "  ak_abc123  \n")
				writeFile(t, dir, "gemini-api-key", "gk_xyz789\n")
				return dir
			},
			want: map[string]string{
				"anthropic-api-key": "ak_abc123",
				"gemini-api-key":    "gk_xyz789",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "anthropic-api-key", "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: map[string]string{
				"anthropic-api-key": "valid-key",
			},
		},
		{
			name: "skips dotfiles",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, "gemini-api-key", "gk_real")
				return dir
			},
			want: map[string]string{
				"gemini-api-key": "gk_real",
			},
		},
		{
			name: "skips subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "anthropic-api-key", "ak_123")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{
				"anthropic-api-key": "ak_123",
			},
		},
		{
			name: "returns empty map for empty directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.setup(t)
			got, err := Load(dir, nil)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read files without permission bits")
	}
	dir := t.TempDir()
	writeFile(t, dir, "good-key", "value123")

	// Create a file then remove read permission.
	badPath := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	core, logs := observer.New(zapcore.WarnLevel)
	got, err := Load(dir, zap.New(core))
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("could not read secret").Len())
	// The good file should still be returned; the bad file is skipped with a warning.
	assert.Equal(t, "value123", got["good-key"])
	_, hasBad := got["bad-key"]
	assert.False(t, hasBad, "unreadable file should not appear in result")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".env", "ANTHROPIC_API_KEY=ak_env\n# comment\nGEMINI_API_KEY=\"gk_env\"\nEMPTY=\n")

	got, err := LoadDotEnv(filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"anthropic-api-key": "ak_env",
		"gemini-api-key":    "gk_env",
	}, got)
}

func TestLoadDotEnvMissingFile(t *testing.T) {
	got, err := LoadDotEnv(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadAllDirectoryWins(t *testing.T) {
	root := t.TempDir()
	secretsDir := filepath.Join(root, ".secrets")
	require.NoError(t, os.Mkdir(secretsDir, 0o755))
	writeFile(t, secretsDir, "anthropic-api-key", "ak_file")
	writeFile(t, root, ".env", "ANTHROPIC_API_KEY=ak_env\nGEMINI_API_KEY=gk_env\n")

	got, err := LoadAll(secretsDir, filepath.Join(root, ".env"), nil)
	require.NoError(t, err)
	assert.Equal(t, "ak_file", got[AnthropicAPIKey])
	assert.Equal(t, "gk_env", got[GeminiAPIKey])
}

func TestAPIKeyFor(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "ak_process")
	t.Setenv("GEMINI_API_KEY", "")

	assert.Equal(t, "ak_map", APIKeyFor("claude", map[string]string{AnthropicAPIKey: "ak_map"}))
	assert.Equal(t, "ak_process", APIKeyFor("claude", nil))
	assert.Equal(t, "gk_map", APIKeyFor("gemini", map[string]string{GeminiAPIKey: "gk_map"}))
	assert.Empty(t, APIKeyFor("gemini", nil))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "anthropic-api-key", Normalize(" ANTHROPIC_API_KEY "))
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
