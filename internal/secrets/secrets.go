// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys from a directory of plain-text files and
// from an optional .env file. In the directory, each file is one secret: the
// filename is the key name and the trimmed contents are the value.
//
// Supported keys: anthropic-api-key, gemini-api-key.
package secrets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/pdiddy/answer-engine/internal/logging"
	"github.com/pdiddy/answer-engine/pkg/types"
)

// Key names.
const (
	AnthropicAPIKey = "anthropic-api-key"
	GeminiAPIKey    = "gemini-api-key"
)

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files are logged and skipped.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	logger = logging.OrNop(logger)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// LoadDotEnv reads a .env file and returns its entries under normalized key
// names, so ANTHROPIC_API_KEY becomes anthropic-api-key. A missing file
// yields an empty map. The process environment is not modified.
func LoadDotEnv(path string) (map[string]string, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading env file %s: %w", path, err)
	}

	out := make(map[string]string, len(env))
	for k, v := range env {
		if v = strings.TrimSpace(v); v != "" {
			out[Normalize(k)] = v
		}
	}
	return out, nil
}

// LoadAll merges the .env file at envPath with the secrets directory dir.
// Directory files take precedence over .env entries.
func LoadAll(dir, envPath string, logger *zap.Logger) (map[string]string, error) {
	merged, err := LoadDotEnv(envPath)
	if err != nil {
		return nil, err
	}
	files, err := Load(dir, logger)
	if err != nil {
		return nil, err
	}
	for k, v := range files {
		merged[k] = v
	}
	return merged, nil
}

// Normalize converts an environment variable name to the key-file form.
func Normalize(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "_", "-")
}

// APIKeyFor returns the key for provider from s, falling back to the
// provider's conventional environment variable.
func APIKeyFor(provider string, s map[string]string) string {
	var key, env string
	switch provider {
	case types.ProviderGemini:
		key, env = GeminiAPIKey, "GEMINI_API_KEY"
	default:
		key, env = AnthropicAPIKey, "ANTHROPIC_API_KEY"
	}
	if v := s[key]; v != "" {
		return v
	}
	return strings.TrimSpace(os.Getenv(env))
}
