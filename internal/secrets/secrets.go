// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file is one secret: the filename is the key and the trimmed
// contents are the value.
//
// Recognized keys: ollama-api-key, opensky-username, opensky-password.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/intel-engine/pkg/types"
)

// Key names understood by Apply.
const (
	OllamaAPIKey    = "ollama-api-key"
	OpenSkyUsername = "opensky-username"
	OpenSkyPassword = "opensky-password"
)

// Load reads all regular, non-hidden files in dir. A missing directory is
// not an error and yields an empty map. Unreadable files are logged and
// skipped.
func Load(dir string, logger *zap.Logger) (map[string]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("name", name), zap.Error(err))
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			secrets[name] = value
		}
	}
	return secrets, nil
}

// Apply copies recognized secrets into cfg. Values already set in cfg (from
// the config file or environment) win.
func Apply(cfg *types.Config, secrets map[string]string) {
	setIfEmpty(&cfg.Oracle.APIKey, secrets[OllamaAPIKey])
	setIfEmpty(&cfg.Flight.Username, secrets[OpenSkyUsername])
	setIfEmpty(&cfg.Flight.Password, secrets[OpenSkyPassword])
}

func setIfEmpty(dst *string, v string) {
	if *dst == "" {
		*dst = v
	}
}
