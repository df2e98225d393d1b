// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/intel-engine/pkg/types"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  map[string]string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, OllamaAPIKey, "  ok_abc123  \n")
				writeFile(t, dir, OpenSkyUsername, "spotter\n")
				return dir
			},
			want: map[string]string{
				OllamaAPIKey:    "ok_abc123",
				OpenSkyUsername: "spotter",
			},
		},
		{
			name: "missing directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files, dotfiles and directories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, OpenSkyPassword, "pw")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "blank-key", "  \n\t ")
				writeFile(t, dir, ".hidden-key", "secret")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{OpenSkyPassword: "pw"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApply(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.Flight.Username = "from-config"

	Apply(&cfg, map[string]string{
		OllamaAPIKey:    "key",
		OpenSkyUsername: "from-secrets",
		OpenSkyPassword: "pw",
		"unrelated":     "x",
	})

	assert.Equal(t, "key", cfg.Oracle.APIKey)
	assert.Equal(t, "from-config", cfg.Flight.Username)
	assert.Equal(t, "pw", cfg.Flight.Password)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
