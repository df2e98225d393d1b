// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/intel-engine/pkg/types"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	require.NoError(t, SetDefaults(v, types.DefaultConfig()))

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultConfig(), cfg)
}

func TestInitReadsFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intel-engine.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
store:
  data_dir: /var/lib/intel
oracle:
  model: mistral:7b
  classify_timeout: 90s
sweep:
  keywords: [taiwan, strait]
  locations:
    - Kaohsiung
search:
  timeout: 5s
  max_results: 25
cyber:
  feeds:
    - name: Sec Blog
      url: https://sec.example/feed
`), 0o644))
	t.Setenv("INTEL_ENGINE_ORACLE_HOST", "http://gpu-box:11434")
	t.Setenv("INTEL_ENGINE_BRIEF_HOURS", "48")

	v := viper.New()
	used, err := Init(v, path)
	require.NoError(t, err)
	assert.Equal(t, path, used)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/intel", cfg.Store.DataDir)
	assert.Equal(t, "intel.db", cfg.Store.DBName, "untouched keys keep defaults")
	assert.Equal(t, "mistral:7b", cfg.Oracle.Model)
	assert.Equal(t, 2, cfg.Oracle.MaxRetries)
	assert.Equal(t, 90*time.Second, cfg.Oracle.ClassifyTimeout)
	assert.Equal(t, "http://gpu-box:11434", cfg.Oracle.Host)
	assert.Equal(t, 5*time.Second, cfg.Search.Timeout)
	assert.Equal(t, types.BrowserUserAgent, cfg.Search.UserAgent)
	assert.Equal(t, 25, cfg.Search.MaxResults)
	assert.Equal(t, 48, cfg.Brief.Hours)
	assert.Equal(t, []types.Feed{{Name: "Sec Blog", URL: "https://sec.example/feed"}}, cfg.Cyber.Feeds)
	assert.Equal(t, []string{"taiwan", "strait"}, cfg.Sweep.Keywords)
	assert.Equal(t, []string{"Kaohsiung"}, cfg.Sweep.Locations)
	assert.Equal(t, types.DefaultConfig().Sweep.Domains, cfg.Sweep.Domains)
}

func TestInitWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	v := viper.New()
	used, err := Init(v, "")
	require.NoError(t, err)
	assert.Empty(t, used)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultFeeds(), cfg.Cyber.Feeds)
}

func TestInitMissingExplicitFile(t *testing.T) {
	_, err := Init(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := types.DefaultConfig()
	require.NoError(t, Validate(cfg))

	bad := types.DefaultConfig()
	bad.Store.DBName = ""
	bad.Geo.CloudMax = 150
	bad.Cyber.Feeds = append(bad.Cyber.Feeds, types.Feed{Name: "no url"})
	bad.Sweep.Domains = []string{"OSINT", "HUMINT"}
	err := Validate(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.data_dir")
	assert.Contains(t, err.Error(), "cloud_max")
	assert.Contains(t, err.Error(), "cyber.feeds[7]")
	assert.Contains(t, err.Error(), `sweep.domains: unknown category "HUMINT"`)
}
