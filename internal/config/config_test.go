package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/cabinet/internal/core/asset"
	"github.com/zeusync/cabinet/internal/core/observability/log"
)

func TestLoadOverridesDefaults(t *testing.T) {
	c, err := Load(strings.NewReader(`
log:
  level: debug
  file: /tmp/cabinet.log
cabinet:
  preserve_unknown_classes: true
  search_paths: [assets, shared]
  load_workers: 2
`))
	require.NoError(t, err)

	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, 100, c.Log.MaxSizeMB, "unset keys keep defaults")
	assert.Equal(t, []string{"assets", "shared"}, c.Cabinet.SearchPaths)
	assert.Equal(t, 2, c.Cabinet.LoadWorkers)
	assert.Equal(t, asset.PreserveUnknown, c.UnknownClasses())

	opts := c.LogOptions()
	assert.Equal(t, log.LevelDebug, opts.Level)
	assert.Equal(t, "/tmp/cabinet.log", opts.File)
}

func TestLoadEmptyIsDefault(t *testing.T) {
	c, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
	assert.Equal(t, asset.RejectUnknown, c.UnknownClasses())
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown key":   "cabinet:\n  workers: 3\n",
		"bad level":     "log:\n  level: loud\n",
		"zero workers":  "cabinet:\n  load_workers: 0\n",
		"negative size": "log:\n  max_size_mb: -1\n",
		"not yaml":      "log: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cabinet.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: warn\n"), 0o600))

	c, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", c.Log.Level)

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
