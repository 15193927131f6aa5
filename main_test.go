package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/everforgeworks/factory-sim/internal/game"
)

func TestCatalogCommand(t *testing.T) {
	dir := t.TempDir()
	catalogPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte("Pump:\n  max_output: 75\n"), 0o644))

	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("catalog:\n  path: "+catalogPath+"\n"), 0o644))

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"catalog", "--config", configPath})
	require.NoError(t, cmd.Execute())

	cat, err := game.ParseCatalog(out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, 75.0, cat[game.Pump].MaxOutput)
	assert.Equal(t, 30.0, cat[game.Refinery].MaxInput)
}
