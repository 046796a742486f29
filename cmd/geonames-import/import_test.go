package main

import (
	"os"
	"path/filepath"
	"testing"

	"geonames-sync/internal/altnames"
	"geonames-sync/internal/config"
	"geonames-sync/internal/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSourcesSkipsMissingFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "countryInfo.txt"), []byte("FR\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra-cities.txt"), []byte("a\nb\n"), 0o644))

	cfg := config.Default()
	cfg.DataDir = dir
	cfg.Files["city"] = []string{"extra-cities.txt"}
	srcs, err := resolveSources(cfg)
	require.NoError(t, err)
	require.Len(t, srcs, 2)
	assert.Equal(t, geo.KindCountry, srcs[0].Kind)
	assert.Equal(t, geo.KindCity, srcs[1].Kind)
	assert.Equal(t, 2, srcs[1].Total)
}

func TestCheckpointFor(t *testing.T) {
	cfg := config.Default()
	cp, err := checkpointFor(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, cp)

	cfg.Checkpoint = "/tmp/x.gob"
	cp, err = checkpointFor(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, altnames.FileCheckpoint{Path: "/tmp/x.gob"}, cp)

	cfg.Checkpoint = config.CheckpointRedis
	_, err = checkpointFor(cfg, nil)
	assert.Error(t, err)
}
