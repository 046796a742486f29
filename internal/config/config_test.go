package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, []string{"es", "en", "pt", "de", "pl", "abbr"}, c.TranslationLanguages)
	assert.Equal(t, []string{"PPL"}, c.CityMarkers)
	assert.True(t, c.PreferredNames)
	assert.False(t, c.UpdateOnly)
	assert.Equal(t, "fr", c.NativeLanguages["fr"])
	assert.Equal(t, "de", c.NativeLanguages["at"])

	// 默认表必须是副本
	c.NativeLanguages["fr"] = "xx"
	assert.Equal(t, "fr", DefaultNativeLanguages["fr"])
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("GEONAMES_DATA_DIR", "/srv/geonames")
	t.Setenv("GEONAMES_TRANSLATION_LANGUAGES", "en, fr")
	t.Setenv("GEONAMES_NOINSERT", "true")
	t.Setenv("GEONAMES_PREFERRED_NAMES", "0")
	c := Default()
	require.NoError(t, c.ApplyEnv())
	assert.Equal(t, "/srv/geonames", c.DataDir)
	assert.Equal(t, []string{"en", "fr"}, c.TranslationLanguages)
	assert.True(t, c.UpdateOnly)
	assert.False(t, c.PreferredNames)

	t.Setenv("GEONAMES_NOINSERT", "maybe")
	assert.Error(t, c.ApplyEnv())
}

func TestLoadFileMergesNativeLanguages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "geonames.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
data_dir: ./dumps
translation_languages: [en]
native_languages:
  CH: fr
  zz: eo
city_types: [PPLC]
preferred_names: false
files:
  city: [cities500.zip]
`), 0o644))
	c := Default()
	require.NoError(t, c.LoadFile(path))
	assert.Equal(t, "./dumps", c.DataDir)
	assert.Equal(t, []string{"en"}, c.TranslationLanguages)
	assert.Equal(t, "fr", c.NativeLanguages["ch"])
	assert.Equal(t, "eo", c.NativeLanguages["zz"])
	assert.Equal(t, "es", c.NativeLanguages["ar"], "untouched entries survive")
	assert.Equal(t, []string{"PPLC"}, c.CityMarkers)
	assert.False(t, c.PreferredNames)
	assert.Equal(t, []string{"cities500.zip"}, c.Files["city"])
}

func TestLoadFileRejectsBadYAML(t *testing.T) {
	c := Default()
	assert.Error(t, c.apply([]byte("data_dir: [")))
}
