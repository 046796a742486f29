package source

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"geonames-sync/internal/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const admin1 = "# comment\nFR.A1\tAlsace\tAlsace\t3038033\n\nDE.01\tBaden-Württemberg\tBaden-Wuerttemberg\t2953481\n"

func collect(t *testing.T, src Source) ([]int, []string) {
	t.Helper()
	var lines []int
	var texts []string
	err := Scan(context.Background(), src, func(line int, text string) error {
		lines = append(lines, line)
		texts = append(texts, text)
		return nil
	})
	require.NoError(t, err)
	return lines, texts
}

func TestScanSkipsCommentsAndBlankLines(t *testing.T) {
	lines, texts := collect(t, FromString("admin1", geo.KindRegion, admin1))
	assert.Equal(t, []int{2, 4}, lines)
	assert.Len(t, texts, 2)
}

func TestOpenPlainFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "admin1CodesASCII.txt")
	require.NoError(t, os.WriteFile(path, []byte(admin1), 0o644))

	src, err := Open(path, geo.KindRegion)
	require.NoError(t, err)
	assert.Equal(t, "admin1CodesASCII.txt", src.Name)
	assert.Equal(t, 2, src.Total)
	_, texts := collect(t, src)
	assert.Len(t, texts, 2)
}

// 头部注释与空行不计入 Total，进度最终可达 100%
func TestTotalCountsOnlyDataLines(t *testing.T) {
	text := "# GeoNames countryInfo\n#\n# ISO\tISO3\n\nAD\tAND\nFR\tFRA\n   \nDE\tDEU"
	src := FromString("countryInfo.txt", geo.KindCountry, text)
	lines, _ := collect(t, src)
	assert.Equal(t, 3, src.Total)
	assert.Len(t, lines, src.Total)

	path := filepath.Join(t.TempDir(), "countryInfo.txt")
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	opened, err := Open(path, geo.KindCountry)
	require.NoError(t, err)
	assert.Equal(t, 3, opened.Total)
}

func TestOpenZipPicksMatchingEntry(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cities15000.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	w, err := zw.Create("readme.txt")
	require.NoError(t, err)
	_, _ = w.Write([]byte("not data\n"))
	w, err = zw.Create("cities15000.txt")
	require.NoError(t, err)
	_, _ = w.Write([]byte("a\nb\nc"))
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	src, err := Open(path, geo.KindCity)
	require.NoError(t, err)
	assert.Equal(t, 3, src.Total)
	_, texts := collect(t, src)
	assert.Equal(t, []string{"a", "b", "c"}, texts)
}

func TestOpenMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope.txt"), geo.KindCountry)
	assert.Error(t, err)
}
