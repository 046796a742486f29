package identity

import (
	"context"
	"testing"

	"geonames-sync/internal/geo"
	"geonames-sync/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T) (*store.Memory, int64, int64) {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()
	fr := geo.NewCountry()
	fr.Code2, fr.Name = "FR", "France"
	require.NoError(t, mem.CreateCountry(ctx, fr))
	a1 := geo.NewRegion()
	a1.Name, a1.GeonameCode, a1.CountryID = "Alsace", "A1", fr.ID
	require.NoError(t, mem.CreateRegion(ctx, a1))
	return mem, fr.ID, a1.ID
}

func TestCountryKeyCachesHits(t *testing.T) {
	mem, frID, _ := seed(t)
	r := New(mem)
	ctx := context.Background()

	id, err := r.CountryKey(ctx, "FR")
	require.NoError(t, err)
	assert.Equal(t, frID, id)
	n, _ := r.Size()
	assert.Equal(t, 1, n)

	_, err = r.CountryKey(ctx, "ZZ")
	assert.ErrorIs(t, err, geo.ErrUnknownCountry)
	n, _ = r.Size()
	assert.Equal(t, 1, n, "misses must not be cached")
}

func TestRegionKey(t *testing.T) {
	mem, _, a1ID := seed(t)
	r := New(mem)
	ctx := context.Background()

	id, err := r.RegionKey(ctx, "FR", "A1")
	require.NoError(t, err)
	assert.Equal(t, a1ID, id)

	_, err = r.RegionKey(ctx, "FR", "B2")
	assert.ErrorIs(t, err, geo.ErrUnknownParent)

	_, err = r.RegionKey(ctx, "ZZ", "A1")
	assert.ErrorIs(t, err, geo.ErrUnknownParent)
}

func TestReleaseFlushesCaches(t *testing.T) {
	mem, _, _ := seed(t)
	r := New(mem)
	ctx := context.Background()
	_, err := r.RegionKey(ctx, "FR", "A1")
	require.NoError(t, err)
	c, g := r.Size()
	assert.Equal(t, 1, c)
	assert.Equal(t, 1, g)

	r.Release()
	c, g = r.Size()
	assert.Zero(t, c)
	assert.Zero(t, g)
}
