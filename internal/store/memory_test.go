package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"geonames-sync/internal/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 更新自然键或 geoname_id 后，旧键不再命中，新键可查
func TestLookupsFollowKeyChanges(t *testing.T) {
	forEachStore(t, func(t *testing.T, s geo.Store) {
		ctx := context.Background()
		fr, a1 := seedFrance(t, s)

		a1.Name, a1.GeonameCode, a1.GeonameID = "Grand Est", "44", geo.Int64(11071622)
		require.NoError(t, s.UpdateRegion(ctx, a1))
		_, err := s.RegionByName(ctx, fr.ID, "Alsace")
		assert.ErrorIs(t, err, geo.ErrNotFound)
		_, err = s.RegionByCode(ctx, fr.ID, "A1")
		assert.ErrorIs(t, err, geo.ErrNotFound)
		_, err = s.RegionByGeonameID(ctx, 3038033)
		assert.ErrorIs(t, err, geo.ErrNotFound)
		got, err := s.RegionByCode(ctx, fr.ID, "44")
		require.NoError(t, err)
		assert.Equal(t, a1.ID, got.ID)

		c := geo.NewCity()
		c.Name, c.CountryID, c.RegionID, c.GeonameID = "Strasbourg", fr.ID, geo.Int64(a1.ID), geo.Int64(2973783)
		require.NoError(t, s.CreateCity(ctx, c))
		c.RegionID = nil
		require.NoError(t, s.UpdateCity(ctx, c))

		dup := geo.NewCity()
		dup.Name, dup.CountryID, dup.RegionID = "Strasbourg", fr.ID, geo.Int64(a1.ID)
		require.NoError(t, s.CreateCity(ctx, dup), "old (region, name) key is released")

		got2, err := s.CityByName(ctx, fr.ID, geo.Int64(a1.ID), "Strasbourg")
		require.NoError(t, err)
		assert.Equal(t, dup.ID, got2.ID)
		got2, err = s.CityByName(ctx, fr.ID, nil, "Strasbourg")
		require.NoError(t, err)
		assert.Equal(t, c.ID, got2.ID)

		other := geo.NewCity()
		other.Name, other.CountryID, other.GeonameID = "Colmar", fr.ID, geo.Int64(2973783)
		assert.Error(t, s.CreateCity(ctx, other), "geoname_id stays unique")
	})
}

func TestMemoryCreateFailureLeavesIndexesClean(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	fr, _ := seedFrance(t, m)

	dup := geo.NewCountry()
	dup.Code2, dup.Name = "FR", "Other France"
	require.Error(t, m.CreateCountry(ctx, dup))
	got, err := m.CountryByCode(ctx, "FR")
	require.NoError(t, err)
	assert.Equal(t, fr.ID, got.ID)

	ok := geo.NewCountry()
	ok.Code2, ok.Name = "DE", "Other France"
	require.NoError(t, m.CreateCountry(ctx, ok), "name of the rejected row was never indexed")
}

// 演练导入按行数线性增长：全表扫描实现下 6 万行需要数分钟
func TestMemoryLargeImportStaysFast(t *testing.T) {
	if testing.Short() {
		t.Skip("large import")
	}
	ctx := context.Background()
	m := NewMemory()
	fr, a1 := seedFrance(t, m)

	const n = 60000
	start := time.Now()
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("Place %d", i)
		gid := int64(5000000 + i)
		_, err := m.CityByGeonameID(ctx, gid)
		require.ErrorIs(t, err, geo.ErrNotFound)
		_, err = m.CityByName(ctx, fr.ID, geo.Int64(a1.ID), name)
		require.ErrorIs(t, err, geo.ErrNotFound)

		c := geo.NewCity()
		c.Name, c.CountryID, c.RegionID, c.GeonameID = name, fr.ID, geo.Int64(a1.ID), geo.Int64(gid)
		require.NoError(t, m.CreateCity(ctx, c))
	}
	for i := 0; i < n; i++ {
		_, err := m.EntityByGeonameID(ctx, geo.KindCity, int64(5000000+i))
		require.NoError(t, err)
	}
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Len(t, m.Cities(), n)
}
