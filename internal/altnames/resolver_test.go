package altnames

import (
	"context"
	"path/filepath"
	"testing"

	"geonames-sync/internal/geo"
	"geonames-sync/internal/source"
	"geonames-sync/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	gidFrance = 3017382
	gidAlsace = 3038033
	gidParis  = 2988507
)

func seedStore(t *testing.T) *store.Memory {
	t.Helper()
	ctx := context.Background()
	mem := store.NewMemory()
	fr := geo.NewCountry()
	fr.Code2, fr.Name, fr.GeonameID = "FR", "France", geo.Int64(gidFrance)
	require.NoError(t, mem.CreateCountry(ctx, fr))
	a1 := geo.NewRegion()
	a1.Name, a1.GeonameCode, a1.CountryID, a1.GeonameID = "Alsace", "A1", fr.ID, geo.Int64(gidAlsace)
	require.NoError(t, mem.CreateRegion(ctx, a1))
	paris := geo.NewCity()
	paris.Name, paris.CountryID, paris.GeonameID = "Paris", fr.ID, geo.Int64(gidParis)
	require.NoError(t, mem.CreateCity(ctx, paris))
	return mem
}

func newResolver(t *testing.T, mem *store.Memory, preferred bool) *Resolver {
	t.Helper()
	r, err := New(context.Background(), mem, Options{
		Languages:       []string{"es", "en", "pt", "de", "pl", "abbr"},
		NativeLanguages: map[string]string{"fr": "fr"},
		PreferredNames:  preferred,
	})
	require.NoError(t, err)
	return r
}

func TestWinnerPicksLargestMatchingID(t *testing.T) {
	c := &Candidates{Matching: map[int64]string{10: "Alpha", 55: "Beta"}}
	w, ok := c.Winner()
	require.True(t, ok)
	assert.Equal(t, "Beta", w)

	c.Exact = "Gamma"
	w, ok = c.Winner()
	require.True(t, ok)
	assert.Equal(t, "Gamma", w)

	_, ok = (&Candidates{}).Winner()
	assert.False(t, ok)
}

func TestClassifyUsesDisjointSets(t *testing.T) {
	r := newResolver(t, seedStore(t), true)
	k, ok := r.classify(gidFrance)
	require.True(t, ok)
	assert.Equal(t, geo.KindCountry, k)
	k, ok = r.classify(gidAlsace)
	require.True(t, ok)
	assert.Equal(t, geo.KindRegion, k)
	k, ok = r.classify(gidParis)
	require.True(t, ok)
	assert.Equal(t, geo.KindCity, k)
	_, ok = r.classify(42)
	assert.False(t, ok)
}

func TestAddFiltersRows(t *testing.T) {
	r := newResolver(t, seedStore(t), true)

	assert.False(t, r.Add(Row{ID: 1, GeonameID: 42, Language: "es", Name: "X"}), "unknown entity")
	assert.False(t, r.Add(Row{ID: 2, GeonameID: gidParis, Language: "it", Name: "Parigi"}), "language outside allow-list and not native")
	assert.False(t, r.Add(Row{ID: 3, GeonameID: gidParis, Language: "en", Name: "Paname", Colloquial: true}))
	assert.False(t, r.Add(Row{ID: 4, GeonameID: gidParis, Language: "en", Name: "Lutetia", Historic: true}))
	assert.False(t, r.Add(Row{ID: 5, GeonameID: gidParis, Language: "abbr", Name: "P", Short: true}))
	assert.True(t, r.Add(Row{ID: 6, GeonameID: gidParis, Language: "es", Name: "París"}))
	assert.True(t, r.Add(Row{ID: 7, GeonameID: gidParis, Language: "fr", Name: "Paris"}))

	assert.Equal(t, map[string][]string{"es": {"París"}}, r.names(geo.KindCity, gidParis))
	c := r.State().Candidates[gidParis]
	require.NotNil(t, c)
	assert.Equal(t, map[int64]string{7: "Paris"}, c.Matching)
	assert.Len(t, r.State().Candidates, 1)
}

func TestAddWithoutPreferredNames(t *testing.T) {
	r := newResolver(t, seedStore(t), false)
	assert.False(t, r.Add(Row{ID: 7, GeonameID: gidParis, Language: "fr", Name: "Paris", Preferred: true}))
	assert.Empty(t, r.State().Candidates)
}

func TestCommitWritesWinners(t *testing.T) {
	ctx := context.Background()
	mem := seedStore(t)
	r := newResolver(t, mem, true)
	r.Add(Row{ID: 10, GeonameID: gidFrance, Language: "fr", Name: "Alpha"})
	r.Add(Row{ID: 55, GeonameID: gidFrance, Language: "fr", Name: "Beta"})
	r.Add(Row{ID: 11, GeonameID: gidAlsace, Language: "fr", Name: "Alsace-Lorraine"})
	r.Add(Row{ID: 12, GeonameID: gidAlsace, Language: "fr", Name: "Gamma", Preferred: true})

	// 人工锁定的城市不应被改写
	paris, err := mem.CityByGeonameID(ctx, gidParis)
	require.NoError(t, err)
	paris.UpdatePreferredName = false
	paris.PreferredName = "Ville Lumière"
	require.NoError(t, mem.UpdateCity(ctx, paris))
	r.Add(Row{ID: 13, GeonameID: gidParis, Language: "fr", Name: "Paris", Preferred: true})

	st, err := r.Commit(ctx, mem)
	require.NoError(t, err)
	assert.Equal(t, CommitStats{Updated: 2, Locked: 1}, st)

	fr, err := mem.EntityByGeonameID(ctx, geo.KindCountry, gidFrance)
	require.NoError(t, err)
	assert.Equal(t, "Beta", fr.PreferredName)
	a1, err := mem.EntityByGeonameID(ctx, geo.KindRegion, gidAlsace)
	require.NoError(t, err)
	assert.Equal(t, "Gamma", a1.PreferredName)
	p, err := mem.EntityByGeonameID(ctx, geo.KindCity, gidParis)
	require.NoError(t, err)
	assert.Equal(t, "Ville Lumière", p.PreferredName)

	writes := mem.Writes()
	st, err = r.Commit(ctx, mem)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Unchanged)
	assert.Equal(t, writes, mem.Writes(), "second commit must not write")
}

func TestFileCheckpointRoundTrip(t *testing.T) {
	ctx := context.Background()
	cp := FileCheckpoint{Path: filepath.Join(t.TempDir(), "cp", "translations.gob")}
	_, err := cp.Load(ctx)
	assert.ErrorIs(t, err, ErrNoCheckpoint)

	r := newResolver(t, seedStore(t), true)
	r.Add(Row{ID: 6, GeonameID: gidParis, Language: "es", Name: "París"})
	r.Add(Row{ID: 55, GeonameID: gidFrance, Language: "fr", Name: "Beta"})
	require.NoError(t, cp.Save(ctx, r.State()))

	st, err := cp.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"París"}, st.Names[geo.KindCity][gidParis]["es"])
	w, ok := st.Candidates[gidFrance].Winner()
	require.True(t, ok)
	assert.Equal(t, "Beta", w)
}

func TestParseRow(t *testing.T) {
	rec, err := source.Decode(geo.KindAltName, "1557\t2988507\tFR\tParis\t1\t\t\t")
	require.NoError(t, err)
	row, err := ParseRow(rec)
	require.NoError(t, err)
	assert.Equal(t, Row{ID: 1557, GeonameID: gidParis, Language: "fr", Name: "Paris", Preferred: true}, row)

	rec, err = source.Decode(geo.KindAltName, "x\t2988507\tfr\tParis")
	require.NoError(t, err)
	_, err = ParseRow(rec)
	assert.ErrorIs(t, err, geo.ErrMalformedRecord)
}

func TestRedisSinkKeyAndFields(t *testing.T) {
	s := NewRedisSink(nil, "")
	assert.Equal(t, "geonames:names:city:2988507", s.Key(geo.KindCity, gidParis))
	fields, err := hashFields(map[string][]string{"es": {"París"}, "en": nil})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"es": `["París"]`}, fields)
}
