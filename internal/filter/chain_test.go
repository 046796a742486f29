package filter

import (
	"errors"
	"testing"

	"geonames-sync/internal/geo"
	"geonames-sync/internal/source"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cityRow(feature, country string) source.Record {
	rec := make(source.Record, 19)
	rec[source.CityFeatureCode] = feature
	rec[source.CityCountryCode] = country
	return rec
}

func TestPopulatedPlaces(t *testing.T) {
	chain := Default(nil)
	cases := []struct {
		feature string
		ok      bool
	}{
		{"PPL", true},
		{"PPLA2", true},
		{"PPLC", true},
		{"ADM2", false},
		{"", false},
	}
	for _, tc := range cases {
		err := chain.Apply(geo.KindCity, cityRow(tc.feature, "FR"))
		if tc.ok {
			assert.NoError(t, err, tc.feature)
		} else {
			assert.True(t, errors.Is(err, geo.ErrRejectedRecord), tc.feature)
		}
	}
	// 非城市行不受影响
	assert.NoError(t, chain.Apply(geo.KindRegion, source.Record{"FR.A1", "Alsace", "Alsace", ""}))
}

func TestChainShortCircuitsInOrder(t *testing.T) {
	var calls []string
	chain := NewChain()
	require.NoError(t, chain.Register(func(geo.Kind, source.Record) error {
		calls = append(calls, "first")
		return errors.New("nope")
	}))
	require.NoError(t, chain.Register(func(geo.Kind, source.Record) error {
		calls = append(calls, "second")
		return nil
	}))
	err := chain.Apply(geo.KindCity, cityRow("PPL", "FR"))
	assert.True(t, errors.Is(err, geo.ErrRejectedRecord))
	assert.Equal(t, []string{"first"}, calls)
}

func TestRegisterAfterSeal(t *testing.T) {
	chain := Default(nil)
	chain.Seal()
	err := chain.Register(CountryAllowList("FR"))
	assert.ErrorIs(t, err, ErrSealed)
}

func TestCountryAllowList(t *testing.T) {
	p := CountryAllowList("fr")
	assert.NoError(t, p(geo.KindCity, cityRow("PPL", "FR")))
	assert.ErrorIs(t, p(geo.KindCity, cityRow("PPL", "DE")), geo.ErrRejectedRecord)
	assert.NoError(t, p(geo.KindRegion, source.Record{"FR.A1", "Alsace", "Alsace", ""}))
	assert.ErrorIs(t, p(geo.KindRegion, source.Record{"DE.01", "BW", "BW", ""}), geo.ErrRejectedRecord)
	assert.NoError(t, p(geo.KindCountry, source.Record{"DE"}))
}
