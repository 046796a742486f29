package geo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToASCII(t *testing.T) {
	cases := map[string]string{
		"München":           "Munchen",
		"São Paulo":         "Sao Paulo",
		"Île-de-France":     "Ile-de-France",
		"北京":                "",
		"":                  "",
		"Baden-Württemberg": "Baden-Wurttemberg",
	}
	for in, want := range cases {
		assert.Equal(t, want, ToASCII(in), in)
	}
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"country", "Regions", "CITY", "translations"} {
		k, err := ParseKind(s)
		require.NoError(t, err, s)
		assert.NotZero(t, k)
	}
	_, err := ParseKind("planet")
	assert.Error(t, err)
	assert.Equal(t, "altname", KindAltName.String())
}

func TestRecordErrorUnwraps(t *testing.T) {
	err := &RecordError{Source: "cities15000.txt", Line: 7, Field: "population", Err: Malformedf("bad %q", "x")}
	assert.True(t, errors.Is(err, ErrMalformedRecord))
	assert.Contains(t, err.Error(), "cities15000.txt:7: population")
}

func TestNewEntitiesAllowPreferredNameUpdates(t *testing.T) {
	assert.True(t, NewCountry().UpdatePreferredName)
	assert.True(t, NewRegion().UpdatePreferredName)
	assert.True(t, NewCity().UpdatePreferredName)
}

func TestMalformedFieldCarriesField(t *testing.T) {
	err := MalformedField("latitude", "invalid coordinate %q", "91")
	assert.ErrorIs(t, err, ErrMalformedRecord)
	var re *RecordError
	require.True(t, errors.As(err, &re))
	assert.Equal(t, "latitude", re.Field)
	assert.Equal(t, `latitude: malformed record: invalid coordinate "91"`, err.Error())
}
