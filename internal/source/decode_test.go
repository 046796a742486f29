package source

import (
	"errors"
	"strings"
	"testing"

	"geonames-sync/internal/geo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePadsShortRecords(t *testing.T) {
	rec, err := Decode(geo.KindAltName, "1\t2\tes\tParís")
	require.NoError(t, err)
	assert.Len(t, rec, 10)
	assert.Equal(t, "París", rec.Get(AltNameName))
	assert.Equal(t, "", rec.Get(AltNamePreferred))
	assert.Equal(t, "", rec.Get(AltNameHistoric))
}

func TestDecodeRejectsTooFewFields(t *testing.T) {
	cases := map[geo.Kind]string{
		geo.KindCountry: strings.Repeat("x\t", 14) + "x",
		geo.KindRegion:  "FR.A1\tAlsace",
		geo.KindCity:    strings.Repeat("x\t", 16) + "x",
		geo.KindAltName: "1\t2\tes",
	}
	for kind, line := range cases {
		t.Run(kind.String(), func(t *testing.T) {
			_, err := Decode(kind, line)
			require.Error(t, err)
			assert.True(t, errors.Is(err, geo.ErrMalformedRecord))
		})
	}
}

func TestDecodeRegionWithoutGeonameID(t *testing.T) {
	rec, err := Decode(geo.KindRegion, "FR.A1\tAlsace\tAlsace")
	require.NoError(t, err)
	assert.Equal(t, "FR.A1", rec.Get(RegionCode))
	assert.Equal(t, "", rec.Get(RegionGeonameID))
}

func TestDecodeRepairsInvalidUTF8AndNormalizes(t *testing.T) {
	// e + U+0301 组合字符应被规范为单个码点
	rec, err := Decode(geo.KindAltName, "1\t2\tfr\tMe\u0301xico\xff")
	require.NoError(t, err)
	name := rec.Get(AltNameName)
	assert.True(t, strings.HasPrefix(name, "México"))
	assert.True(t, strings.HasSuffix(name, "�"))
}

func TestRecordGetOutOfRange(t *testing.T) {
	var rec Record
	assert.Equal(t, "", rec.Get(3))
	assert.Equal(t, "", rec.Get(-1))
}
