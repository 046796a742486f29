package altnames

import (
	"strconv"
	"strings"

	"geonames-sync/internal/geo"
	"geonames-sync/internal/source"
)

// Row：alternateNames.txt 的一行
type Row struct {
	ID         int64
	GeonameID  int64
	Language   string
	Name       string
	Preferred  bool
	Short      bool
	Colloquial bool
	Historic   bool
}

// ParseRow：解析译名行；标志列缺失按 false 处理，只有 "1" 为真
func ParseRow(rec source.Record) (Row, error) {
	id, err := strconv.ParseInt(rec.Get(source.AltNameID), 10, 64)
	if err != nil {
		return Row{}, geo.Malformedf("altname: invalid id %q", rec.Get(source.AltNameID))
	}
	gid, err := strconv.ParseInt(rec.Get(source.AltNameGeonameID), 10, 64)
	if err != nil {
		return Row{}, geo.Malformedf("altname %d: invalid geonameid %q", id, rec.Get(source.AltNameGeonameID))
	}
	return Row{
		ID:         id,
		GeonameID:  gid,
		Language:   strings.ToLower(rec.Get(source.AltNameLanguage)),
		Name:       rec.Get(source.AltNameName),
		Preferred:  rec.Get(source.AltNamePreferred) == "1",
		Short:      rec.Get(source.AltNameShort) == "1",
		Colloquial: rec.Get(source.AltNameColloquial) == "1",
		Historic:   rec.Get(source.AltNameHistoric) == "1",
	}, nil
}
