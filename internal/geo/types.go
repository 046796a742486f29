// 包 geo：国家/行政区/城市三级实体、错误分类与存储契约，供导入管线各阶段共享
package geo

import (
	"fmt"
	"strings"
)

// Kind：数据源与实体类别
type Kind int

const (
	KindCountry Kind = iota + 1
	KindRegion
	KindCity
	KindAltName
)

func (k Kind) String() string {
	switch k {
	case KindCountry:
		return "country"
	case KindRegion:
		return "region"
	case KindCity:
		return "city"
	case KindAltName:
		return "altname"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind：按名称解析类别，大小写不敏感
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "country", "countries":
		return KindCountry, nil
	case "region", "regions":
		return KindRegion, nil
	case "city", "cities":
		return KindCity, nil
	case "altname", "altnames", "translation", "translations":
		return KindAltName, nil
	}
	return 0, fmt.Errorf("unknown kind %q", s)
}

// Continents：大洲代码表（GeoNames 约定的 7 个代码）
var Continents = map[string]string{
	"OC": "Oceania",
	"EU": "Europe",
	"AF": "Africa",
	"NA": "North America",
	"AN": "Antarctica",
	"SA": "South America",
	"AS": "Asia",
}

// Base：三类实体的公共字段
// 约束：ID 为本地主键（0 表示尚未持久化）；GeonameID 为上游全局唯一标识，可为空。
type Base struct {
	ID                  int64
	GeonameID           *int64
	Name                string
	NameASCII           string
	PreferredName       string
	UpdatePreferredName bool
}

type Country struct {
	Base
	Code2        string
	Code3        string
	Continent    string
	TLD          string
	CurrencyCode string
	CurrencyName string
	Population   int64
	PhoneCode    *int
	Languages    []string
}

type Region struct {
	Base
	GeonameCode string
	CountryID   int64
}

// City：城市实体
// 约束：RegionID 非空时 CountryID 必须等于所属行政区的国家；经纬度保留 5 位小数。
type City struct {
	Base
	Latitude   *float64
	Longitude  *float64
	Timezone   string
	Population int64
	RegionID   *int64
	CountryID  int64
}

// NewCountry / NewRegion / NewCity：新建实体默认允许自动更新本地化名称
func NewCountry() *Country { return &Country{Base: Base{UpdatePreferredName: true}} }
func NewRegion() *Region   { return &Region{Base: Base{UpdatePreferredName: true}} }
func NewCity() *City       { return &City{Base: Base{UpdatePreferredName: true}} }

func Int64(v int64) *int64 { return &v }
