package geo

import "context"

// Store：导入核心依赖的存储契约
// 背景：只暴露按自然键/外部标识读取与按主键写入，不涉及事务与查询语言；实现见 internal/store。
// 约束：读取不到时返回 ErrNotFound；Create* 成功后回填实体 ID。
type Store interface {
	CountryByCode(ctx context.Context, code2 string) (*Country, error)
	CountryByGeonameID(ctx context.Context, id int64) (*Country, error)
	CreateCountry(ctx context.Context, c *Country) error
	UpdateCountry(ctx context.Context, c *Country) error
	CountCountries(ctx context.Context) (int, error)

	RegionByGeonameID(ctx context.Context, id int64) (*Region, error)
	RegionByName(ctx context.Context, countryID int64, name string) (*Region, error)
	RegionByCode(ctx context.Context, countryID int64, code string) (*Region, error)
	CreateRegion(ctx context.Context, r *Region) error
	UpdateRegion(ctx context.Context, r *Region) error

	CityByGeonameID(ctx context.Context, id int64) (*City, error)
	// CityByName 优先匹配同一行政区，其次匹配未关联行政区的同名城市
	CityByName(ctx context.Context, countryID int64, regionID *int64, name string) (*City, error)
	CreateCity(ctx context.Context, c *City) error
	UpdateCity(ctx context.Context, c *City) error

	// GeonameIndex 返回该类别已入库实体的 geoname_id -> 国家二位代码
	GeonameIndex(ctx context.Context, kind Kind) (map[int64]string, error)
	EntityByGeonameID(ctx context.Context, kind Kind, id int64) (*Base, error)
	SetPreferredName(ctx context.Context, kind Kind, id int64, name string) error
}
