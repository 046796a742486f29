package source

// 各数据源的列下标（GeoNames 制表符分隔格式）
const (
	CountryISO          = 0
	CountryISO3         = 1
	CountryName         = 4
	CountryPopulation   = 7
	CountryContinent    = 8
	CountryTLD          = 9
	CountryCurrencyCode = 10
	CountryCurrencyName = 11
	CountryPhone        = 12
	CountryLanguages    = 15
	CountryGeonameID    = 16
)

const (
	RegionCode      = 0
	RegionName      = 1
	RegionASCIIName = 2
	RegionGeonameID = 3
)

const (
	CityGeonameID   = 0
	CityName        = 1
	CityASCIIName   = 2
	CityLatitude    = 4
	CityLongitude   = 5
	CityFeatureCode = 7
	CityCountryCode = 8
	CityAdmin1      = 10
	CityPopulation  = 14
	CityTimezone    = 17
)

const (
	AltNameID         = 0
	AltNameGeonameID  = 1
	AltNameLanguage   = 2
	AltNameName       = 3
	AltNamePreferred  = 4
	AltNameShort      = 5
	AltNameColloquial = 6
	AltNameHistoric   = 7
)
