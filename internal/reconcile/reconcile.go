// 包 reconcile：把解码后的数据行合并进本地存储
// 背景：本地记录可能已被人工维护，合并只填补空字段，从不覆盖已有值（geoname_id 除外）。
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"geonames-sync/internal/geo"
	"geonames-sync/internal/identity"
	"geonames-sync/internal/logger"
	"geonames-sync/internal/source"
)

// Outcome：单行合并结果
type Outcome int

const (
	Unchanged Outcome = iota
	Created
	Updated
	Dropped
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Updated:
		return "updated"
	case Dropped:
		return "dropped"
	}
	return "unchanged"
}

type Options struct {
	// UpdateOnly：只更新已存在的记录；缺失记录与无法解析父级的行直接丢弃
	UpdateOnly bool
}

type Reconciler struct {
	store geo.Store
	ids   *identity.Resolver
	opts  Options
}

func New(store geo.Store, ids *identity.Resolver, opts Options) *Reconciler {
	return &Reconciler{store: store, ids: ids, opts: opts}
}

// Reconcile：按类别分派
// 约束：国家的 geoname_id 每次刷新；行政区与城市仅在为空时写入，不同于旧实现对 region.geoname_id 的无条件覆盖（见 identity）
func (r *Reconciler) Reconcile(ctx context.Context, kind geo.Kind, rec source.Record) (Outcome, error) {
	switch kind {
	case geo.KindCountry:
		return r.Country(ctx, rec)
	case geo.KindRegion:
		return r.Region(ctx, rec)
	case geo.KindCity:
		return r.City(ctx, rec)
	}
	return Unchanged, fmt.Errorf("reconcile: unsupported kind %s", kind)
}

// Country：按 code2 匹配，未命中时回退到 geoname_id
func (r *Reconciler) Country(ctx context.Context, rec source.Record) (Outcome, error) {
	code2 := rec.Get(source.CountryISO)
	if code2 == "" {
		return Unchanged, geo.Malformedf("country: empty ISO code")
	}
	gid, err := parseOptionalID("geonameid", rec.Get(source.CountryGeonameID))
	if err != nil {
		return Unchanged, err
	}
	pop, err := parseCount("population", rec.Get(source.CountryPopulation))
	if err != nil {
		return Unchanged, err
	}
	continent := rec.Get(source.CountryContinent)
	if _, ok := geo.Continents[continent]; continent != "" && !ok {
		return Unchanged, geo.Malformedf("country %s: unknown continent %q", code2, continent)
	}
	name := rec.Get(source.CountryName)

	c, err := r.store.CountryByCode(ctx, code2)
	if errors.Is(err, geo.ErrNotFound) && gid != nil {
		c, err = r.store.CountryByGeonameID(ctx, *gid)
	}
	created := false
	switch {
	case errors.Is(err, geo.ErrNotFound):
		if r.opts.UpdateOnly {
			return Dropped, nil
		}
		if name == "" {
			return Unchanged, geo.Malformedf("country %s: empty name", code2)
		}
		c, created = geo.NewCountry(), true
	case err != nil:
		return Unchanged, err
	}

	var ch changes
	ch.setString(&c.Code2, code2)
	ch.setString(&c.Name, name)
	ch.setString(&c.NameASCII, geo.ToASCII(c.Name))
	ch.setString(&c.Code3, rec.Get(source.CountryISO3))
	ch.setString(&c.Continent, continent)
	ch.setString(&c.TLD, strings.TrimPrefix(rec.Get(source.CountryTLD), "."))
	ch.setString(&c.CurrencyCode, rec.Get(source.CountryCurrencyCode))
	ch.setString(&c.CurrencyName, rec.Get(source.CountryCurrencyName))
	ch.setInt64(&c.Population, pop)
	if c.PhoneCode == nil {
		if p := ParsePhoneCode(rec.Get(source.CountryPhone)); p != nil {
			c.PhoneCode = p
			ch = true
		}
	}
	if len(c.Languages) == 0 {
		if langs := splitLanguages(rec.Get(source.CountryLanguages)); len(langs) > 0 {
			c.Languages = langs
			ch = true
		}
	}
	ch.setGeonameID(&c.GeonameID, gid)

	switch {
	case created:
		if err := r.store.CreateCountry(ctx, c); err != nil {
			return Unchanged, fmt.Errorf("create country %s: %w", code2, err)
		}
		return Created, nil
	case bool(ch):
		if err := r.store.UpdateCountry(ctx, c); err != nil {
			return Unchanged, fmt.Errorf("update country %s: %w", code2, err)
		}
		return Updated, nil
	}
	return Unchanged, nil
}

// Region：按 geoname_id 匹配，回退到（国家，名称）
func (r *Reconciler) Region(ctx context.Context, rec source.Record) (Outcome, error) {
	full := rec.Get(source.RegionCode)
	code2, code, ok := strings.Cut(full, ".")
	if !ok || code2 == "" || code == "" {
		return Unchanged, geo.Malformedf("region: invalid code %q", full)
	}
	name := rec.Get(source.RegionName)
	ascii := rec.Get(source.RegionASCIIName)
	if name == "" {
		name = ascii
	}
	if name == "" {
		return Unchanged, geo.Malformedf("region %s: empty name", full)
	}
	gid, err := parseOptionalID("geonameid", rec.Get(source.RegionGeonameID))
	if err != nil {
		return Unchanged, err
	}
	countryID, err := r.ids.CountryKey(ctx, code2)
	if err != nil {
		if errors.Is(err, geo.ErrUnknownCountry) && r.opts.UpdateOnly {
			return Dropped, nil
		}
		return Unchanged, err
	}

	region, lerr := (*geo.Region)(nil), geo.ErrNotFound
	if gid != nil {
		region, lerr = r.store.RegionByGeonameID(ctx, *gid)
	}
	if errors.Is(lerr, geo.ErrNotFound) {
		region, lerr = r.store.RegionByName(ctx, countryID, name)
	}
	created := false
	switch {
	case errors.Is(lerr, geo.ErrNotFound):
		if r.opts.UpdateOnly {
			return Dropped, nil
		}
		region, created = geo.NewRegion(), true
	case lerr != nil:
		return Unchanged, lerr
	}

	var ch changes
	ch.setString(&region.Name, name)
	ch.setInt64(&region.CountryID, countryID)
	ch.setString(&region.GeonameCode, code)
	ch.setString(&region.NameASCII, asciiName(ascii, region.Name))
	r.identity(&ch, geo.KindRegion, &region.GeonameID, gid, full)

	switch {
	case created:
		if err := r.store.CreateRegion(ctx, region); err != nil {
			return Unchanged, fmt.Errorf("create region %s: %w", full, err)
		}
		return Created, nil
	case bool(ch):
		if err := r.store.UpdateRegion(ctx, region); err != nil {
			return Unchanged, fmt.Errorf("update region %s: %w", full, err)
		}
		return Updated, nil
	}
	return Unchanged, nil
}

// City：按 geoname_id 匹配，回退到（国家，行政区，名称）
// 约束：行政区解析失败时仍导入城市（不关联行政区）；关联行政区时国家随之取行政区所属国家
func (r *Reconciler) City(ctx context.Context, rec source.Record) (Outcome, error) {
	gid, err := parseOptionalID("geonameid", rec.Get(source.CityGeonameID))
	if err != nil {
		return Unchanged, err
	}
	name := rec.Get(source.CityName)
	if name == "" {
		return Unchanged, geo.Malformedf("city: empty name")
	}
	pop, err := parseCount("population", rec.Get(source.CityPopulation))
	if err != nil {
		return Unchanged, err
	}
	lat, err := parseCoordinate("latitude", rec.Get(source.CityLatitude), 90)
	if err != nil {
		return Unchanged, err
	}
	lon, err := parseCoordinate("longitude", rec.Get(source.CityLongitude), 180)
	if err != nil {
		return Unchanged, err
	}
	code2 := rec.Get(source.CityCountryCode)
	countryID, err := r.ids.CountryKey(ctx, code2)
	if err != nil {
		if errors.Is(err, geo.ErrUnknownCountry) && r.opts.UpdateOnly {
			return Dropped, nil
		}
		return Unchanged, err
	}
	var regionID *int64
	if admin1 := rec.Get(source.CityAdmin1); admin1 != "" {
		id, err := r.ids.RegionKey(ctx, code2, admin1)
		switch {
		case err == nil:
			regionID = &id
		case errors.Is(err, geo.ErrUnknownParent):
			logger.L().Debug("reconcile_city_region_unresolved", "city", name, "country", code2, "admin1", admin1)
		default:
			return Unchanged, err
		}
	}

	city, lerr := (*geo.City)(nil), geo.ErrNotFound
	if gid != nil {
		city, lerr = r.store.CityByGeonameID(ctx, *gid)
	}
	if errors.Is(lerr, geo.ErrNotFound) {
		city, lerr = r.store.CityByName(ctx, countryID, regionID, name)
	}
	created := false
	switch {
	case errors.Is(lerr, geo.ErrNotFound):
		if r.opts.UpdateOnly {
			return Dropped, nil
		}
		city, created = geo.NewCity(), true
	case lerr != nil:
		return Unchanged, lerr
	}

	var ch changes
	ch.setString(&city.Name, name)
	ch.setInt64(&city.CountryID, countryID)
	if city.RegionID == nil && regionID != nil {
		city.RegionID = geo.Int64(*regionID)
		city.CountryID = countryID
		ch = true
	}
	ch.setString(&city.NameASCII, asciiName(rec.Get(source.CityASCIIName), city.Name))
	ch.setInt64(&city.Population, pop)
	ch.setFloat(&city.Latitude, lat)
	ch.setFloat(&city.Longitude, lon)
	ch.setString(&city.Timezone, rec.Get(source.CityTimezone))
	r.identity(&ch, geo.KindCity, &city.GeonameID, gid, name)

	switch {
	case created:
		if err := r.store.CreateCity(ctx, city); err != nil {
			return Unchanged, fmt.Errorf("create city %s: %w", name, err)
		}
		return Created, nil
	case bool(ch):
		if err := r.store.UpdateCity(ctx, city); err != nil {
			return Unchanged, fmt.Errorf("update city %s: %w", name, err)
		}
		return Updated, nil
	}
	return Unchanged, nil
}

// identity：行政区/城市的 geoname_id 在为空时写入
// 背景：经复合键命中、但已登记了另一个 geoname_id 的记录视为同名冲突；保留已有标识，
// 否则同名的两条上游记录会在每次运行中互相改写，破坏幂等。
func (r *Reconciler) identity(ch *changes, kind geo.Kind, dst **int64, gid *int64, key string) {
	if gid == nil {
		return
	}
	if *dst != nil && **dst != *gid {
		logger.L().Debug("reconcile_identity_conflict", "kind", kind.String(), "key", key, "stored", **dst, "source", *gid)
		return
	}
	ch.setGeonameID(dst, gid)
}
