// 包 store: 国家/行政区/城市的数据访问层，提供 PostgreSQL/SQLite 实现（SQL）与进程内实现（Memory）
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"geonames-sync/internal/geo"
	"geonames-sync/internal/utils"
)

// SQL: 数据库访问入口，持有连接池
// 约束：语句统一以 ? 书写，PostgreSQL 下改写为 $N；逐行查询后立即关闭结果集，兼容 SQLite 单连接
type SQL struct {
	db     *sql.DB
	driver string
}

func AttachDB(db *sql.DB, driver string) *SQL { return &SQL{db: db, driver: driver} }

// Close: 关闭数据库连接
func (s *SQL) Close() error { return s.db.Close() }

func (s *SQL) rebind(query string) string {
	if s.driver != utils.DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQL) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

func (s *SQL) exec(ctx context.Context, query string, args ...any) error {
	_, err := s.db.ExecContext(ctx, s.rebind(query), args...)
	return err
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return geo.ErrNotFound
	}
	return err
}

func nullString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func nullID(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return int64(*v)
}

func idPtr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return geo.Int64(v.Int64)
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

type scanner interface {
	Scan(dest ...any) error
}

// ---- countries ----

const countryCols = `id, code2, code3, name, name_ascii, continent, tld, currency_code, currency_name,
 population, phone_code, languages, preferred_name, update_preferred_name, geoname_id`

func scanCountry(row scanner) (*geo.Country, error) {
	var (
		c            geo.Country
		code2, code3 sql.NullString
		phone, gid   sql.NullInt64
		langs        string
	)
	err := row.Scan(&c.ID, &code2, &code3, &c.Name, &c.NameASCII, &c.Continent, &c.TLD, &c.CurrencyCode,
		&c.CurrencyName, &c.Population, &phone, &langs, &c.PreferredName, &c.UpdatePreferredName, &gid)
	if err != nil {
		return nil, notFound(err)
	}
	c.Code2, c.Code3 = code2.String, code3.String
	if phone.Valid {
		p := int(phone.Int64)
		c.PhoneCode = &p
	}
	if langs != "" {
		c.Languages = strings.Split(langs, ",")
	}
	c.GeonameID = idPtr(gid)
	return &c, nil
}

func countryArgs(c *geo.Country) []any {
	return []any{nullString(c.Code2), nullString(c.Code3), c.Name, c.NameASCII, c.Continent, c.TLD, c.CurrencyCode,
		c.CurrencyName, c.Population, nullInt(c.PhoneCode), strings.Join(c.Languages, ","), c.PreferredName,
		c.UpdatePreferredName, nullID(c.GeonameID)}
}

func (s *SQL) CountryByCode(ctx context.Context, code2 string) (*geo.Country, error) {
	return scanCountry(s.queryRow(ctx, `SELECT `+countryCols+` FROM _geo_countries WHERE code2 = ?`, code2))
}

func (s *SQL) CountryByGeonameID(ctx context.Context, id int64) (*geo.Country, error) {
	return scanCountry(s.queryRow(ctx, `SELECT `+countryCols+` FROM _geo_countries WHERE geoname_id = ?`, id))
}

func (s *SQL) CreateCountry(ctx context.Context, c *geo.Country) error {
	return s.queryRow(ctx, `INSERT INTO _geo_countries(code2, code3, name, name_ascii, continent, tld, currency_code,
 currency_name, population, phone_code, languages, preferred_name, update_preferred_name, geoname_id)
 VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?) RETURNING id`, countryArgs(c)...).Scan(&c.ID)
}

func (s *SQL) UpdateCountry(ctx context.Context, c *geo.Country) error {
	args := append(countryArgs(c), c.ID)
	return s.exec(ctx, `UPDATE _geo_countries SET code2=?, code3=?, name=?, name_ascii=?, continent=?, tld=?,
 currency_code=?, currency_name=?, population=?, phone_code=?, languages=?, preferred_name=?,
 update_preferred_name=?, geoname_id=? WHERE id=?`, args...)
}

func (s *SQL) CountCountries(ctx context.Context) (int, error) {
	var n int
	err := s.queryRow(ctx, `SELECT COUNT(*) FROM _geo_countries`).Scan(&n)
	return n, err
}

// ---- regions ----

const regionCols = `id, name, name_ascii, geoname_code, country_id, preferred_name, update_preferred_name, geoname_id`

func scanRegion(row scanner) (*geo.Region, error) {
	var (
		r   geo.Region
		gid sql.NullInt64
	)
	err := row.Scan(&r.ID, &r.Name, &r.NameASCII, &r.GeonameCode, &r.CountryID, &r.PreferredName,
		&r.UpdatePreferredName, &gid)
	if err != nil {
		return nil, notFound(err)
	}
	r.GeonameID = idPtr(gid)
	return &r, nil
}

func regionArgs(r *geo.Region) []any {
	return []any{r.Name, r.NameASCII, r.GeonameCode, r.CountryID, r.PreferredName, r.UpdatePreferredName, nullID(r.GeonameID)}
}

func (s *SQL) RegionByGeonameID(ctx context.Context, id int64) (*geo.Region, error) {
	return scanRegion(s.queryRow(ctx, `SELECT `+regionCols+` FROM _geo_regions WHERE geoname_id = ?`, id))
}

func (s *SQL) RegionByName(ctx context.Context, countryID int64, name string) (*geo.Region, error) {
	return scanRegion(s.queryRow(ctx, `SELECT `+regionCols+` FROM _geo_regions WHERE country_id = ? AND name = ?`, countryID, name))
}

func (s *SQL) RegionByCode(ctx context.Context, countryID int64, code string) (*geo.Region, error) {
	return scanRegion(s.queryRow(ctx, `SELECT `+regionCols+` FROM _geo_regions WHERE country_id = ? AND geoname_code = ?
 ORDER BY id LIMIT 1`, countryID, code))
}

func (s *SQL) CreateRegion(ctx context.Context, r *geo.Region) error {
	return s.queryRow(ctx, `INSERT INTO _geo_regions(name, name_ascii, geoname_code, country_id, preferred_name,
 update_preferred_name, geoname_id) VALUES(?,?,?,?,?,?,?) RETURNING id`, regionArgs(r)...).Scan(&r.ID)
}

func (s *SQL) UpdateRegion(ctx context.Context, r *geo.Region) error {
	args := append(regionArgs(r), r.ID)
	return s.exec(ctx, `UPDATE _geo_regions SET name=?, name_ascii=?, geoname_code=?, country_id=?, preferred_name=?,
 update_preferred_name=?, geoname_id=? WHERE id=?`, args...)
}

// ---- cities ----

const cityCols = `id, name, name_ascii, latitude, longitude, timezone, population, region_id, country_id,
 preferred_name, update_preferred_name, geoname_id`

func scanCity(row scanner) (*geo.City, error) {
	var (
		c             geo.City
		lat, lon      sql.NullFloat64
		regionID, gid sql.NullInt64
	)
	err := row.Scan(&c.ID, &c.Name, &c.NameASCII, &lat, &lon, &c.Timezone, &c.Population, &regionID, &c.CountryID,
		&c.PreferredName, &c.UpdatePreferredName, &gid)
	if err != nil {
		return nil, notFound(err)
	}
	c.Latitude, c.Longitude = floatPtr(lat), floatPtr(lon)
	c.RegionID, c.GeonameID = idPtr(regionID), idPtr(gid)
	return &c, nil
}

func cityArgs(c *geo.City) []any {
	return []any{c.Name, c.NameASCII, nullFloat(c.Latitude), nullFloat(c.Longitude), c.Timezone, c.Population,
		nullID(c.RegionID), c.CountryID, c.PreferredName, c.UpdatePreferredName, nullID(c.GeonameID)}
}

func (s *SQL) CityByGeonameID(ctx context.Context, id int64) (*geo.City, error) {
	return scanCity(s.queryRow(ctx, `SELECT `+cityCols+` FROM _geo_cities WHERE geoname_id = ?`, id))
}

func (s *SQL) CityByName(ctx context.Context, countryID int64, regionID *int64, name string) (*geo.City, error) {
	return scanCity(s.queryRow(ctx, `SELECT `+cityCols+` FROM _geo_cities
 WHERE country_id = ? AND name = ? AND (region_id = ? OR region_id IS NULL)
 ORDER BY CASE WHEN region_id IS NULL THEN 1 ELSE 0 END, id LIMIT 1`, countryID, name, nullID(regionID)))
}

func (s *SQL) CreateCity(ctx context.Context, c *geo.City) error {
	return s.queryRow(ctx, `INSERT INTO _geo_cities(name, name_ascii, latitude, longitude, timezone, population,
 region_id, country_id, preferred_name, update_preferred_name, geoname_id)
 VALUES(?,?,?,?,?,?,?,?,?,?,?) RETURNING id`, cityArgs(c)...).Scan(&c.ID)
}

func (s *SQL) UpdateCity(ctx context.Context, c *geo.City) error {
	args := append(cityArgs(c), c.ID)
	return s.exec(ctx, `UPDATE _geo_cities SET name=?, name_ascii=?, latitude=?, longitude=?, timezone=?, population=?,
 region_id=?, country_id=?, preferred_name=?, update_preferred_name=?, geoname_id=? WHERE id=?`, args...)
}

// ---- alternate-name support ----

var tables = map[geo.Kind]string{
	geo.KindCountry: "_geo_countries",
	geo.KindRegion:  "_geo_regions",
	geo.KindCity:    "_geo_cities",
}

func table(kind geo.Kind) (string, error) {
	t, ok := tables[kind]
	if !ok {
		return "", fmt.Errorf("unsupported kind %s", kind)
	}
	return t, nil
}

// GeonameIndex: 返回 geoname_id -> 国家二位代码；行政区/城市经 country_id 关联取代码
func (s *SQL) GeonameIndex(ctx context.Context, kind geo.Kind) (map[int64]string, error) {
	var query string
	switch kind {
	case geo.KindCountry:
		query = `SELECT geoname_id, COALESCE(code2, '') FROM _geo_countries WHERE geoname_id IS NOT NULL`
	case geo.KindRegion, geo.KindCity:
		t, _ := table(kind)
		query = `SELECT e.geoname_id, COALESCE(c.code2, '') FROM ` + t + ` e
 JOIN _geo_countries c ON c.id = e.country_id WHERE e.geoname_id IS NOT NULL`
	default:
		return nil, fmt.Errorf("geoname index: unsupported kind %s", kind)
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[int64]string{}
	for rows.Next() {
		var (
			id   int64
			code string
		)
		if err := rows.Scan(&id, &code); err != nil {
			return nil, err
		}
		out[id] = code
	}
	return out, rows.Err()
}

func (s *SQL) EntityByGeonameID(ctx context.Context, kind geo.Kind, id int64) (*geo.Base, error) {
	t, err := table(kind)
	if err != nil {
		return nil, err
	}
	var (
		b   geo.Base
		gid sql.NullInt64
	)
	err = s.queryRow(ctx, `SELECT id, name, name_ascii, preferred_name, update_preferred_name, geoname_id FROM `+t+
		` WHERE geoname_id = ?`, id).Scan(&b.ID, &b.Name, &b.NameASCII, &b.PreferredName, &b.UpdatePreferredName, &gid)
	if err != nil {
		return nil, notFound(err)
	}
	b.GeonameID = idPtr(gid)
	return &b, nil
}

func (s *SQL) SetPreferredName(ctx context.Context, kind geo.Kind, id int64, name string) error {
	t, err := table(kind)
	if err != nil {
		return err
	}
	return s.exec(ctx, `UPDATE `+t+` SET preferred_name = ? WHERE id = ?`, name, id)
}

var _ geo.Store = (*SQL)(nil)
