package migrate

import (
	"database/sql"
	"strings"

	"geonames-sync/internal/logger"
	"geonames-sync/internal/utils"
)

// 背景：首次运行自动创建国家/行政区/城市三张表与索引，使导入可直接面向空库
// 约束：使用 IF NOT EXISTS 避免与既有结构冲突；不做版本化迁移
func EnsureSchema(db *sql.DB, driver string) error {
	for i, s := range Statements(driver) {
		logger.L().Debug("schema_exec", "idx", i, "driver", driver)
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Statements：按方言展开的建表语句；SQLite 与 PostgreSQL 只在主键与小数类型上有差异
func Statements(driver string) []string {
	id, decimal := "BIGSERIAL PRIMARY KEY", "NUMERIC(8,5)"
	if driver == utils.DriverSQLite {
		id, decimal = "INTEGER PRIMARY KEY AUTOINCREMENT", "REAL"
	}
	r := strings.NewReplacer("{{id}}", id, "{{decimal}}", decimal)
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _geo_countries (
            id {{id}},
            code2 TEXT UNIQUE,
            code3 TEXT UNIQUE,
            name TEXT NOT NULL UNIQUE,
            name_ascii TEXT NOT NULL DEFAULT '',
            continent TEXT NOT NULL DEFAULT '',
            tld TEXT NOT NULL DEFAULT '',
            currency_code TEXT NOT NULL DEFAULT '',
            currency_name TEXT NOT NULL DEFAULT '',
            population BIGINT NOT NULL DEFAULT 0,
            phone_code INT,
            languages TEXT NOT NULL DEFAULT '',
            preferred_name TEXT NOT NULL DEFAULT '',
            update_preferred_name BOOLEAN NOT NULL DEFAULT TRUE,
            geoname_id BIGINT UNIQUE
        )`,
		`CREATE TABLE IF NOT EXISTS _geo_regions (
            id {{id}},
            name TEXT NOT NULL,
            name_ascii TEXT NOT NULL DEFAULT '',
            geoname_code TEXT NOT NULL DEFAULT '',
            country_id BIGINT NOT NULL REFERENCES _geo_countries(id),
            preferred_name TEXT NOT NULL DEFAULT '',
            update_preferred_name BOOLEAN NOT NULL DEFAULT TRUE,
            geoname_id BIGINT UNIQUE
        )`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_region_country_name ON _geo_regions(country_id, name)`,
		`CREATE INDEX IF NOT EXISTS idx_region_country_code ON _geo_regions(country_id, geoname_code)`,
		`CREATE TABLE IF NOT EXISTS _geo_cities (
            id {{id}},
            name TEXT NOT NULL,
            name_ascii TEXT NOT NULL DEFAULT '',
            latitude {{decimal}},
            longitude {{decimal}},
            timezone TEXT NOT NULL DEFAULT '',
            population BIGINT NOT NULL DEFAULT 0,
            region_id BIGINT REFERENCES _geo_regions(id),
            country_id BIGINT NOT NULL REFERENCES _geo_countries(id),
            preferred_name TEXT NOT NULL DEFAULT '',
            update_preferred_name BOOLEAN NOT NULL DEFAULT TRUE,
            geoname_id BIGINT UNIQUE
        )`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uniq_city_region_name ON _geo_cities(region_id, name)`,
		`CREATE INDEX IF NOT EXISTS idx_city_country_name ON _geo_cities(country_id, name)`,
	}
	for i, s := range stmts {
		stmts[i] = r.Replace(s)
	}
	return stmts
}
