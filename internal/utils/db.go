package utils

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"geonames-sync/internal/logger"
	"geonames-sync/internal/metrics"

	"github.com/lib/pq"
	"github.com/qustavo/sqlhooks/v2"
	"modernc.org/sqlite"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// 注册带慢查询钩子的驱动名；database/sql 不允许重复注册，故各自只注册一次
var (
	registerPostgres sync.Once
	registerSQLite   sync.Once
)

const (
	hookedPostgres = "postgres-hooked"
	hookedSQLite   = "sqlite-hooked"
)

type beginKey struct{}

// Hooks：慢 SQL 记录
// 背景：大批量导入中逐行查询，慢语句通常意味着缺索引；超过阈值记录 sql_slow 并计数
type Hooks struct {
	Threshold time.Duration
}

func (h *Hooks) Before(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	return context.WithValue(ctx, beginKey{}, time.Now()), nil
}

func (h *Hooks) After(ctx context.Context, query string, args ...interface{}) (context.Context, error) {
	begin, ok := ctx.Value(beginKey{}).(time.Time)
	if !ok {
		return ctx, nil
	}
	if d := time.Since(begin); d > h.Threshold {
		metrics.SlowQueriesTotal.Inc()
		logger.L().Warn("sql_slow", "query", strings.Join(strings.Fields(query), " "), "args", len(args), "took", d.String())
	}
	return ctx, nil
}

func slowThreshold() time.Duration {
	if v := os.Getenv("SQL_SLOW_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return time.Duration(n) * time.Millisecond
		}
	}
	return 500 * time.Millisecond
}

func OpenPostgres(dsn string) (*sql.DB, error) {
	registerPostgres.Do(func() {
		sql.Register(hookedPostgres, sqlhooks.Wrap(&pq.Driver{}, &Hooks{Threshold: slowThreshold()}))
	})
	db, err := sql.Open(hookedPostgres, dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(25)
	return db, nil
}

func BuildPostgresDSNFromEnv() string {
	host := os.Getenv("PG_HOST")
	if host == "" {
		host = "localhost"
	}
	port := os.Getenv("PG_PORT")
	if port == "" {
		port = "5432"
	}
	user := os.Getenv("PG_USER")
	if user == "" {
		user = "postgres"
	}
	pass := os.Getenv("PG_PASSWORD")
	db := os.Getenv("PG_DB")
	if db == "" {
		db = "geonames"
	}
	ssl := os.Getenv("PG_SSLMODE")
	if ssl == "" {
		ssl = "disable"
	}
	dsn := "postgres://" + user
	if pass != "" {
		dsn += ":" + pass
	}
	dsn += "@" + host + ":" + port + "/" + db + "?sslmode=" + ssl
	return dsn
}

func OpenPostgresFromEnv() (*sql.DB, error) {
	db, err := OpenPostgres(BuildPostgresDSNFromEnv())
	if err != nil {
		return nil, err
	}
	if v := os.Getenv("PG_MAX_OPEN_CONNS"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			db.SetMaxOpenConns(n)
		}
	}
	if v := os.Getenv("PG_MAX_IDLE_CONNS"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			db.SetMaxIdleConns(n)
		}
	}
	return db, nil
}

// OpenSQLite：打开 SQLite 数据库（纯 Go 驱动，无需 CGO）
// 约束：单连接，保证外键开关与内存库在整个生命周期内可见
func OpenSQLite(path string) (*sql.DB, error) {
	registerSQLite.Do(func() {
		sql.Register(hookedSQLite, sqlhooks.Wrap(&sqlite.Driver{}, &Hooks{Threshold: slowThreshold()}))
	})
	db, err := sql.Open(hookedSQLite, path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// OpenFromEnv：按 DB_DRIVER 选择数据库（postgres 默认，sqlite 读取 SQLITE_PATH）
func OpenFromEnv() (*sql.DB, string, error) {
	driver := strings.ToLower(strings.TrimSpace(os.Getenv("DB_DRIVER")))
	switch driver {
	case "", DriverPostgres, "pg":
		db, err := OpenPostgresFromEnv()
		return db, DriverPostgres, err
	case DriverSQLite, "sqlite3":
		path := os.Getenv("SQLITE_PATH")
		if path == "" {
			path = "data/geonames.db"
		}
		db, err := OpenSQLite(path)
		return db, DriverSQLite, err
	}
	return nil, "", fmt.Errorf("unsupported DB_DRIVER %q", driver)
}
