package sqlstore

import (
	"fmt"
	"strings"

	"github.com/cognicore/revlens/pkg/revlens/internalerr"
)

// dialect captures the few statements that differ between SQLite and MySQL.
type dialect struct {
	name    string
	pragmas []string
	schema  []string
	upsert  func(key string, cols ...string) string
}

func dialectFor(driver string) (dialect, error) {
	switch driver {
	case DriverSQLite:
		return sqliteDialect, nil
	case DriverMySQL:
		return mysqlDialect, nil
	}
	return dialect{}, fmt.Errorf("driver %q: %w", driver, internalerr.ErrInvalidConfig)
}

var sqliteDialect = dialect{
	name: DriverSQLite,
	pragmas: []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
	},
	schema: []string{
		`CREATE TABLE IF NOT EXISTS customers (
	customer_id INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	age_group TEXT NOT NULL,
	gender TEXT NOT NULL,
	join_date DATE NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS products (
	product_id INTEGER PRIMARY KEY,
	product_name TEXT NOT NULL,
	category TEXT NOT NULL,
	price INTEGER NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS reviews (
	review_id TEXT PRIMARY KEY,
	customer_id INTEGER NOT NULL,
	product_id INTEGER NOT NULL,
	rating INTEGER NOT NULL,
	review_text TEXT NOT NULL,
	review_date DATE NOT NULL,
	sentiment TEXT NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_customer ON reviews(customer_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_product ON reviews(product_id)`,
		`CREATE INDEX IF NOT EXISTS idx_reviews_sentiment ON reviews(sentiment)`,
	},
	upsert: func(key string, cols ...string) string {
		sets := make([]string, 0, len(cols))
		for _, c := range cols {
			if c == key {
				continue
			}
			sets = append(sets, c+"=excluded."+c)
		}
		return "\nON CONFLICT(" + key + ") DO UPDATE SET " + strings.Join(sets, ", ")
	},
}

var mysqlDialect = dialect{
	name: DriverMySQL,
	schema: []string{
		`CREATE TABLE IF NOT EXISTS customers (
	customer_id BIGINT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	age_group VARCHAR(32) NOT NULL,
	gender VARCHAR(16) NOT NULL,
	join_date DATE NOT NULL
) DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS products (
	product_id BIGINT PRIMARY KEY,
	product_name VARCHAR(255) NOT NULL,
	category VARCHAR(128) NOT NULL,
	price BIGINT NOT NULL
) DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS reviews (
	review_id VARCHAR(64) PRIMARY KEY,
	customer_id BIGINT NOT NULL,
	product_id BIGINT NOT NULL,
	rating INT NOT NULL,
	review_text TEXT NOT NULL,
	review_date DATE NOT NULL,
	sentiment VARCHAR(16) NOT NULL,
	KEY idx_reviews_customer (customer_id),
	KEY idx_reviews_product (product_id),
	KEY idx_reviews_sentiment (sentiment)
) DEFAULT CHARSET=utf8mb4`,
	},
	upsert: func(key string, cols ...string) string {
		sets := make([]string, 0, len(cols))
		for _, c := range cols {
			if c == key {
				continue
			}
			sets = append(sets, c+"=VALUES("+c+")")
		}
		return "\nON DUPLICATE KEY UPDATE " + strings.Join(sets, ", ")
	},
}
