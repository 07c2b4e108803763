// Package repo implements the link store, backed either by process memory or
// by GORM over pure-Go SQLite.
package repo

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"github.com/tbourn/go-link-tracker/internal/domain"
)

// poolLimits sizes database/sql's pool. A shared in-memory database only
// exists while a connection holds it, so memory DSNs get exactly one,
// kept forever.
type poolLimits struct {
	open, idle     int
	idleTime, life time.Duration
}

var (
	filePool   = poolLimits{open: 10, idle: 10, idleTime: 5 * time.Minute, life: 30 * time.Minute}
	memoryPool = poolLimits{open: 1, idle: 1}
)

// Connection pragmas travel in the DSN so the driver applies them to every
// pooled connection, not just the one that happens to run an Exec. WAL is
// skipped for memory DSNs, which reject it.
var basePragmas = []string{
	"synchronous(NORMAL)",
	"foreign_keys(1)", // clicks.link_id references links.id
	"busy_timeout(5000)",
}

// withPragmas appends one _pragma query parameter per entry to dsn.
func withPragmas(dsn string, pragmas []string) string {
	q := url.Values{"_pragma": pragmas}.Encode()
	if strings.Contains(dsn, "?") {
		return dsn + "&" + q
	}
	return dsn + "?" + q
}

// OpenSQLite opens or creates the database at dsn, traced by the GORM
// OpenTelemetry plugin.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	memory := isMemoryDSN(dsn)

	// A missing parent directory surfaces from sqlite as an opaque
	// "out of memory (14)".
	if dir := filepath.Dir(dsn); !memory && dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return nil, err
		}
	}

	pool := filePool
	pragmas := basePragmas
	if memory {
		pool = memoryPool
	} else {
		pragmas = append([]string{"journal_mode(WAL)"}, pragmas...)
	}

	db, err := gorm.Open(sqlite.Open(withPragmas(dsn, pragmas)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(pool.open)
	sqlDB.SetMaxIdleConns(pool.idle)
	sqlDB.SetConnMaxIdleTime(pool.idleTime)
	sqlDB.SetConnMaxLifetime(pool.life)

	// Query spans only; request and domain metrics live elsewhere.
	if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// AutoMigrate creates or updates the links and clicks tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.Link{}, &domain.Click{})
}

func isMemoryDSN(dsn string) bool {
	return strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}
