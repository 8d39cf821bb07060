package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/MarkoPoloResearchLab/trustlance/internal/store/filestore"
	"github.com/MarkoPoloResearchLab/trustlance/internal/store/gormstore"
	"github.com/MarkoPoloResearchLab/trustlance/internal/store/pgstore"
	"github.com/MarkoPoloResearchLab/trustlance/pkg/ledger"
	"github.com/glebarez/sqlite"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported drivers.
const (
	DriverAuto     = "auto"
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"

	defaultSQLiteFile = "trustlance.db"
	defaultJSONFile   = "trustlance-storage.json"
	schemeFile        = "file://"
	schemeSQLite      = "sqlite://"
	schemeMemory      = "memory://"
)

// ErrUnsupportedDriver reports a driver name Open does not know.
var ErrUnsupportedDriver = errors.New("unsupported storage driver")

// Backend is an opened Storage and the function that releases it.
type Backend struct {
	Storage ledger.Storage
	Driver  string
	Close   func() error
}

// Open resolves the backend for rawURL. driver may be empty or DriverAuto, in
// which case the URL scheme decides.
func Open(ctx context.Context, rawURL string, driver string) (Backend, error) {
	resolved, location, err := resolveDriver(strings.TrimSpace(rawURL), normalizeDriverName(driver))
	if err != nil {
		return Backend{}, err
	}
	noop := func() error { return nil }
	switch resolved {
	case DriverMemory:
		return Backend{Storage: ledger.NewMemoryStorage(), Driver: resolved, Close: noop}, nil
	case DriverFile:
		store, err := filestore.New(location)
		if err != nil {
			return Backend{}, err
		}
		return Backend{Storage: store, Driver: resolved, Close: noop}, nil
	case DriverSQLite, DriverPostgres:
		return openGorm(ctx, resolved, location)
	case DriverPgx:
		pool, err := pgxpool.New(ctx, location)
		if err != nil {
			return Backend{}, fmt.Errorf("pgx pool: %w", err)
		}
		store := pgstore.New(pool)
		if err := store.Migrate(ctx); err != nil {
			pool.Close()
			return Backend{}, err
		}
		return Backend{Storage: store, Driver: resolved, Close: func() error { pool.Close(); return nil }}, nil
	default:
		return Backend{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, resolved)
	}
}

func openGorm(ctx context.Context, driver string, location string) (Backend, error) {
	config := &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)}
	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case DriverPostgres:
		db, err = gorm.Open(postgres.Open(location), config)
	default:
		db, err = gorm.Open(sqlite.Open(location), config)
	}
	if err != nil {
		return Backend{}, fmt.Errorf("database open: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return Backend{}, err
	}
	if location == ":memory:" {
		// Each connection would otherwise see its own empty database.
		sqlDB.SetMaxOpenConns(1)
	}
	store := gormstore.New(db)
	if err := store.Migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return Backend{}, err
	}
	return Backend{Storage: store, Driver: driver, Close: sqlDB.Close}, nil
}

// resolveDriver returns the driver and the location string it should open.
func resolveDriver(rawURL string, driver string) (string, string, error) {
	switch driver {
	case "", DriverAuto:
	case DriverMemory:
		return DriverMemory, "", nil
	case DriverFile:
		path, err := normalizePath(strings.TrimPrefix(rawURL, schemeFile), defaultJSONFile)
		return DriverFile, path, err
	case DriverSQLite:
		path, err := sqlitePath(rawURL)
		return DriverSQLite, path, err
	case DriverPostgres, DriverPgx:
		if !isPostgresURL(rawURL) {
			return "", "", fmt.Errorf("%s driver needs a postgres:// url, got %q", driver, rawURL)
		}
		return driver, rawURL, nil
	default:
		return "", "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	switch {
	case rawURL == "" || strings.HasPrefix(rawURL, schemeFile):
		path, err := normalizePath(strings.TrimPrefix(rawURL, schemeFile), defaultJSONFile)
		return DriverFile, path, err
	case strings.HasPrefix(rawURL, schemeMemory):
		return DriverMemory, "", nil
	case isPostgresURL(rawURL):
		return DriverPostgres, rawURL, nil
	case strings.HasPrefix(rawURL, schemeSQLite):
		path, err := sqlitePath(rawURL)
		return DriverSQLite, path, err
	}
	switch strings.ToLower(filepath.Ext(rawURL)) {
	case ".db", ".sqlite", ".sqlite3":
		path, err := normalizePath(rawURL, defaultSQLiteFile)
		return DriverSQLite, path, err
	}
	// Treat everything else as a JSON file path.
	path, err := normalizePath(rawURL, defaultJSONFile)
	return DriverFile, path, err
}

func normalizeDriverName(driver string) string {
	return strings.ToLower(strings.TrimSpace(driver))
}

func isPostgresURL(rawURL string) bool {
	return strings.HasPrefix(rawURL, "postgres://") || strings.HasPrefix(rawURL, "postgresql://")
}

func sqlitePath(rawURL string) (string, error) {
	if !strings.HasPrefix(rawURL, schemeSQLite) {
		return normalizePath(rawURL, defaultSQLiteFile)
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse sqlite url: %w", err)
	}
	path := parsed.Path
	if parsed.Host != "" && parsed.Host != "." {
		path = parsed.Host + path
	} else if parsed.Host == "." {
		path = "." + path
	}
	if path == "" || path == "/" {
		path = defaultSQLiteFile
	}
	return normalizePath(path, defaultSQLiteFile)
}

func normalizePath(path string, fallback string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		path = fallback
	}
	if path == ":memory:" {
		return path, nil
	}
	cleaned := filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(cleaned), 0o755); err != nil {
		return "", err
	}
	return cleaned, nil
}
