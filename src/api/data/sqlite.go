package data

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/DeImOs-Sj/Dgk-gov/src/api/types"
)

// MustSQLite opens (or creates) the database at path and migrates the
// schema, exiting on failure. An empty path opens a shared in-memory
// database, useful for tests.
func MustSQLite(path string) *gorm.DB {
	db, err := OpenSQLite(path)
	if err != nil {
		log.Fatalf("sqlite: %v", err)
	}
	return db
}

func OpenSQLite(path string) (*gorm.DB, error) {
	dsn := "file::memory:?cache=shared"
	if path != "" {
		dir := filepath.Dir(path)
		if _, err := os.Stat(dir); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("failed to read data dir: %w", err)
			}
			if err := os.MkdirAll(dir, fs.ModePerm); err != nil {
				return nil, fmt.Errorf("failed to create data dir: %w", err)
			}
		}
		// WAL journal mode; write serialization is left to the engine,
		// the application takes no locks of its own.
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", path)
	}
	// SkipDefaultTransaction: every write is a single atomic statement,
	// multi-statement operations are deliberately best-effort.
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Discard,
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(
		&types.Proposal{},
		&types.Report{},
		&types.PremiumAccess{},
		&types.UALMapping{},
	); err != nil {
		return nil, err
	}
	return db, nil
}
