package database

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/glebarez/sqlite"
	"github.com/ryoka/teragrab-bot/config"
	"gorm.io/gorm"
	glogger "gorm.io/gorm/logger"
)

var db *gorm.DB

func Init(ctx context.Context) {
	logger := log.FromContext(ctx)
	if err := os.MkdirAll(filepath.Dir(config.C().DB.Path), 0755); err != nil {
		logger.Fatal("Failed to create data directory: ", err)
	}
	var err error
	db, err = gorm.Open(sqlite.Open(config.C().DB.Path), &gorm.Config{
		Logger: glogger.New(logger, glogger.Config{
			Colorful:                  true,
			SlowThreshold:             time.Second * 5,
			LogLevel:                  glogger.Error,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
		}),
		PrepareStmt: true,
	})
	if err != nil {
		logger.Fatal("Failed to open database: ", err)
	}
	logger.Debug("Database connected")
	if err := db.AutoMigrate(&User{}, &HistoryRecord{}); err != nil {
		logger.Fatal("Database migration failed; if upgrading from an old version, try deleting the database file and retrying", "error", err)
	}
	logger.Debug("Database migrated")
	logger.Info("Database initialized")
}

// InitForTest opens an in-memory database. Only tests call this.
func InitForTest(ctx context.Context) error {
	var err error
	db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: glogger.Discard,
	})
	if err != nil {
		return err
	}
	return db.AutoMigrate(&User{}, &HistoryRecord{})
}
