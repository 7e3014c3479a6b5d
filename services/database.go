package services

import (
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"warehouse-fleet/config"
	"warehouse-fleet/models"
)

// OpenDatabase - 설정된 드라이버로 연결 후 마이그레이션
//
// Returns a nil *gorm.DB when the driver is "none".
func OpenDatabase(cfg config.DatabaseConfig, logger *zap.Logger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case config.DriverNone:
		logger.Info("⚠️  event store disabled")
		return nil, nil
	case config.DriverMySQL:
		dialector = mysql.Open(cfg.DSN())
	case config.DriverSQLite:
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("DB 연결 실패: %w", err)
	}

	// AutoMigrate - 테이블 자동 생성
	if err := db.AutoMigrate(&models.FleetLog{}); err != nil {
		return nil, fmt.Errorf("마이그레이션 실패: %w", err)
	}

	fields := []zap.Field{zap.String("driver", cfg.Driver)}
	if cfg.Driver == config.DriverMySQL {
		fields = append(fields,
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.Port),
			zap.String("user", cfg.User),
			zap.String("database", cfg.Name))
	} else {
		fields = append(fields, zap.String("path", cfg.SQLitePath))
	}
	logger.Info("✅ database connected and migrated", fields...)
	return db, nil
}

// CloseDatabase releases the underlying connection pool.
func CloseDatabase(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
