package repository

import (
	"fmt"
	"strings"
	"time"

	"tush00nka/chato/internal/model"

	"github.com/charmbracelet/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func NewDB(dsn string, level logger.LogLevel) (*gorm.DB, error) {
	db, err := Open(postgres.Open(dsn), NewLogger(level))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Настройка пула соединений
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Open открывает соединение с единой конфигурацией gorm для любого диалекта
func Open(dialector gorm.Dialector, l logger.Interface) (*gorm.DB, error) {
	return gorm.Open(dialector, &gorm.Config{
		Logger:         l,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
}

// NewLogger пишет SQL лог через общий логгер приложения
func NewLogger(level logger.LogLevel) logger.Interface {
	writer := log.Default().StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel})
	return logger.New(writer, logger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
	})
}

func ParseLogLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// Migrate создает и обновляет схему
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.BlockRelation{},
		&model.Conversation{},
		&model.Message{},
		&model.Attachment{},
		&model.DeletedMessage{},
		&model.MessageReaction{},
	)
}
