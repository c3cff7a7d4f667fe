// internal/storage/postgres/postgres.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rovshanmuradov/meme-launchpad/internal/storage"
	"github.com/rovshanmuradov/meme-launchpad/internal/storage/models"
)

// gormLogger adapts zap to gorm's logger.Interface.
type gormLogger struct {
	zapLogger *zap.Logger
	logLevel  logger.LogLevel
}

func newGormLogger(zapLogger *zap.Logger) logger.Interface {
	return &gormLogger{
		zapLogger: zapLogger,
		logLevel:  logger.Warn,
	}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	newLogger := *l
	newLogger.logLevel = level
	return &newLogger
}

func (l *gormLogger) Info(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Info {
		l.zapLogger.Sugar().Infof(msg, data...)
	}
}

func (l *gormLogger) Warn(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Warn {
		l.zapLogger.Sugar().Warnf(msg, data...)
	}
}

func (l *gormLogger) Error(_ context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Error {
		l.zapLogger.Sugar().Errorf(msg, data...)
	}
}

func (l *gormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.String("sql", sql),
		zap.Int64("rows", rows),
	}
	if err != nil {
		l.zapLogger.Error("trace", append(fields, zap.Error(err))...)
		return
	}
	if l.logLevel >= logger.Info {
		l.zapLogger.Info("trace", fields...)
	}
}

// postgresStorage implements storage.Storage on gorm.
type postgresStorage struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewStorage opens a connection pool against the given DSN.
func NewStorage(dsn string, zapLogger *zap.Logger) (storage.Storage, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: newGormLogger(zapLogger.Named("gorm")),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return &postgresStorage{
		db:     db,
		logger: zapLogger,
	}, nil
}

func (p *postgresStorage) RunMigrations() error {
	var lockObtained bool
	if err := p.db.Raw("SELECT pg_try_advisory_lock(117)").Scan(&lockObtained).Error; err != nil {
		return fmt.Errorf("failed to acquire migration lock: %w", err)
	}
	if !lockObtained {
		return fmt.Errorf("another migration is in progress")
	}
	defer p.db.Exec("SELECT pg_advisory_unlock(117)")

	if err := p.db.AutoMigrate(&models.Reservation{}, &models.TokenState{}); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	p.logger.Info("reservation schema migrated")
	return nil
}

// RecordInvestment applies one investment atomically: the wallet row and
// the token aggregate move together, and the bonding time is set exactly
// once when the running total crosses the goal.
func (p *postgresStorage) RecordInvestment(ctx context.Context, mint, wallet string, lamports int64) (*models.TokenState, error) {
	if lamports <= 0 {
		return nil, fmt.Errorf("investment must be positive, got %d lamports", lamports)
	}

	var token models.TokenState
	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var res models.Reservation
		err := tx.Where("public_key = ?", wallet).First(&res).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			res = models.Reservation{PublicKey: wallet, InvestedLamports: lamports}
			if err := tx.Create(&res).Error; err != nil {
				return fmt.Errorf("create reservation: %w", err)
			}
		case err != nil:
			return fmt.Errorf("load reservation: %w", err)
		default:
			res.InvestedLamports += lamports
			if err := tx.Save(&res).Error; err != nil {
				return fmt.Errorf("update reservation: %w", err)
			}
		}

		err = tx.Where("mint = ?", mint).First(&token).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			token = models.TokenState{Mint: mint}
		} else if err != nil {
			return fmt.Errorf("load token state: %w", err)
		}
		token.InvestedLamports += lamports
		if token.BondedTime == 0 && token.InvestedLamports >= storage.GoalLamports {
			token.BondedTime = time.Now().UTC().Unix()
			p.logger.Info("investment goal reached",
				zap.String("mint", mint),
				zap.Int64("invested_lamports", token.InvestedLamports),
				zap.Int64("bonded_time", token.BondedTime))
		}
		if err := tx.Save(&token).Error; err != nil {
			return fmt.Errorf("update token state: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (p *postgresStorage) Reservation(ctx context.Context, wallet string) (*models.Reservation, error) {
	var res models.Reservation
	err := p.db.WithContext(ctx).Where("public_key = ?", wallet).First(&res).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load reservation: %w", err)
	}
	return &res, nil
}

func (p *postgresStorage) TokenState(ctx context.Context, mint string) (*models.TokenState, error) {
	var token models.TokenState
	err := p.db.WithContext(ctx).Where("mint = ?", mint).First(&token).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load token state: %w", err)
	}
	return &token, nil
}

func (p *postgresStorage) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
