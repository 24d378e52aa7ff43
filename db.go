package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"couponocr/models"
	"couponocr/pkg/coupon"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openDB(cfg *Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect postgres database: %w", err)
	}
	return db, nil
}

// migrateDB migrates every model, continuing past failures, and returns the
// failures joined.
func migrateDB(db *gorm.DB) error {
	var errs []error
	if err := db.AutoMigrate(&models.Coupon{}); err != nil {
		errs = append(errs, fmt.Errorf("migrate coupons: %w", err))
	}
	if err := db.AutoMigrate(&models.Extraction{}); err != nil {
		errs = append(errs, fmt.Errorf("migrate extractions: %w", err))
	}
	return errors.Join(errs...)
}

// initDB opens the database for serving. Migration failures are only logged
// so a service without DDL permissions still starts.
func initDB(cfg *Config) (*gorm.DB, error) {
	db, err := openDB(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.DBAutoMigrate {
		if err := migrateDB(db); err != nil {
			log.Warn().Err(err).Msg("migration warning")
		}
	}
	return db, nil
}

// auditLog records processed uploads.
type auditLog interface {
	Record(ctx context.Context, row *models.Extraction) error
}

type gormAudit struct {
	db *gorm.DB
}

func (a gormAudit) Record(ctx context.Context, row *models.Extraction) error {
	return a.db.WithContext(ctx).Create(row).Error
}

// extractionRow builds the audit row of one upload. x is nil for rejected
// uploads.
func extractionRow(requestID, clientID, fileName, contentType string, x *coupon.Extraction, errCode string, cached bool) *models.Extraction {
	row := &models.Extraction{
		RequestID:   requestID,
		ClientID:    clientID,
		FileName:    fileName,
		ContentType: contentType,
		ErrorCode:   errCode,
		Cached:      cached,
	}
	if x != nil {
		row.CouponType = x.CouponType
		row.SortingMs = x.SortingTime
		if b, err := json.Marshal(x.Result); err == nil {
			result := string(b)
			row.Result = &result
		}
	}
	return row
}
