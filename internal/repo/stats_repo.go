// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the DailyStats
// model used by the admin read surface.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/tbourn/go-calendar-backend/internal/domain"
)

// IncrementDailyStat bumps a single counter column on today's stats row,
// creating the row first when the date has no entry yet. Valid columns are
// new_users, events_created, events_edited, events_deleted.
//
// Get-or-create plus increment runs in one transaction so two concurrent
// increments for a fresh date cannot both insert.
func IncrementDailyStat(ctx context.Context, db *gorm.DB, date, column string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row domain.DailyStats
		err := tx.Where("date = ?", date).First(&row).Error
		if err == gorm.ErrRecordNotFound {
			row = domain.DailyStats{Date: date}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}
		return tx.Model(&domain.DailyStats{}).
			Where("date = ?", date).
			UpdateColumn(column, gorm.Expr(column+" + 1")).Error
	})
}

// GetDailyStats fetches the stats row for one date. Returns ErrNotFound when
// no activity was recorded that day.
func GetDailyStats(ctx context.Context, db *gorm.DB, date string) (*domain.DailyStats, error) {
	var row domain.DailyStats
	if err := db.WithContext(ctx).Where("date = ?", date).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// ListDailyStats returns stats rows newest first.
func ListDailyStats(ctx context.Context, db *gorm.DB, limit int) ([]domain.DailyStats, error) {
	var out []domain.DailyStats
	err := db.WithContext(ctx).
		Order("date desc").
		Limit(limit).
		Find(&out).Error
	return out, err
}
