package repository

import (
	"context"
	"time"

	"vatify/internal/model"

	"gorm.io/gorm"
)

type RateEntryRepository interface {
	Create(ctx context.Context, entry *model.RateEntry) error
	List(ctx context.Context, page, limit int) ([]model.RateEntry, int64, error)
	FindByCountry(ctx context.Context, country string) ([]model.RateEntry, error)
	Exists(ctx context.Context, country string, effectiveFrom time.Time) (bool, error)
}

type rateEntryRepository struct {
	db *gorm.DB
}

func NewRateEntryRepository(db *gorm.DB) RateEntryRepository {
	return &rateEntryRepository{db: db}
}

func (r *rateEntryRepository) Create(ctx context.Context, entry *model.RateEntry) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *rateEntryRepository) List(ctx context.Context, page, limit int) ([]model.RateEntry, int64, error) {
	var entries []model.RateEntry
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.RateEntry{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Preload("ReducedRates").Order("country asc, effective_from desc").Offset(offset).Limit(limit).Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}

func (r *rateEntryRepository) FindByCountry(ctx context.Context, country string) ([]model.RateEntry, error) {
	var entries []model.RateEntry
	if err := GetDB(ctx, r.db).Preload("ReducedRates").Where("country = ?", country).Order("effective_from desc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *rateEntryRepository) Exists(ctx context.Context, country string, effectiveFrom time.Time) (bool, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.RateEntry{}).
		Where("country = ? AND effective_from = ?", country, effectiveFrom).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
