package repository

import (
	"context"

	"vatify/internal/model"

	"gorm.io/gorm"
)

type VatCheckRepository interface {
	Log(ctx context.Context, entry *model.VatCheckLog) error
	List(ctx context.Context, page, limit int) ([]model.VatCheckLog, int64, error)
}

type vatCheckRepository struct {
	db *gorm.DB
}

func NewVatCheckRepository(db *gorm.DB) VatCheckRepository {
	return &vatCheckRepository{db: db}
}

func (r *vatCheckRepository) Log(ctx context.Context, entry *model.VatCheckLog) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *vatCheckRepository) List(ctx context.Context, page, limit int) ([]model.VatCheckLog, int64, error) {
	var logs []model.VatCheckLog
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.VatCheckLog{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("checked_at desc").Offset(offset).Limit(limit).Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
