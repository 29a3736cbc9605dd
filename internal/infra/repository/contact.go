package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/sentrycore/site/internal/domain"
)

type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) Insert(ctx context.Context, lead domain.Lead) error {
	contact := leadToContact(lead)
	return r.db.WithContext(ctx).Create(&contact).Error
}
