package repository

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"gorm.io/gorm"

	"github.com/sentrycore/site/internal/infra/database/models"
)

const solutionTitlesKey = "solutions:titles"

type SolutionRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

func NewSolutionRepository(db *gorm.DB) *SolutionRepository {
	return &SolutionRepository{
		db:    db,
		cache: cache.New(10*time.Minute, 15*time.Minute),
	}
}

// ListTitles returns the titles of all offered solutions in display order.
func (r *SolutionRepository) ListTitles(ctx context.Context) ([]string, error) {
	x, found := r.cache.Get(solutionTitlesKey)
	if found {
		titles, ok := x.([]string)
		if ok {
			return append([]string(nil), titles...), nil
		}
	}

	var solutions []models.Solution
	err := r.db.WithContext(ctx).Order(`"order" asc`).Order("title asc").Find(&solutions).Error
	if err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(solutions))
	for _, s := range solutions {
		titles = append(titles, s.Title)
	}
	r.cache.Set(solutionTitlesKey, titles, cache.DefaultExpiration)
	return append([]string(nil), titles...), nil
}
