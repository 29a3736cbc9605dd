package usecase

import (
	"context"

	"github.com/sentrycore/site/internal/domain"
)

// RecordRepository defines storage operations for list collections.
type RecordRepository interface {
	List(ctx context.Context, kind domain.Kind) ([]domain.Record, error)
	Get(ctx context.Context, kind domain.Kind, id string) (domain.Record, error)
	Create(ctx context.Context, rec domain.Record) (domain.Record, error)
	Update(ctx context.Context, rec domain.Record) (domain.Record, error)
	Delete(ctx context.Context, kind domain.Kind, id string) error
}

// ContactRepository stores contact form submissions.
type ContactRepository interface {
	Insert(ctx context.Context, lead domain.Lead) error
}

// SolutionRepository lists the offered services.
type SolutionRepository interface {
	ListTitles(ctx context.Context) ([]string, error)
}
