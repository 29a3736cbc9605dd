package repository

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/bradfitz/gomemcache/memcache"
	"gorm.io/gorm"

	"github.com/sentrycore/site/internal/domain"
	"github.com/sentrycore/site/internal/infra/database/models"
)

const (
	recordCacheTTL = 300 // seconds
	maxCacheKeyLen = 250
)

// RecordCache is the part of *memcache.Client the repository uses.
type RecordCache interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
	Delete(key string) error
}

var _ RecordCache = (*memcache.Client)(nil)

type RecordRepository struct {
	db *gorm.DB
	mc RecordCache
}

// NewRecordRepository creates the repository. mc may be nil to disable the
// detail cache.
func NewRecordRepository(db *gorm.DB, mc RecordCache) *RecordRepository {
	return &RecordRepository{db: db, mc: mc}
}

// cacheKey returns "" when the id cannot form a memcached key.
func cacheKey(kind domain.Kind, id string) string {
	key := "record:" + kind.Table() + ":" + id
	if len(key) > maxCacheKeyLen {
		return ""
	}
	for i := 0; i < len(key); i++ {
		if key[i] <= ' ' || key[i] == 0x7f {
			return ""
		}
	}
	return key
}

func (r *RecordRepository) List(ctx context.Context, kind domain.Kind) ([]domain.Record, error) {
	switch kind {
	case domain.KindPost:
		var blogs []models.Blog
		err := r.db.WithContext(ctx).Order("created_at desc").Find(&blogs).Error
		if err != nil {
			return nil, err
		}
		records := make([]domain.Record, 0, len(blogs))
		for _, b := range blogs {
			records = append(records, blogToRecord(b))
		}
		return records, nil
	case domain.KindPublication:
		var pubs []models.Publication
		err := r.db.WithContext(ctx).Order("created_at desc").Find(&pubs).Error
		if err != nil {
			return nil, err
		}
		records := make([]domain.Record, 0, len(pubs))
		for _, p := range pubs {
			records = append(records, publicationToRecord(p))
		}
		return records, nil
	default:
		return nil, errors.New("unknown record kind: " + string(kind))
	}
}

func (r *RecordRepository) Get(ctx context.Context, kind domain.Kind, id string) (domain.Record, error) {
	key := cacheKey(kind, id)
	if r.mc != nil && key != "" {
		item, err := r.mc.Get(key)
		if err == nil {
			var rec domain.Record
			if err := json.Unmarshal(item.Value, &rec); err == nil {
				return rec, nil
			}
		} else if !errors.Is(err, memcache.ErrCacheMiss) {
			slog.WarnContext(
				ctx, "Record cache unavailable",
				slog.String("error", err.Error()),
				slog.String("module", "repository"),
			)
		}
	}

	var rec domain.Record
	switch kind {
	case domain.KindPost:
		var blog models.Blog
		err := r.db.WithContext(ctx).Where("id = ?", id).Take(&blog).Error
		if err != nil {
			return domain.Record{}, translateNotFound(err, "blog")
		}
		rec = blogToRecord(blog)
	case domain.KindPublication:
		var pub models.Publication
		err := r.db.WithContext(ctx).Where("id = ?", id).Take(&pub).Error
		if err != nil {
			return domain.Record{}, translateNotFound(err, "publication")
		}
		rec = publicationToRecord(pub)
	default:
		return domain.Record{}, errors.New("unknown record kind: " + string(kind))
	}

	r.cache(ctx, key, rec)
	return rec, nil
}

func (r *RecordRepository) Create(ctx context.Context, rec domain.Record) (domain.Record, error) {
	switch rec.Kind {
	case domain.KindPost:
		blog := recordToBlog(rec)
		err := r.db.WithContext(ctx).Create(&blog).Error
		if err != nil {
			return domain.Record{}, err
		}
		return blogToRecord(blog), nil
	case domain.KindPublication:
		pub := recordToPublication(rec)
		err := r.db.WithContext(ctx).Create(&pub).Error
		if err != nil {
			return domain.Record{}, err
		}
		return publicationToRecord(pub), nil
	default:
		return domain.Record{}, errors.New("unknown record kind: " + string(rec.Kind))
	}
}

func (r *RecordRepository) Update(ctx context.Context, rec domain.Record) (domain.Record, error) {
	var result *gorm.DB
	switch rec.Kind {
	case domain.KindPost:
		blog := recordToBlog(rec)
		result = r.db.WithContext(ctx).
			Model(&models.Blog{ID: rec.ID}).
			Select("title", "description", "banner_image", "content", "type").
			Updates(&blog)
	case domain.KindPublication:
		pub := recordToPublication(rec)
		result = r.db.WithContext(ctx).
			Model(&models.Publication{ID: rec.ID}).
			Select("title", "description", "banner_image", "file_path").
			Updates(&pub)
	default:
		return domain.Record{}, errors.New("unknown record kind: " + string(rec.Kind))
	}
	if result.Error != nil {
		return domain.Record{}, result.Error
	}
	if result.RowsAffected == 0 {
		return domain.Record{}, domain.NotFoundError{Resource: string(rec.Kind)}
	}

	r.invalidate(ctx, cacheKey(rec.Kind, rec.ID))
	return r.Get(ctx, rec.Kind, rec.ID)
}

func (r *RecordRepository) Delete(ctx context.Context, kind domain.Kind, id string) error {
	var result *gorm.DB
	switch kind {
	case domain.KindPost:
		result = r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Blog{})
	case domain.KindPublication:
		result = r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Publication{})
	default:
		return errors.New("unknown record kind: " + string(kind))
	}
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: string(kind)}
	}

	r.invalidate(ctx, cacheKey(kind, id))
	return nil
}

func (r *RecordRepository) cache(ctx context.Context, key string, rec domain.Record) {
	if r.mc == nil || key == "" {
		return
	}
	value, err := json.Marshal(rec)
	if err != nil {
		return
	}
	err = r.mc.Set(&memcache.Item{Key: key, Value: value, Expiration: recordCacheTTL})
	if err != nil {
		slog.WarnContext(
			ctx, "Failed to cache record",
			slog.String("error", err.Error()),
			slog.String("key", key),
			slog.String("module", "repository"),
		)
	}
}

func (r *RecordRepository) invalidate(ctx context.Context, key string) {
	if r.mc == nil || key == "" {
		return
	}
	err := r.mc.Delete(key)
	if err != nil && !errors.Is(err, memcache.ErrCacheMiss) {
		slog.WarnContext(
			ctx, "Failed to invalidate record cache",
			slog.String("error", err.Error()),
			slog.String("key", key),
			slog.String("module", "repository"),
		)
	}
}

func translateNotFound(err error, resource string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.NotFoundError{Resource: resource}
	}
	return err
}
