package usecase

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/sentrycore/site"
	"github.com/sentrycore/site/internal/domain"
	"github.com/sentrycore/site/internal/feed"
	"github.com/sentrycore/site/internal/listing"
)

var tracer = otel.Tracer("usecase")

var _ feed.Fetcher = (*RecordUsecase)(nil)

// RecordInput is the editable part of a record.
type RecordInput struct {
	Title       string                `json:"title"`
	Summary     string                `json:"summary"`
	BannerImage string                `json:"bannerImage"`
	Category    string                `json:"category"`
	FilePath    string                `json:"filePath"`
	Content     []domain.ContentBlock `json:"content"`
}

// BrowseResult is one page of a filtered list.
type BrowseResult struct {
	Items      []listing.Card `json:"items"`
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
	Total      int            `json:"total"`
	Categories []string       `json:"categories"`
}

type RecordUsecase struct {
	repo      RecordRepository
	publisher feed.Publisher
	renderer  listing.Renderer
	pageSize  int
	now       func() time.Time
}

// NewRecordUsecase creates the usecase. publisher may be nil, in which case
// writes are not announced on the change feed.
func NewRecordUsecase(repo RecordRepository, publisher feed.Publisher, config domain.Config) *RecordUsecase {
	pageSize := config.PageSize
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	return &RecordUsecase{
		repo:      repo,
		publisher: publisher,
		renderer:  listing.Renderer{StorageURL: config.StorageURL},
		pageSize:  pageSize,
		now:       time.Now,
	}
}

func (uc *RecordUsecase) Renderer() listing.Renderer {
	return uc.renderer
}

func (uc *RecordUsecase) PageSize() int {
	return uc.pageSize
}

func (uc *RecordUsecase) List(ctx context.Context, kind domain.Kind) ([]domain.Record, error) {
	ctx, span := tracer.Start(ctx, "Record.Usecase.List")
	defer span.End()
	span.SetAttributes(attribute.String("kind", string(kind)))

	records, err := uc.repo.List(ctx, kind)
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "failed to list "+kind.Table())
	}
	return records, nil
}

// FetchAll loads the whole collection stored in table, newest first.
func (uc *RecordUsecase) FetchAll(ctx context.Context, table string) ([]domain.Record, error) {
	kind, ok := domain.KindOfTable(table)
	if !ok {
		return nil, errors.New("unknown table: " + table)
	}
	return uc.List(ctx, kind)
}

// Browse runs the list query once without a live view.
func (uc *RecordUsecase) Browse(ctx context.Context, kind domain.Kind, query, category string, page int) (BrowseResult, error) {
	all, err := uc.List(ctx, kind)
	if err != nil {
		return BrowseResult{}, err
	}

	if category == "" {
		category = domain.AllCategories
	}
	if page < 1 {
		page = 1
	}

	visible := listing.Visible(all, query, category)
	p := listing.Paginate(visible, uc.pageSize, page)

	result := BrowseResult{
		Items:      uc.renderer.Cards(p.Items),
		Page:       p.Number,
		TotalPages: p.TotalPages,
		Total:      len(visible),
		Categories: []string{},
	}
	if kind == domain.KindPost {
		result.Categories = listing.Categories(all)
	}
	return result, nil
}

func (uc *RecordUsecase) Get(ctx context.Context, kind domain.Kind, id string) (domain.Record, error) {
	ctx, span := tracer.Start(ctx, "Record.Usecase.Get")
	defer span.End()

	rec, err := uc.repo.Get(ctx, kind, id)
	if err != nil {
		span.RecordError(err)
		return domain.Record{}, err
	}
	return rec, nil
}

func (uc *RecordUsecase) Create(ctx context.Context, kind domain.Kind, input RecordInput) (domain.Record, error) {
	ctx, span := tracer.Start(ctx, "Record.Usecase.Create")
	defer span.End()

	err := validateRecordInput(kind, input)
	if err != nil {
		return domain.Record{}, err
	}

	rec := buildRecord(kind, input)
	rec.ID = ulid.Make().String()
	rec.CreatedAt = uc.now().UTC()

	created, err := uc.repo.Create(ctx, rec)
	if err != nil {
		span.RecordError(err)
		return domain.Record{}, errors.Wrap(err, "failed to create record")
	}

	uc.announce(ctx, site.EventInsert, created)
	return created, nil
}

func (uc *RecordUsecase) Update(ctx context.Context, kind domain.Kind, id string, input RecordInput) (domain.Record, error) {
	ctx, span := tracer.Start(ctx, "Record.Usecase.Update")
	defer span.End()

	err := validateRecordInput(kind, input)
	if err != nil {
		return domain.Record{}, err
	}

	rec := buildRecord(kind, input)
	rec.ID = id

	updated, err := uc.repo.Update(ctx, rec)
	if err != nil {
		span.RecordError(err)
		return domain.Record{}, err
	}

	uc.announce(ctx, site.EventUpdate, updated)
	return updated, nil
}

func (uc *RecordUsecase) Delete(ctx context.Context, kind domain.Kind, id string) error {
	ctx, span := tracer.Start(ctx, "Record.Usecase.Delete")
	defer span.End()

	err := uc.repo.Delete(ctx, kind, id)
	if err != nil {
		span.RecordError(err)
		return err
	}

	uc.announce(ctx, site.EventDelete, domain.Record{ID: id, Kind: kind})
	return nil
}

// announce publishes a write on the change feed. The write itself has already
// succeeded, so a failure here is only logged.
func (uc *RecordUsecase) announce(ctx context.Context, eventType site.EventType, rec domain.Record) {
	if uc.publisher == nil {
		return
	}

	event := site.ChangeEvent{
		Type:     eventType,
		Table:    rec.Kind.Table(),
		RecordID: rec.ID,
		CommitAt: uc.now().UTC(),
	}
	if eventType != site.EventDelete {
		payload, err := json.Marshal(rec)
		if err == nil {
			event.New = payload
		}
	}

	err := uc.publisher.Publish(ctx, event)
	if err != nil {
		slog.ErrorContext(
			ctx, "Failed to publish change event",
			slog.String("error", err.Error()),
			slog.String("table", event.Table),
			slog.String("id", rec.ID),
			slog.String("module", "usecase"),
		)
	}
}

func validateRecordInput(kind domain.Kind, input RecordInput) error {
	if kind.Table() == "" {
		return domain.ValidationError{Message: "unknown record kind"}
	}
	if strings.TrimSpace(input.Title) == "" {
		return domain.ValidationError{Message: "title is required"}
	}
	return nil
}

func buildRecord(kind domain.Kind, input RecordInput) domain.Record {
	rec := domain.Record{
		Kind:        kind,
		Title:       input.Title,
		Summary:     input.Summary,
		BannerImage: input.BannerImage,
	}
	switch kind {
	case domain.KindPost:
		rec.Category = input.Category
		rec.Content = input.Content
	case domain.KindPublication:
		rec.FilePath = input.FilePath
	}
	return rec
}
