package repository

import (
	"github.com/sentrycore/site/internal/domain"
	"github.com/sentrycore/site/internal/infra/database/models"
)

func blogToRecord(b models.Blog) domain.Record {
	rec := domain.Record{
		ID:          b.ID,
		Kind:        domain.KindPost,
		Title:       b.Title,
		Summary:     b.Description,
		BannerImage: b.BannerImage,
		CreatedAt:   b.CreatedAt,
	}
	if b.Type != nil {
		rec.Category = *b.Type
	}
	for _, block := range b.Content {
		rec.Content = append(rec.Content, domain.ContentBlock{
			Title:          block.Title,
			Description:    block.Description,
			ReferenceImage: block.ReferenceImage,
		})
	}
	return rec
}

func recordToBlog(rec domain.Record) models.Blog {
	blog := models.Blog{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Summary,
		BannerImage: rec.BannerImage,
		Content:     []models.BlogBlock{},
		CreatedAt:   rec.CreatedAt,
	}
	if rec.Category != "" {
		category := rec.Category
		blog.Type = &category
	}
	for _, block := range rec.Content {
		blog.Content = append(blog.Content, models.BlogBlock{
			Title:          block.Title,
			Description:    block.Description,
			ReferenceImage: block.ReferenceImage,
		})
	}
	return blog
}

func publicationToRecord(p models.Publication) domain.Record {
	return domain.Record{
		ID:          p.ID,
		Kind:        domain.KindPublication,
		Title:       p.Title,
		Summary:     p.Description,
		BannerImage: p.BannerImage,
		FilePath:    p.FilePath,
		CreatedAt:   p.CreatedAt,
	}
}

func recordToPublication(rec domain.Record) models.Publication {
	return models.Publication{
		ID:          rec.ID,
		Title:       rec.Title,
		Description: rec.Summary,
		BannerImage: rec.BannerImage,
		FilePath:    rec.FilePath,
		CreatedAt:   rec.CreatedAt,
	}
}

func leadToContact(lead domain.Lead) models.Contact {
	return models.Contact{
		ID:              lead.ID,
		FirstName:       lead.FirstName,
		LastName:        lead.LastName,
		Email:           lead.Email,
		CompanyName:     lead.CompanyName,
		RequiredService: lead.RequiredService,
		Details:         lead.Details,
		CreatedAt:       lead.CreatedAt,
	}
}
