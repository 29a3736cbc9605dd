package repository

import (
	"testing"
	"time"

	"github.com/sentrycore/site/internal/domain"
)

func TestBlogConversionKeepsCategoryAndContent(t *testing.T) {
	created := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	rec := domain.Record{
		ID:          "01",
		Kind:        domain.KindPost,
		Title:       "Zero trust",
		Summary:     "Notes",
		BannerImage: "banner.png",
		Category:    "Cloud",
		Content: []domain.ContentBlock{
			{Title: "Intro", Description: "text", ReferenceImage: "a.png"},
		},
		CreatedAt: created,
	}

	blog := recordToBlog(rec)
	if blog.Type == nil || *blog.Type != "Cloud" {
		t.Fatalf("expected type column Cloud")
	}
	if blog.Description != "Notes" {
		t.Fatalf("expected description to carry summary")
	}

	back := blogToRecord(blog)
	if back.Category != "Cloud" || back.Summary != "Notes" || back.Kind != domain.KindPost {
		t.Fatalf("unexpected record %+v", back)
	}
	if len(back.Content) != 1 || back.Content[0].ReferenceImage != "a.png" {
		t.Fatalf("expected content to survive, got %+v", back.Content)
	}
}

func TestBlogWithoutCategoryHasNullType(t *testing.T) {
	blog := recordToBlog(domain.Record{ID: "01", Kind: domain.KindPost, Title: "x"})
	if blog.Type != nil {
		t.Fatalf("expected null type")
	}
	if blogToRecord(blog).Category != "" {
		t.Fatalf("expected empty category")
	}
}

func TestPublicationConversion(t *testing.T) {
	pub := recordToPublication(domain.Record{ID: "p1", Kind: domain.KindPublication, Title: "Report", FilePath: "r.pdf"})
	back := publicationToRecord(pub)
	if back.FilePath != "r.pdf" || back.Kind != domain.KindPublication {
		t.Fatalf("unexpected record %+v", back)
	}
}
