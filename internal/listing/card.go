package listing

import (
	"net/url"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sentrycore/site"
	"github.com/sentrycore/site/internal/domain"
)

const dateLayout = "January 2, 2006"

type Card struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Summary  string `json:"summary"`
	ImageURL string `json:"imagePath"`
	Href     string `json:"href"`
	Date     string `json:"date"`
	Age      string `json:"age"`
	Category string `json:"category,omitempty"`
}

// Renderer maps records to display cards.
type Renderer struct {
	StorageURL string
	Now        func() time.Time
}

func (r Renderer) Card(rec domain.Record) Card {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}

	card := Card{
		ID:       rec.ID,
		Title:    rec.Title,
		Summary:  rec.Summary,
		ImageURL: site.ResolveResourceURL(r.StorageURL, rec.Kind.ImageBucket(), rec.BannerImage),
		Date:     rec.CreatedAt.Format(dateLayout),
		Age:      humanize.RelTime(rec.CreatedAt, now, "ago", "from now"),
		Category: rec.Category,
	}

	switch rec.Kind {
	case domain.KindPublication:
		card.Href = site.ResolveResourceURL(r.StorageURL, domain.BucketPublicationFiles, rec.FilePath)
	default:
		card.Href = "/blogs/" + url.PathEscape(rec.ID)
	}
	return card
}

func (r Renderer) Cards(recs []domain.Record) []Card {
	cards := make([]Card, 0, len(recs))
	for _, rec := range recs {
		cards = append(cards, r.Card(rec))
	}
	return cards
}
