package listing

import (
	"github.com/sentrycore/site/internal/domain"
)

type Phase string

const (
	PhaseSettled Phase = "settled"
	PhaseLoading Phase = "loading"
)

// PageState is the page transition state of a list view. A page change goes
// through PhaseLoading before it settles on the same number.
type PageState struct {
	Phase  Phase `json:"phase"`
	Number int   `json:"number"`
}

type Page struct {
	Items      []domain.Record `json:"items"`
	Number     int             `json:"number"`
	TotalPages int             `json:"totalPages"`
}

// TotalPages is ceil(count/pageSize); zero when there is nothing to show.
func TotalPages(count, pageSize int) int {
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	return (count + pageSize - 1) / pageSize
}

// Paginate slices items into the 1-based page pageNumber. Pages outside
// [1, TotalPages] are empty.
func Paginate(items []domain.Record, pageSize, pageNumber int) Page {
	if pageSize <= 0 {
		pageSize = domain.DefaultPageSize
	}
	page := Page{
		Items:      []domain.Record{},
		Number:     pageNumber,
		TotalPages: TotalPages(len(items), pageSize),
	}
	if pageNumber < 1 || pageNumber > page.TotalPages {
		return page
	}

	start := (pageNumber - 1) * pageSize
	end := min(start+pageSize, len(items))
	page.Items = items[start:end]
	return page
}
