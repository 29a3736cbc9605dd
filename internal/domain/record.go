package domain

import "time"

type Kind string

const (
	KindPost        Kind = "post"
	KindPublication Kind = "publication"
)

const (
	TableBlogs        = "blogs"
	TablePublications = "publications"
	TableContacts     = "contacts"
	TableSolutions    = "solutions"
)

const (
	BucketBlogImages        = "blog-images"
	BucketPublicationImages = "publication-images"
	BucketPublicationFiles  = "publication-files"
)

// AllCategories is the facet value that disables category filtering.
const AllCategories = "All"

// Record is one entry of a list collection, either a blog post or a publication.
type Record struct {
	ID          string         `json:"id"`
	Kind        Kind           `json:"kind"`
	Title       string         `json:"title"`
	Summary     string         `json:"summary"`
	BannerImage string         `json:"bannerImage"`
	Category    string         `json:"category,omitempty"`
	FilePath    string         `json:"filePath,omitempty"`
	Content     []ContentBlock `json:"content,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// ContentBlock is a section of a blog post body.
type ContentBlock struct {
	Title          string `json:"title,omitempty"`
	Description    string `json:"description"`
	ReferenceImage string `json:"referenceImage,omitempty"`
}

// KindOfTable maps a collection table to the kind of records it holds.
func KindOfTable(table string) (Kind, bool) {
	switch table {
	case TableBlogs:
		return KindPost, true
	case TablePublications:
		return KindPublication, true
	default:
		return "", false
	}
}

func (k Kind) Table() string {
	switch k {
	case KindPost:
		return TableBlogs
	case KindPublication:
		return TablePublications
	default:
		return ""
	}
}

func (k Kind) ImageBucket() string {
	if k == KindPublication {
		return BucketPublicationImages
	}
	return BucketBlogImages
}
