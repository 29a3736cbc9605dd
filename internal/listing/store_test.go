package listing

import (
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/sentrycore/site/internal/domain"
)

func TestCollectionStoreReplaceAll(t *testing.T) {
	s := NewCollectionStore(snapshot())
	assert.Equal(t, ids(s.Current()), []string{"2", "1"})

	fresh := append([]domain.Record{post("3", "C", "z", "", t3)}, snapshot()...)
	s.ReplaceAll(fresh)
	assert.Equal(t, ids(s.Current()), []string{"3", "2", "1"})

	s.ReplaceAll(nil)
	assert.Equal(t, s.Len(), 0)
}

func TestCollectionStoreCurrentIsACopy(t *testing.T) {
	s := NewCollectionStore(snapshot())
	got := s.Current()
	got[0].Title = "mutated"
	assert.Equal(t, s.Current()[0].Title, "B")
}
