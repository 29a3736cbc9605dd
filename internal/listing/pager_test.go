package listing

import (
	"testing"

	"github.com/go-playground/assert/v2"

	"github.com/sentrycore/site/internal/domain"
)

func TestPaginateScenario(t *testing.T) {
	all := snapshot()

	first := Paginate(all, 1, 1)
	assert.Equal(t, first.TotalPages, 2)
	assert.Equal(t, ids(first.Items), []string{"2"})

	second := Paginate(all, 1, 2)
	assert.Equal(t, ids(second.Items), []string{"1"})
}

func TestPaginateCoversEveryRecordOnce(t *testing.T) {
	var all []domain.Record
	for i := 0; i < 23; i++ {
		all = append(all, post(string(rune('a'+i)), "", "", "", t1))
	}

	for _, size := range []int{1, 2, 5, 6, 7, 23, 50} {
		total := TotalPages(len(all), size)
		seen := make(map[string]int)
		count := 0
		for k := 1; k <= total; k++ {
			page := Paginate(all, size, k)
			count += len(page.Items)
			for _, r := range page.Items {
				seen[r.ID]++
			}
		}
		assert.Equal(t, count, len(all))
		for id, n := range seen {
			if n != 1 {
				t.Fatalf("record %s appeared on %d pages with size %d", id, n, size)
			}
		}
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, TotalPages(0, 6), 0)
	assert.Equal(t, TotalPages(1, 6), 1)
	assert.Equal(t, TotalPages(6, 6), 1)
	assert.Equal(t, TotalPages(7, 6), 2)
	assert.Equal(t, TotalPages(7, 0), 2)
}

func TestPaginateOutOfRange(t *testing.T) {
	all := snapshot()
	assert.Equal(t, len(Paginate(all, 6, 0).Items), 0)
	assert.Equal(t, len(Paginate(all, 6, 3).Items), 0)
	assert.Equal(t, len(Paginate(nil, 6, 1).Items), 0)
	assert.Equal(t, Paginate(nil, 6, 1).TotalPages, 0)
}
