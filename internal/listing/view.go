package listing

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/sentrycore/site/internal/domain"
	"github.com/sentrycore/site/internal/feed"
)

const DefaultTransitionDelay = 200 * time.Millisecond

// ViewState is everything a list view shows at one instant.
type ViewState struct {
	Table      string   `json:"table"`
	Query      string   `json:"query"`
	Category   string   `json:"category"`
	Categories []string `json:"categories"`
	Page       int      `json:"page"`
	Phase      Phase    `json:"phase"`
	TotalPages int      `json:"totalPages"`
	Total      int      `json:"total"`
	Items      []Card   `json:"items"`
	Connected  bool     `json:"connected"`
}

type ViewConfig struct {
	Kind            domain.Kind
	PageSize        int
	TransitionDelay time.Duration
	Renderer        Renderer
	OnChange        func(ViewState)
}

// ListView is one mounted live filtered list. OnChange is called with the
// view's lock held and must not call back into the view.
type ListView struct {
	kind       domain.Kind
	pageSize   int
	delay      time.Duration
	renderer   Renderer
	onChange   func(ViewState)
	store      *CollectionStore
	subscriber *feed.Subscriber

	mu        sync.Mutex
	query     string
	category  string
	current   int
	pending   int
	timer     *time.Timer
	connected bool
	closed    bool
	sub       *feed.Subscription
}

// NewListView creates a view seeded with the initial snapshot. subscriber may
// be nil, in which case the view never goes live.
func NewListView(conf ViewConfig, seed []domain.Record, subscriber *feed.Subscriber) *ListView {
	if conf.PageSize <= 0 {
		conf.PageSize = domain.DefaultPageSize
	}
	if conf.TransitionDelay <= 0 {
		conf.TransitionDelay = DefaultTransitionDelay
	}
	return &ListView{
		kind:       conf.Kind,
		pageSize:   conf.PageSize,
		delay:      conf.TransitionDelay,
		renderer:   conf.Renderer,
		onChange:   conf.OnChange,
		store:      NewCollectionStore(seed),
		subscriber: subscriber,
		category:   domain.AllCategories,
		current:    1,
	}
}

// Mount attaches the change subscription. A failing subscription is logged
// and the view keeps showing its snapshot.
func (v *ListView) Mount(ctx context.Context) {
	if v.subscriber != nil {
		sub, err := v.subscriber.Attach(ctx, v.kind.Table(), v.applySnapshot, feed.WithStateChange(v.setFeedState))
		if err != nil {
			slog.ErrorContext(
				ctx, "Error setting up real-time",
				slog.String("error", err.Error()),
				slog.String("table", v.kind.Table()),
				slog.String("module", "listing"),
			)
		} else {
			v.mu.Lock()
			if v.closed {
				v.mu.Unlock()
				sub.Detach()
				return
			}
			v.sub = sub
			v.mu.Unlock()
		}
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.emit()
}

func (v *ListView) applySnapshot(fresh []domain.Record) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.store.ReplaceAll(fresh)
	v.emit()
}

func (v *ListView) setFeedState(state feed.State) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.connected = state == feed.StateSubscribed
	v.emit()
}

// SetQuery changes the search text and returns to the first page.
func (v *ListView) SetQuery(query string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.query = query
	v.resetPage()
	v.emit()
}

// SetCategory changes the category filter and returns to the first page.
func (v *ListView) SetCategory(category string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	if category == "" {
		category = domain.AllCategories
	}
	v.category = category
	v.resetPage()
	v.emit()
}

// SelectPage starts a transition to page n: the view shows a loading
// placeholder for the transition delay and then settles on n. Selecting the
// settled page, the page already loading, or one outside the current page
// range does nothing; a transition in progress keeps going.
func (v *ListView) SelectPage(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	if n == v.current || n == v.pending {
		return
	}
	total := TotalPages(len(v.visible()), v.pageSize)
	if n < 1 || n > total {
		return
	}

	if v.timer != nil {
		v.timer.Stop()
	}
	v.pending = n
	v.emit()

	v.timer = time.AfterFunc(v.delay, func() {
		v.settle(n)
	})
}

func (v *ListView) settle(n int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed || v.pending != n {
		return
	}
	v.current = n
	v.pending = 0
	v.timer = nil
	v.emit()
}

func (v *ListView) resetPage() {
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	v.pending = 0
	v.current = 1
}

func (v *ListView) PageState() PageState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pageState()
}

func (v *ListView) pageState() PageState {
	if v.pending != 0 {
		return PageState{Phase: PhaseLoading, Number: v.pending}
	}
	return PageState{Phase: PhaseSettled, Number: v.current}
}

func (v *ListView) State() ViewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state()
}

// Records returns the store's current snapshot.
func (v *ListView) Records() []domain.Record {
	return v.store.Current()
}

func (v *ListView) visible() []domain.Record {
	return Visible(v.store.Current(), v.query, v.category)
}

func (v *ListView) state() ViewState {
	all := v.store.Current()
	visible := Visible(all, v.query, v.category)
	ps := v.pageState()

	state := ViewState{
		Table:      v.kind.Table(),
		Query:      v.query,
		Category:   v.category,
		Categories: []string{},
		Page:       ps.Number,
		Phase:      ps.Phase,
		TotalPages: TotalPages(len(visible), v.pageSize),
		Total:      len(visible),
		Items:      []Card{},
		Connected:  v.connected,
	}
	if v.kind == domain.KindPost {
		state.Categories = Categories(all)
	}
	if ps.Phase == PhaseSettled {
		page := Paginate(visible, v.pageSize, ps.Number)
		state.Items = v.renderer.Cards(page.Items)
	}
	return state
}

func (v *ListView) emit() {
	if v.onChange == nil {
		return
	}
	v.onChange(v.state())
}

// Close detaches the subscription. No state change is emitted afterwards.
func (v *ListView) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	if v.timer != nil {
		v.timer.Stop()
		v.timer = nil
	}
	sub := v.sub
	v.sub = nil
	v.mu.Unlock()

	if sub != nil {
		sub.Detach()
	}
}
