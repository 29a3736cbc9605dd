package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sentrycore/site"
	"github.com/sentrycore/site/internal/domain"
)

// --- mocks ---

type mockFetcher struct {
	mu      sync.Mutex
	calls   int
	results [][]domain.Record
	gates   []chan struct{}
	err     error
}

func (m *mockFetcher) FetchAll(ctx context.Context, table string) ([]domain.Record, error) {
	m.mu.Lock()
	i := m.calls
	m.calls++
	var gate chan struct{}
	if i < len(m.gates) {
		gate = m.gates[i]
	}
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if m.err != nil {
		return nil, m.err
	}
	if i < len(m.results) {
		return m.results[i], nil
	}
	return m.results[len(m.results)-1], nil
}

func (m *mockFetcher) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type failingFeed struct{}

func (failingFeed) Subscribe(ctx context.Context, filter Filter, onEvent EventFunc, onStatus StatusFunc) (Channel, error) {
	return nil, fmt.Errorf("connection refused")
}

// eagerFeed delivers an event before reporting the subscription status.
type eagerFeed struct {
	ev site.ChangeEvent
}

func (f eagerFeed) Subscribe(ctx context.Context, filter Filter, onEvent EventFunc, onStatus StatusFunc) (Channel, error) {
	onEvent(f.ev)
	onStatus(site.StatusSubscribed, nil)
	return nopChannel{}, nil
}

type nopChannel struct{}

func (nopChannel) Close() error { return nil }

type snapshots struct {
	mu   sync.Mutex
	got  [][]domain.Record
	recs []domain.Record
}

func (s *snapshots) onFresh(fresh []domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.got = append(s.got, fresh)
}

func (s *snapshots) onRecord(rec domain.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
}

func (s *snapshots) last() []domain.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.got) == 0 {
		return nil
	}
	return s.got[len(s.got)-1]
}

func (s *snapshots) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.got)
}

func rec(id string, at time.Time) domain.Record {
	return domain.Record{ID: id, Kind: domain.KindPost, Title: "t" + id, CreatedAt: at}
}

func ids(recs []domain.Record) string {
	s := ""
	for _, r := range recs {
		s += r.ID
	}
	return s
}

var (
	t1 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	t2 = t1.Add(time.Hour)
	t3 = t2.Add(time.Hour)
)

// --- tests ---

func TestAttachReplacesWithFreshSnapshot(t *testing.T) {
	broker := NewBroker()
	fetcher := &mockFetcher{
		results: [][]domain.Record{{rec("3", t3), rec("2", t2), rec("1", t1)}},
	}
	sub := NewSubscriber(broker, fetcher)

	var snaps snapshots
	s, err := sub.Attach(context.Background(), domain.TableBlogs, snaps.onFresh)
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	defer s.Detach()

	if s.State() != StateSubscribed {
		t.Fatalf("expected Subscribed got %s", s.State())
	}

	err = broker.Publish(context.Background(), site.ChangeEvent{Type: site.EventInsert, Table: domain.TableBlogs, RecordID: "3"})
	if err != nil {
		t.Fatalf("publish failed: %v", err)
	}
	s.Wait()

	if fetcher.Calls() != 1 {
		t.Fatalf("expected exactly one fetch got %d", fetcher.Calls())
	}
	if got := ids(snaps.last()); got != "321" {
		t.Fatalf("expected snapshot 321 got %s", got)
	}
}

func TestAttachIgnoresOtherTables(t *testing.T) {
	broker := NewBroker()
	fetcher := &mockFetcher{results: [][]domain.Record{{}}}
	sub := NewSubscriber(broker, fetcher)

	var snaps snapshots
	s, err := sub.Attach(context.Background(), domain.TableBlogs, snaps.onFresh)
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	defer s.Detach()

	_ = broker.Publish(context.Background(), site.ChangeEvent{Type: site.EventInsert, Table: domain.TablePublications})
	s.Wait()

	if fetcher.Calls() != 0 {
		t.Fatalf("expected no fetch for another table")
	}
}

func TestFetchFailureLeavesSnapshotUntouched(t *testing.T) {
	broker := NewBroker()
	fetcher := &mockFetcher{err: fmt.Errorf("boom")}
	sub := NewSubscriber(broker, fetcher)

	var snaps snapshots
	s, err := sub.Attach(context.Background(), domain.TableBlogs, snaps.onFresh)
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	defer s.Detach()

	_ = broker.Publish(context.Background(), site.ChangeEvent{Type: site.EventDelete, Table: domain.TableBlogs})
	s.Wait()

	if snaps.count() != 0 {
		t.Fatalf("expected no snapshot on fetch failure")
	}
	if s.State() != StateSubscribed {
		t.Fatalf("fetch failure should not change subscription state")
	}
}

func TestDetachDiscardsInflightRefresh(t *testing.T) {
	broker := NewBroker()
	gate := make(chan struct{})
	fetcher := &mockFetcher{
		results: [][]domain.Record{{rec("1", t1)}},
		gates:   []chan struct{}{gate},
	}
	sub := NewSubscriber(broker, fetcher)

	var snaps snapshots
	s, err := sub.Attach(context.Background(), domain.TableBlogs, snaps.onFresh)
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}

	_ = broker.Publish(context.Background(), site.ChangeEvent{Type: site.EventUpdate, Table: domain.TableBlogs})
	s.Detach()
	close(gate)
	s.Wait()

	if snaps.count() != 0 {
		t.Fatalf("refresh landed after detach")
	}
	if s.State() != StateDetached {
		t.Fatalf("expected Detached got %s", s.State())
	}
	if broker.Len() != 0 {
		t.Fatalf("expected feed channel to be closed")
	}
}

func TestDetachIsIdempotent(t *testing.T) {
	broker := NewBroker()
	sub := NewSubscriber(broker, &mockFetcher{results: [][]domain.Record{{}}})

	s, err := sub.Attach(context.Background(), domain.TableBlogs, func([]domain.Record) {})
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	s.Detach()
	s.Detach()

	_ = broker.Publish(context.Background(), site.ChangeEvent{Type: site.EventInsert, Table: domain.TableBlogs})
	s.Wait()
}

func TestUnsequencedLastCompletionWins(t *testing.T) {
	broker := NewBroker()
	first := make(chan struct{})
	second := make(chan struct{})
	fetcher := &mockFetcher{
		results: [][]domain.Record{
			{rec("1", t1)},
			{rec("2", t2), rec("1", t1)},
		},
		gates: []chan struct{}{first, second},
	}
	sub := NewSubscriber(broker, fetcher)

	var snaps snapshots
	s, err := sub.Attach(context.Background(), domain.TableBlogs, snaps.onFresh)
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	defer s.Detach()

	_ = broker.Publish(context.Background(), site.ChangeEvent{Type: site.EventInsert, Table: domain.TableBlogs})
	waitCalls(t, fetcher, 1)
	_ = broker.Publish(context.Background(), site.ChangeEvent{Type: site.EventInsert, Table: domain.TableBlogs})
	waitCalls(t, fetcher, 2)

	close(second)
	waitSnapshots(t, &snaps, 1)
	close(first)
	s.Wait()

	if got := ids(snaps.last()); got != "1" {
		t.Fatalf("expected the late first fetch to win, got %s", got)
	}
}

func TestSequencedDropsStaleCompletion(t *testing.T) {
	broker := NewBroker()
	first := make(chan struct{})
	second := make(chan struct{})
	fetcher := &mockFetcher{
		results: [][]domain.Record{
			{rec("1", t1)},
			{rec("2", t2), rec("1", t1)},
		},
		gates: []chan struct{}{first, second},
	}
	sub := NewSubscriber(broker, fetcher, WithSequencedRefresh())

	var snaps snapshots
	s, err := sub.Attach(context.Background(), domain.TableBlogs, snaps.onFresh)
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	defer s.Detach()

	_ = broker.Publish(context.Background(), site.ChangeEvent{Type: site.EventInsert, Table: domain.TableBlogs})
	waitCalls(t, fetcher, 1)
	_ = broker.Publish(context.Background(), site.ChangeEvent{Type: site.EventInsert, Table: domain.TableBlogs})
	waitCalls(t, fetcher, 2)

	close(second)
	waitSnapshots(t, &snaps, 1)
	close(first)
	s.Wait()

	if snaps.count() != 1 {
		t.Fatalf("expected stale refresh to be dropped, got %d snapshots", snaps.count())
	}
	if got := ids(snaps.last()); got != "21" {
		t.Fatalf("expected newest snapshot 21 got %s", got)
	}
}

func TestEventsBeforeStatusAreHandled(t *testing.T) {
	fetcher := &mockFetcher{results: [][]domain.Record{{rec("1", t1)}}}
	feed := eagerFeed{ev: site.ChangeEvent{Type: site.EventInsert, Table: domain.TableBlogs}}
	sub := NewSubscriber(feed, fetcher)

	var states []State
	var snaps snapshots
	s, err := sub.Attach(context.Background(), domain.TableBlogs, snaps.onFresh, WithStateChange(func(st State) {
		states = append(states, st)
	}))
	if err != nil {
		t.Fatalf("attach failed: %v", err)
	}
	defer s.Detach()
	s.Wait()

	if snaps.count() != 1 {
		t.Fatalf("expected early event to trigger a refresh")
	}
	if len(states) != 2 || states[0] != StateConnecting || states[1] != StateSubscribed {
		t.Fatalf("unexpected transitions %v", states)
	}
}

func TestAttachSubscribeFailure(t *testing.T) {
	sub := NewSubscriber(failingFeed{}, &mockFetcher{})
	_, err := sub.Attach(context.Background(), domain.TableBlogs, func([]domain.Record) {})
	if err == nil {
		t.Fatalf("expected subscribe error")
	}
}

func TestWatchDeliversUpdatesForOneRecord(t *testing.T) {
	broker := NewBroker()
	sub := NewSubscriber(broker, &mockFetcher{})

	var snaps snapshots
	s, err := sub.Watch(context.Background(), domain.TableBlogs, "42", snaps.onRecord)
	if err != nil {
		t.Fatalf("watch failed: %v", err)
	}

	updated, _ := json.Marshal(domain.Record{ID: "42", Title: "updated"})
	other, _ := json.Marshal(domain.Record{ID: "7", Title: "other"})

	ctx := context.Background()
	_ = broker.Publish(ctx, site.ChangeEvent{Type: site.EventUpdate, Table: domain.TableBlogs, RecordID: "7", New: other})
	_ = broker.Publish(ctx, site.ChangeEvent{Type: site.EventInsert, Table: domain.TableBlogs, RecordID: "42", New: updated})
	_ = broker.Publish(ctx, site.ChangeEvent{Type: site.EventUpdate, Table: domain.TableBlogs, RecordID: "42", New: updated})

	s.Detach()
	_ = broker.Publish(ctx, site.ChangeEvent{Type: site.EventUpdate, Table: domain.TableBlogs, RecordID: "42", New: updated})

	if len(snaps.recs) != 1 || snaps.recs[0].Title != "updated" {
		t.Fatalf("unexpected records %+v", snaps.recs)
	}
}

func waitCalls(t *testing.T, f *mockFetcher, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for f.Calls() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d fetches", n)
		}
		time.Sleep(time.Millisecond)
	}
}

func waitSnapshots(t *testing.T, s *snapshots, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for s.count() < n {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d snapshots", n)
		}
		time.Sleep(time.Millisecond)
	}
}
