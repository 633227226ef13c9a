package browse

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/richinex/periscope/internal/clock"
	"github.com/richinex/periscope/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeFetcher serves a fixed tree and records every fetch.
type fakeFetcher struct {
	mu      sync.Mutex
	tree    map[string]*Media
	failing map[string]error
	calls   []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		tree:    make(map[string]*Media),
		failing: make(map[string]error),
	}
}

// add registers id with leaf children named by childIDs.
func (f *fakeFetcher) add(id string, childIDs ...string) {
	media := &Media{MediaContentID: id, Title: id, CanExpand: true, Children: []*Media{}}
	for _, c := range childIDs {
		media.Children = append(media.Children, &Media{
			MediaContentID: c,
			Title:          c,
			CanExpand:      true,
		})
	}
	f.tree[id] = media
}

func (f *fakeFetcher) Fetch(ctx context.Context, id string) (*Media, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	err := f.failing[id]
	media, ok := f.tree[id]
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no such media %q", id)
	}
	return media, nil
}

func (f *fakeFetcher) fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := slices.Clone(f.calls)
	slices.Sort(out)
	return out
}

func ids[M any](nodes []*Node[M]) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

func idTargets(ids ...string) []Target[struct{}] {
	out := make([]Target[struct{}], 0, len(ids))
	for _, id := range ids {
		out = append(out, IDTarget[struct{}](id))
	}
	return out
}

func TestWalkSingleStepKeepsTargetOrder(t *testing.T) {
	f := newFakeFetcher()
	f.add("a", "a1", "a2")
	f.add("b", "b1")
	f.add("c", "c1", "c2")

	w := NewWalker[struct{}](f, WalkerConfig[struct{}]{Logger: testLogger})
	out, err := w.Walk(context.Background(), []Step[struct{}]{{
		Targets:     idTargets("a", "b", "c"),
		Concurrency: 2,
	}})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	want := []string{"a1", "a2", "b1", "c1", "c2"}
	if got := ids(out); !slices.Equal(got, want) {
		t.Errorf("output = %v; want %v", got, want)
	}
}

func TestWalkEmptySteps(t *testing.T) {
	w := NewWalker[struct{}](newFakeFetcher(), WalkerConfig[struct{}]{Logger: testLogger})
	out, err := w.Walk(context.Background(), nil)
	if err != nil || len(out) != 0 {
		t.Errorf("Walk(nil) = %v, %v", out, err)
	}
}

func TestWalkEarlyExitBoundsFetches(t *testing.T) {
	f := newFakeFetcher()
	var targets []string
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("t%d", i)
		f.add(id, id+"-child")
		targets = append(targets, id)
	}

	w := NewWalker[struct{}](f, WalkerConfig[struct{}]{Logger: testLogger})
	out, err := w.Walk(context.Background(), []Step[struct{}]{{
		Targets:     idTargets(targets...),
		Concurrency: 2,
		EarlyExit:   func(out []*Node[struct{}]) bool { return len(out) >= 3 },
	}})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	// The third match arrives in the second chunk of two.
	if got := f.fetched(); len(got) != 4 {
		t.Errorf("fetched %v; want exactly the first two chunks", got)
	}
	if len(out) != 4 {
		t.Errorf("output has %d nodes; want the 4 accumulated", len(out))
	}
}

func TestWalkMatcherAndSorterCoverWholeOutput(t *testing.T) {
	f := newFakeFetcher()
	f.add("a", "3", "skip", "1")
	f.add("b", "2", "4")

	var sorterInputs []int
	w := NewWalker[struct{}](f, WalkerConfig[struct{}]{Logger: testLogger})
	out, err := w.Walk(context.Background(), []Step[struct{}]{{
		Targets:     idTargets("a", "b"),
		Concurrency: 1,
		Matcher:     func(n *Node[struct{}]) bool { return n.Title != "skip" },
		Sorter: func(nodes []*Node[struct{}]) []*Node[struct{}] {
			sorterInputs = append(sorterInputs, len(nodes))
			sorted := slices.Clone(nodes)
			slices.SortFunc(sorted, func(x, y *Node[struct{}]) int {
				return cmpString(y.ID, x.ID)
			})
			return sorted
		},
	}})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	if want := []string{"4", "3", "2", "1"}; !slices.Equal(ids(out), want) {
		t.Errorf("output = %v; want %v", ids(out), want)
	}
	if want := []int{2, 4}; !slices.Equal(sorterInputs, want) {
		t.Errorf("sorter saw %v; want the accumulated output after each chunk %v", sorterInputs, want)
	}
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func TestWalkAdvanceRecurses(t *testing.T) {
	f := newFakeFetcher()
	f.add("root", "2023", "2024")
	f.add("2023", "2023-01")
	f.add("2024", "2024-01", "2024-02")

	w := NewWalker[struct{}](f, WalkerConfig[struct{}]{Logger: testLogger})
	out, err := w.Walk(context.Background(), []Step[struct{}]{{
		Targets: idTargets("root"),
		Matcher: func(n *Node[struct{}]) bool { return n.ID == "2024" },
		Advance: func(out []*Node[struct{}]) []Step[struct{}] {
			return []Step[struct{}]{{Targets: NodeTargets(out)}}
		},
	}})
	if err != nil {
		t.Fatalf("Walk failed: %v", err)
	}

	if want := []string{"2024-01", "2024-02"}; !slices.Equal(ids(out), want) {
		t.Errorf("output = %v; want %v", ids(out), want)
	}
	if slices.Contains(f.fetched(), "2023") {
		t.Error("unmatched directory was fetched")
	}
}

func TestWalkAdvanceWithNoStepsReturnsOutput(t *testing.T) {
	f := newFakeFetcher()
	f.add("root", "x")

	w := NewWalker[struct{}](f, WalkerConfig[struct{}]{Logger: testLogger})
	out, err := w.Walk(context.Background(), []Step[struct{}]{{
		Targets: idTargets("root"),
		Advance: func([]*Node[struct{}]) []Step[struct{}] { return nil },
	}})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids(out), []string{"x"}) {
		t.Errorf("output = %v", ids(out))
	}
}

func TestWalkMultipleStepsFlattenInStepOrder(t *testing.T) {
	f := newFakeFetcher()
	f.add("movies", "m1")
	f.add("images", "i1", "i2")

	w := NewWalker[struct{}](f, WalkerConfig[struct{}]{Logger: testLogger})
	out, err := w.Walk(context.Background(), []Step[struct{}]{
		{Targets: idTargets("movies")},
		{Targets: idTargets("images")},
	})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"m1", "i1", "i2"}; !slices.Equal(ids(out), want) {
		t.Errorf("output = %v; want %v", ids(out), want)
	}
}

func TestWalkMetadataUsesParent(t *testing.T) {
	f := newFakeFetcher()
	f.add("root", "dir")
	f.add("dir", "file")

	type depth struct{ N int }
	generate := func(child *Node[depth], parent *Node[depth]) *depth {
		if parent == nil || parent.Metadata == nil {
			return &depth{N: 1}
		}
		return &depth{N: parent.Metadata.N + 1}
	}

	w := NewWalker[depth](f, WalkerConfig[depth]{Logger: testLogger})
	out, err := w.Walk(context.Background(), []Step[depth]{{
		Targets:  []Target[depth]{IDTarget[depth]("root")},
		Metadata: generate,
		Advance: func(out []*Node[depth]) []Step[depth] {
			return []Step[depth]{{Targets: NodeTargets(out), Metadata: generate}}
		},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].Metadata == nil || out[0].Metadata.N != 2 {
		t.Fatalf("file metadata = %+v", out)
	}
}

func TestWalkExpandedTargetIsNotRefetched(t *testing.T) {
	f := newFakeFetcher()
	expanded := &Node[struct{}]{
		ID:       "rich",
		Children: []*Node[struct{}]{{ID: "kid"}},
	}

	w := NewWalker[struct{}](f, WalkerConfig[struct{}]{Logger: testLogger})
	out, err := w.Walk(context.Background(), []Step[struct{}]{{
		Targets: []Target[struct{}]{NodeTarget(expanded)},
	}})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(ids(out), []string{"kid"}) {
		t.Errorf("output = %v", ids(out))
	}
	if len(f.fetched()) != 0 {
		t.Errorf("expanded node was fetched: %v", f.fetched())
	}
}

func TestWalkCacheServesRepeatWalks(t *testing.T) {
	f := newFakeFetcher()
	f.add("root", "a", "b")

	clk := clock.Fake(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	m := metrics.New()
	w := NewWalker[struct{}](f, WalkerConfig[struct{}]{
		Cache:   NewCache[struct{}](clk),
		Clock:   clk,
		Metrics: m,
		Logger:  testLogger,
	})
	steps := []Step[struct{}]{{Targets: idTargets("root")}}

	for i := 0; i < 2; i++ {
		if _, err := w.Walk(context.Background(), steps); err != nil {
			t.Fatal(err)
		}
	}
	if n := len(f.fetched()); n != 1 {
		t.Errorf("fetched %d times within TTL; want 1", n)
	}

	clk.Advance(DefaultCacheTTL)
	if _, err := w.Walk(context.Background(), steps); err != nil {
		t.Fatal(err)
	}
	if n := len(f.fetched()); n != 2 {
		t.Errorf("fetched %d times after TTL; want 2", n)
	}

	expected := `
# HELP periscope_browse_cache_hits_total Media tree nodes served from the browse cache
# TYPE periscope_browse_cache_hits_total counter
periscope_browse_cache_hits_total 1
`
	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "periscope_browse_cache_hits_total")
	if err != nil {
		t.Error(err)
	}
}

func TestWalkFetchErrorPropagates(t *testing.T) {
	f := newFakeFetcher()
	f.add("ok", "x")
	boom := errors.New("unreachable")
	f.failing["bad"] = boom

	w := NewWalker[struct{}](f, WalkerConfig[struct{}]{Logger: testLogger})
	_, err := w.Walk(context.Background(), []Step[struct{}]{
		{Targets: idTargets("ok")},
		{Targets: idTargets("bad")},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v; want wrapping %v", err, boom)
	}
}

func TestRPCFetcherRequest(t *testing.T) {
	var got BrowseRequest
	requester := requesterFunc(func(_ context.Context, req any, resp any) error {
		got = req.(BrowseRequest)
		*(resp.(*Media)) = Media{MediaContentID: got.MediaContentID, Title: "root"}
		return nil
	})

	media, err := NewRPCFetcher(requester).Fetch(context.Background(), "media-source://x")
	if err != nil {
		t.Fatal(err)
	}
	if got.Type != BrowseRequestType || got.MediaContentID != "media-source://x" {
		t.Errorf("request = %+v", got)
	}
	if media.Title != "root" {
		t.Errorf("media = %+v", media)
	}
}

func TestRPCFetcherRejectsEmptyResponse(t *testing.T) {
	requester := requesterFunc(func(context.Context, any, any) error { return nil })
	if _, err := NewRPCFetcher(requester).Fetch(context.Background(), "id"); err == nil {
		t.Error("expected error for response without content id")
	}
}

type requesterFunc func(ctx context.Context, req any, resp any) error

func (f requesterFunc) Request(ctx context.Context, req any, resp any) error {
	return f(ctx, req, resp)
}
