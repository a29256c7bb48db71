package classify_test

import (
	"context"
	"errors"
	"testing"

	"imgsauce/internal/classify"
	"imgsauce/internal/services"
)

type stubLookup struct {
	assets map[int64]classify.Asset
	errs   map[int64]error
	calls  []int64
}

func (s *stubLookup) GetAsset(_ context.Context, id int64) (classify.Asset, error) {
	s.calls = append(s.calls, id)
	if err := s.errs[id]; err != nil {
		return classify.Asset{}, err
	}
	asset, ok := s.assets[id]
	if !ok {
		return classify.Asset{RemoteID: id, Width: 1000, Height: 1000}, nil
	}
	return asset, nil
}

var defaultThresholds = classify.Thresholds{Low: 65, High: 92}

func TestClassifyNoMatch(t *testing.T) {
	lookup := &stubLookup{}
	out, err := classify.ClassifyResults(context.Background(), lookup, classify.Dimensions{Width: 100, Height: 100},
		[]classify.Result{{Similarity: 65, RemoteID: 1}, {Similarity: 40, RemoteID: 2}}, defaultThresholds)
	if err != nil {
		t.Fatalf("ClassifyResults: %v", err)
	}
	if out.Disposition != classify.NoMatch || len(out.Pending) != 0 {
		t.Fatalf("expected no match, got %+v", out)
	}
	if len(lookup.calls) != 0 {
		t.Fatalf("expected no lookups, got %v", lookup.calls)
	}
}

func TestClassifyThresholdPartition(t *testing.T) {
	lookup := &stubLookup{assets: map[int64]classify.Asset{
		1: {RemoteID: 1, Width: 10, Height: 10},
	}}
	results := []classify.Result{
		{Similarity: 50, RemoteID: 5},
		{Similarity: 92, RemoteID: 2},
		{Similarity: 96, RemoteID: 1},
		{Similarity: 65.01, RemoteID: 3},
		{Similarity: 65, RemoteID: 4},
	}
	out, err := classify.ClassifyResults(context.Background(), lookup, classify.Dimensions{Width: 500, Height: 500}, results, defaultThresholds)
	if err != nil {
		t.Fatalf("ClassifyResults: %v", err)
	}
	if out.Disposition != classify.Review {
		t.Fatalf("expected review, got %v", out.Disposition)
	}
	if len(out.Pending) != 2 || out.Pending[0].RemoteID != 2 || out.Pending[1].RemoteID != 3 {
		t.Fatalf("unexpected pending: %+v", out.Pending)
	}
	if len(out.LowerResolution) != 1 || out.LowerResolution[0].RemoteID != 1 {
		t.Fatalf("expected 96%% hit rejected on resolution, got %+v", out.LowerResolution)
	}
	for _, p := range out.Pending {
		if p.Similarity > defaultThresholds.High || p.Similarity <= defaultThresholds.Low {
			t.Fatalf("pending outside ambiguous band: %+v", p)
		}
	}
}

func TestClassifyConfirmedStopsWalk(t *testing.T) {
	lookup := &stubLookup{assets: map[int64]classify.Asset{
		7: {RemoteID: 7, Width: 1200, Height: 800},
	}}
	results := []classify.Result{
		{Similarity: 70, RemoteID: 8},
		{Similarity: 96.2, RemoteID: 7},
	}
	out, err := classify.ClassifyResults(context.Background(), lookup, classify.Dimensions{Width: 1200, Height: 800}, results, defaultThresholds)
	if err != nil {
		t.Fatalf("ClassifyResults: %v", err)
	}
	if out.Disposition != classify.Confirmed || out.Match.RemoteID != 7 {
		t.Fatalf("expected confirmed 7, got %+v", out)
	}
	if len(out.Pending) != 0 {
		t.Fatalf("confirmed outcome must not leave pending, got %+v", out.Pending)
	}
}

func TestClassifyResolutionGuardContinues(t *testing.T) {
	lookup := &stubLookup{assets: map[int64]classify.Asset{
		1: {RemoteID: 1, Width: 400, Height: 400},
		2: {RemoteID: 2, Width: 1000, Height: 1000},
	}}
	results := []classify.Result{
		{Similarity: 98, RemoteID: 1},
		{Similarity: 95, RemoteID: 2},
	}
	out, err := classify.ClassifyResults(context.Background(), lookup, classify.Dimensions{Width: 1000, Height: 1000}, results, defaultThresholds)
	if err != nil {
		t.Fatalf("ClassifyResults: %v", err)
	}
	if out.Disposition != classify.Confirmed || out.Match.RemoteID != 2 {
		t.Fatalf("expected second candidate confirmed, got %+v", out)
	}
	if len(out.LowerResolution) != 1 || out.LowerResolution[0].RemoteID != 1 {
		t.Fatalf("expected first candidate rejected, got %+v", out.LowerResolution)
	}
}

func TestClassifyResolutionBoundary(t *testing.T) {
	// local sum 2000 * 0.95 = 1900; a remote sum of exactly 1900 is accepted.
	lookup := &stubLookup{assets: map[int64]classify.Asset{
		1: {RemoteID: 1, Width: 950, Height: 950},
	}}
	out, err := classify.ClassifyResults(context.Background(), lookup, classify.Dimensions{Width: 1000, Height: 1000},
		[]classify.Result{{Similarity: 99, RemoteID: 1}}, defaultThresholds)
	if err != nil {
		t.Fatalf("ClassifyResults: %v", err)
	}
	if out.Disposition != classify.Confirmed {
		t.Fatalf("expected confirmed at boundary, got %v", out.Disposition)
	}

	lookup.assets[1] = classify.Asset{RemoteID: 1, Width: 950, Height: 949}
	out, err = classify.ClassifyResults(context.Background(), lookup, classify.Dimensions{Width: 1000, Height: 1000},
		[]classify.Result{{Similarity: 99, RemoteID: 1}}, defaultThresholds)
	if err != nil {
		t.Fatalf("ClassifyResults: %v", err)
	}
	if out.Disposition != classify.LowerResolution {
		t.Fatalf("expected lower resolution below boundary, got %v", out.Disposition)
	}
}

func TestClassifyBannedStops(t *testing.T) {
	lookup := &stubLookup{assets: map[int64]classify.Asset{
		1: {RemoteID: 1, Width: 2000, Height: 2000, Banned: true},
	}}
	results := []classify.Result{
		{Similarity: 97, RemoteID: 1},
		{Similarity: 96, RemoteID: 2},
		{Similarity: 80, RemoteID: 3},
	}
	out, err := classify.ClassifyResults(context.Background(), lookup, classify.Dimensions{Width: 100, Height: 100}, results, defaultThresholds)
	if err != nil {
		t.Fatalf("ClassifyResults: %v", err)
	}
	if out.Disposition != classify.Banned || out.Match.RemoteID != 1 {
		t.Fatalf("expected banned, got %+v", out)
	}
	if len(lookup.calls) != 1 {
		t.Fatalf("expected walk to stop after banned asset, calls=%v", lookup.calls)
	}
}

func TestClassifyStableTies(t *testing.T) {
	out, err := classify.ClassifyResults(context.Background(), &stubLookup{}, classify.Dimensions{},
		[]classify.Result{{Similarity: 70, RemoteID: 1}, {Similarity: 80, RemoteID: 2}, {Similarity: 70, RemoteID: 3}},
		defaultThresholds)
	if err != nil {
		t.Fatalf("ClassifyResults: %v", err)
	}
	got := []int64{out.Pending[0].RemoteID, out.Pending[1].RemoteID, out.Pending[2].RemoteID}
	if got[0] != 2 || got[1] != 1 || got[2] != 3 {
		t.Fatalf("unexpected order: %v", got)
	}
}

func TestClassifyLookupFailureReturnsPending(t *testing.T) {
	boom := errors.New("board down")
	lookup := &stubLookup{errs: map[int64]error{1: boom}}
	out, err := classify.ClassifyResults(context.Background(), lookup, classify.Dimensions{Width: 10, Height: 10},
		[]classify.Result{{Similarity: 99, RemoteID: 1}, {Similarity: 70, RemoteID: 2}}, defaultThresholds)
	if !errors.Is(err, boom) {
		t.Fatalf("expected lookup error, got %v", err)
	}
	if len(out.Pending) != 2 || out.Pending[0].RemoteID != 1 || out.Pending[1].RemoteID != 2 {
		t.Fatalf("expected failing and unreached candidates returned as pending, got %+v", out.Pending)
	}
}

func TestClassifyMissingPostContinuesWalk(t *testing.T) {
	gone := services.Wrap(services.ErrSkipFile, "danbooru", "get post", "post not found", nil)
	lookup := &stubLookup{errs: map[int64]error{100: gone}}
	results := []classify.Result{
		{Similarity: 70, RemoteID: 103},
		{Similarity: 97, RemoteID: 100},
		{Similarity: 80, RemoteID: 102},
		{Similarity: 96, RemoteID: 101},
	}
	out, err := classify.ClassifyResults(context.Background(), lookup, classify.Dimensions{Width: 500, Height: 500}, results, defaultThresholds)
	if err != nil {
		t.Fatalf("ClassifyResults: %v", err)
	}
	if out.Disposition != classify.Confirmed || out.Match.RemoteID != 101 {
		t.Fatalf("expected next high candidate confirmed, got %+v", out)
	}
	if len(out.Unavailable) != 1 || out.Unavailable[0].RemoteID != 100 {
		t.Fatalf("expected missing post reported, got %+v", out.Unavailable)
	}
	if len(out.Pending) != 0 {
		t.Fatalf("missing post must not become pending, got %+v", out.Pending)
	}

	lookup.errs[101] = gone
	out, err = classify.ClassifyResults(context.Background(), lookup, classify.Dimensions{Width: 500, Height: 500}, results, defaultThresholds)
	if err != nil {
		t.Fatalf("ClassifyResults: %v", err)
	}
	if out.Disposition != classify.Review || len(out.Unavailable) != 2 {
		t.Fatalf("expected review with two missing posts, got %+v", out)
	}
	if len(out.Pending) != 2 || out.Pending[0].RemoteID != 102 || out.Pending[1].RemoteID != 103 {
		t.Fatalf("expected band candidates pending, got %+v", out.Pending)
	}
}
