package bot

import (
	"context"
	"fmt"
	"testing"

	"game-hunter/internal/aggregate"
	"game-hunter/internal/search"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePrices struct {
	result map[string]aggregate.Snapshot
	err    error
	calls  []uint
}

func (f *fakePrices) Prices(ctx context.Context, gameID uint) (map[string]aggregate.Snapshot, error) {
	f.calls = append(f.calls, gameID)
	return f.result, f.err
}

type fakeHistory struct {
	result map[string][]aggregate.PricePoint
	err    error
}

func (f *fakeHistory) History(ctx context.Context, gameID uint) (map[string][]aggregate.PricePoint, error) {
	return f.result, f.err
}

type fakeNotifier struct {
	sent []string
}

func (f *fakeNotifier) Notify(ctx context.Context, text string) error {
	f.sent = append(f.sent, text)
	return nil
}

func testFlow(t *testing.T, titles []search.Entry) (*Flow, *fakePrices, *fakeHistory, *fakeNotifier) {
	t.Helper()
	index := search.NewIndex(func(ctx context.Context) ([]search.Entry, error) {
		return titles, nil
	})
	require.NoError(t, index.Refresh(context.Background()))

	prices := &fakePrices{result: map[string]aggregate.Snapshot{"SiteA": {LocalID: "a1"}}}
	history := &fakeHistory{result: map[string][]aggregate.PricePoint{"SiteA": {}}}
	notifier := &fakeNotifier{}
	flow := NewFlow(index, prices, history, notifier, zap.NewNop())
	return flow, prices, history, notifier
}

func titles() []search.Entry {
	return []search.Entry{
		{ID: 1, Title: "Half-Life 2"},
		{ID: 2, Title: "Half-Life"},
		{ID: 3, Title: "Half-Life: Alyx"},
		{ID: 4, Title: "Half-Life 2: Episode One"},
		{ID: 5, Title: "Portal 2"},
	}
}

const session = int64(100)

func TestQueryEmitsCappedCandidatePage(t *testing.T) {
	flow, _, _, _ := testFlow(t, titles())

	action := flow.Advance(context.Background(), session, QueryEvent{Text: "half life"})

	candidates, ok := action.(CandidatesAction)
	require.True(t, ok, "expected CandidatesAction, got %T", action)
	assert.Len(t, candidates.Candidates, 3)
	assert.True(t, candidates.HasMore)
	assert.False(t, candidates.NoDirectMatch)
	assert.Equal(t, "half life", candidates.Query)
	assert.Equal(t, StateSearching, flow.StateOf(session))
}

func TestShowMoreRecomputesFullList(t *testing.T) {
	flow, _, _, _ := testFlow(t, titles())

	first := flow.Advance(context.Background(), session, ShowMoreEvent{Query: "half life"})
	second := flow.Advance(context.Background(), session, ShowMoreEvent{Query: "half life"})

	full, ok := first.(CandidatesAction)
	require.True(t, ok)
	assert.Len(t, full.Candidates, 4)
	assert.False(t, full.HasMore)
	// Expansion is idempotent: pressing the button twice gives the
	// same list again.
	assert.Equal(t, first, second)
}

func TestShowMoreKeepsFallbackMarker(t *testing.T) {
	flow, _, _, _ := testFlow(t, titles())

	action := flow.Advance(context.Background(), session, ShowMoreEvent{Query: "qqqqqq"})

	candidates, ok := action.(CandidatesAction)
	require.True(t, ok)
	assert.True(t, candidates.NoDirectMatch, "expanding a suggestions-only list must still read as one")
	assert.NotEmpty(t, candidates.Candidates)
}

func TestInlineMatchesCappedAtAnswerLimit(t *testing.T) {
	entries := make([]search.Entry, 0, 60)
	for i := 0; i < 60; i++ {
		entries = append(entries, search.Entry{ID: uint(i + 1), Title: fmt.Sprintf("Portal %d", i+1)})
	}
	flow, _, _, _ := testFlow(t, entries)

	matches := flow.InlineMatches(context.Background(), "portal")

	assert.Len(t, matches, 50)
}

func TestEmptyInlineQueryRefreshesIndex(t *testing.T) {
	loaded := 0
	index := search.NewIndex(func(ctx context.Context) ([]search.Entry, error) {
		loaded++
		return titles(), nil
	})
	flow := NewFlow(index, &fakePrices{}, &fakeHistory{}, &fakeNotifier{}, zap.NewNop())

	matches := flow.InlineMatches(context.Background(), "   ")

	assert.Nil(t, matches)
	assert.Equal(t, 1, loaded)
	assert.Len(t, index.Entries(), 5)
}

func TestExactTitleSkipsTheList(t *testing.T) {
	flow, prices, _, _ := testFlow(t, titles())

	action := flow.Advance(context.Background(), session, QueryEvent{Text: "Half-Life 2"})

	detail, ok := action.(DetailAction)
	require.True(t, ok, "expected DetailAction, got %T", action)
	assert.Equal(t, uint(1), detail.GameID)
	assert.Equal(t, []uint{1}, prices.calls)
}

func TestHopelessQueryFallsBackToSuggestions(t *testing.T) {
	flow, _, _, _ := testFlow(t, titles())

	action := flow.Advance(context.Background(), session, QueryEvent{Text: "qqqqqq"})

	candidates, ok := action.(CandidatesAction)
	require.True(t, ok)
	assert.True(t, candidates.NoDirectMatch)
	assert.NotEmpty(t, candidates.Candidates)
}

func TestSelectionEmitsDetail(t *testing.T) {
	flow, prices, _, _ := testFlow(t, titles())

	action := flow.Advance(context.Background(), session, SelectEvent{GameID: 5})

	detail, ok := action.(DetailAction)
	require.True(t, ok)
	assert.Equal(t, uint(5), detail.GameID)
	assert.Equal(t, []uint{5}, prices.calls)
	assert.Equal(t, StateSearching, flow.StateOf(session))
}

func TestSelectionOfUnknownGameIsNotFound(t *testing.T) {
	flow, prices, _, _ := testFlow(t, titles())
	prices.result = nil
	prices.err = aggregate.ErrNotFound

	action := flow.Advance(context.Background(), session, SelectEvent{GameID: 999})

	_, ok := action.(NotFoundAction)
	assert.True(t, ok, "expected NotFoundAction, got %T", action)
}

func TestHistoryRequestEmitsChart(t *testing.T) {
	flow, _, _, _ := testFlow(t, titles())

	action := flow.Advance(context.Background(), session, HistoryEvent{GameID: 1})

	chart, ok := action.(ChartAction)
	require.True(t, ok)
	assert.Equal(t, uint(1), chart.GameID)
	assert.Contains(t, chart.Series, "SiteA")
}

func TestReportRoundTrip(t *testing.T) {
	flow, _, _, notifier := testFlow(t, titles())

	action := flow.Advance(context.Background(), session, ReportEvent{})
	_, ok := action.(ReportPromptAction)
	require.True(t, ok)
	assert.Equal(t, StateAwaitingReport, flow.StateOf(session))

	action = flow.Advance(context.Background(), session, QueryEvent{Text: "SiteA shows the wrong price"})
	_, ok = action.(ReportAckAction)
	require.True(t, ok)
	assert.Equal(t, []string{"SiteA shows the wrong price"}, notifier.sent)
	assert.Equal(t, StateSearching, flow.StateOf(session))
}

func TestReportCancelDoesNotForward(t *testing.T) {
	flow, _, _, notifier := testFlow(t, titles())

	flow.Advance(context.Background(), session, ReportEvent{})
	action := flow.Advance(context.Background(), session, CancelEvent{})

	_, ok := action.(CancelAction)
	require.True(t, ok)
	assert.Empty(t, notifier.sent)
	assert.Equal(t, StateSearching, flow.StateOf(session))
}

func TestUnknownInputEmitsHelpInBothStates(t *testing.T) {
	flow, _, _, _ := testFlow(t, titles())

	action := flow.Advance(context.Background(), session, UnknownEvent{})
	_, ok := action.(HelpAction)
	assert.True(t, ok)
	assert.Equal(t, StateSearching, flow.StateOf(session))

	flow.Advance(context.Background(), session, ReportEvent{})
	action = flow.Advance(context.Background(), session, UnknownEvent{})
	_, ok = action.(HelpAction)
	assert.True(t, ok)
	assert.Equal(t, StateAwaitingReport, flow.StateOf(session), "help must not leave the report state")
}

func TestSessionsDoNotShareState(t *testing.T) {
	flow, _, _, _ := testFlow(t, titles())

	flow.Advance(context.Background(), session, ReportEvent{})

	other := int64(200)
	assert.Equal(t, StateAwaitingReport, flow.StateOf(session))
	assert.Equal(t, StateSearching, flow.StateOf(other))
}

func TestStartRefreshesIndexAndWelcomes(t *testing.T) {
	loaded := 0
	index := search.NewIndex(func(ctx context.Context) ([]search.Entry, error) {
		loaded++
		return titles(), nil
	})
	flow := NewFlow(index, &fakePrices{}, &fakeHistory{}, &fakeNotifier{}, zap.NewNop())

	action := flow.Advance(context.Background(), session, StartEvent{})

	_, ok := action.(WelcomeAction)
	require.True(t, ok)
	assert.Equal(t, 1, loaded)
	assert.Len(t, index.Entries(), 5)
}
