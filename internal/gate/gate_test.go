package gate

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rcliao/selfgate/internal/extract"
	"github.com/rcliao/selfgate/internal/model"
	"github.com/rcliao/selfgate/internal/store"
)

const (
	hedgingText = "Maybe use a map.\nIt should work"
	plainText   = "Use a map.\nIt works"
)

var fixedNow = func() time.Time { return time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC) }

func newTestGate(t *testing.T, opts ...Option) (*Gate, *store.MemoryStore) {
	t.Helper()
	st := store.NewMemoryStore()
	ex := extract.New(extract.Config{Now: fixedNow})
	opts = append([]Option{WithClock(fixedNow)}, opts...)
	return New(st, ex, DefaultConfig(), opts...), st
}

func at(ts string) model.Meta { return model.Meta{Time: ts} }

func listed(t *testing.T, st store.Store) []model.MemoryItem {
	t.Helper()
	items, err := st.List(context.Background())
	require.NoError(t, err)
	return items
}

// countingExtractor records how often extraction runs.
type countingExtractor struct {
	calls int
	out   []model.Candidate
}

func (c *countingExtractor) Extract(string, model.Meta) []model.Candidate {
	c.calls++
	return c.out
}

type failingStore struct{ store.MemoryStore }

func (failingStore) Upsert(context.Context, model.MemoryItem) error {
	return errors.New("disk full")
}

func TestFirstMatchingTurnSaves(t *testing.T) {
	g, st := newTestGate(t)

	got, err := g.ProcessAssistantTurn(context.Background(), hedgingText, at("2024-01-01T10:00:00Z"))
	require.NoError(t, err)
	require.Len(t, got, 1)

	item := got[0]
	assert.Equal(t, "style:reduce_hedging", item.Key)
	assert.Equal(t, model.KindStyle, item.Kind)
	assert.Equal(t, model.AboutSelf, item.About)
	assert.Equal(t, 0.75, item.Confidence)
	assert.Equal(t, 0.65, item.Utility)
	assert.Equal(t, "2024-01-01T10:00:00Z", item.CreatedAt)
	assert.Equal(t, "2024-01-01T10:00:00Z", item.LastSeenAt)
	assert.Equal(t, 1, item.Recurrence)
	assert.Equal(t, []string{"hedging"}, item.Tags)
	assert.True(t, strings.HasPrefix(item.ID, "mi_"))

	assert.Equal(t, []model.MemoryItem{item}, listed(t, st))
	assert.Equal(t, State{TurnCounter: 1, LastSavedTurn: 1, LastSavedDay: "2024-01-01"}, g.State())
}

func TestPicksFirstCandidate(t *testing.T) {
	g, _ := newTestGate(t)

	got, err := g.ProcessAssistantTurn(context.Background(),
		"Sorry, maybe 1.234 is off.\nLet me know??", at("2024-01-01T10:00:00Z"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "belief:no_tail_invites", got[0].Key)
	assert.Equal(t, []string{"tail_invites"}, got[0].Tags)
}

func TestTurnGapBlocksSecondSave(t *testing.T) {
	g, st := newTestGate(t)
	ctx := context.Background()

	first, err := g.ProcessAssistantTurn(ctx, hedgingText, at("2024-01-01T10:00:00Z"))
	require.NoError(t, err)
	require.Len(t, first, 1)

	// A different day, so only the spacing guard can block it.
	for turn := 2; turn <= 6; turn++ {
		got, err := g.ProcessAssistantTurn(ctx, "Sorry.\nFixed", at("2024-01-02T10:00:00Z"))
		require.NoError(t, err)
		assert.Empty(t, got, "turn %d", turn)
		assert.Equal(t, ReasonTurnGap, g.LastDecision().Reason)
	}

	got, err := g.ProcessAssistantTurn(ctx, "Sorry.\nFixed", at("2024-01-02T10:00:00Z"))
	require.NoError(t, err)
	require.Len(t, got, 1, "turn 7 is min_gap_turns after the save")
	assert.Len(t, listed(t, st), 2)
}

func TestTurnGapSkipsExtraction(t *testing.T) {
	ex := &countingExtractor{out: []model.Candidate{{Key: "style:reduce_hedging", Kind: model.KindStyle}}}
	g := New(store.NewMemoryStore(), ex, DefaultConfig(), WithClock(fixedNow))
	ctx := context.Background()

	g.ProcessAssistantTurn(ctx, "x", at("2024-01-01T10:00:00Z"))
	g.ProcessAssistantTurn(ctx, "x", at("2024-01-02T10:00:00Z"))
	g.ProcessAssistantTurn(ctx, "x", at("2024-01-03T10:00:00Z"))

	assert.Equal(t, 1, ex.calls)
}

func TestDailyQuota(t *testing.T) {
	g, st := newTestGate(t)
	ctx := context.Background()

	got, _ := g.ProcessAssistantTurn(ctx, hedgingText, at("2024-01-01T10:00:00Z"))
	require.Len(t, got, 1)

	for i := 0; i < 5; i++ {
		g.ProcessAssistantTurn(ctx, plainText, at("2024-01-01T11:00:00Z"))
	}

	got, err := g.ProcessAssistantTurn(ctx, "Sorry.\nFixed", at("2024-01-01T23:59:00Z"))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, ReasonDailyQuota, g.LastDecision().Reason)
	assert.Len(t, listed(t, st), 1)

	// Next day, still past the gap.
	got, err = g.ProcessAssistantTurn(ctx, "Sorry.\nFixed", at("2024-01-02T00:00:01Z"))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestNoCandidates(t *testing.T) {
	g, st := newTestGate(t)

	got, err := g.ProcessAssistantTurn(context.Background(), plainText, at("2024-01-01T10:00:00Z"))
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, listed(t, st))
	assert.Equal(t, State{TurnCounter: 1, LastSavedTurn: NeverSaved}, g.State())
	assert.Equal(t, Decision{Turn: 1, Action: ActionSkip, Reason: ReasonNoCandidates, Day: "2024-01-01"}, g.LastDecision())
}

func TestTurnCounterAdvancesEveryCall(t *testing.T) {
	g, _ := newTestGate(t)
	ctx := context.Background()
	texts := []string{hedgingText, plainText, hedgingText, "", "Sorry.\nFixed"}
	for _, text := range texts {
		g.ProcessAssistantTurn(ctx, text, at("2024-01-01T10:00:00Z"))
	}
	assert.Equal(t, len(texts), g.State().TurnCounter)
}

func TestStoreFailureLeavesStateUnchanged(t *testing.T) {
	g := New(&failingStore{}, extract.New(extract.Config{Now: fixedNow}), DefaultConfig(), WithClock(fixedNow))

	got, err := g.ProcessAssistantTurn(context.Background(), hedgingText, at("2024-01-01T10:00:00Z"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Nil(t, got)
	assert.Equal(t, State{TurnCounter: 1, LastSavedTurn: NeverSaved}, g.State())
}

func TestReturnsConstructedItemNotMerged(t *testing.T) {
	g, st := newTestGate(t)
	ctx := context.Background()
	st.Upsert(ctx, model.MemoryItem{
		ID: "mi_seed", About: model.AboutSelf, Kind: model.KindStyle, Key: "style:reduce_hedging",
		Claim: "seeded", Confidence: 0.9, Utility: 0.9, Recurrence: 3,
		CreatedAt: "2023-12-01T00:00:00Z", LastSeenAt: "2023-12-01T00:00:00Z",
	})

	got, err := g.ProcessAssistantTurn(ctx, hedgingText, at("2024-01-01T10:00:00Z"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Recurrence)
	assert.Equal(t, 0.75, got[0].Confidence)

	stored := listed(t, st)
	require.Len(t, stored, 1)
	assert.Equal(t, 4, stored[0].Recurrence)
	assert.Equal(t, 0.9, stored[0].Confidence)
	assert.Equal(t, "seeded", stored[0].Claim)
	assert.Equal(t, "2024-01-01T10:00:00Z", stored[0].LastSeenAt)
}

func TestMissingTimeUsesClock(t *testing.T) {
	g, _ := newTestGate(t)

	got, err := g.ProcessAssistantTurn(context.Background(), hedgingText, model.Meta{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "2024-01-01T10:00:00Z", got[0].CreatedAt)
	assert.Equal(t, "2024-01-01", g.State().LastSavedDay)
}

func TestReset(t *testing.T) {
	g, _ := newTestGate(t)
	ctx := context.Background()
	g.ProcessAssistantTurn(ctx, hedgingText, at("2024-01-01T10:00:00Z"))

	g.Reset()
	assert.Equal(t, State{LastSavedTurn: NeverSaved}, g.State())
	assert.Equal(t, Decision{}, g.LastDecision())

	got, _ := g.ProcessAssistantTurn(ctx, hedgingText, at("2024-01-01T10:00:00Z"))
	assert.Len(t, got, 1, "reset clears the spacing guard and the daily quota")
}

func TestZeroGapAllowsConsecutiveDays(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinGapTurns = 0
	st := store.NewMemoryStore()
	g := New(st, extract.New(extract.Config{}), cfg)
	ctx := context.Background()

	g.ProcessAssistantTurn(ctx, hedgingText, at("2024-01-01T10:00:00Z"))
	got, _ := g.ProcessAssistantTurn(ctx, "Sorry.\nFixed", at("2024-01-02T10:00:00Z"))
	assert.Len(t, got, 1)
	assert.Len(t, listed(t, st), 2)
}

func TestDecisionsAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	g, _ := newTestGate(t, WithLogger(zap.New(core)))
	ctx := context.Background()

	g.ProcessAssistantTurn(ctx, plainText, at("2024-01-01T10:00:00Z"))
	g.ProcessAssistantTurn(ctx, hedgingText, at("2024-01-01T10:00:00Z"))
	g.ProcessAssistantTurn(ctx, hedgingText, at("2024-01-01T10:00:00Z"))

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, ReasonNoCandidates, entries[0].ContextMap()["reason"])
	assert.Equal(t, "style:reduce_hedging", entries[1].ContextMap()["key"])
	assert.Equal(t, ReasonTurnGap, entries[2].ContextMap()["reason"])
}
