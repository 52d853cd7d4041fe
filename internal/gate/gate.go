// Package gate decides when an extracted candidate becomes a stored self-rule.
//
// A Gate is not safe for concurrent use. Serialize calls, or keep one Gate
// per conversation stream.
package gate

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/rcliao/selfgate/internal/model"
	"github.com/rcliao/selfgate/internal/store"
)

// Extractor produces candidates for one reply.
type Extractor interface {
	Extract(text string, meta model.Meta) []model.Candidate
}

// Gate runs extraction under a turn-spacing guard and a one-save-per-day
// quota, and persists the first candidate that gets through.
type Gate struct {
	store     store.Store
	extractor Extractor
	config    Config
	logger    *zap.Logger
	now       func() time.Time
	entropy   *rand.Rand

	state State
	last  Decision
}

// Option configures a Gate.
type Option func(*Gate)

// WithLogger sets the logger used for per-turn decisions.
func WithLogger(l *zap.Logger) Option {
	return func(g *Gate) { g.logger = l }
}

// WithClock sets the clock used when a turn carries no timestamp.
func WithClock(now func() time.Time) Option {
	return func(g *Gate) { g.now = now }
}

// New creates a gate writing into st.
func New(st store.Store, ex Extractor, config Config, opts ...Option) *Gate {
	g := &Gate{
		store:     st,
		extractor: ex,
		config:    config,
		logger:    zap.NewNop(),
		now:       time.Now,
		entropy:   rand.New(rand.NewSource(time.Now().UnixNano())),
		state:     initialState(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// State returns a copy of the gate's bookkeeping.
func (g *Gate) State() State { return g.state }

// LastDecision returns the outcome of the most recent turn.
func (g *Gate) LastDecision() Decision { return g.last }

// Reset returns the gate to its freshly constructed state.
func (g *Gate) Reset() {
	g.state = initialState()
	g.last = Decision{}
}

// ProcessAssistantTurn handles one assistant reply and returns the rule it
// saved, if any. Skipped turns return an empty slice and a nil error; an
// error means the store rejected the write and the gate state is unchanged.
func (g *Gate) ProcessAssistantTurn(ctx context.Context, text string, meta model.Meta) ([]model.MemoryItem, error) {
	g.state.TurnCounter++
	turn := g.state.TurnCounter

	when := meta.Time
	if when == "" {
		when = g.now().UTC().Format(model.TimeLayout)
		meta.Time = when
	}
	today := model.DayBucket(when)

	if g.state.LastSavedTurn != NeverSaved && turn-g.state.LastSavedTurn < g.config.MinGapTurns {
		g.skip(turn, today, ReasonTurnGap)
		return nil, nil
	}

	candidates := g.extractor.Extract(text, meta)
	if len(candidates) == 0 {
		g.skip(turn, today, ReasonNoCandidates)
		return nil, nil
	}

	if g.state.LastSavedDay == today {
		g.skip(turn, today, ReasonDailyQuota)
		return nil, nil
	}

	c := candidates[0]
	item := model.MemoryItem{
		ID:         g.newID(),
		About:      model.AboutSelf,
		Kind:       c.Kind,
		Claim:      c.Claim,
		Key:        c.Key,
		Confidence: g.config.Confidence,
		Utility:    g.config.Utility,
		CreatedAt:  when,
		LastSeenAt: when,
		Recurrence: 1,
		Tags:       append([]string(nil), c.Signals...),
	}

	if err := g.store.Upsert(ctx, item); err != nil {
		return nil, fmt.Errorf("save rule %s: %w", item.Key, err)
	}

	g.state.LastSavedTurn = turn
	g.state.LastSavedDay = today
	g.last = Decision{Turn: turn, Action: ActionSave, Reason: ReasonSaved, Key: item.Key, Day: today}
	g.logger.Debug("gate saved rule",
		zap.Int("turn", turn),
		zap.String("key", item.Key),
		zap.String("day", today),
		zap.Int("candidates", len(candidates)))

	return []model.MemoryItem{item}, nil
}

func (g *Gate) skip(turn int, day, reason string) {
	g.last = Decision{Turn: turn, Action: ActionSkip, Reason: reason, Day: day}
	g.logger.Debug("gate skipped turn",
		zap.Int("turn", turn),
		zap.String("reason", reason),
		zap.String("day", day))
}

func (g *Gate) newID() string {
	id := ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
	return "mi_" + strings.ToLower(id.String())
}
