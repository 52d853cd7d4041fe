package store

import (
	"context"
	"math"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/rcliao/selfgate/internal/model"
)

// ContextParams holds parameters for context assembly.
type ContextParams struct {
	Kind   model.Kind
	Budget int       // max tokens in output (rough proxy: 1 token ≈ 4 chars)
	Now    time.Time // reference for recency; zero means time.Now
}

// ContextRule is a scored rule for context output.
type ContextRule struct {
	Key        string     `json:"key"`
	Kind       model.Kind `json:"kind"`
	Claim      string     `json:"claim"`
	Recurrence int        `json:"recurrence"`
	Score      float64    `json:"score"`
	Excerpt    bool       `json:"excerpt,omitempty"`
}

// ContextResult is the assembled context response.
type ContextResult struct {
	Budget int           `json:"budget"`
	Used   int           `json:"used"`
	Rules  []ContextRule `json:"rules"`
}

// Context scores stored rules and greedily packs their claims into a token
// budget, for prepending to a future prompt.
func Context(ctx context.Context, s Store, p ContextParams) (*ContextResult, error) {
	budget := p.Budget
	if budget <= 0 {
		budget = 1000
	}
	charBudget := budget * 4

	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	now := p.Now
	if now.IsZero() {
		now = time.Now()
	}

	type scored struct {
		item  model.MemoryItem
		score float64
	}
	var candidates []scored
	for _, it := range items {
		if p.Kind != "" && it.Kind != p.Kind {
			continue
		}
		candidates = append(candidates, scored{item: it, score: ruleScore(it, now)})
	}

	// Stable so equal scores keep insertion order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	result := &ContextResult{Budget: budget, Rules: []ContextRule{}}
	used := 0

	for _, c := range candidates {
		rule := ContextRule{
			Key:        c.item.Key,
			Kind:       c.item.Kind,
			Claim:      c.item.Claim,
			Recurrence: c.item.Recurrence,
			Score:      math.Round(c.score*100) / 100,
		}
		claimLen := len(c.item.Claim)
		if used+claimLen <= charBudget {
			result.Rules = append(result.Rules, rule)
			used += claimLen
		} else if remaining := charBudget - used; remaining >= 100 {
			cut := remaining
			for cut > 0 && !utf8.RuneStart(c.item.Claim[cut]) {
				cut--
			}
			rule.Claim = c.item.Claim[:cut] + "..."
			rule.Excerpt = true
			result.Rules = append(result.Rules, rule)
			used += cut
			break
		} else {
			break
		}
	}

	result.Used = used / 4
	return result, nil
}

// ruleScore weights confidence 0.4, utility 0.2, recurrence 0.2 (log scale,
// saturating at 100) and recency 0.2 (exponential decay per day).
func ruleScore(it model.MemoryItem, now time.Time) float64 {
	recurrence := 0.0
	if it.Recurrence > 0 {
		recurrence = math.Log(float64(it.Recurrence)+1) / math.Log(100)
		if recurrence > 1 {
			recurrence = 1
		}
	}

	recency := 0.0
	if seen, err := time.Parse(time.RFC3339, it.LastSeenAt); err == nil {
		age := now.Sub(seen).Hours() / 24.0
		if age < 0 {
			age = 0
		}
		recency = math.Exp(-0.1 * age)
	}

	return it.Confidence*0.4 + it.Utility*0.2 + recurrence*0.2 + recency*0.2
}
