package store

import (
	"context"
	"sort"

	"github.com/rcliao/selfgate/internal/model"
)

// Stats holds rule-set statistics.
type Stats struct {
	Path            string      `json:"path,omitempty"`
	Backend         string      `json:"backend"`
	TotalRules      int         `json:"total_rules"`
	TotalRecurrence int         `json:"total_recurrence"`
	FirstCreatedAt  string      `json:"first_created_at,omitempty"`
	LastSeenAt      string      `json:"last_seen_at,omitempty"`
	Kinds           []KindStats `json:"kinds"`
}

// KindStats holds per-kind counts.
type KindStats struct {
	Kind       model.Kind `json:"kind"`
	Rules      int        `json:"rules"`
	Recurrence int        `json:"recurrence"`
}

// Summarize computes statistics over every rule in s. ISO-8601 timestamps in
// the same layout compare correctly as strings.
func Summarize(ctx context.Context, s Store) (*Stats, error) {
	items, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	st := &Stats{Kinds: []KindStats{}}
	byKind := map[model.Kind]*KindStats{}
	for _, it := range items {
		st.TotalRules++
		st.TotalRecurrence += it.Recurrence
		if st.FirstCreatedAt == "" || it.CreatedAt < st.FirstCreatedAt {
			st.FirstCreatedAt = it.CreatedAt
		}
		if it.LastSeenAt > st.LastSeenAt {
			st.LastSeenAt = it.LastSeenAt
		}

		ks, ok := byKind[it.Kind]
		if !ok {
			ks = &KindStats{Kind: it.Kind}
			byKind[it.Kind] = ks
		}
		ks.Rules++
		ks.Recurrence += it.Recurrence
	}

	for _, ks := range byKind {
		st.Kinds = append(st.Kinds, *ks)
	}
	sort.Slice(st.Kinds, func(i, j int) bool {
		if st.Kinds[i].Rules != st.Kinds[j].Rules {
			return st.Kinds[i].Rules > st.Kinds[j].Rules
		}
		return st.Kinds[i].Kind < st.Kinds[j].Kind
	})

	return st, nil
}
