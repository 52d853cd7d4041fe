// Package model defines the core self-rule data types.
package model

// AboutSelf is the namespace for rules the assistant holds about itself.
const AboutSelf = "self"

// TimeLayout is the ISO-8601 layout used for generated timestamps.
const TimeLayout = "2006-01-02T15:04:05Z"

// Kind categorizes a rule.
type Kind string

const (
	KindBelief Kind = "belief"
	KindStyle  Kind = "style"
	KindFormat Kind = "format"
)

// Evidence points at where a signal was observed.
type Evidence struct {
	Src  string `json:"src"`
	Time string `json:"time"`
	Note string `json:"note,omitempty"`
}

// Candidate is an unsaved observation produced by the extractor.
type Candidate struct {
	ID             string     `json:"id"`
	About          string     `json:"about"`
	Kind           Kind       `json:"kind"`
	Claim          string     `json:"claim"`
	Key            string     `json:"key"`
	Signals        []string   `json:"signals"`
	Evidence       []Evidence `json:"evidence"`
	RecurrenceHint int        `json:"recurrence_hint"`
	LongevityHint  string     `json:"longevity_hint"`
}

// MemoryItem is a persisted, deduplicated self-rule.
// (About, Key) is unique within a store.
type MemoryItem struct {
	ID         string   `json:"id"`
	About      string   `json:"about"`
	Kind       Kind     `json:"kind"`
	Claim      string   `json:"claim"`
	Key        string   `json:"key"`
	Confidence float64  `json:"confidence"`
	Utility    float64  `json:"utility"`
	CreatedAt  string   `json:"created_at"`
	LastSeenAt string   `json:"last_seen_at"`
	Recurrence int      `json:"recurrence"`
	Tags       []string `json:"tags"`
}

// Meta carries per-turn hints alongside the reply text.
type Meta struct {
	Time     string            `json:"time,omitempty"`
	UserLang string            `json:"user_lang,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// DayBucket returns the date portion (YYYY-MM-DD) of an ISO timestamp.
func DayBucket(ts string) string {
	if len(ts) < 10 {
		return ts
	}
	return ts[:10]
}
