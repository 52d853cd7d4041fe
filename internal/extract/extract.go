// Package extract turns assistant replies into candidate self-rules by
// running a fixed table of pattern rules over the text.
package extract

import (
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rcliao/selfgate/internal/model"
)

// DefaultLongLenThreshold is the reply length (in runes) considered too long.
const DefaultLongLenThreshold = 1200

// Config tunes the extractor.
type Config struct {
	LongLenThreshold int
	// UserLangHint, when set, overrides Meta.UserLang for every reply.
	UserLangHint string
	// Now supplies the evidence time when Meta.Time is empty. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns the extractor defaults.
func DefaultConfig() Config {
	return Config{LongLenThreshold: DefaultLongLenThreshold}
}

// Extractor scans replies for rule patterns. It holds no per-call state and
// is safe for concurrent use.
type Extractor struct {
	cfg Config
}

// New creates an extractor, filling zero config fields with defaults.
func New(cfg Config) *Extractor {
	if cfg.LongLenThreshold <= 0 {
		cfg.LongLenThreshold = DefaultLongLenThreshold
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Extractor{cfg: cfg}
}

// Extract returns one candidate per matching rule, in table order.
// Empty or whitespace-only text yields nothing.
func (e *Extractor) Extract(text string, meta model.Meta) []model.Candidate {
	in := input{
		text:    strings.TrimSpace(text),
		lang:    meta.UserLang,
		longLen: e.cfg.LongLenThreshold,
	}
	if in.text == "" {
		return nil
	}
	if e.cfg.UserLangHint != "" {
		in.lang = e.cfg.UserLangHint
	}

	when := meta.Time
	if when == "" {
		when = e.cfg.Now().UTC().Format(model.TimeLayout)
	}

	var out []model.Candidate
	for _, r := range rules {
		if !r.match(in) {
			continue
		}
		out = append(out, model.Candidate{
			ID:             newCandidateID(),
			About:          model.AboutSelf,
			Kind:           r.Kind,
			Claim:          r.Claim,
			Key:            r.Key,
			Signals:        []string{r.Signal},
			Evidence:       []model.Evidence{{Src: "assistant", Time: when}},
			RecurrenceHint: 1,
			LongevityHint:  "long",
		})
	}
	return out
}

func newCandidateID() string {
	u := uuid.New()
	return "cp_" + hex.EncodeToString(u[:4])
}
