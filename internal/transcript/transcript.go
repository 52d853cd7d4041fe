// Package transcript reads JSON Lines chat logs and derives per-turn hints.
package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rcliao/selfgate/internal/model"
)

// Roles recognized in a transcript.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// maxLineBytes bounds a single transcript line.
const maxLineBytes = 16 << 20

// Turn is one line of a chat log.
type Turn struct {
	Role     string `json:"role"`
	Content  string `json:"content"`
	Time     string `json:"time,omitempty"`
	UserLang string `json:"user_lang,omitempty"`
}

// Stats counts what Read saw.
type Stats struct {
	Lines     int `json:"lines"`
	Malformed int `json:"malformed"`
	User      int `json:"user"`
	Assistant int `json:"assistant"`
}

// Read decodes r line by line and calls fn for each well-formed turn.
// Blank and malformed lines are skipped. An error from fn stops the read.
func Read(r io.Reader, fn func(Turn) error) (Stats, error) {
	var st Stats
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		st.Lines++

		var t Turn
		if err := json.Unmarshal([]byte(line), &t); err != nil {
			st.Malformed++
			continue
		}
		switch t.Role {
		case RoleUser:
			st.User++
		case RoleAssistant:
			st.Assistant++
		}
		if err := fn(t); err != nil {
			return st, err
		}
	}
	if err := sc.Err(); err != nil {
		return st, fmt.Errorf("read transcript: %w", err)
	}
	return st, nil
}

// Features summarizes the latest user turn.
type Features struct {
	UserLang     string `json:"user_lang,omitempty"`
	AsksQuestion bool   `json:"user_asks_question"`
	HasCodeBlock bool   `json:"user_has_code_block"`
}

// FromUserTurn derives Features from a user turn.
func FromUserTurn(t Turn) Features {
	return Features{
		UserLang:     t.UserLang,
		AsksQuestion: strings.HasSuffix(strings.TrimSpace(t.Content), "?"),
		HasCodeBlock: strings.Contains(t.Content, "```"),
	}
}

// Meta builds gate metadata for an assistant turn. A language set on the
// turn wins; otherwise the last user turn's language carries over.
func (t Turn) Meta(prev Features) model.Meta {
	m := model.Meta{Time: t.Time, UserLang: t.UserLang}
	if m.UserLang == "" {
		m.UserLang = prev.UserLang
	}
	if prev.AsksQuestion || prev.HasCodeBlock {
		m.Extra = map[string]string{
			"user_asks_question":  fmt.Sprint(prev.AsksQuestion),
			"user_has_code_block": fmt.Sprint(prev.HasCodeBlock),
		}
	}
	return m
}
