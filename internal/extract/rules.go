package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/rcliao/selfgate/internal/model"
)

// Patterns shared by the rule table. Word boundaries are spelled out as
// letter/digit classes because \b in RE2 only understands ASCII words.
var (
	reTailInvites  = regexp.MustCompile(`(?i)(если хочешь|давай обсудим|можем( вернуться)?|if you want|let me know|we can (circle back|follow up))`)
	reApology      = regexp.MustCompile(`(?i)(извин(и|ите)|sorry|apologi[sz]|as an ai)`)
	reMultiQuest   = regexp.MustCompile(`(\?\s*){2,}$`)
	reHedging      = regexp.MustCompile(`(?i)(?:^|[^\p{L}\p{N}_])(возможно|кажется|похоже|можно было бы|probably|perhaps|maybe|i think)(?:[^\p{L}\p{N}_]|$)`)
	reCodeBlock    = regexp.MustCompile("(?s)```.+?```")
	reCodeNotes    = regexp.MustCompile(`(?i)(делает|использование|run|usage|пример|example):`)
	reKeyValueLine = regexp.MustCompile(`(?m)^[ \t]*[\p{L}\p{N}_\- ]{1,32}[ \t]*[:：][ \t]*\S.*$`)
	reCyrillic     = regexp.MustCompile(`\p{Cyrillic}`)
	reNumberGroup  = regexp.MustCompile(`\b\d{1,3}[.,]\d{3}\b`)
)

const (
	// singleLineLimit flags a one-line reply even under the long threshold.
	singleLineLimit = 800
	minKeyValueRows = 3
)

// input is what every rule sees for one reply.
type input struct {
	text    string // trimmed
	lang    string
	longLen int
}

// Rule is one row of the detection table.
type Rule struct {
	Key    string
	Kind   model.Kind
	Claim  string
	Signal string
	match  func(in input) bool
}

// rules is evaluated top to bottom; every matching row yields a candidate.
var rules = []Rule{
	{
		Key:    "belief:no_tail_invites",
		Kind:   model.KindBelief,
		Claim:  "Avoid ending replies with invitations such as 'if you want' or 'let me know'.",
		Signal: "tail_invites",
		match:  func(in input) bool { return reTailInvites.MatchString(in.text) },
	},
	{
		Key:    "belief:no_apologies",
		Kind:   model.KindBelief,
		Claim:  "Avoid unnecessary apologies and AI meta-commentary.",
		Signal: "apology_or_ai_meta",
		match:  func(in input) bool { return reApology.MatchString(in.text) },
	},
	{
		Key:    "belief:ask_when_needed",
		Kind:   model.KindBelief,
		Claim:  "Limit trailing questions to at most one relevant question.",
		Signal: "multi_tail_questions",
		match:  func(in input) bool { return reMultiQuest.MatchString(in.text) },
	},
	{
		Key:    "style:shorter_blocks",
		Kind:   model.KindStyle,
		Claim:  "Keep answers concise and structured with paragraphs or lists.",
		Signal: "too_long_or_unstructured",
		match:  tooLong,
	},
	{
		Key:    "style:reduce_hedging",
		Kind:   model.KindStyle,
		Claim:  "Minimise hedging words such as 'perhaps', 'maybe' and 'probably'.",
		Signal: "hedging",
		match:  func(in input) bool { return reHedging.MatchString(in.text) },
	},
	{
		Key:    "format:code_with_min_notes",
		Kind:   model.KindFormat,
		Claim:  "Accompany code blocks with a short note on what the code does.",
		Signal: "code_without_notes",
		match: func(in input) bool {
			return reCodeBlock.MatchString(in.text) && !reCodeNotes.MatchString(in.text)
		},
	},
	{
		Key:    "format:use_table_when_structured",
		Kind:   model.KindFormat,
		Claim:  "Present long key-value lists as a table.",
		Signal: "kv_struct_detected",
		match: func(in input) bool {
			return len(reKeyValueLine.FindAllStringIndex(in.text, minKeyValueRows)) >= minKeyValueRows
		},
	},
	{
		Key:    "style:mirror_user_language_ru",
		Kind:   model.KindStyle,
		Claim:  "Reply in the user's language (ru).",
		Signal: "lang_mismatch",
		match:  func(in input) bool { return in.lang == "ru" && !reCyrillic.MatchString(in.text) },
	},
	{
		Key:    "style:mirror_user_language_en",
		Kind:   model.KindStyle,
		Claim:  "Reply in the user's language (en).",
		Signal: "lang_mismatch",
		match:  func(in input) bool { return in.lang == "en" && reCyrillic.MatchString(in.text) },
	},
	{
		Key:    "style:respect_user_locale",
		Kind:   model.KindStyle,
		Claim:  "Format numbers and dates according to the user's locale.",
		Signal: "locale_mismatch",
		match:  func(in input) bool { return reNumberGroup.MatchString(in.text) },
	},
}

func tooLong(in input) bool {
	n := utf8.RuneCountInString(in.text)
	if n > in.longLen {
		return true
	}
	return n > singleLineLimit && !strings.ContainsAny(in.text, "\n\r\v\f\u2028\u2029")
}

// Rules returns a copy of the detection table in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}
