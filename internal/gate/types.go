package gate

// Config holds the gate's thresholds and the static scores given to saved rules.
type Config struct {
	MinGapTurns int     // turns that must pass between two saves
	Confidence  float64 // assigned to every new rule
	Utility     float64 // assigned to every new rule
}

// DefaultConfig returns the standard gate settings.
func DefaultConfig() Config {
	return Config{
		MinGapTurns: 6,
		Confidence:  0.75,
		Utility:     0.65,
	}
}

// NeverSaved marks State.LastSavedTurn before the first save.
const NeverSaved = -1

// State is the gate's bookkeeping across turns.
type State struct {
	TurnCounter   int    `json:"turn_counter"`
	LastSavedTurn int    `json:"last_saved_turn"`
	LastSavedDay  string `json:"last_saved_day,omitempty"`
}

func initialState() State {
	return State{LastSavedTurn: NeverSaved}
}

// Action is what the gate did with a turn.
type Action string

const (
	ActionSave Action = "save"
	ActionSkip Action = "skip"
)

// Reasons reported in a Decision.
const (
	ReasonTurnGap      = "turn_gap"
	ReasonNoCandidates = "no_candidates"
	ReasonDailyQuota   = "daily_quota"
	ReasonSaved        = "saved"
)

// Decision records the outcome of one processed turn.
type Decision struct {
	Turn   int    `json:"turn"`
	Action Action `json:"action"`
	Reason string `json:"reason"`
	Key    string `json:"key,omitempty"`
	Day    string `json:"day"`
}
