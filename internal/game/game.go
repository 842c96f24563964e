package game

// Outcome is the result of comparing two moves. The numeric values double as
// player indexes: WIN means player 0 prevailed, LOSS means player 1 did.
type Outcome int

const (
	Draw Outcome = -1
	Win  Outcome = 0
	Loss Outcome = 1
)

// Player indexes used for scoring.
const (
	PlayerIndex   = 0
	OpponentIndex = 1
)

func (o Outcome) String() string {
	switch o {
	case Draw:
		return "draw"
	case Win:
		return "win"
	case Loss:
		return "loss"
	default:
		return "unknown"
	}
}

// Round is one committed comparison. Moves holds the player move first and
// the opponent move second.
type Round struct {
	Outcome Outcome   `json:"outcome"`
	Moves   [2]string `json:"moves"`
}

// CompareFunc maps a pair of moves to an Outcome given the ordered move set.
type CompareFunc func(elements []string, a, b string) Outcome

// TranslateFunc renders an Outcome for display.
type TranslateFunc func(Outcome) string

// DefaultTranslate is the stock wording shown to the player.
func DefaultTranslate(o Outcome) string {
	switch o {
	case Draw:
		return "Draw"
	case Loss:
		return "You lost"
	default:
		return "You won"
	}
}
