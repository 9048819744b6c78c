package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/iamasit07/4-in-a-row-duel/backend/internal/domain"
)

// ErrNoSuggestion means the model answered without naming a column.
var ErrNoSuggestion = errors.New("advisor reply contains no column")

// Advisor suggests a column for mover. Suggestions are unvalidated: the
// column may be full or the reply may be nonsense.
type Advisor interface {
	SuggestColumn(ctx context.Context, board domain.Board, mover domain.Color, difficulty domain.Difficulty) (int, error)
}

// Temperature maps a difficulty to sampling temperature; weaker opponents
// answer more loosely.
func Temperature(difficulty domain.Difficulty) float32 {
	switch difficulty {
	case domain.DifficultyEasy:
		return 0.9
	case domain.DifficultyMedium:
		return 0.5
	default:
		return 0.2
	}
}

// ParseColumn returns the first digit 0-6 found in reply.
func ParseColumn(reply string) (int, error) {
	for _, r := range reply {
		if r >= '0' && r < '0'+domain.Columns {
			return int(r - '0'), nil
		}
	}
	return -1, ErrNoSuggestion
}

var difficultyHints = map[domain.Difficulty]string{
	domain.DifficultyEasy:       "make valid moves and only occasionally block",
	domain.DifficultyMedium:     "take obvious wins and block obvious threats",
	domain.DifficultyHard:       "plan ahead and set up future winning positions",
	domain.DifficultyImpossible: "play perfectly, looking several moves ahead",
}

func suggestionPrompt(board domain.Board, mover domain.Color, difficulty domain.Difficulty) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "You are playing Connect Four as %s at %s difficulty: %s.\n", mover, difficulty, difficultyHints[difficulty])
	sb.WriteString("Board, top row first (. = empty, R = RED, B = BLUE):\n")
	sb.WriteString(board.String())
	sb.WriteString("\n\nTake a winning move if there is one. Block the opponent if they can win next turn. ")
	sb.WriteString("Center columns are usually stronger.\n")
	fmt.Fprintf(&sb, "Reply with a single digit from 0 to %d: the column to drop your disk into.", domain.Columns-1)
	return sb.String()
}
