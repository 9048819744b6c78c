package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Color is the content of a single board cell. Red and Blue double as the
// two player colors; Red always moves first.
type Color int

const (
	Empty Color = 0
	Red   Color = 1
	Blue  Color = 2
)

const (
	Rows    = 6
	Columns = 7
	ToWin   = 4
)

func (c Color) String() string {
	switch c {
	case Red:
		return "RED"
	case Blue:
		return "BLUE"
	default:
		return "EMPTY"
	}
}

// Opponent returns the other player color. Empty has no opponent.
func (c Color) Opponent() Color {
	switch c {
	case Red:
		return Blue
	case Blue:
		return Red
	default:
		return Empty
	}
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func ParseColor(s string) (Color, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "RED":
		return Red, nil
	case "BLUE":
		return Blue, nil
	case "EMPTY", "":
		return Empty, nil
	}
	return Empty, fmt.Errorf("unknown color %q", s)
}

// Outcome is the recorded result of a session.
type Outcome string

const (
	OutcomeNone Outcome = ""
	OutcomeRed  Outcome = "RED"
	OutcomeBlue Outcome = "BLUE"
	OutcomeTie  Outcome = "TIE"
)

func OutcomeFor(winner Color) Outcome {
	switch winner {
	case Red:
		return OutcomeRed
	case Blue:
		return OutcomeBlue
	}
	return OutcomeNone
}

// Color returns the winning color, or Empty for a tie or no result.
func (o Outcome) Color() Color {
	switch o {
	case OutcomeRed:
		return Red
	case OutcomeBlue:
		return Blue
	}
	return Empty
}

// SessionStatus is the lifecycle state of a session.
type SessionStatus string

const (
	StatusWaiting   SessionStatus = "WAITING"
	StatusActive    SessionStatus = "ACTIVE"
	StatusCompleted SessionStatus = "COMPLETED"
	StatusAbandoned SessionStatus = "ABANDONED"
)

func (s SessionStatus) IsFinished() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

type Mode string

const (
	ModePvP      Mode = "pvp"
	ModeComputer Mode = "computer"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModePvP, "":
		return ModePvP, nil
	case ModeComputer:
		return ModeComputer, nil
	}
	return "", ErrInvalidMode
}

type Difficulty string

const (
	DifficultyEasy       Difficulty = "easy"
	DifficultyMedium     Difficulty = "medium"
	DifficultyHard       Difficulty = "hard"
	DifficultyImpossible Difficulty = "impossible"
)

// ParseDifficulty accepts the four known levels; an empty string means medium.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DifficultyMedium, nil
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyImpossible:
		return d, nil
	}
	return "", ErrInvalidDifficulty
}

var ComputerNames = map[Difficulty]string{
	DifficultyEasy:       "Alice",
	DifficultyMedium:     "Bob",
	DifficultyHard:       "Charles",
	DifficultyImpossible: "Deep Thought",
}

const computerIDPrefix = "computer:"

// ComputerID is the reserved participant id of the computer opponent.
func ComputerID(d Difficulty) string {
	return computerIDPrefix + string(d)
}

func IsComputerID(id string) bool {
	return strings.HasPrefix(id, computerIDPrefix)
}

func GetComputerName(d Difficulty) string {
	if name, ok := ComputerNames[d]; ok {
		return name
	}
	return "BOT"
}

// Error is a domain failure. All of them except ErrMoveConflict are user
// errors and safe to show verbatim. ErrMoveConflict stays inside the service,
// which retries once and reports ErrMoveRejected if the retry conflicts too.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	ErrInvalidColumn         Error = "invalid column"
	ErrColumnFull            Error = "column is full"
	ErrNotYourTurn           Error = "not your turn"
	ErrSessionNotFound       Error = "session not found"
	ErrSessionNotActive      Error = "session is not active"
	ErrUsernameTaken         Error = "username is already taken"
	ErrUsernameInvalidFormat Error = "username must be 3-20 characters of letters, numbers and underscores"
	ErrPlayerNotFound        Error = "player not found"
	ErrInvalidDifficulty     Error = "invalid difficulty"
	ErrInvalidMode           Error = "invalid game mode"

	// ErrMoveConflict means another move claimed the same order first.
	ErrMoveConflict Error = "concurrent move rejected"

	// ErrMoveRejected is returned to the caller when a move keeps losing to
	// concurrent moves. Reloading the game and trying again is safe.
	ErrMoveRejected Error = "move lost to a concurrent move, reload and try again"
)

var userErrors = []Error{
	ErrInvalidColumn, ErrColumnFull, ErrNotYourTurn, ErrSessionNotFound, ErrSessionNotActive,
	ErrUsernameTaken, ErrUsernameInvalidFormat, ErrPlayerNotFound, ErrInvalidDifficulty, ErrInvalidMode,
	ErrMoveRejected,
}

func IsUserError(err error) bool {
	for _, ue := range userErrors {
		if errors.Is(err, ue) {
			return true
		}
	}
	return false
}

// ConsistencyError reports a stored move log that does not replay cleanly.
// It points at corrupted data, never at a user mistake.
type ConsistencyError struct {
	SessionID string
	Order     int
	Reason    string
}

func (e *ConsistencyError) Error() string {
	if e.SessionID == "" {
		return fmt.Sprintf("replay diverged at move %d: %s", e.Order, e.Reason)
	}
	return fmt.Sprintf("session %s: replay diverged at move %d: %s", e.SessionID, e.Order, e.Reason)
}

func IsConsistencyError(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}
