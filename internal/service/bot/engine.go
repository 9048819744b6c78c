package bot

import (
	"math/rand"
	"sync"
	"time"

	"github.com/iamasit07/4-in-a-row-duel/backend/internal/domain"
)

// DefaultEasyBlockChance is how often the easy tier bothers to take a win or
// block one.
const DefaultEasyBlockChance = 0.3

// Rand is the slice of math/rand the engine needs. *rand.Rand satisfies it,
// so tests pass a seeded source.
type Rand interface {
	Intn(n int) int
	Float64() float64
}

type lockedRand struct {
	mu sync.Mutex
	r  Rand
}

func (l *lockedRand) Intn(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Intn(n)
}

func (l *lockedRand) Float64() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.Float64()
}

// Engine picks computer moves. It holds no game state and is safe for
// concurrent use.
type Engine struct {
	rand            Rand
	easyBlockChance float64
}

// NewEngine builds an engine around r. A nil r gets a time-seeded source.
func NewEngine(r Rand, easyBlockChance float64) *Engine {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if easyBlockChance < 0 || easyBlockChance > 1 {
		easyBlockChance = DefaultEasyBlockChance
	}
	return &Engine{
		rand:            &lockedRand{r: r},
		easyBlockChance: easyBlockChance,
	}
}

// ChooseMove selects the column for botPlayer at the given difficulty.
// It returns -1 only when the board is full.
func (e *Engine) ChooseMove(board domain.Board, botPlayer domain.Color, difficulty domain.Difficulty) int {
	if len(domain.GetValidMoves(board)) == 0 {
		return -1
	}

	switch difficulty {
	case domain.DifficultyEasy:
		return e.easyMove(board, botPlayer)
	case domain.DifficultyHard:
		return hardMove(board, botPlayer)
	case domain.DifficultyImpossible:
		return impossibleMove(board, botPlayer)
	default:
		return e.mediumMove(board, botPlayer)
	}
}
