package bot

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/iamasit07/4-in-a-row-duel/backend/internal/domain"
)

const (
	SourceEngine  = "engine"
	SourceAdvisor = "advisor"
)

// Advisor suggests a column. Its answer is never trusted without validation.
type Advisor interface {
	SuggestColumn(ctx context.Context, board domain.Board, mover domain.Color, difficulty domain.Difficulty) (int, error)
}

// Opponent is the computer participant: it asks the advisor when one is
// configured and falls back to the engine whenever the answer is unusable.
type Opponent struct {
	engine  *Engine
	advisor Advisor
	timeout time.Duration
	logger  *zap.Logger
}

func NewOpponent(engine *Engine, advisor Advisor, timeout time.Duration, logger *zap.Logger) *Opponent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Opponent{
		engine:  engine,
		advisor: advisor,
		timeout: timeout,
		logger:  logger.Named("bot"),
	}
}

// ChooseColumn returns the column to play and where the decision came from.
func (o *Opponent) ChooseColumn(ctx context.Context, board domain.Board, color domain.Color, difficulty domain.Difficulty) (int, string) {
	if o.advisor == nil || difficulty == domain.DifficultyImpossible {
		return o.engine.ChooseMove(board, color, difficulty), SourceEngine
	}

	adviceCtx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		adviceCtx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	col, err := o.advisor.SuggestColumn(adviceCtx, board, color, difficulty)
	if err != nil {
		o.logger.Warn("advisor failed, using engine",
			zap.String("difficulty", string(difficulty)),
			zap.Error(err))
		return o.engine.ChooseMove(board, color, difficulty), SourceEngine
	}
	if !domain.IsValidMove(board, col) {
		o.logger.Warn("advisor suggested an unplayable column",
			zap.Int("column", col),
			zap.String("difficulty", string(difficulty)))
		return o.engine.ChooseMove(board, color, difficulty), SourceEngine
	}

	return col, SourceAdvisor
}
