package bot

import (
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/domain"
)

// columnWeights favour the center when medium falls back to chance.
var columnWeights = [domain.Columns]int{1, 2, 3, 4, 3, 2, 1}

func (e *Engine) mediumMove(board domain.Board, botPlayer domain.Color) int {
	if col := winOrBlock(board, botPlayer); col >= 0 {
		return col
	}

	validColumns := domain.GetValidMoves(board)
	total := 0
	for _, col := range validColumns {
		total += columnWeights[col]
	}

	pick := e.rand.Intn(total)
	for _, col := range validColumns {
		pick -= columnWeights[col]
		if pick < 0 {
			return col
		}
	}

	return validColumns[len(validColumns)-1]
}
