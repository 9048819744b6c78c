package bot

import (
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/domain"
)

// easyMove plays at random and only sometimes notices a win or a block.
func (e *Engine) easyMove(board domain.Board, botPlayer domain.Color) int {
	validColumns := domain.GetValidMoves(board)

	if e.rand.Float64() < e.easyBlockChance {
		if col := winOrBlock(board, botPlayer); col >= 0 {
			return col
		}
	}

	return validColumns[e.rand.Intn(len(validColumns))]
}
