package bot

import (
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/domain"
)

func hardMove(board domain.Board, botPlayer domain.Color) int {
	if col := winOrBlock(board, botPlayer); col >= 0 {
		return col
	}
	return preferCenter(domain.GetValidMoves(board))
}
