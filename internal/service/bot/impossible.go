package bot

import (
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/domain"
)

// impossibleMove applies the tactical checks in priority order and falls
// back to the most central legal column.
func impossibleMove(board domain.Board, botPlayer domain.Color) int {
	opponent := botPlayer.Opponent()

	// 1. immediate win, 2. immediate block
	if col := winOrBlock(board, botPlayer); col >= 0 {
		return col
	}

	// 3. open three, then an open two that would become one
	if col := OpenThreeBlock(board, opponent); col >= 0 {
		return col
	}
	if col := OpenTwoBlock(board, opponent); col >= 0 {
		return col
	}

	// 4. take away the opponent's two-way setup, else build our own
	if col := TwoWaySetupColumn(board, opponent); col >= 0 {
		return col
	}
	if col := TwoWayThreatColumn(board, botPlayer); col >= 0 {
		return col
	}

	// 5. center preference
	return preferCenter(domain.GetValidMoves(board))
}
