package bot

import (
	"github.com/iamasit07/4-in-a-row-duel/backend/internal/domain"
)

// CenterPreference orders columns from the center outwards.
var CenterPreference = [domain.Columns]int{3, 2, 4, 1, 5, 0, 6}

var directions = [4][2]int{
	{0, 1},  // horizontal
	{1, 0},  // vertical
	{1, 1},  // diagonal \
	{-1, 1}, // diagonal /
}

// WinningMoves lists every legal column in which player completes four.
func WinningMoves(board domain.Board, player domain.Color) []int {
	wins := []int{}
	for _, col := range domain.GetValidMoves(board) {
		testBoard, _, err := domain.SimulateMove(board, col, player)
		if err != nil {
			continue
		}
		if domain.CheckWin(testBoard, player) {
			wins = append(wins, col)
		}
	}
	return wins
}

// firstWinningMove returns the lowest winning column for player, or -1.
func firstWinningMove(board domain.Board, player domain.Color) int {
	if wins := WinningMoves(board, player); len(wins) > 0 {
		return wins[0]
	}
	return -1
}

// winOrBlock is the shared first step of every non-random tier.
func winOrBlock(board domain.Board, botPlayer domain.Color) int {
	if col := firstWinningMove(board, botPlayer); col >= 0 {
		return col
	}
	return firstWinningMove(board, botPlayer.Opponent())
}

// OpenThreeBlock finds three contiguous disks of player on any axis with an
// empty, playable cell at either end, and returns that cell's column.
func OpenThreeBlock(board domain.Board, player domain.Color) int {
	for row := 0; row < domain.Rows; row++ {
		for col := 0; col < domain.Columns; col++ {
			for _, dir := range directions {
				dRow, dCol := dir[0], dir[1]
				if !isRunStart(board, row, col, dRow, dCol, player) {
					continue
				}
				if domain.CountDiskInDirection(board, row, col, dRow, dCol, player) < 2 {
					continue
				}

				// open end after the run
				endRow, endCol := row+dRow*3, col+dCol*3
				if isOpenCell(board, endRow, endCol) {
					return endCol
				}

				// open end before the run
				startRow, startCol := row-dRow, col-dCol
				if isOpenCell(board, startRow, startCol) {
					return startCol
				}
			}
		}
	}
	return -1
}

// OpenTwoBlock looks for two adjacent disks of player in a row with playable
// empty cells on both sides and room for a third empty cell beyond one of
// them. Left alone it turns into an open three with two winning ends.
func OpenTwoBlock(board domain.Board, player domain.Color) int {
	for row := domain.Rows - 1; row >= 0; row-- {
		for col := 1; col+2 < domain.Columns; col++ {
			if board[row][col] != player || board[row][col+1] != player {
				continue
			}
			if !isOpenCell(board, row, col-1) || !isOpenCell(board, row, col+2) {
				continue
			}
			if isOpenCell(board, row, col-2) || isOpenCell(board, row, col+3) {
				// block either end, prioritize the left
				return col - 1
			}
		}
	}
	return -1
}

// TwoWayThreatColumn returns a column where a disk of player would leave it
// with at least two winning columns at once, or -1. The column just played
// counts too, since the cell above it becomes reachable.
func TwoWayThreatColumn(board domain.Board, player domain.Color) int {
	for _, col := range domain.GetValidMoves(board) {
		testBoard, _, err := domain.SimulateMove(board, col, player)
		if err != nil {
			continue
		}
		if domain.CheckWin(testBoard, player) {
			continue
		}
		if len(WinningMoves(testBoard, player)) >= 2 {
			return col
		}
	}
	return -1
}

// TwoWaySetupColumn returns the first column where a disk of player would let
// it build a two-way threat on its following move.
func TwoWaySetupColumn(board domain.Board, player domain.Color) int {
	for _, col := range domain.GetValidMoves(board) {
		testBoard, _, err := domain.SimulateMove(board, col, player)
		if err != nil {
			continue
		}
		if TwoWayThreatColumn(testBoard, player) >= 0 {
			return col
		}
	}
	return -1
}

// preferCenter returns the most central column out of candidates, or -1.
func preferCenter(candidates []int) int {
	for _, col := range CenterPreference {
		for _, c := range candidates {
			if c == col {
				return col
			}
		}
	}
	return -1
}

func isRunStart(board domain.Board, row, col, dRow, dCol int, player domain.Color) bool {
	if board[row][col] != player {
		return false
	}
	prevRow, prevCol := row-dRow, col-dCol
	return !isInBounds(prevRow, prevCol) || board[prevRow][prevCol] != player
}

// isOpenCell is true for an empty cell a disk can land in right now.
func isOpenCell(board domain.Board, row, col int) bool {
	return isInBounds(row, col) && board[row][col] == domain.Empty && isPlayableSpace(board, row, col)
}

// Check if a space is actually playable (respects gravity)
func isPlayableSpace(board domain.Board, row, col int) bool {
	// Bottom row is always playable
	if row == domain.Rows-1 {
		return true
	}
	// Otherwise, must have a piece (any player) directly below
	return board[row+1][col] != domain.Empty
}

// Helper: check if position is within board bounds
func isInBounds(row, col int) bool {
	return row >= 0 && row < domain.Rows && col >= 0 && col < domain.Columns
}
