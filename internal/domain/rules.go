package domain

// axes are scanned independently: horizontal, vertical, diagonal down-right
// and diagonal up-right.
var axes = [4][2]int{
	{0, 1},
	{1, 0},
	{1, 1},
	{-1, 1},
}

// CheckWin reports whether player owns four contiguous cells on any axis.
// Every start cell whose 4-window stays on the board is examined.
func CheckWin(board Board, player Color) bool {
	if player == Empty {
		return false
	}

	for _, axis := range axes {
		dRow, dCol := axis[0], axis[1]
		for row := 0; row < Rows; row++ {
			for col := 0; col < Columns; col++ {
				endRow := row + dRow*(ToWin-1)
				endCol := col + dCol*(ToWin-1)
				if !isInBounds(endRow, endCol) {
					continue
				}
				if windowOwnedBy(board, row, col, dRow, dCol, player) {
					return true
				}
			}
		}
	}

	return false
}

func windowOwnedBy(board Board, row, col, dRow, dCol int, player Color) bool {
	for i := 0; i < ToWin; i++ {
		if board[row+dRow*i][col+dCol*i] != player {
			return false
		}
	}
	return true
}

// CheckTie is true once the top row is full. Only meaningful after CheckWin
// has been ruled out for the mover.
func CheckTie(board Board) bool {
	return IsBoardFull(board)
}

// Result classifies a board right after a move.
type Result int

const (
	Continue Result = iota
	Win
	Tie
)

// Evaluate classifies the board right after mover dropped a disk: the
// mover's win is checked before the tie.
func Evaluate(board Board, mover Color) Result {
	if CheckWin(board, mover) {
		return Win
	}
	if CheckTie(board) {
		return Tie
	}
	return Continue
}

func isInBounds(row, col int) bool {
	return row >= 0 && row < Rows && col >= 0 && col < Columns
}
