package domain

import "strings"

// Board is a value type: row 0 is the top row and row Rows-1 the bottom.
// Assigning a Board copies it, so no transition can mutate a caller's board.
type Board [Rows][Columns]Color

func NewBoard() Board {
	return Board{}
}

func IsValidMove(board Board, column int) bool {
	if column < 0 || column >= Columns {
		return false
	}

	// a column is playable while its top cell is free
	return board[0][column] == Empty
}

// DropDisk places the disk at the lowest free cell of column and reports the
// landing row. It is the strict transition used after validation.
func DropDisk(board Board, column int, player Color) (Board, int, error) {
	if column < 0 || column >= Columns {
		return board, -1, ErrInvalidColumn
	}

	for row := Rows - 1; row >= 0; row-- {
		if board[row][column] == Empty {
			board[row][column] = player
			return board, row, nil
		}
	}

	return board, -1, ErrColumnFull
}

// ApplyMove returns a new board with player's disk dropped into column.
// Callers must check IsValidMove first; on a full or out-of-range column the
// board comes back unchanged.
func ApplyMove(board Board, column int, player Color) Board {
	next, _, err := DropDisk(board, column, player)
	if err != nil {
		return board
	}
	return next
}

func IsBoardFull(board Board) bool {
	for c := 0; c < Columns; c++ {
		if board[0][c] == Empty {
			return false
		}
	}

	return true
}

// GetValidMoves lists the playable columns in ascending order.
func GetValidMoves(board Board) []int {
	validMoves := make([]int, 0, Columns)
	for col := 0; col < Columns; col++ {
		if IsValidMove(board, col) {
			validMoves = append(validMoves, col)
		}
	}
	return validMoves
}

// SimulateMove plays column for player on a copy of board and returns the
// copy with the landing row. The caller's board is untouched.
func SimulateMove(board Board, column int, player Color) (Board, int, error) {
	return DropDisk(board, column, player)
}

// CountDiscs returns the number of occupied cells.
func CountDiscs(board Board) int {
	count := 0
	for r := 0; r < Rows; r++ {
		for c := 0; c < Columns; c++ {
			if board[r][c] != Empty {
				count++
			}
		}
	}
	return count
}

// CountDiskInDirection counts player's consecutive disks starting next to
// (row, column) and stepping by (deltaRow, deltaCol). The start cell is not
// counted.
func CountDiskInDirection(board Board, row, column int, deltaRow, deltaCol int, player Color) int {
	count := 0
	r, c := row+deltaRow, column+deltaCol
	for r >= 0 && r < Rows && c >= 0 && c < Columns && board[r][c] == player {
		count++
		r += deltaRow
		c += deltaCol
	}
	return count
}

// String renders one line per row, top first, using '.', 'R' and 'B'.
func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < Rows; r++ {
		if r > 0 {
			sb.WriteByte('\n')
		}
		for c := 0; c < Columns; c++ {
			switch b[r][c] {
			case Red:
				sb.WriteByte('R')
			case Blue:
				sb.WriteByte('B')
			default:
				sb.WriteByte('.')
			}
		}
	}
	return sb.String()
}

// Key is a compact single-line form of the board, usable as a cache key.
func (b Board) Key() string {
	return strings.ReplaceAll(b.String(), "\n", "/")
}
