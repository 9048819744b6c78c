package domain

import "fmt"

// TurnOf derives whose turn it is from the number of moves already played.
// There is deliberately no stored turn field anywhere.
func TurnOf(moveCount int) Color {
	if moveCount%2 == 0 {
		return Red
	}
	return Blue
}

// Replay folds moves over an empty board, validating every step the same way
// a live move is validated. The moves must be sorted by Order.
func Replay(moves []Move) (Board, error) {
	board := NewBoard()

	for i, move := range moves {
		if move.Order != i {
			return board, &ConsistencyError{Order: i, Reason: fmt.Sprintf("expected order %d, found %d", i, move.Order)}
		}
		if move.Color != TurnOf(i) {
			return board, &ConsistencyError{Order: i, Reason: fmt.Sprintf("%s moved out of turn", move.Color)}
		}
		if i > 0 && CheckWin(board, moves[i-1].Color) {
			return board, &ConsistencyError{Order: i, Reason: "move recorded after the game was won"}
		}
		if !IsValidMove(board, move.Column) {
			return board, &ConsistencyError{Order: i, Reason: fmt.Sprintf("column %d is not playable", move.Column)}
		}

		next, _, err := DropDisk(board, move.Column, move.Color)
		if err != nil {
			return board, &ConsistencyError{Order: i, Reason: err.Error()}
		}
		board = next
	}

	return board, nil
}
