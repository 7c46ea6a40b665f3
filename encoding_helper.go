package othellozero

import (
	"github.com/gorgonia/othellozero/game/othello"
	"github.com/pkg/errors"
)

// EncodeBoard encodes a board as two planes: the stones of the player to move, then the opponent's.
func EncodeBoard(b othello.Board) []float32 { return othello.Planes(b) }

// RotateBoard rotates every m×n plane of board a quarter turn anticlockwise. Anything past the last full plane is copied as is.
func RotateBoard(board []float32, m, n int) ([]float32, error) {
	if m != n {
		return nil, errors.Errorf("Cannot handle m %d, n %d. This function only takes square boards", m, n)
	}
	return transform(board, m, func(i, j int) int { return j*m + (m - i - 1) })
}

// FlipBoard mirrors every m×n plane of board left to right. Anything past the last full plane is copied as is.
func FlipBoard(board []float32, m, n int) ([]float32, error) {
	if m != n {
		return nil, errors.Errorf("Cannot handle m %d, n %d. This function only takes square boards", m, n)
	}
	return transform(board, m, func(i, j int) int { return i*m + (m - j - 1) })
}

// transform fills each plane of the result with dst[i][j] = src[from(i, j)].
func transform(board []float32, m int, from func(i, j int) int) ([]float32, error) {
	size := m * m
	if size == 0 || len(board) < size {
		return nil, errors.Errorf("a board of %d floats has no %d×%d plane", len(board), m, m)
	}
	retVal := make([]float32, len(board))
	copy(retVal, board)
	for start := 0; start+size <= len(board); start += size {
		src, dst := board[start:start+size], retVal[start:start+size]
		for i := 0; i < m; i++ {
			for j := 0; j < m; j++ {
				dst[i*m+j] = src[from(i, j)]
			}
		}
	}
	return retVal, nil
}

// Augment returns the 8 symmetries of an othello example: four rotations, each with and without a mirror.
// The board planes and the policy are transformed together. The pass probability stays in place.
// An example of the wrong shape is returned alone.
func Augment(ex Example) []Example {
	if len(ex.Board)%othello.Squares != 0 || len(ex.Policy) != othello.ActionSpace {
		return []Example{ex}
	}

	retVal := make([]Example, 0, 8)
	cur := ex
	for r := 0; r < 4; r++ {
		if r > 0 {
			var err error
			if cur, err = apply(cur, RotateBoard); err != nil {
				return []Example{ex}
			}
		}
		flipped, err := apply(cur, FlipBoard)
		if err != nil {
			return []Example{ex}
		}
		retVal = append(retVal, cur, flipped)
	}
	return retVal
}

func apply(ex Example, f func([]float32, int, int) ([]float32, error)) (retVal Example, err error) {
	retVal.Value = ex.Value
	if retVal.Board, err = f(ex.Board, othello.Size, othello.Size); err != nil {
		return retVal, err
	}
	// the policy is one plane plus the pass slot, which transform copies over
	if retVal.Policy, err = f(ex.Policy, othello.Size, othello.Size); err != nil {
		return retVal, err
	}
	return retVal, nil
}
