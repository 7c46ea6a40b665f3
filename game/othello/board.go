// Package othello implements the game of Othello on 8x8 bitboards.
//
// A Board is an immutable value. Applying a move returns a new Board, so boards may be
// shared freely between search tree nodes.
package othello

import (
	"bytes"
	"fmt"

	"github.com/gorgonia/othellozero/game"
)

const (
	Size    = 8
	Squares = Size * Size

	// Pass is the move played when the side to move has no placement.
	Pass game.Single = Squares

	// ActionSpace is the length of a policy vector: every square plus a pass.
	ActionSpace = Squares + 1

	Black = game.Player(game.Black)
	White = game.Player(game.White)
)

// Board is an Othello position from the point of view of the player to move.
type Board struct {
	Own, Opp uint64 // stones of the player to move, and of the opponent
	ToMove   game.Player
	Passes   int // consecutive passes leading to this position
	Ply      int // moves (including passes) played so far
}

// New returns the standard starting position. Black moves first.
func New() Board {
	return Board{
		Own:    initialBlack,
		Opp:    initialWhite,
		ToMove: Black,
	}
}

// Black returns the black stones.
func (b Board) Black() uint64 {
	if b.ToMove == Black {
		return b.Own
	}
	return b.Opp
}

// White returns the white stones.
func (b Board) White() uint64 {
	if b.ToMove == Black {
		return b.Opp
	}
	return b.Own
}

// Count returns the number of stones the player has on the board.
func (b Board) Count(p game.Player) int {
	switch p {
	case Black:
		return popcount(b.Black())
	case White:
		return popcount(b.White())
	}
	return 0
}

// Placements returns the squares where the player to move may place a stone.
func (b Board) Placements() uint64 { return LegalPlacements(b.Own, b.Opp) }

// Ended returns true when neither player can place a stone.
func (b Board) Ended() bool {
	return LegalPlacements(b.Own, b.Opp) == 0 && LegalPlacements(b.Opp, b.Own) == 0
}

// Winner returns the player with more stones. It is meaningful only once the game has ended.
// A draw returns None.
func (b Board) Winner() game.Player {
	black, white := b.Count(Black), b.Count(White)
	switch {
	case black > white:
		return Black
	case white > black:
		return White
	}
	return game.Player(game.None)
}

// At returns the colour of the stone at the square.
func (b Board) At(square int) game.Colour {
	bit := uint64(1) << uint(square)
	switch {
	case b.Black()&bit != 0:
		return game.Black
	case b.White()&bit != 0:
		return game.White
	}
	return game.None
}

// Format renders the board. Legal placements of the player to move are marked with '+'.
func (b Board) Format(s fmt.State, c rune) {
	var buf bytes.Buffer
	legal := b.Placements()
	buf.WriteString("  a b c d e f g h\n")
	for row := 0; row < Size; row++ {
		fmt.Fprintf(&buf, "%d ", row+1)
		for col := 0; col < Size; col++ {
			sq := row*Size + col
			switch cl := b.At(sq); {
			case cl != game.None:
				fmt.Fprintf(&buf, "%s ", cl)
			case legal&(uint64(1)<<uint(sq)) != 0:
				buf.WriteString("+ ")
			default:
				fmt.Fprintf(&buf, "%s ", cl)
			}
		}
		buf.WriteByte('\n')
	}
	if c == 'v' {
		fmt.Fprintf(&buf, "%v to move. Ply %d\n", b.ToMove, b.Ply)
	}
	s.Write(buf.Bytes())
}
