package game

import (
	"fmt"
)

type Colour int32

const (
	None Colour = iota
	Black
	White
)

func (cl Colour) Format(s fmt.State, c rune) {
	switch c {
	case 'v', 'd': // used in debug
		switch cl {
		case None:
			fmt.Fprint(s, "None")
		case Black:
			fmt.Fprint(s, "Black")
		case White:
			fmt.Fprint(s, "White")
		}
	case 's': // used in board games
		switch cl {
		case None:
			fmt.Fprint(s, "·")
		case Black:
			fmt.Fprint(s, "X")
		case White:
			fmt.Fprint(s, "O")
		}
	}
}

// Player represents a player. It's also a colour.
type Player Colour

func (p Player) Format(s fmt.State, c rune) { Colour(p).Format(s, c) }

// Opponent returns the other player. None has no opponent.
func Opponent(p Player) Player {
	switch Colour(p) {
	case Black:
		return Player(White)
	case White:
		return Player(Black)
	}
	return Player(None)
}

// Single represents a move as a single number, utilized in a rowmajor fashion.
//		- 0 represents the top left
//		- 7 represents the top right on an 8x8 board
//		- 8 represents (1, 0)
// Games that allow passing reserve an index past the last square for it.
type Single int32

// PlayerMove is a tuple indicating the player and the move to be made.
type PlayerMove struct {
	Player
	Single
}

// Eq returns true if both are equal
func (p PlayerMove) Eq(other PlayerMove) bool {
	return p.Player == other.Player && p.Single == other.Single
}

func (p PlayerMove) Format(s fmt.State, c rune) { fmt.Fprintf(s, "%v@%d", p.Player, p.Single) }
