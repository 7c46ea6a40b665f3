package othello

import (
	"strings"

	"github.com/gorgonia/othellozero/game"
	"github.com/pkg/errors"
)

// ErrIllegalMove is returned when a move cannot be played on a board.
var ErrIllegalMove = errors.New("illegal move")

// Engine implements the rules of Othello. It is stateless and safe for concurrent use.
type Engine struct{}

// LegalMoves returns the legal moves in ascending order. When the player to move has no
// placement but the game is not over, the only legal move is Pass. An ended game has no moves.
func (Engine) LegalMoves(b Board) []game.Single {
	placements := b.Placements()
	if placements == 0 {
		if LegalPlacements(b.Opp, b.Own) == 0 {
			return nil
		}
		return []game.Single{Pass}
	}
	sqs := squares(placements)
	retVal := make([]game.Single, len(sqs))
	for i, sq := range sqs {
		retVal[i] = game.Single(sq)
	}
	return retVal
}

// Apply plays the move and returns the resulting board. b is never modified.
func (Engine) Apply(b Board, m game.Single) (Board, error) {
	placements := b.Placements()
	switch {
	case m == Pass:
		if placements != 0 || b.Ended() {
			return b, errors.Wrapf(ErrIllegalMove, "%v cannot pass at ply %d", b.ToMove, b.Ply)
		}
		return Board{
			Own:    b.Opp,
			Opp:    b.Own,
			ToMove: game.Opponent(b.ToMove),
			Passes: b.Passes + 1,
			Ply:    b.Ply + 1,
		}, nil
	case m < 0 || m >= Squares:
		return b, errors.Wrapf(ErrIllegalMove, "move %d out of range", m)
	case placements&(uint64(1)<<uint(m)) == 0:
		return b, errors.Wrapf(ErrIllegalMove, "%v cannot play %v at ply %d", b.ToMove, MoveString(m), b.Ply)
	}

	own, opp := resolve(int(m), b.Own, b.Opp)
	return Board{
		Own:    opp,
		Opp:    own,
		ToMove: game.Opponent(b.ToMove),
		Ply:    b.Ply + 1,
	}, nil
}

// IsTerminal returns true when neither player can place a stone.
func (Engine) IsTerminal(b Board) bool { return b.Ended() }

// TerminalValue is the result of the game for the player to move: 1 for a win, -1 for a loss and 0 for a draw.
func (Engine) TerminalValue(b Board) float32 {
	own, opp := popcount(b.Own), popcount(b.Opp)
	switch {
	case own > opp:
		return 1
	case own < opp:
		return -1
	}
	return 0
}

// MoveString returns the name of a move, such as "d3" or "pass".
func MoveString(m game.Single) string {
	if m == Pass {
		return "pass"
	}
	if m < 0 || m > Pass {
		return "invalid"
	}
	return string([]byte{'a' + byte(int(m)%Size), '1' + byte(int(m)/Size)})
}

// ParseMove is the inverse of MoveString.
func ParseMove(s string) (game.Single, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "pass" {
		return Pass, nil
	}
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return 0, errors.Wrapf(ErrIllegalMove, "cannot parse %q", s)
	}
	return game.Single(int(s[1]-'1')*Size + int(s[0]-'a')), nil
}

// Planes encodes the board as two 8x8 planes: the stones of the player to move, then the opponent's.
func Planes(b Board) []float32 {
	retVal := make([]float32, 2*Squares)
	for i := 0; i < Squares; i++ {
		bit := uint64(1) << uint(i)
		if b.Own&bit != 0 {
			retVal[i] = 1
		}
		if b.Opp&bit != 0 {
			retVal[Squares+i] = 1
		}
	}
	return retVal
}
