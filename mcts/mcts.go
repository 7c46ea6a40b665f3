// Package mcts implements a Monte Carlo tree search guided by a policy/value evaluator,
// in the style of AlphaZero, for two player zero sum games with alternating moves.
//
// The search only knows the game through an Engine, and the neural network through an
// Evaluator. Both are generic over the game state type S, which must behave as a value:
// the search stores one state per node and never expects a state to change after it was
// returned by the Engine.
package mcts

import (
	"github.com/gorgonia/othellozero/game"
	"github.com/pkg/errors"
)

// Engine is the game rules the search is played against.
type Engine[S any] interface {
	// LegalMoves returns the legal moves of the player to move, in ascending order.
	LegalMoves(state S) []game.Single

	// Apply returns the state after the move is played. It must not modify state.
	Apply(state S, move game.Single) (S, error)

	// IsTerminal returns true if the game has ended.
	IsTerminal(state S) bool

	// TerminalValue returns 1, 0 or -1 from the point of view of the player to move.
	TerminalValue(state S) float32
}

// Evaluator is essentially the neural network. Given a state, it returns a probability
// for every move in the action space, and the expected outcome in [-1, 1] for the player to move.
type Evaluator[S any] interface {
	Evaluate(state S) (policy []float32, value float32, err error)
}

var (
	// ErrInvalidState is returned when the tree is asked to do something that its state does not allow,
	// such as selecting from a leaf, expanding a node twice, or searching from a finished game.
	ErrInvalidState = errors.New("invalid search state")

	// ErrDegenerateOutput is returned when there is no probability mass to work with: either the
	// evaluator gave no weight to any legal move, or no child of the root was ever visited.
	ErrDegenerateOutput = errors.New("degenerate output")

	// ErrInvalidConfig is returned by New when the Config is not valid.
	ErrInvalidConfig = errors.New("invalid config")
)
