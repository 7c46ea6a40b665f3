package mcts

import (
	"sync"

	"github.com/gorgonia/othellozero/game"
	"github.com/pkg/errors"
)

// path is a game state that records the moves played to reach it, one letter per move.
type path string

func (p path) String() string { return string(p) }

func (p path) play(m game.Single) path { return p + path(rune('a'+m)) }

// treeGame is a game where every position has the same moves, until a fixed depth is reached.
type treeGame struct {
	moves    []game.Single
	depth    int
	values   map[path]float32 // terminal values. Missing terminals are draws.
	applyErr error
}

func (g treeGame) LegalMoves(p path) []game.Single {
	if g.IsTerminal(p) {
		return nil
	}
	return g.moves
}

func (g treeGame) Apply(p path, m game.Single) (path, error) {
	if g.applyErr != nil {
		return p, g.applyErr
	}
	for _, legal := range g.moves {
		if legal == m {
			return p.play(m), nil
		}
	}
	return p, errors.Errorf("illegal move %d", m)
}

func (g treeGame) IsTerminal(p path) bool { return len(p) >= g.depth }

func (g treeGame) TerminalValue(p path) float32 { return g.values[p] }

// fixedNN returns the same policy and value for every state.
type fixedNN struct {
	sync.Mutex
	policy []float32
	value  float32
	err    error
	calls  int
	seen   []path
}

func (nn *fixedNN) Evaluate(p path) ([]float32, float32, error) {
	nn.Lock()
	defer nn.Unlock()
	nn.calls++
	nn.seen = append(nn.seen, p)
	if nn.err != nil {
		return nil, 0, nn.err
	}
	return nn.policy, nn.value, nil
}

func uniform(n int) []float32 {
	retVal := make([]float32, n)
	for i := range retVal {
		retVal[i] = 1 / float32(n)
	}
	return retVal
}

func fourMoves(depth int) treeGame {
	return treeGame{moves: []game.Single{0, 1, 2, 3}, depth: depth}
}
