package mcts

import (
	"time"

	"github.com/chewxy/math32"
	"github.com/gorgonia/othellozero/game"
	"github.com/pkg/errors"
	"gorgonia.org/vecf32"
)

// Config is the structure to configure the search.
type Config struct {
	// PUCT is the exploration constant C. Higher values favour the evaluator's priors over the observed values.
	PUCT float32

	Simulations int           // number of simulations per search
	ActionSpace int           // length of the policy and of the returned probabilities
	Timeout     time.Duration // optional wall clock budget per search. 0 means none.

	// Dirichlet noise mixed into the root's priors: P = (1-NoiseEpsilon)*P + NoiseEpsilon*Dir(NoiseAlpha).
	// Noise is off when either is 0.
	NoiseAlpha   float32
	NoiseEpsilon float32
	Seed         int64 // seeds the noise

	Workers int // number of independent trees to search in parallel. 0 or 1 is serial.
}

// DefaultConfig returns a configuration suitable for a game with the given action space.
func DefaultConfig(actionSpace int) Config {
	return Config{
		PUCT:        1.0,
		Simulations: 800,
		ActionSpace: actionSpace,
	}
}

func (c Config) IsValid() bool {
	return c.PUCT > 0 &&
		c.Simulations > 0 &&
		c.ActionSpace > 0 &&
		c.Timeout >= 0 &&
		c.NoiseAlpha >= 0 &&
		c.NoiseEpsilon >= 0 && c.NoiseEpsilon <= 1 &&
		c.Workers >= 0
}

func (c Config) noisy() bool { return c.NoiseAlpha > 0 && c.NoiseEpsilon > 0 }

// Tree is a search tree. It owns every node in an arena; nodes refer to each other by index,
// and nothing is freed until the tree itself is discarded.
//
// A Tree is not safe for concurrent use.
type Tree[S any] struct {
	engine Engine[S]
	puct   float32

	nodes    []*Node[S]
	children [][]naughty
}

// NewTree creates a tree with a single, unexpanded root at the given state.
func NewTree[S any](engine Engine[S], root S, puct float32) *Tree[S] {
	t := &Tree[S]{
		engine: engine,
		puct:   puct,
	}
	t.alloc(nilNode, -1, 0, root)
	return t
}

// alloc creates a new node in the arena.
func (t *Tree[S]) alloc(parent naughty, move game.Single, prior float32, state S) *Node[S] {
	n := &Node[S]{
		id:     naughty(len(t.nodes)),
		parent: parent,
		move:   move,
		prior:  prior,
		state:  state,
		tree:   t,
	}
	t.nodes = append(t.nodes, n)
	t.children = append(t.children, nil)
	if parent.isValid() {
		t.children[parent] = append(t.children[parent], n.id)
	}
	return n
}

// Root returns the root node.
func (t *Tree[S]) Root() *Node[S] { return t.nodes[0] }

// Node returns the node with the given ID, or nil.
func (t *Tree[S]) Node(id int) *Node[S] {
	if id < 0 || id >= len(t.nodes) {
		return nil
	}
	return t.nodes[id]
}

// Len returns the number of nodes in the tree.
func (t *Tree[S]) Len() int { return len(t.nodes) }

// Select returns the child of n with the highest PUCT score. Ties go to the child created first.
func (t *Tree[S]) Select(n *Node[S]) (*Node[S], error) {
	children := t.children[n.id]
	if len(children) == 0 {
		return nil, errors.Wrapf(ErrInvalidState, "cannot select from leaf node %d", n.id)
	}

	numerator := math32.Sqrt(float32(n.visits))
	best := children[0]
	bestValue := math32.Inf(-1)
	for _, kid := range children {
		if usa := t.nodes[kid].score(t.puct, numerator); usa > bestValue {
			bestValue = usa
			best = kid
		}
	}
	return t.nodes[best], nil
}

// Expand creates one child of n for every move with a positive probability in policy, in move order.
// policy is indexed by move, and is expected to be masked to legal moves already.
//
// A node can only be expanded once, and a terminal node cannot be expanded at all.
// If the engine fails to apply a move, n is left unexpanded.
func (t *Tree[S]) Expand(n *Node[S], policy []float32) error {
	if n.expanded {
		return errors.Wrapf(ErrInvalidState, "node %d is already expanded", n.id)
	}
	if t.engine.IsTerminal(n.state) {
		return errors.Wrapf(ErrInvalidState, "node %d is terminal", n.id)
	}

	type pending struct {
		move  game.Single
		prior float32
		state S
	}
	var kids []pending
	for i, p := range policy {
		if !(p > 0) {
			continue
		}
		move := game.Single(i)
		state, err := t.engine.Apply(n.state, move)
		if err != nil {
			return errors.WithMessagef(err, "expanding node %d with move %d", n.id, move)
		}
		kids = append(kids, pending{move, p, state})
	}

	for _, k := range kids {
		t.alloc(n.id, k.move, k.prior, k.state)
	}
	n.expanded = true
	return nil
}

// Backpropagate adds value to n and every ancestor of n, negating it at each step up
// because the players alternate.
func (t *Tree[S]) Backpropagate(n *Node[S], value float32) {
	for id := n.id; id.isValid(); {
		node := t.nodes[id]
		node.valueSum += value
		node.visits++
		value = -value
		id = node.parent
	}
}

// VisitCounts returns the visits of the root's children, indexed by move.
// Moves outside the action space are ignored.
func (t *Tree[S]) VisitCounts(actionSpace int) []float32 {
	retVal := make([]float32, actionSpace)
	for _, kid := range t.children[0] {
		child := t.nodes[kid]
		if child.move < 0 || int(child.move) >= actionSpace {
			continue
		}
		retVal[child.move] = float32(child.visits)
	}
	return retVal
}

// ActionProbabilities returns the visit counts of the root's children, normalized to sum to 1.
func (t *Tree[S]) ActionProbabilities(actionSpace int) ([]float32, error) {
	return normalize(t.VisitCounts(actionSpace))
}

// normalize scales counts in place so that it sums to 1.
func normalize(counts []float32) ([]float32, error) {
	sum := vecf32.Sum(counts)
	if !(sum > 0) {
		return nil, errors.Wrap(ErrDegenerateOutput, "no child of the root was visited")
	}
	vecf32.ScaleInv(counts, sum)
	return counts, nil
}
