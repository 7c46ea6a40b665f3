package mcts

import (
	"context"
	"time"

	"github.com/chewxy/math32"
	rng "github.com/leesper/go_rng"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorgonia.org/vecf32"
)

/*
Here lies the search loop, while node.go and tree.go handle the data structure stuff.

Every simulation is the usual pipeline:
	SELECT down to a leaf,
	EXPAND it with the evaluator's masked policy (or score it, if the game is over),
	BACKPROPAGATE the value to the root.
*/

// MCTS runs searches. It holds no state between searches: every search builds a fresh tree.
type MCTS[S any] struct {
	Config
	engine Engine[S]
	nn     Evaluator[S]
	logger zerolog.Logger
}

type options struct {
	logger zerolog.Logger
}

// Option configures an MCTS.
type Option func(*options)

// WithLogger sets the logger searches report to. By default nothing is logged.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a searcher for the given game and evaluator.
func New[S any](engine Engine[S], nn Evaluator[S], conf Config, opts ...Option) (*MCTS[S], error) {
	if !conf.IsValid() {
		return nil, errors.Wrapf(ErrInvalidConfig, "%+v", conf)
	}
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &MCTS[S]{
		Config: conf,
		engine: engine,
		nn:     nn,
		logger: o.logger,
	}, nil
}

// Run searches from root and returns the visit distribution of the root's children, indexed by move.
// With more than one worker, the distribution is merged from independent trees.
func (m *MCTS[S]) Run(ctx context.Context, root S) ([]float32, error) {
	if m.Workers > 1 {
		return m.runParallel(ctx, root)
	}
	t, err := m.Search(ctx, root)
	if err != nil {
		return nil, err
	}
	return t.ActionProbabilities(m.ActionSpace)
}

// Search runs the configured number of simulations from root and returns the tree.
//
// The search stops early, without error, when the context's deadline or the configured Timeout passes.
// Cancellation is only observed between simulations, so the tree is always consistent.
func (m *MCTS[S]) Search(ctx context.Context, root S) (*Tree[S], error) {
	if m.engine.IsTerminal(root) {
		return nil, errors.Wrap(ErrInvalidState, "cannot search from a terminal position")
	}
	return m.search(ctx, root, m.Seed)
}

func (m *MCTS[S]) search(ctx context.Context, root S, seed int64) (*Tree[S], error) {
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	var noise *rng.DirichletGenerator
	if m.noisy() {
		noise = rng.NewDirichletGenerator(seed)
	}

	start := time.Now()
	t := NewTree(m.engine, root, m.PUCT)
	var sims int
loop:
	for sims < m.Simulations {
		switch err := ctx.Err(); err {
		case nil:
		case context.DeadlineExceeded:
			m.logger.Debug().Int("simulations", sims).Msg("search deadline reached")
			break loop
		default:
			return nil, errors.Wrapf(err, "search stopped after %d simulations", sims)
		}

		if err := m.simulate(t, noise); err != nil {
			return nil, errors.WithMessagef(err, "simulation %d", sims)
		}
		sims++
	}

	m.logger.Debug().
		Int("simulations", sims).
		Int("nodes", t.Len()).
		Uint32("rootVisits", t.Root().Visits()).
		Dur("elapsed", time.Since(start)).
		Msg("search done")
	return t, nil
}

// simulate runs one SELECT, EXPAND, BACKPROPAGATE pass.
func (m *MCTS[S]) simulate(t *Tree[S], noise *rng.DirichletGenerator) (err error) {
	n := t.Root()
	for !n.IsLeaf() {
		if n, err = t.Select(n); err != nil {
			return err
		}
	}

	var value float32
	if m.engine.IsTerminal(n.state) {
		value = m.engine.TerminalValue(n.state)
	} else {
		var policy []float32
		if policy, value, err = m.evaluate(n.state); err != nil {
			return errors.WithMessagef(err, "node %d", n.id)
		}
		if err = t.Expand(n, policy); err != nil {
			return err
		}
		if n.IsRoot() && noise != nil {
			m.addNoise(n, noise)
		}
	}
	t.Backpropagate(n, value)
	return nil
}

// evaluate calls the evaluator, then masks the policy to the legal moves and renormalizes it.
// The evaluator's slice is never modified.
func (m *MCTS[S]) evaluate(state S) (policy []float32, value float32, err error) {
	var raw []float32
	if raw, value, err = m.nn.Evaluate(state); err != nil {
		return nil, 0, errors.WithMessage(err, "evaluator failed")
	}
	if len(raw) != m.ActionSpace {
		return nil, 0, errors.Errorf("evaluator returned a policy of length %d. Expected %d", len(raw), m.ActionSpace)
	}
	if !finite(raw) || math32.IsNaN(value) || math32.IsInf(value, 0) {
		return nil, 0, errors.Errorf("evaluator returned non finite output. Value %v", value)
	}

	legal := m.engine.LegalMoves(state)
	policy = make([]float32, m.ActionSpace)
	for _, move := range legal {
		if move < 0 || int(move) >= m.ActionSpace {
			return nil, 0, errors.Errorf("legal move %d is outside of the action space %d", move, m.ActionSpace)
		}
		if p := raw[move]; p > 0 {
			policy[move] = p
		}
	}

	legalSum := vecf32.Sum(policy)
	if !(legalSum > 0) {
		return nil, 0, errors.Wrapf(ErrDegenerateOutput, "evaluator gave no probability to any of the %d legal moves", len(legal))
	}
	vecf32.ScaleInv(policy, legalSum)
	return policy, value, nil
}

// addNoise mixes Dirichlet noise into the priors of the children of n.
func (m *MCTS[S]) addNoise(n *Node[S], gen *rng.DirichletGenerator) {
	children := n.tree.children[n.id]
	if len(children) == 0 {
		return
	}
	eta := gen.SymmetricDirichlet(float64(m.NoiseAlpha), len(children))
	eps := m.NoiseEpsilon
	for i, kid := range children {
		child := n.tree.nodes[kid]
		child.prior = (1-eps)*child.prior + eps*float32(eta[i])
	}
}
