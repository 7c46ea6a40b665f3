package mcts

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/chewxy/math32"
	"github.com/google/go-cmp/cmp"
	"github.com/gorgonia/othellozero/game"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/vecf32"
)

func conf(sims, actionSpace int) Config {
	c := DefaultConfig(actionSpace)
	c.Simulations = sims
	return c
}

func newSearch(t *testing.T, g treeGame, nn Evaluator[path], c Config) *MCTS[path] {
	m, err := New[path](g, nn, c)
	require.NoError(t, err)
	return m
}

// checkInvariants walks the tree and checks the visit bookkeeping of every node.
func checkInvariants(t *testing.T, tree *Tree[path]) {
	for i := 0; i < tree.Len(); i++ {
		n := tree.Node(i)
		if n.Visits() == 0 {
			assert.True(t, n.IsLeaf(), "unvisited node %v has children", n)
		}
		if !n.IsExpanded() {
			continue
		}
		var sum uint32
		for _, kid := range n.Children() {
			sum += kid.Visits()
		}
		// the first visit expanded the node, every later one went through a child
		assert.Equal(t, n.Visits(), sum+1, "node %v", n)
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New[path](fourMoves(3), &fixedNN{policy: uniform(4)}, Config{})
	assert.Equal(t, ErrInvalidConfig, errors.Cause(err))
}

func TestRun_SingleSimulation(t *testing.T) {
	nn := &fixedNN{policy: []float32{0.1, 0.4, 0.2, 0.3}, value: 0.3}
	m := newSearch(t, fourMoves(3), nn, conf(1, 4))

	tree, err := m.Search(context.Background(), "")
	require.NoError(t, err)
	root := tree.Root()
	assert.Equal(t, uint32(1), root.Visits())
	assert.Equal(t, float32(0.3), root.ValueSum())
	require.Len(t, root.Children(), 4)
	for _, kid := range root.Children() {
		assert.Zero(t, kid.Visits())
	}
	assert.Equal(t, 1, nn.calls)

	// one simulation only expands the root, so there is nothing to turn into probabilities
	_, err = m.Run(context.Background(), "")
	assert.Equal(t, ErrDegenerateOutput, errors.Cause(err))
}

func TestRun_TerminalRoot(t *testing.T) {
	nn := &fixedNN{policy: uniform(4)}
	m := newSearch(t, fourMoves(0), nn, conf(10, 4))
	_, err := m.Run(context.Background(), "")
	assert.Equal(t, ErrInvalidState, errors.Cause(err))
	assert.Zero(t, nn.calls, "the evaluator must not be called")

	c := conf(10, 4)
	c.Workers = 3
	m = newSearch(t, fourMoves(0), nn, c)
	_, err = m.Run(context.Background(), "")
	assert.Equal(t, ErrInvalidState, errors.Cause(err))
}

func TestRun(t *testing.T) {
	nn := &fixedNN{policy: []float32{0.1, 0.4, 0.2, 0.3}}
	m := newSearch(t, fourMoves(3), nn, conf(50, 4))

	tree, err := m.Search(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, uint32(50), tree.Root().Visits())
	checkInvariants(t, tree)

	probs, err := m.Run(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, probs, 4)
	assert.InDelta(t, 1, vecf32.Sum(probs), 1e-5)
	for _, p := range probs {
		assert.True(t, p >= 0 && p <= 1)
	}
}

func TestRun_Deterministic(t *testing.T) {
	g := treeGame{moves: []game.Single{0, 1, 2, 3, 4}, depth: 4, values: map[path]float32{"aaaa": 1, "bcde": -1}}
	nn := &fixedNN{policy: []float32{0.3, 0.1, 0.2, 0.2, 0.2, 0}, value: 0.1}
	m := newSearch(t, g, nn, conf(200, 6))

	a, err := m.Run(context.Background(), "")
	require.NoError(t, err)
	b, err := m.Run(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRun_Masking(t *testing.T) {
	g := treeGame{moves: []game.Single{1, 3}, depth: 3}
	nn := &fixedNN{policy: []float32{0.4, 0.3, 0.2, 0.1}}
	m := newSearch(t, g, nn, conf(1, 4))

	tree, err := m.Search(context.Background(), "")
	require.NoError(t, err)
	kids := tree.Root().Children()
	require.Len(t, kids, 2)
	assert.Equal(t, game.Single(1), kids[0].Move())
	assert.Equal(t, game.Single(3), kids[1].Move())
	assert.InDelta(t, 0.75, kids[0].Prior(), 1e-6)
	assert.InDelta(t, 0.25, kids[1].Prior(), 1e-6)
	assert.Equal(t, []float32{0.4, 0.3, 0.2, 0.1}, nn.policy, "the evaluator's output must not be modified")

	probs, err := newSearch(t, g, nn, conf(40, 4)).Run(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, probs[0])
	assert.Zero(t, probs[2])
}

func TestRun_DegeneratePolicy(t *testing.T) {
	g := treeGame{moves: []game.Single{0, 1}, depth: 3}
	nn := &fixedNN{policy: []float32{0, 0, 0.5, 0.5}}
	m := newSearch(t, g, nn, conf(10, 4))
	_, err := m.Run(context.Background(), "")
	assert.Equal(t, ErrDegenerateOutput, errors.Cause(err))
}

func TestRun_EvaluatorFailures(t *testing.T) {
	boom := errors.New("boom")
	m := newSearch(t, fourMoves(3), &fixedNN{err: boom}, conf(10, 4))
	_, err := m.Run(context.Background(), "")
	assert.Equal(t, boom, errors.Cause(err), "collaborator errors propagate unchanged")

	bad := map[string][]float32{
		"short policy": {0.5, 0.5},
		"NaN":          {0.5, math32.NaN(), 0, 0},
		"Inf":          {0.5, math32.Inf(1), 0, 0},
	}
	for name, policy := range bad {
		m := newSearch(t, fourMoves(3), &fixedNN{policy: policy}, conf(10, 4))
		_, err := m.Run(context.Background(), "")
		assert.Error(t, err, name)
	}

	m = newSearch(t, fourMoves(3), &fixedNN{policy: uniform(4), value: math32.NaN()}, conf(10, 4))
	_, err = m.Run(context.Background(), "")
	assert.Error(t, err)
}

func TestRun_EngineFailure(t *testing.T) {
	boom := errors.New("no such move")
	g := fourMoves(3)
	g.applyErr = boom
	m := newSearch(t, g, &fixedNN{policy: uniform(4)}, conf(10, 4))
	_, err := m.Run(context.Background(), "")
	assert.Equal(t, boom, errors.Cause(err))
}

func TestRun_TerminalValues(t *testing.T) {
	// moving to "a" leaves the opponent lost, moving to "b" leaves them won
	g := treeGame{moves: []game.Single{0, 1}, depth: 1, values: map[path]float32{"a": -1, "b": 1}}
	nn := &fixedNN{policy: []float32{0.5, 0.5}}
	m := newSearch(t, g, nn, conf(100, 2))

	tree, err := m.Search(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []path{""}, nn.seen, "terminal nodes are never evaluated")
	checkInvariants(t, tree)

	a, b := tree.Root().Child(0), tree.Root().Child(1)
	assert.Greater(t, a.Visits(), b.Visits())
	assert.Equal(t, float32(-1), a.Mean())
	assert.Equal(t, float32(1), b.Mean())
}

func TestSearch_Context(t *testing.T) {
	nn := &fixedNN{policy: uniform(4)}
	m := newSearch(t, fourMoves(3), nn, conf(100, 4))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := m.Search(ctx, "")
	assert.Equal(t, context.Canceled, errors.Cause(err))

	ctx, cancel = context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	tree, err := m.Search(ctx, "")
	require.NoError(t, err, "a deadline ends the search normally")
	assert.Zero(t, tree.Root().Visits())

	_, err = m.Run(ctx, "")
	assert.Equal(t, ErrDegenerateOutput, errors.Cause(err))
}

type slowNN struct {
	fixedNN
	delay time.Duration
}

func (nn *slowNN) Evaluate(p path) ([]float32, float32, error) {
	time.Sleep(nn.delay)
	return nn.fixedNN.Evaluate(p)
}

func TestSearch_Timeout(t *testing.T) {
	nn := &slowNN{fixedNN: fixedNN{policy: uniform(4)}, delay: time.Millisecond}
	c := conf(1000000, 4)
	c.Timeout = 30 * time.Millisecond
	m := newSearch(t, fourMoves(6), nn, c)

	tree, err := m.Search(context.Background(), "")
	require.NoError(t, err)
	visits := tree.Root().Visits()
	assert.True(t, visits > 0 && visits < 1000000)
	checkInvariants(t, tree)
}

func TestSearch_Noise(t *testing.T) {
	nn := &fixedNN{policy: uniform(4)}
	c := conf(1, 4)
	c.NoiseAlpha = 0.3
	c.NoiseEpsilon = 0.25
	c.Seed = 1337

	priors := func(c Config) []float32 {
		tree, err := newSearch(t, fourMoves(3), nn, c).Search(context.Background(), "")
		require.NoError(t, err)
		var retVal []float32
		for _, kid := range tree.Root().Children() {
			retVal = append(retVal, kid.Prior())
		}
		return retVal
	}

	a := priors(c)
	assert.Equal(t, a, priors(c), "seeded noise is reproducible")
	assert.InDelta(t, 1, vecf32.Sum(a), 1e-5)
	assert.NotEqual(t, uniform(4), a)
	for _, p := range a {
		assert.True(t, p >= 0.25*0.75, "noise only takes epsilon of the mass")
	}

	c.Seed = 42
	assert.NotEqual(t, a, priors(c))
}

func TestRun_Parallel(t *testing.T) {
	nn := &fixedNN{policy: []float32{0.1, 0.4, 0.2, 0.3}, value: -0.2}
	serial, err := newSearch(t, fourMoves(3), nn, conf(30, 4)).Run(context.Background(), "")
	require.NoError(t, err)

	serialCalls := nn.calls

	c := conf(30, 4)
	c.Workers = 4
	m := newSearch(t, fourMoves(3), nn, c)
	parallel, err := m.Run(context.Background(), "")
	require.NoError(t, err)

	// without noise every worker builds the same tree
	if diff := cmp.Diff(serial, parallel, approx); diff != "" {
		t.Errorf("parallel search differs from serial search (-serial +parallel):\n%s", diff)
	}
	assert.Equal(t, 4*serialCalls, nn.calls-serialCalls)

	nn.err = errors.New("boom")
	_, err = m.Run(context.Background(), "")
	assert.Equal(t, nn.err, errors.Cause(err))
}

func TestWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf).Level(zerolog.DebugLevel)
	m, err := New[path](fourMoves(3), &fixedNN{policy: uniform(4)}, conf(10, 4), WithLogger(logger))
	require.NoError(t, err)
	_, err = m.Run(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), `"message":"search done"`)
	assert.Contains(t, buf.String(), `"simulations":10`)
}
