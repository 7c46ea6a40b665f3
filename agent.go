package othellozero

import (
	"context"
	"math/rand"
	"sync"

	"github.com/chewxy/math32"
	"github.com/gorgonia/othellozero/game"
	"github.com/gorgonia/othellozero/game/othello"
	"github.com/gorgonia/othellozero/mcts"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"gorgonia.org/vecf32"
)

// NetEvaluator lets the search consult an Inferer.
type NetEvaluator struct {
	Inferer
}

// Evaluate encodes the board and runs inference on it.
func (e NetEvaluator) Evaluate(b othello.Board) (policy []float32, value float32, err error) {
	if policy, value, err = e.Infer(EncodeBoard(b)); err != nil {
		if el, ok := e.Inferer.(ExecLogger); ok {
			return nil, 0, errors.Wrapf(err, "execution log:\n%s", el.ExecLog())
		}
		return nil, 0, err
	}
	return policy, value, nil
}

// An Agent is a player backed by a search.
type Agent struct {
	MCTS   *mcts.MCTS[othello.Board]
	Player game.Player
	Logger zerolog.Logger

	// Statistics
	Wins float32
	Loss float32
	Draw float32
	sync.Mutex

	name        string
	conf        mcts.Config
	randomCount int
	temperature float32
	r           *rand.Rand
	inferer     Inferer
}

func newAgent(name string, inf Inferer, conf Config, seed int64, logger zerolog.Logger) (*Agent, error) {
	mconf := conf.MCTSConf
	mconf.Seed = seed
	retVal := &Agent{
		Logger:      logger.With().Str("agent", name).Logger(),
		name:        name,
		conf:        mconf,
		randomCount: conf.RandomCount,
		temperature: conf.RandomTemperature,
		r:           rand.New(rand.NewSource(seed)),
	}
	if err := retVal.SwitchToInference(inf); err != nil {
		return nil, err
	}
	return retVal, nil
}

// Name returns the name the agent was created with.
func (a *Agent) Name() string { return a.name }

// SwitchToInference makes the agent search with inf. The previous Inferer is closed.
func (a *Agent) SwitchToInference(inf Inferer) (err error) {
	a.Lock()
	defer a.Unlock()

	m, err := mcts.New[othello.Board](othello.Engine{}, NetEvaluator{inf}, a.conf, mcts.WithLogger(a.Logger))
	if err != nil {
		return err
	}
	if a.inferer != nil {
		if err = a.inferer.Close(); err != nil {
			return errors.WithMessagef(err, "closing the inferer of %v", a.name)
		}
	}
	a.inferer = inf
	a.MCTS = m
	return nil
}

// Search searches the board and returns the move to play along with the search's policy.
//
// If the search produces no usable distribution (for instance when its deadline passed before a single
// simulation), the anomaly is logged and every legal move is considered equally good.
func (a *Agent) Search(ctx context.Context, b othello.Board) (best game.Single, policy []float32, err error) {
	a.Lock()
	m := a.MCTS
	a.Unlock()

	policy, err = m.Run(ctx, b)
	switch {
	case errors.Cause(err) == mcts.ErrDegenerateOutput:
		a.Logger.Warn().Err(err).Int("ply", b.Ply).Msg("degenerate search output. Playing uniformly")
		policy = uniformLegal(b, a.conf.ActionSpace)
	case err != nil:
		return -1, nil, err
	}

	if b.Ply < a.randomCount {
		best = a.sample(policy)
	} else {
		best = game.Single(vecf32.Argmax(policy))
	}
	a.Logger.Debug().Int("ply", b.Ply).Str("move", othello.MoveString(best)).Msg("searched")
	return best, policy, nil
}

// sample draws a move from policy sharpened by the temperature.
func (a *Agent) sample(policy []float32) game.Single {
	weights := make([]float32, len(policy))
	for i, p := range policy {
		if p > 0 {
			weights[i] = math32.Pow(p, 1/a.temperature)
		}
	}
	sum := vecf32.Sum(weights)
	if sum <= 0 || math32.IsInf(sum, 0) {
		return game.Single(vecf32.Argmax(policy))
	}

	x := a.r.Float32() * sum
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		last = i
		if x < w {
			return game.Single(i)
		}
		x -= w
	}
	// rounding ate the remainder
	return game.Single(last)
}

// Close closes the agent's Inferer.
func (a *Agent) Close() error {
	a.Lock()
	defer a.Unlock()
	if a.inferer == nil {
		return nil
	}
	err := a.inferer.Close()
	a.inferer = nil
	return err
}

func uniformLegal(b othello.Board, actionSpace int) []float32 {
	retVal := make([]float32, actionSpace)
	moves := (othello.Engine{}).LegalMoves(b)
	for _, m := range moves {
		retVal[m] = 1 / float32(len(moves))
	}
	return retVal
}
