package othellozero

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/gorgonia/othellozero/game"
	"github.com/gorgonia/othellozero/game/othello"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Arena is where two agents play each other.
type Arena struct {
	r      *rand.Rand
	engine othello.Engine
	board  othello.Board
	A, B   *Agent

	// state
	currentPlayer *Agent
	logger        zerolog.Logger
	aug           Augmenter

	name       string
	gameNumber int               // which game is this in
	history    []game.PlayerMove // moves of the current game
}

// MakeArena makes an arena for two agents.
func MakeArena(a, b *Agent, aug Augmenter, name string, seed int64, logger zerolog.Logger) Arena {
	if name == "" {
		name = "UNKNOWN GAME"
	}
	return Arena{
		r:      rand.New(rand.NewSource(seed)),
		board:  othello.New(),
		A:      a,
		B:      b,
		logger: logger,
		aug:    aug,
		name:   name,
	}
}

func NewArena(a, b *Agent, aug Augmenter, name string, seed int64, logger zerolog.Logger) *Arena {
	ar := MakeArena(a, b, aug, name, seed, logger)
	return &ar
}

// Play plays a game from the starting position, and returns the winner. If it is a draw, the returned colour is None.
//
// When recording, every position becomes an Example, valued from the final result.
func (a *Arena) Play(ctx context.Context, record bool) (winner game.Player, examples []Example, err error) {
	if a.r.Intn(2) == 0 {
		a.A.Player, a.B.Player = othello.Black, othello.White
	} else {
		a.A.Player, a.B.Player = othello.White, othello.Black
	}
	a.board = othello.New()
	a.history = a.history[:0]
	logger := a.logger.With().Int("game", a.gameNumber).Logger()
	logger.Debug().Str("black", a.agent(othello.Black).Name()).Bool("record", record).Msg("playing")

	for !a.engine.IsTerminal(a.board) {
		a.currentPlayer = a.agent(a.board.ToMove)
		best, policy, err := a.currentPlayer.Search(ctx, a.board)
		if err != nil {
			return game.Player(game.None), nil, errors.WithMessagef(err, "%v searching at ply %d", a.currentPlayer.Name(), a.board.Ply)
		}
		pm := game.PlayerMove{Player: a.board.ToMove, Single: best}
		logger.Debug().Str("move", fmt.Sprintf("%v", pm)).Str("name", othello.MoveString(best)).Msg("move")

		if record {
			ex := Example{
				Board:  EncodeBoard(a.board),
				Policy: policy,
				// the outcome is not known yet, so the mover's colour stands in for it
				Value: float32(a.board.ToMove),
			}
			if validPolicies(policy) {
				if a.aug != nil {
					examples = append(examples, a.aug(ex)...)
				} else {
					examples = append(examples, ex)
				}
			}
		}

		if a.board, err = a.engine.Apply(a.board, best); err != nil {
			return game.Player(game.None), nil, errors.WithMessagef(err, "%v played %v", a.currentPlayer.Name(), othello.MoveString(best))
		}
		a.history = append(a.history, pm)
	}
	a.gameNumber++

	winner = a.board.Winner()
	for i := range examples {
		switch {
		case winner == game.Player(game.None):
			examples[i].Value = 0
		case examples[i].Value == float32(winner):
			examples[i].Value = 1
		default:
			examples[i].Value = -1
		}
	}

	switch {
	case winner == game.Player(game.None):
		a.A.Draw++
		a.B.Draw++
	case winner == a.A.Player:
		a.A.Wins++
		a.B.Loss++
	case winner == a.B.Player:
		a.B.Wins++
		a.A.Loss++
	}
	logger.Info().
		Str("winner", fmt.Sprintf("%v", winner)).
		Int("black", a.board.Count(othello.Black)).
		Int("white", a.board.Count(othello.White)).
		Int("examples", len(examples)).
		Msg("game over")
	return winner, examples, nil
}

func (a *Arena) GameNumber() int      { return a.gameNumber }
func (a *Arena) Name() string         { return a.name }
func (a *Arena) Board() othello.Board { return a.board }

// History returns the moves of the last game, in order.
func (a *Arena) History() []game.PlayerMove {
	retVal := make([]game.PlayerMove, len(a.history))
	copy(retVal, a.history)
	return retVal
}

// Score returns the stones p had at the end of the last game.
func (a *Arena) Score(p game.Player) float64 { return float64(a.board.Count(p)) }

func (a *Arena) agent(p game.Player) *Agent {
	if a.A.Player == p {
		return a.A
	}
	return a.B
}

func validPolicies(policy []float32) bool {
	for _, v := range policy {
		if math32.IsInf(v, 0) {
			return false
		}
		if math32.IsNaN(v) {
			return false
		}
	}
	return true
}
