package othellozero

import (
	"io"

	dual "github.com/gorgonia/othellozero/dualnet"
	"github.com/gorgonia/othellozero/game/othello"
	"github.com/gorgonia/othellozero/mcts"
)

// Config configures self-play.
type Config struct {
	Name     string
	NNConf   dual.Config
	MCTSConf mcts.Config

	// For the first RandomCount plies of a game, moves are sampled from the search's
	// visit distribution sharpened by RandomTemperature. Afterwards the most visited move is played.
	RandomCount       int
	RandomTemperature float32

	MaxExamples int   // maximum number of examples kept from a self-play run. 0 keeps all
	Seed        int64 // seeds colour assignment, move sampling and the search noise

	// extensions
	Augmenter Augmenter
}

// DefaultConfig returns a configuration for 8×8 othello.
func DefaultConfig() Config {
	return Config{
		Name:              "othello",
		NNConf:            dual.DefaultConf(othello.Size, othello.Size, othello.ActionSpace),
		MCTSConf:          mcts.DefaultConfig(othello.ActionSpace),
		RandomCount:       10,
		RandomTemperature: 1,
	}
}

func (c Config) IsValid() bool {
	return c.NNConf.IsValid() &&
		c.NNConf.ActionSpace == othello.ActionSpace &&
		c.MCTSConf.IsValid() &&
		c.MCTSConf.ActionSpace == othello.ActionSpace &&
		c.RandomCount >= 0 &&
		(c.RandomCount == 0 || c.RandomTemperature > 0) &&
		c.MaxExamples >= 0
}

// Augmenter takes an example, and creates more examples from it.
type Augmenter func(a Example) []Example

// Example is a representation of an example.
type Example struct {
	Board  []float32 // the position, encoded with EncodeBoard
	Policy []float32 // the search's visit distribution
	Value  float32   // the outcome for the player to move: 1, 0 or -1
}

// Inferer is anything that can infer given an input.
type Inferer interface {
	Infer(a []float32) (policy []float32, value float32, err error)
	io.Closer
}

// ExecLogger is anything that can return the execution log.
type ExecLogger interface {
	ExecLog() string
}
