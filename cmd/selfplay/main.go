// Command selfplay plays othello games between two searching agents and reports the results.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/gorgonia/othellozero"
	"github.com/gorgonia/othellozero/game/othello"
	"github.com/rs/zerolog"
)

func main() {
	sims := flag.Int("sims", 200, "Number of MCTS simulations per move")
	puct := flag.Float64("puct", 1.0, "MCTS exploration constant")
	workers := flag.Int("workers", 1, "Number of independent trees searched in parallel per move")
	timeout := flag.Duration("timeout", 0, "Time limit per move. 0 means no limit")
	noise := flag.Float64("noise", 0, "Dirichlet alpha of the root noise. 0 disables it")
	games := flag.Int("games", 1, "Number of games to play")
	seed := flag.Int64("seed", 1337, "Seed for colours, sampling and noise")
	random := flag.Int("random", 10, "Number of plies played by sampling the search distribution")
	augment := flag.Bool("augment", false, "Augment recorded examples with the board symmetries")
	model := flag.String("model", "", "Path to gob encoded network weights. Without it every move is equally likely to the evaluator")
	initModel := flag.String("init", "", "Write freshly initialized network weights to this path and exit")
	dot := flag.String("dot", "", "Write the search tree of the opening position to this path, in graphviz dot format")
	stats := flag.String("stats", "", "Write the win rates as CSV to this path")
	verbose := flag.Bool("v", false, "Log every search")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).With().Timestamp().Logger()

	conf := othellozero.DefaultConfig()
	conf.MCTSConf.Simulations = *sims
	conf.MCTSConf.PUCT = float32(*puct)
	conf.MCTSConf.Workers = *workers
	conf.MCTSConf.Timeout = *timeout
	if *noise > 0 {
		conf.MCTSConf.NoiseAlpha = float32(*noise)
		conf.MCTSConf.NoiseEpsilon = 0.25
	}
	conf.RandomCount = *random
	conf.Seed = *seed
	if *augment {
		conf.Augmenter = othellozero.Augment
	}

	az, err := othellozero.New(conf, othellozero.WithLogger(logger))
	if err != nil {
		logger.Fatal().Err(err).Msg("creating the players")
	}
	defer az.Close()

	if *initModel != "" {
		if err = az.Save(*initModel); err != nil {
			logger.Fatal().Err(err).Msg("saving the network")
		}
		logger.Info().Str("path", *initModel).Msg("network saved")
		return
	}
	if *model != "" {
		if err = az.Load(*model); err != nil {
			logger.Fatal().Err(err).Str("path", *model).Msg("loading the network")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *dot != "" {
		if err = writeDot(ctx, az, *dot); err != nil {
			logger.Fatal().Err(err).Msg("writing the search tree")
		}
	}

	var examples int
	for i := 0; i < *games; i++ {
		ex, err := az.SelfPlay(ctx, 1)
		if err != nil {
			logger.Fatal().Err(err).Msg("self-play")
		}
		examples += len(ex)
		fmt.Printf("Game %d\n%v\n\n", i+1, az.Board())
	}
	fmt.Printf("A wins %v, loss %v, draw %v\nB wins %v, loss %v, draw %v\n%d examples recorded\n",
		az.A.Wins, az.A.Loss, az.A.Draw, az.B.Wins, az.B.Loss, az.B.Draw, examples)

	if *stats != "" {
		f, err := os.Create(*stats)
		if err != nil {
			logger.Fatal().Err(err).Msg("creating the stats file")
		}
		defer f.Close()
		if err = az.Dump(f); err != nil {
			logger.Fatal().Err(err).Msg("writing the stats")
		}
	}
}

func writeDot(ctx context.Context, az *othellozero.AZ, path string) error {
	tree, err := az.A.MCTS.Search(ctx, othello.New())
	if err != nil {
		return err
	}
	dot, err := tree.ToDot()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(dot), 0644)
}
