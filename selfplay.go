package othellozero

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"math/rand"
	"os"

	dual "github.com/gorgonia/othellozero/dualnet"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// AZ is the top level structure and the entry point of the API.
// It pits two searching agents against each other to produce self-play examples.
// AZ stands for AlphaZero
type AZ struct {
	// state
	Arena
	Statistics
	useDummy bool

	// config
	conf   Config
	logger zerolog.Logger
}

type options struct {
	logger zerolog.Logger
}

// Option configures an AZ.
type Option func(*options)

// WithLogger sets the logger games and searches report to. By default nothing is logged.
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates the self-play structure. Both agents start out with a UniformInferer until a network is loaded.
func New(conf Config, opts ...Option) (*AZ, error) {
	if !conf.IsValid() {
		return nil, errors.Errorf("invalid config %+v", conf)
	}
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	actionSpace := conf.MCTSConf.ActionSpace
	a, err := newAgent("A", UniformInferer(actionSpace), conf, conf.Seed, o.logger)
	if err != nil {
		return nil, err
	}
	b, err := newAgent("B", UniformInferer(actionSpace), conf, conf.Seed+1, o.logger)
	if err != nil {
		return nil, err
	}

	logger := o.logger.With().Str("name", conf.Name).Logger()
	return &AZ{
		Arena:      MakeArena(a, b, conf.Augmenter, conf.Name, conf.Seed, logger),
		Statistics: makeStatistics(),
		useDummy:   true,
		conf:       conf,
		logger:     logger,
	}, nil
}

// SelfPlay plays games, and returns the examples recorded from them. The agents' records carry over between calls.
func (a *AZ) SelfPlay(ctx context.Context, games int) ([]Example, error) {
	if a.useDummy {
		a.logger.Info().Msg("Using Dummy")
	}
	var examples []Example
	for i := 0; i < games; i++ {
		_, ex, err := a.Play(ctx, true)
		if err != nil {
			return nil, errors.WithMessagef(err, "self-play game %d", i)
		}
		examples = append(examples, ex...)
		a.update(a.A)
		a.update(a.B)
	}
	a.logger.Info().
		Float32("aWins", a.A.Wins).Float32("aLoss", a.A.Loss).Float32("aDraw", a.A.Draw).
		Float32("bWins", a.B.Wins).Float32("bLoss", a.B.Loss).Float32("bDraw", a.B.Draw).
		Int("examples", len(examples)).
		Msg("self-play done")

	if a.conf.MaxExamples > 0 && len(examples) > a.conf.MaxExamples {
		shuffleExamples(examples, a.conf.Seed)
		examples = examples[:a.conf.MaxExamples]
	}
	return examples, nil
}

// Save the weights of a freshly initialized network into filename.
func (a *AZ) Save(filename string) error {
	d := dual.New(a.conf.NNConf)
	if err := d.Init(); err != nil {
		return err
	}
	f, err := os.OpenFile(filename, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.WithStack(err)
	}
	defer f.Close()

	enc := gob.NewEncoder(f)
	return errors.WithStack(enc.Encode(d))
}

// Load the network weights from filename. Both agents search with the loaded network from then on.
func (a *AZ) Load(filename string) error {
	p, err := os.ReadFile(filename)
	if err != nil {
		return errors.WithStack(err)
	}

	d := dual.New(a.conf.NNConf)
	dec := gob.NewDecoder(bytes.NewReader(p))
	if err = dec.Decode(d); err != nil {
		return errors.Wrapf(err, "decoding %v", filename)
	}

	for _, agent := range []*Agent{a.A, a.B} {
		inf, err := dual.Infer(d, false)
		if err != nil {
			return err
		}
		if err = agent.SwitchToInference(inf); err != nil {
			inf.Close()
			return err
		}
	}
	a.useDummy = false
	return nil
}

// Close releases both agents.
func (a *AZ) Close() error {
	var allErrs manyErr
	for _, agent := range []*Agent{a.A, a.B} {
		if err := agent.Close(); err != nil {
			allErrs = append(allErrs, err)
		}
	}
	if len(allErrs) > 0 {
		return allErrs
	}
	return nil
}

func shuffleExamples(examples []Example, seed int64) {
	r := rand.New(rand.NewSource(seed))
	for i := range examples {
		j := r.Intn(i + 1)
		examples[i], examples[j] = examples[j], examples[i]
	}
}

type manyErr []error

func (err manyErr) Error() string {
	var buf bytes.Buffer
	for _, e := range err {
		fmt.Fprintln(&buf, e.Error())
	}
	return buf.String()
}
