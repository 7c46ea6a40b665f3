package mcts_test

import (
	"context"
	"fmt"

	"github.com/gorgonia/othellozero/game"
	"github.com/gorgonia/othellozero/game/othello"
	"github.com/gorgonia/othellozero/mcts"
	"gorgonia.org/vecf32"
)

// dummyNN knows nothing about the game.
type dummyNN struct{}

func (dummyNN) Evaluate(b othello.Board) (policy []float32, value float32, err error) {
	policy = make([]float32, othello.ActionSpace)
	for i := range policy {
		policy[i] = 1 / float32(othello.ActionSpace)
	}
	return policy, 0, nil
}

func Example() {
	conf := mcts.DefaultConfig(othello.ActionSpace)
	conf.Simulations = 200

	m, err := mcts.New[othello.Board](othello.Engine{}, dummyNN{}, conf)
	if err != nil {
		fmt.Println(err)
		return
	}

	board := othello.New()
	tree, err := m.Search(context.Background(), board)
	if err != nil {
		fmt.Println(err)
		return
	}
	probs, err := tree.ActionProbabilities(conf.ActionSpace)
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Printf("Root visits: %d\n", tree.Root().Visits())
	for _, kid := range tree.Root().Children() {
		fmt.Printf("%v visited: %t\n", othello.MoveString(kid.Move()), kid.Visits() > 0)
	}
	fmt.Printf("Sum: %.2f\n", vecf32.Sum(probs))

	// Output:
	// Root visits: 200
	// d3 visited: true
	// c4 visited: true
	// f5 visited: true
	// e6 visited: true
	// Sum: 1.00
}

func Example_selfPlay() {
	conf := mcts.DefaultConfig(othello.ActionSpace)
	conf.Simulations = 16

	var engine othello.Engine
	m, err := mcts.New[othello.Board](engine, dummyNN{}, conf)
	if err != nil {
		fmt.Println(err)
		return
	}

	board := othello.New()
	for !engine.IsTerminal(board) {
		probs, err := m.Run(context.Background(), board)
		if err != nil {
			fmt.Println(err)
			return
		}
		if board, err = engine.Apply(board, othelloMove(probs)); err != nil {
			fmt.Println(err)
			return
		}
	}
	fmt.Println("Game over:", engine.IsTerminal(board))

	// Output:
	// Game over: true
}

func othelloMove(probs []float32) game.Single { return game.Single(vecf32.Argmax(probs)) }
