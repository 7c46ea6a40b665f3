package mcts

// naughty is essentially *Node. It indexes into the tree's arena.
type naughty int32

func (n naughty) isValid() bool { return n >= 0 }

const (
	nilNode naughty = -1
)
