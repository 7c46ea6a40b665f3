package mcts

import (
	"fmt"

	"github.com/gorgonia/othellozero/game"
)

// Node is a position in the search tree, reached by playing Move from its parent.
//
// The statistics are from the point of view of the player to move in State. The parent
// sees them from the other side.
type Node[S any] struct {
	id     naughty
	parent naughty

	move     game.Single // undefined for the root
	prior    float32     // P(s, a) - the evaluator's probability for move, after masking
	visits   uint32      // N(s, a)
	valueSum float32     // W(s, a)
	expanded bool

	state S
	tree  *Tree[S]
}

func (n *Node[S]) Format(s fmt.State, c rune) {
	fmt.Fprintf(s, "{NodeID: %v Move: %v, Prior: %v, Visits: %v, Mean: %v}", n.id, n.move, n.prior, n.visits, n.Mean())
}

// ID returns the node's index in the tree. The root is always 0, and IDs follow creation order.
func (n *Node[S]) ID() int { return int(n.id) }

// Move gets the move that led to this node.
func (n *Node[S]) Move() game.Single { return n.move }

// Prior is the (renormalized) probability the evaluator assigned to Move.
func (n *Node[S]) Prior() float32 { return n.prior }

func (n *Node[S]) Visits() uint32 { return n.visits }

func (n *Node[S]) ValueSum() float32 { return n.valueSum }

// Mean returns Q, the mean backpropagated value. An unvisited node has a mean of 0.
func (n *Node[S]) Mean() float32 {
	if n.visits == 0 {
		return 0
	}
	return n.valueSum / float32(n.visits)
}

// State returns the game state at this node.
func (n *Node[S]) State() S { return n.state }

// IsRoot returns true if the node has no parent.
func (n *Node[S]) IsRoot() bool { return !n.parent.isValid() }

// IsExpanded returns true once the node's children have been created.
func (n *Node[S]) IsExpanded() bool { return n.expanded }

// IsLeaf returns true if the node has no children.
func (n *Node[S]) IsLeaf() bool { return len(n.tree.children[n.id]) == 0 }

// Parent returns the parent of the node, or nil for the root.
func (n *Node[S]) Parent() *Node[S] {
	if n.IsRoot() {
		return nil
	}
	return n.tree.nodes[n.parent]
}

// Children returns the children in creation order.
func (n *Node[S]) Children() []*Node[S] {
	kids := n.tree.children[n.id]
	retVal := make([]*Node[S], len(kids))
	for i, kid := range kids {
		retVal[i] = n.tree.nodes[kid]
	}
	return retVal
}

// score is the PUCT upper bound of the node, as seen by its parent:
//	U(s, a) = Q(s, a) + C * P(s, a) * sqrt(N(s)) / (1 + N(s, a))
//
// Q is the node's mean value mapped from [-1, 1] to [0, 1]. The value is stored from the
// node's own perspective, so the parent takes the complement. An unvisited node has Q = 0.
func (n *Node[S]) score(puct, sqrtParentVisits float32) float32 {
	var qsa float32
	if n.visits > 0 {
		qsa = 1 - (n.Mean()+1)/2
	}
	return qsa + puct*n.prior*sqrtParentVisits/(1+float32(n.visits))
}

// Child finds the child that has the wanted move. It returns nil if there is none.
func (n *Node[S]) Child(move game.Single) *Node[S] {
	for _, kid := range n.tree.children[n.id] {
		if child := n.tree.nodes[kid]; child.move == move {
			return child
		}
	}
	return nil
}
