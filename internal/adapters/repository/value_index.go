package repository

import "math/rand/v2"

// valueIndex is a treap ordering players by value desc, then id asc. In-order
// traversal yields the leaderboard.
type valueIndex struct {
	root *indexNode
}

type indexNode struct {
	id          string
	value       int
	prio        uint64
	left, right *indexNode
	size        int
}

func size(n *indexNode) int {
	if n == nil {
		return 0
	}
	return n.size
}

func (n *indexNode) fix() {
	n.size = 1 + size(n.left) + size(n.right)
}

// ahead reports whether (aValue, aID) sorts before (bValue, bID).
func ahead(aValue int, aID string, bValue int, bID string) bool {
	if aValue != bValue {
		return aValue > bValue
	}
	return aID < bID
}

func rotateRight(y *indexNode) *indexNode {
	x := y.left
	y.left = x.right
	x.right = y
	y.fix()
	x.fix()
	return x
}

func rotateLeft(x *indexNode) *indexNode {
	y := x.right
	x.right = y.left
	y.left = x
	x.fix()
	y.fix()
	return y
}

func (ix *valueIndex) len() int { return size(ix.root) }

func (ix *valueIndex) insert(id string, value int) {
	ix.root = insertNode(ix.root, &indexNode{id: id, value: value, prio: rand.Uint64(), size: 1})
}

func insertNode(n, in *indexNode) *indexNode {
	if n == nil {
		return in
	}
	if ahead(in.value, in.id, n.value, n.id) {
		n.left = insertNode(n.left, in)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insertNode(n.right, in)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	n.fix()
	return n
}

// remove deletes the entry keyed by (id, value); value must be the one it was
// inserted with.
func (ix *valueIndex) remove(id string, value int) {
	ix.root = removeNode(ix.root, id, value)
}

func removeNode(n *indexNode, id string, value int) *indexNode {
	if n == nil {
		return nil
	}
	switch {
	case n.id == id && n.value == value:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = removeNode(n.right, id, value)
		} else {
			n = rotateLeft(n)
			n.left = removeNode(n.left, id, value)
		}
	case ahead(value, id, n.value, n.id):
		n.left = removeNode(n.left, id, value)
	default:
		n.right = removeNode(n.right, id, value)
	}
	n.fix()
	return n
}

// walk visits entries in leaderboard order until fn returns false.
func (ix *valueIndex) walk(fn func(id string, value int) bool) {
	walkNode(ix.root, fn)
}

func walkNode(n *indexNode, fn func(id string, value int) bool) bool {
	if n == nil {
		return true
	}
	if !walkNode(n.left, fn) {
		return false
	}
	if !fn(n.id, n.value) {
		return false
	}
	return walkNode(n.right, fn)
}

// denseRanks walks the index assigning dense ranks: equal values share a rank and
// the next distinct value takes the following one.
func (ix *valueIndex) denseRanks(fn func(rank int, id string) bool) {
	rank, prev, first := 0, 0, true
	ix.walk(func(id string, value int) bool {
		if first || value != prev {
			rank++
			prev, first = value, false
		}
		return fn(rank, id)
	})
}
