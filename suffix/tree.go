package suffix

import (
	"errors"
	"sync/atomic"
	"unicode/utf8"
)

var EmptyInputError error = errors.New("suffix tree: cannot index an empty sequence")
var EmptyQueryError error = errors.New("suffix tree: cannot search for an empty sequence")

// sentinelSeq hands out terminator symbols. Values start above the Unicode
// code point space, so a sentinel never equals a symbol of indexed text, and
// every tree gets a terminator no other tree shares.
var sentinelSeq int32 = utf8.MaxRune

func nextSentinel() rune {
	return atomic.AddInt32(&sentinelSeq, 1)
}

type edge struct {
	label view
	child *node
}

// node keeps its outgoing edges in a plain slice. No two labels start with
// the same symbol, so a first-symbol scan finds at most one candidate.
type node struct {
	edges []edge
}

// match scans the outgoing edges for the one whose label starts with the
// first symbol of v and reports its index together with the length of the
// shared prefix of label and v. The index is -1 when no edge qualifies.
func (n *node) match(v view) (int, int) {
	for i := range n.edges {
		if n.edges[i].label.first() != v.first() {
			continue
		}
		return i, n.edges[i].label.commonPrefixLen(v)
	}
	return -1, 0
}

// insert extends the subtree below n with a path spelling out v. An empty
// view inserts nothing. When v diverges in the middle of an existing label
// the edge is split at the divergence point and both remainders continue
// below a fresh intermediate node.
func (n *node) insert(v view) {
	if v.length() == 0 {
		return
	}

	i, c := n.match(v)
	if i < 0 {
		n.edges = append(n.edges, edge{label: v, child: &node{}})
		return
	}

	if c == n.edges[i].label.length() {
		n.edges[i].child.insert(v.advance(c))
		return
	}

	mid := &node{
		edges: []edge{{label: n.edges[i].label.advance(c), child: n.edges[i].child}},
	}
	n.edges[i] = edge{label: n.edges[i].label.prefix(c), child: mid}
	mid.insert(v.advance(c))
}

// Tree is a substring membership index over one fixed rune sequence. It is
// built once by NewTree and never changes afterwards, so any number of
// goroutines may call Contains concurrently.
type Tree struct {
	symbols []rune
	root    *node
}

// NewTree copies symbols, appends a sentinel unique to the new tree and
// indexes every suffix of the augmented sequence, longest suffix first.
// Each suffix is inserted on its own, so sequences with long repeated runs
// cost quadratic time to index.
func NewTree(symbols []rune) (*Tree, error) {
	if len(symbols) == 0 {
		return nil, EmptyInputError
	}

	backing := make([]rune, len(symbols)+1)
	copy(backing, symbols)
	backing[len(symbols)] = nextSentinel()

	tree := Tree{
		symbols: backing,
		root:    &node{},
	}

	full := newView(backing)
	for i := 0; i < len(backing); i++ {
		tree.root.insert(full.advance(i))
	}
	return &tree, nil
}

// Len returns the number of indexed symbols, not counting the sentinel.
func (tree *Tree) Len() int {
	return len(tree.symbols) - 1
}

// Contains reports whether symbols occur as a contiguous run inside the
// indexed sequence. The walk consumes the query edge by edge and never
// looks at more symbols than the query holds.
func (tree *Tree) Contains(symbols []rune) (bool, error) {
	if len(symbols) == 0 {
		return false, EmptyQueryError
	}

	remaining := newView(symbols)
	current := tree.root
	for {
		i, c := current.match(remaining)
		if i < 0 {
			return false, nil
		}
		if c == remaining.length() {
			return true, nil
		}
		if c < current.edges[i].label.length() {
			return false, nil
		}
		remaining = remaining.advance(c)
		current = current.edges[i].child
	}
}
