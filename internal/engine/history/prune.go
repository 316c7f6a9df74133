package history

import (
	"time"

	"github.com/smash-editor/smash/internal/engine/buffer"
)

// prune enforces the tree limits after a commit. Only leaf branches
// that are neither the current node nor one of its ancestors are
// droppable; dropping a leaf may expose its parent as the next
// candidate, so pruning loops until the limits hold or nothing
// droppable remains.
func (t *Tree) prune(now time.Time) {
	onPath := t.pathSet()

	// Age-based drops happen regardless of the caps.
	if t.limits.MaxAge > 0 {
		cutoff := now.Add(-t.limits.MaxAge)
		for {
			leaf := t.oldestDroppableLeaf(onPath)
			if leaf == nil || !leaf.at.Before(cutoff) {
				break
			}
			t.removeLeaf(leaf)
		}
	}

	for t.overLimits() {
		leaf := t.oldestDroppableLeaf(onPath)
		if leaf == nil {
			return
		}
		t.removeLeaf(leaf)
	}
}

func (t *Tree) overLimits() bool {
	if t.limits.MaxNodes > 0 && t.count > t.limits.MaxNodes {
		return true
	}
	if t.limits.MaxBytes > 0 && t.bytes > t.limits.MaxBytes {
		return true
	}
	return false
}

// pathSet returns the nodes on the root..current chain.
func (t *Tree) pathSet() map[*Node]bool {
	onPath := make(map[*Node]bool)
	for n := t.current; n != nil; n = n.parent {
		onPath[n] = true
	}
	return onPath
}

func (t *Tree) oldestDroppableLeaf(onPath map[*Node]bool) *Node {
	var oldest *Node
	for _, n := range t.nodes {
		if n == t.root || onPath[n] || len(n.children) > 0 {
			continue
		}
		if oldest == nil || n.at.Before(oldest.at) {
			oldest = n
		}
	}
	return oldest
}

func (t *Tree) removeLeaf(n *Node) {
	p := n.parent
	for i, c := range p.children {
		if c == n {
			p.children = append(p.children[:i], p.children[i+1:]...)
			if p.visited == i {
				p.visited = len(p.children) - 1
			} else if p.visited > i {
				p.visited--
			}
			break
		}
	}
	delete(t.nodes, n.id)
	t.count--
	t.bytes -= n.size
}

// Coalesce merges runs of small, linear (single-child) commits that
// are strictly older than the boundary into single nodes. The engine
// calls this after a successful save so ancient keystroke-level
// history stops holding memory node by node. The current node is
// never coalesced away.
func (t *Tree) Coalesce(boundary time.Time) {
	const smallCommit = 64 // bytes of edit text

	// Walk the root..current path, root-most first.
	var path []*Node
	for n := t.current; n != t.root; n = n.parent {
		path = append(path, n)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}

	coalescable := func(n *Node) bool {
		return n != t.current &&
			len(n.children) == 1 &&
			n.at.Before(boundary) &&
			n.size-160 <= smallCommit &&
			n.label == ""
	}

	for i := 0; i < len(path)-1; i++ {
		a := path[i]
		b := path[i+1]
		if !coalescable(a) || !coalescable(b) || b.parent != a {
			continue
		}
		// Fold b into a: a now represents both commits. Undoing the
		// merged node replays b's inverse first, then a's.
		t.bytes -= a.size + b.size
		a.forward = append(a.forward, b.forward...)
		a.inverse = append(append([]buffer.Edit(nil), b.inverse...), a.inverse...)
		a.cursorsAfter = b.cursorsAfter
		a.at = b.at
		a.children = b.children
		for _, c := range b.children {
			c.parent = a
		}
		a.visited = b.visited
		a.size = commitSize(a.inverse, a.forward)
		t.bytes += a.size
		delete(t.nodes, b.id)
		t.count--

		// b is gone; retry the merged node against the next one.
		path = append(path[:i+1], path[i+2:]...)
		i--
	}
}
