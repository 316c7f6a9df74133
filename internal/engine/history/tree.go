package history

import (
	"errors"
	"math/rand"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/smash-editor/smash/internal/engine/buffer"
	"github.com/smash-editor/smash/internal/engine/cursor"
)

// Errors returned by tree navigation.
var (
	ErrAtRoot      = errors.New("nothing to undo")
	ErrNoRedo      = errors.New("nothing to redo")
	ErrUnknownNode = errors.New("unknown history node")
)

// NodeID identifies an undo node. ULIDs sort by creation time, which
// the age-based pruning policy and undo-tree UIs rely on.
type NodeID = ulid.ULID

// Node is one commit in the tree. Inverse moves the buffer to the
// parent state; Forward replays the commit from the parent state.
type Node struct {
	id       NodeID
	parent   *Node
	children []*Node
	visited  int // index of the last-visited child, -1 when none

	inverse []buffer.Edit
	forward []buffer.Edit

	cursorsBefore []cursor.Cursor
	cursorsAfter  []cursor.Cursor

	label  string
	origin buffer.Origin
	at     time.Time
	size   int
}

// ID returns the node's identifier.
func (n *Node) ID() NodeID { return n.id }

// Label returns the node's group label, if any.
func (n *Node) Label() string { return n.label }

// Time returns when the commit was recorded.
func (n *Node) Time() time.Time { return n.at }

// Inverse returns the edits that undo this commit.
func (n *Node) Inverse() []buffer.Edit { return n.inverse }

// Forward returns the edits that replay this commit.
func (n *Node) Forward() []buffer.Edit { return n.forward }

// CursorsBefore returns the cursor state before the commit.
func (n *Node) CursorsBefore() []cursor.Cursor { return n.cursorsBefore }

// CursorsAfter returns the cursor state after the commit.
func (n *Node) CursorsAfter() []cursor.Cursor { return n.cursorsAfter }

// Limits bounds tree growth. Zero values disable a limit.
type Limits struct {
	MaxNodes    int
	MaxBytes    int
	MaxAge      time.Duration
	MergeWindow time.Duration // typing-merge heuristic window
}

// DefaultLimits mirrors the editor's shipped configuration.
func DefaultLimits() Limits {
	return Limits{
		MaxNodes:    10_000,
		MaxBytes:    50 << 20,
		MaxAge:      7 * 24 * time.Hour,
		MergeWindow: 500 * time.Millisecond,
	}
}

// Tree is the branching undo history for one buffer.
type Tree struct {
	root    *Node
	current *Node
	nodes   map[NodeID]*Node
	count   int // commits, excluding root
	bytes   int

	limits  Limits
	clock   func() time.Time
	entropy *ulid.MonotonicEntropy
}

// NewTree creates an empty tree. clock is injected so tests are
// hermetic; nil uses time.Now.
func NewTree(limits Limits, clock func() time.Time) *Tree {
	if clock == nil {
		clock = time.Now
	}
	t := &Tree{
		nodes:   make(map[NodeID]*Node),
		limits:  limits,
		clock:   clock,
		entropy: ulid.Monotonic(rand.New(rand.NewSource(clock().UnixNano())), 0),
	}
	t.root = &Node{visited: -1, at: clock()}
	t.root.id = t.newID()
	t.current = t.root
	t.nodes[t.root.id] = t.root
	return t
}

func (t *Tree) newID() NodeID {
	return ulid.MustNew(ulid.Timestamp(t.clock()), t.entropy)
}

// Current returns the current node (the root for a fresh tree).
func (t *Tree) Current() *Node { return t.current }

// Root returns the sentinel root.
func (t *Tree) Root() *Node { return t.root }

// Len returns the number of commits in the tree.
func (t *Tree) Len() int { return t.count }

// Bytes returns the aggregate text memory held by commits.
func (t *Tree) Bytes() int { return t.bytes }

// CanUndo reports whether the current node has a parent.
func (t *Tree) CanUndo() bool { return t.current != t.root }

// CanRedo reports whether the current node has children.
func (t *Tree) CanRedo() bool { return len(t.current.children) > 0 }

// Lookup finds a node by ID.
func (t *Tree) Lookup(id NodeID) (*Node, bool) {
	n, ok := t.nodes[id]
	return n, ok
}

// Commit describes a change to record.
type Commit struct {
	Inverse       []buffer.Edit
	Forward       []buffer.Edit
	CursorsBefore []cursor.Cursor
	CursorsAfter  []cursor.Cursor
	Label         string
	Origin        buffer.Origin
}

// Record appends a commit as a child of the current node and makes it
// current. An existing child makes the new commit a sibling branch;
// previous children are retained. Consecutive single-character local
// inserts at adjacent positions within the merge window collapse into
// the current node instead. Returns the node now holding the commit.
func (t *Tree) Record(c Commit) *Node {
	now := t.clock()

	if t.mergeable(c, now) {
		n := t.current
		t.bytes -= n.size
		n.forward = append(n.forward, c.Forward...)
		n.inverse = append(buffer.InvertEdits(c.Forward), n.inverse...)
		n.cursorsAfter = c.CursorsAfter
		n.at = now
		n.size = commitSize(n.inverse, n.forward)
		t.bytes += n.size
		return n
	}

	n := &Node{
		id:            t.newID(),
		parent:        t.current,
		visited:       -1,
		inverse:       c.Inverse,
		forward:       c.Forward,
		cursorsBefore: c.CursorsBefore,
		cursorsAfter:  c.CursorsAfter,
		label:         c.Label,
		origin:        c.Origin,
		at:            now,
		size:          commitSize(c.Inverse, c.Forward),
	}
	t.current.children = append(t.current.children, n)
	t.current.visited = len(t.current.children) - 1
	t.current = n
	t.nodes[n.id] = n
	t.count++
	t.bytes += n.size

	t.prune(now)
	return n
}

// mergeable implements the typing-merge heuristic: both commits are
// local single-insert edits, the new insert starts where the previous
// one ended, the cursor did not jump, and the gap is inside the merge
// window. A current node that already has children never merges (the
// branch point must stay addressable), and non-local origins never
// merge with typing.
func (t *Tree) mergeable(c Commit, now time.Time) bool {
	n := t.current
	if n == t.root || len(n.children) > 0 {
		return false
	}
	if n.origin != buffer.OriginLocal || c.Origin != buffer.OriginLocal {
		return false
	}
	if n.label != "" || c.Label != "" {
		return false
	}
	if t.limits.MergeWindow <= 0 || now.Sub(n.at) > t.limits.MergeWindow {
		return false
	}
	if len(c.Forward) != 1 || len(n.forward) == 0 {
		return false
	}
	prev := n.forward[len(n.forward)-1]
	next := c.Forward[0]
	if prev.OldLen != 0 || next.OldLen != 0 {
		return false
	}
	if runeCount(next.NewText) != 1 || runeCount(prev.NewText) != 1 {
		return false
	}
	return next.Start == prev.Start+len(prev.NewText)
}

func runeCount(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

func commitSize(inverse, forward []buffer.Edit) int {
	const nodeOverhead = 160
	size := nodeOverhead
	for _, e := range inverse {
		size += len(e.OldText) + len(e.NewText)
	}
	for _, e := range forward {
		size += len(e.OldText) + len(e.NewText)
	}
	return size
}

// Undo moves current to its parent and returns the node whose
// inverse edits the caller must apply.
func (t *Tree) Undo() (*Node, error) {
	if t.current == t.root {
		return nil, ErrAtRoot
	}
	n := t.current
	p := n.parent
	for i, c := range p.children {
		if c == n {
			p.visited = i
			break
		}
	}
	t.current = p
	return n, nil
}

// Redo moves current to the last-visited child (the newest branch if
// none was visited) and returns the node whose forward edits the
// caller must apply.
func (t *Tree) Redo() (*Node, error) {
	if len(t.current.children) == 0 {
		return nil, ErrNoRedo
	}
	idx := t.current.visited
	if idx < 0 || idx >= len(t.current.children) {
		idx = len(t.current.children) - 1
	}
	n := t.current.children[idx]
	t.current = n
	return n, nil
}

// Path describes the walk Jump computed: nodes to undo (in order)
// then nodes to redo (in order).
type Path struct {
	Up   []*Node
	Down []*Node
}

// Jump computes the walk from the current node to target and moves
// current there. The caller applies each Up node's inverse, then each
// Down node's forward, in order.
func (t *Tree) Jump(id NodeID) (Path, error) {
	target, ok := t.nodes[id]
	if !ok {
		return Path{}, ErrUnknownNode
	}

	depth := func(n *Node) int {
		d := 0
		for n.parent != nil {
			d++
			n = n.parent
		}
		return d
	}

	var path Path
	a, b := t.current, target
	da, db := depth(a), depth(b)
	for da > db {
		path.Up = append(path.Up, a)
		a = a.parent
		da--
	}
	var downRev []*Node
	for db > da {
		downRev = append(downRev, b)
		b = b.parent
		db--
	}
	for a != b {
		path.Up = append(path.Up, a)
		downRev = append(downRev, b)
		a = a.parent
		b = b.parent
	}
	for i := len(downRev) - 1; i >= 0; i-- {
		path.Down = append(path.Down, downRev[i])
	}

	// Point visited indices along the new path so redo follows it.
	for _, n := range path.Down {
		p := n.parent
		for i, c := range p.children {
			if c == n {
				p.visited = i
				break
			}
		}
	}

	t.current = target
	return path, nil
}
