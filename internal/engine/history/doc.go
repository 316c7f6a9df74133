// Package history implements the branching undo tree.
//
// The tree is rooted at a sentinel representing the initial buffer
// state. Each node stores the resolved edits of one commit in both
// directions plus the cursor state around it. Undoing and then
// committing something new creates a sibling branch; earlier branches
// are kept until the pruning policy drops them. The path from root to
// the current node always replays the saved content into the current
// content.
package history
