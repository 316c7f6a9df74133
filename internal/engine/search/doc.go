// Package search maintains the buffer's find state: a query, the
// sorted match list, and the current-match pointer.
//
// Matches are kept incrementally: each committed edit drops the
// matches it touched, shifts the rest, and rescans a bounded window
// around the change. The invariant is that the incrementally
// maintained list always equals a full rescan.
package search
