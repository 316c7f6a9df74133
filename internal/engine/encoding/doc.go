// Package encoding handles character encoding and line-ending
// detection for buffer load and save.
//
// Internally a buffer always stores UTF-8 with LF line endings. This
// package converts foreign encodings and line-ending styles on the
// way in, remembers what it saw, and restores both on the way out.
package encoding
