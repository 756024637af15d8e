// Package walker enumerates and copies source trees. Traversal uses an
// explicit worklist rather than recursion, and honours doublestar exclude
// patterns.
package walker
