// Package stream wraps the file handles used to wire subprocess stdio.
//
// A Stream couples an optional readable handle and an optional writable
// handle. Empty slots are filled with the platform null device so every
// stream always has both directions available. Closing either side is
// idempotent; a handle is closed at most once and only by its owner.
//
// Factories are reusable templates bound to nothing until Build is called
// with an execution context. Pipe opens an OS pipe, File opens a path
// resolved against the context directory, Null binds both directions to the
// null device, Manual borrows caller-owned handles, and NewPty hands the
// terminal side of a pseudo-terminal to spawned processes.
package stream
