// Package runner is the top of the embedding pipeline: it validates the
// guest binary, assembles the per-call loop, engine, and session, drives
// execution, and collapses every failure mode into a single int32 exit code.
//
// The C boundary and the CLI are thin shells over Execute. A single deferred
// recover at this level guarantees that no internal failure unwinds past the
// pipeline, which is what makes the cgo boundary safe.
package runner
