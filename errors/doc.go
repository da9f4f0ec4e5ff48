// Package errors provides structured error types for the embedding pipeline.
//
// Every error carries a Phase (where in the pipeline it happened) and a Kind
// (what category of failure). Errors support errors.Is matching on the
// Phase/Kind pair and errors.Unwrap for the underlying cause.
package errors
