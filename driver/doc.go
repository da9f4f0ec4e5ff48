// Package driver owns the execution lifecycle of one guest run: module
// instantiation against a session, one-time entry-point resolution, entry
// invocation, and classification of the result into an exit outcome.
//
// The lifecycle is a forward-only state machine:
//
//	Uninstantiated -> Instantiated -> Initialized -> Running
//	    -> {Returned | Trapped} -> Finalized
//
// Finalized is reached on every path, releasing the instance and the
// session's stream bindings.
package driver
