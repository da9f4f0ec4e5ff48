// Package session assembles the guest execution environment: argument list,
// environment pairs, and stdio bindings over duplicated host descriptors.
//
// A session is built once, consumed exactly once by the execution driver,
// and closed on every exit path. The environment is explicit: callers pass
// the pairs the guest should see, or take a one-time host snapshot via
// HostEnv. Nothing in a session refreshes from ambient process state after
// Build returns.
package session
