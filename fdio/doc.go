// Package fdio wraps host file descriptors in owned, independently closable
// duplicates for redirecting guest stdio.
//
// A File duplicates the host descriptor at construction, so the host's
// original stays open and under host ownership no matter what happens to the
// binding. Metadata queries report unknown values and readiness checks always
// report ready: bound descriptors are assumed to be blocking-capable pipes,
// files, or terminals, not non-blocking sockets. This is a scoped
// simplification, not a general readiness abstraction.
package fdio
