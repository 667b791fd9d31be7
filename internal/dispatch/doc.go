// Package dispatch implements get-or-generate: a cache lookup, a lock race,
// a second check inside the critical section and at most one enqueue per
// lock epoch. The lock covers only the enqueue, never job execution.
package dispatch
