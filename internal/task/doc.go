// Package task runs lane workers. Each lane of the job queue is drained by
// a pool of goroutines that hand jobs to the Handler registered for that
// lane. Handlers publish their results through the result cache and the
// progress tracker, never through return values, so that any process can
// observe completion.
package task
