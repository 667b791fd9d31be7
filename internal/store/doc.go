// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying storage from the application's
// core logic: the shared key-value store behind the result cache, lock
// manager, progress tracker and job lanes, and the row store behind
// attempts, answers, questions, documents and feedback.
package store
