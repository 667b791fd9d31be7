// Package bootstrap builds the infrastructure shared by the API server and
// the lane workers: database and Redis connections, stores, producers, the
// dispatcher and the lane handlers.
package bootstrap
