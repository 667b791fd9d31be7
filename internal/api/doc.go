// Package api handles incoming HTTP and WebSocket requests for the interview
// practice backend: attempt and answer submission, question generation,
// artifact retrieval and live job notifications. It translates transport
// concerns into service and dispatcher calls and maps internal errors to
// safe client responses.
package api
