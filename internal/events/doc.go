// Package events defines the client-facing event contract of the
// notification path and the emitters that carry events to a subscriber.
//
// The contract is transport independent: the WebSocket handlers serialize
// Event values as JSON, and tests collect them on a channel.
//
// The primary components are:
// - Event: a processing, progress, ready or error notification for one key
// - Request: a client request to start a job
// - Emitter: anything that can deliver an Event to a subscriber
package events
