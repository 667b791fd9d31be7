// Package notify turns the pull-only result cache and progress tracker into
// push notifications. One polling loop runs per subscription and stops as
// soon as the subscriber goes away.
package notify
