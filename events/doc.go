// Package events defines the notifications emitted while a structured
// response streams in, and the sinks that receive them.
//
// Stages call Dispatcher.Dispatch synchronously from the reducer chain, so
// sinks must return quickly. Hub and BroadcastSink move delivery off the
// pipeline goroutine for slow consumers.
package events
