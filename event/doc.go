// Package event provides a small synchronous, typed event emitter.
//
// Listeners are registered per Kind and called in registration order on the
// goroutine that emits. Some kinds are preventable: a listener can veto the
// emitter's default consequence by calling Prevent on the event's Prevention.
package event
