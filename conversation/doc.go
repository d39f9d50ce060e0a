// Package conversation runs the question and answer loop over a loaded
// document context.
//
// A Controller accepts a question only when a context is loaded, no other
// question is awaiting its reply and the question is not blank. Rejected
// questions leave the history untouched. Accepted questions always produce
// exactly one User turn followed by exactly one Model turn, even when the
// inference call fails.
//
// Loading a new context or resetting discards the history and any reply
// still in flight.
package conversation
