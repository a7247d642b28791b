// Package flight implements flight registration and status finalization.
//
// Flights are registered by funded airlines under a deterministic key
// derived from airline identity, flight name, and scheduled departure.
// A flight's status starts Unknown and is fixed exactly once, when the
// oracle quorum finalizes it.
package flight
