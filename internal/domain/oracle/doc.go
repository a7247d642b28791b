// Package oracle implements the status-report quorum protocol.
//
// Oracles register once per identity for a fee and receive three immutable
// indexes drawn from a small fixed range. A status fetch opens one request
// per flight and pins a random index; only registered oracles holding that
// index may respond. The first status code backed by a quorum of distinct
// responders finalizes the flight exactly once, and an airline-caused delay
// credits every open policy on the flight.
package oracle
