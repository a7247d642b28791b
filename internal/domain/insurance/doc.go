// Package insurance implements policy sale, payout crediting, and the
// pull-payment withdrawal flow.
//
// Premiums are escrowed into the collective pool at purchase. When an
// oracle quorum finalizes a flight as airline-late, every open policy on
// the flight is credited at the payout multiplier. Credited funds sit in a
// passenger balance until the passenger withdraws; the withdrawal zeroes
// the balance before moving funds.
package insurance
