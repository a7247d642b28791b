package oracle

import (
	"crypto/sha256"
	"fmt"
)

// IndexRange is the exclusive upper bound for assigned indexes.
const IndexRange = 10

// DeriveIndexes assigns three distinct indexes over [0, IndexRange) from an
// oracle identity and ledger-derived entropy. The derivation is
// deterministic so replaying the journal reassigns identical indexes, and
// caller-unpredictable because the entropy is fixed only at registration.
func DeriveIndexes(oracleID, entropy string) [3]uint8 {
	var indexes [3]uint8
	seen := make(map[uint8]bool, 3)
	count := 0
	for round := 0; count < 3; round++ {
		sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", entropy, oracleID, round)))
		for _, b := range sum {
			idx := b % IndexRange
			if seen[idx] {
				continue
			}
			seen[idx] = true
			indexes[count] = idx
			count++
			if count == 3 {
				break
			}
		}
	}
	return indexes
}

// ChooseIndex picks the index a status request pins, derived from the
// requesting caller, the flight key, and ledger entropy.
func ChooseIndex(callerID, flightKey, entropy string) uint8 {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s", entropy, callerID, flightKey)))
	return sum[0] % IndexRange
}
