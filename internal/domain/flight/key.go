package flight

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Key derives the deterministic flight key from airline identity, flight
// name, and scheduled departure. The key is stable across processes so
// independent collaborators address the same flight.
func Key(airlineID, name string, departsAt time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", airlineID, name, departsAt.Unix())))
	return hex.EncodeToString(sum[:])[:32]
}
