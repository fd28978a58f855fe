package layout

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/sha3"
)

// Fingerprint returns a SHA3-256 digest of the placement of every field.
// Two layouts have the same fingerprint exactly when they are Equal.
func Fingerprint(l *Layout) string {
	h := sha3.New256()
	for _, s := range l.Slots {
		fmt.Fprintf(h, "slot %d\n", s.Index)
		for _, o := range s.Occupants {
			fmt.Fprintf(h, "%q %d %d %t\n", o.Name, o.Offset, o.Width, o.Dynamic)
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}
