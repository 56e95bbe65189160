// shared/models/coins.go
package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Coins is an unsigned 64-bit currency amount. It marshals to a JSON decimal
// string because JSON numbers lose precision above 2^53 and balances must
// survive the round trip through the KV store bit-exactly.
type Coins uint64

// MarshalJSON encodes the amount as a quoted decimal string.
func (c Coins) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strconv.FormatUint(uint64(c), 10) + `"`), nil
}

// UnmarshalJSON accepts both the quoted string form and a bare number, so
// records written by older tooling still decode.
func (c *Coins) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*c = 0
		return nil
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid coin amount %q: %w", s, err)
	}
	*c = Coins(n)
	return nil
}

func (c Coins) String() string {
	return strconv.FormatUint(uint64(c), 10)
}
