package cipher

import (
	"fmt"
	"strconv"
	"strings"
)

// toy is one "<amount>x <name>" entry in a client's request line, grounded
// on original_source/src/crypto/toys.rs.
type toy struct {
	amount int
	name   string
}

// largestToyRequest parses a comma-separated "NxToy name,MxOther name"
// line and returns the formatted reply for the toy with the largest
// amount, or false if the line has no well-formed entries.
func largestToyRequest(line string) (string, bool) {
	var best toy
	found := false

	for _, entry := range strings.Split(line, ",") {
		idx := strings.IndexByte(entry, 'x')
		if idx < 0 {
			continue
		}
		amount, err := strconv.Atoi(entry[:idx])
		if err != nil {
			continue
		}
		name := strings.TrimSpace(entry[idx+1:])

		if !found || amount > best.amount {
			best = toy{amount: amount, name: name}
			found = true
		}
	}

	if !found {
		return "", false
	}
	return fmt.Sprintf("%dx %s\n", best.amount, best.name), true
}
