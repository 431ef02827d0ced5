package flows

import (
	"fmt"
	"strconv"
)

// wrapStore stamps a store failure with the caller's sentinel while keeping
// the underlying error in the chain, so validation causes such as an
// oversized principal stay detectable with errors.Is.
func wrapStore(sentinel error, err error) error {
	if sentinel == nil {
		return err
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
