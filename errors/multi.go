package errors

import (
	"fmt"
	"strings"
)

// Append clubs together all provided errors. Nil values are ignored.
//
// If none or only one error is provided, the result is not a collection but
// either nil or that single error. The resulting error keeps the ABCI code of
// the first error so that a validation failure is reported in a fail-fast
// manner.
func Append(errs ...error) error {
	var collected multiErr
	for _, e := range errs {
		if isNilErr(e) {
			continue
		}
		// Flatten nested collections.
		if m, ok := e.(multiErr); ok {
			collected = append(collected, m...)
			continue
		}
		collected = append(collected, e)
	}

	switch len(collected) {
	case 0:
		return nil
	case 1:
		return collected[0]
	default:
		return collected
	}
}

type multiErr []error

func (m multiErr) Error() string {
	points := make([]string, len(m))
	for i, err := range m {
		points[i] = fmt.Sprintf("* %s", err)
	}
	return fmt.Sprintf("%d errors occurred:\n\t%s\n", len(m), strings.Join(points, "\n\t"))
}

// ABCICode returns the code of the first error.
func (m multiErr) ABCICode() uint32 {
	return abciCode(m[0])
}

// Unpack implements the unpacker interface.
func (m multiErr) Unpack() []error {
	return m
}

// unpacker is implemented by errors that are a collection of other errors.
type unpacker interface {
	Unpack() []error
}
