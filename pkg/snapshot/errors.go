package snapshot

import (
	"fmt"
	"strings"
)

type (
	// FormatError is returned for data that is not a JSON object of string or null values.
	FormatError struct {
		Err error
	}
	// EncodingError lists the paths whose payload is not valid UTF-8.
	EncodingError struct {
		Paths []string
	}
)

func (e *FormatError) Error() string {
	return "malformed snapshot: " + e.Err.Error()
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("%d node(s) hold payloads that are not valid UTF-8: %s", len(e.Paths), strings.Join(e.Paths, ", "))
}
