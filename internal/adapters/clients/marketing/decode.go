package marketing

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	// errNilBody is returned by Decode when there is nothing to read.
	errNilBody = errors.New("response body is nil")

	// errTrailingData is returned when the body holds more than one JSON value.
	errTrailingData = errors.New("unexpected data after json value")
)

// Decode streams a JSON document from body into a new T.
// Unknown fields are ignored and missing fields keep their zero value.
// The body must hold exactly one JSON value and is closed on every path.
func Decode[T any](body io.ReadCloser) (T, error) {
	var result T
	if body == nil {
		return result, errNilBody
	}
	defer func() { _ = body.Close() }()

	dec := json.NewDecoder(body)
	if err := dec.Decode(&result); err != nil {
		return result, fmt.Errorf("decoding json body: %w", err)
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		var zero T
		if err == nil {
			err = errTrailingData
		}

		return zero, fmt.Errorf("decoding json body: %w", err)
	}

	return result, nil
}
