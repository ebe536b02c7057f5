package newsapi

import (
	"errors"
	"fmt"
)

// ErrEmptyPartition is returned before any request is made when the
// partition has no value to search for.
var ErrEmptyPartition = errors.New("empty partition value")

type Kind int

const (
	// KindTransport covers network failures and non-200 responses.
	KindTransport Kind = iota
	// KindDecode means the response arrived but could not be parsed.
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindDecode:
		return "decode"
	default:
		return "unknown"
	}
}

// FetchError is the failure of a single search request. Status is the HTTP
// status code when one was received.
type FetchError struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s error (HTTP %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of a FetchError anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind, true
	}
	return 0, false
}
