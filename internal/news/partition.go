package news

import (
	"errors"
	"fmt"
	"strings"
)

// Scheme selects how a partition value is interpreted.
type Scheme int

const (
	SchemeCategory Scheme = iota
	SchemeKeyword
)

const (
	DefaultCategory = "general"
	DefaultKeyword  = "news"
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrEmptyKeyword    = errors.New("keyword cannot be empty")
)

// Categories is the fixed set of top-headline categories, in display order.
var Categories = []string{
	"general",
	"business",
	"entertainment",
	"health",
	"science",
	"sports",
	"technology",
}

func (s Scheme) String() string {
	switch s {
	case SchemeCategory:
		return "category"
	case SchemeKeyword:
		return "keyword"
	default:
		return "unknown"
	}
}

// Default returns the partition value a fresh screen starts with.
func (s Scheme) Default() string {
	if s == SchemeKeyword {
		return DefaultKeyword
	}
	return DefaultCategory
}

// Partition is the discriminator used both to query the API and to tag
// persisted records.
type Partition struct {
	Scheme Scheme
	Value  string
}

func Category(value string) Partition { return Partition{Scheme: SchemeCategory, Value: value} }
func Keyword(value string) Partition  { return Partition{Scheme: SchemeKeyword, Value: value} }

func (p Partition) String() string {
	return fmt.Sprintf("%s:%s", p.Scheme, p.Value)
}

// NewPartition normalizes value for scheme and rejects values the API
// cannot serve.
func NewPartition(scheme Scheme, value string) (Partition, error) {
	value = strings.TrimSpace(value)
	switch scheme {
	case SchemeCategory:
		value = strings.ToLower(value)
		if !IsCategory(value) {
			return Partition{}, fmt.Errorf("%w: %q", ErrUnknownCategory, value)
		}
	case SchemeKeyword:
		if value == "" {
			return Partition{}, ErrEmptyKeyword
		}
	default:
		return Partition{}, fmt.Errorf("unsupported scheme %d", scheme)
	}
	return Partition{Scheme: scheme, Value: value}, nil
}

func IsCategory(value string) bool {
	for _, c := range Categories {
		if c == value {
			return true
		}
	}
	return false
}
