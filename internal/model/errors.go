package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies proxy failures.
type ErrorKind int

const (
	// KindInternal covers anything not classified below.
	KindInternal ErrorKind = iota
	// KindUpstreamUnreachable means the network call itself failed.
	KindUpstreamUnreachable
	// KindUpstreamBodyUnreadable means a response arrived but its body could not be read.
	KindUpstreamBodyUnreadable
	// KindConfigurationMissing means required configuration was absent or invalid.
	KindConfigurationMissing
)

func (k ErrorKind) String() string {
	switch k {
	case KindUpstreamUnreachable:
		return "upstream_unreachable"
	case KindUpstreamBodyUnreadable:
		return "upstream_body_unreadable"
	case KindConfigurationMissing:
		return "configuration_missing"
	default:
		return "internal"
	}
}

// ProxyError is a classified failure with its underlying cause.
type ProxyError struct {
	Kind ErrorKind
	Err  error
}

func (e *ProxyError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *ProxyError) Unwrap() error { return e.Err }

// NewError wraps err with kind.
func NewError(kind ErrorKind, err error) *ProxyError {
	return &ProxyError{Kind: kind, Err: err}
}

// KindOf returns the kind of the first ProxyError in err's chain, or
// KindInternal when there is none.
func KindOf(err error) ErrorKind {
	var pe *ProxyError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}
