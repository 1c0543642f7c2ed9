package fetcher

import "errors"

// Kind classifies a fetch failure.
type Kind int

const (
	KindNetwork         Kind = iota // transport failure, retried
	KindAuth                        // 401/403, never retried
	KindRateLimit                   // 429, retried honoring Retry-After
	KindServer                      // 5xx, retried
	KindHTTP                        // other non-2xx, never retried
	KindInvalidResponse             // body is not a model list, never retried
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "NETWORK_ERROR"
	case KindAuth:
		return "AUTH_ERROR"
	case KindRateLimit:
		return "RATE_LIMIT"
	case KindServer:
		return "SERVER_ERROR"
	case KindHTTP:
		return "HTTP_ERROR"
	case KindInvalidResponse:
		return "INVALID_RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// Retryable reports whether failures of this kind are retried.
func (k Kind) Retryable() bool {
	switch k {
	case KindNetwork, KindRateLimit, KindServer:
		return true
	default:
		return false
	}
}

// FetchError is returned by every failed fetch.
type FetchError struct {
	Kind       Kind
	StatusCode int // zero when no response was received
	Message    string
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsKind reports whether err is a FetchError of the given kind.
func IsKind(err error, kind Kind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == kind
}
