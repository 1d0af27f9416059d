package errs

import "fmt"

// Kind categorizes application errors for HTTP status mapping.
type Kind int

const (
	// Unknown represents an unclassified error.
	Unknown Kind = iota
	// InvalidInput indicates the request was malformed (HTTP 400).
	InvalidInput
	// Unreachable indicates the posts API could not be reached (HTTP 502).
	Unreachable
	// Timeout indicates the posts API took too long to respond (HTTP 504).
	Timeout
	// ParsingFailed indicates the response body was not valid JSON (HTTP 502).
	ParsingFailed
	// RenderFailed indicates a post entry could not be rendered (HTTP 500).
	RenderFailed
)

// String returns a lowercase name for the kind, used in logs and JSON.
func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid_input"
	case Unreachable:
		return "unreachable"
	case Timeout:
		return "timeout"
	case ParsingFailed:
		return "parsing_failed"
	case RenderFailed:
		return "render_failed"
	default:
		return "unknown"
	}
}

// AppError carries a category, user message, and original cause.
type AppError struct {
	Kind           Kind
	UpstreamStatus int // HTTP status code returned by the posts API
	Message        string
	Cause          error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}
