package llm

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// Kind classifies oracle failures so callers can branch on kind instead of
// matching substrings in error text.
type Kind int

const (
	KindUnavailable Kind = iota
	KindRateLimited
)

// OracleError wraps any failure from the generation service with its kind.
type OracleError struct {
	Kind Kind
	Err  error
}

func (e *OracleError) Error() string {
	return fmt.Sprintf("oracle: %v", e.Err)
}

func (e *OracleError) Unwrap() error {
	return e.Err
}

// classify wraps an upstream error into an OracleError with its kind.
func classify(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
		return &OracleError{Kind: KindRateLimited, Err: err}
	}
	return &OracleError{Kind: KindUnavailable, Err: err}
}

// UserMessage rewrites an oracle failure into a user-facing explanation.
// Raw upstream detail never reaches the client.
func UserMessage(err error) string {
	var oerr *OracleError
	if errors.As(err, &oerr) && oerr.Kind == KindRateLimited {
		return "The AI service is receiving too many requests right now. Please try again in a few minutes."
	}
	return "The AI service could not process this exam. Please try again later."
}
