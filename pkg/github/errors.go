package github

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	gh "github.com/google/go-github/v66/github"
)

var (
	ErrRateLimited = errors.New("github rate limit exceeded")
	ErrNotFound    = errors.New("not found on github")
	ErrForbidden   = errors.New("access forbidden")
	ErrTransient   = errors.New("github request failed, try again")
	ErrEmptyGist   = errors.New("gist contains no files")
	ErrInvalidURL  = errors.New("not a recognized github url")
)

// FetchError records one failed path of a batch fetch.
type FetchError struct {
	Path string
	Err  error
}

func (e *FetchError) Error() string { return fmt.Sprintf("%s: %v", e.Path, e.Err) }

func (e *FetchError) Unwrap() error { return e.Err }

// classify maps a go-github or transport error onto one of the package
// sentinels. what names the resource for the message.
func classify(err error, what string) error {
	if err == nil {
		return nil
	}

	var rle *gh.RateLimitError
	var abuse *gh.AbuseRateLimitError
	if errors.As(err, &rle) || errors.As(err, &abuse) {
		return fmt.Errorf("%w: %s: provide a token or wait", ErrRateLimited, what)
	}

	var er *gh.ErrorResponse
	if errors.As(err, &er) && er.Response != nil {
		return statusError(er.Response.StatusCode, what, err)
	}

	return transportError(err, what)
}

func statusError(code int, what string, cause error) error {
	switch {
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	case code == http.StatusForbidden:
		return fmt.Errorf("%w: %s may be private", ErrForbidden, what)
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", ErrRateLimited, what)
	case code >= 500:
		return fmt.Errorf("%w: %s: status %d", ErrTransient, what, code)
	}
	if cause != nil {
		return fmt.Errorf("%s: %w", what, cause)
	}
	return fmt.Errorf("%s: unexpected status %d", what, code)
}

func transportError(err error, what string) error {
	var ne net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s: request timed out", ErrTransient, what)
	case errors.As(err, &ne) && ne.Timeout():
		return fmt.Errorf("%w: %s: request timed out", ErrTransient, what)
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", what, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrTransient, what, err)
}
