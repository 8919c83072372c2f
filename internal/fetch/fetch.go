// Package fetch provides the raw-fetch collaborator injected into source
// adapters. Adapters never touch the network or filesystem directly; they
// receive a Fetcher and work with locators. Retry policy, if any, belongs
// here, not in the adapters.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Fetcher retrieves the raw bytes behind a locator.
type Fetcher interface {
	// Fetch returns the content of a single locator. Failures are
	// reported as *FetchError.
	Fetch(ctx context.Context, locator string) ([]byte, error)
}

// Lister expands a locator that may address multiple items (a file glob, a
// repository glob) into concrete single-item locators.
type Lister interface {
	// List returns the concrete locators matched by the given locator,
	// in deterministic order.
	List(ctx context.Context, locator string) ([]string, error)
}

// Client is the combined collaborator handed to adapters.
type Client interface {
	Fetcher
	Lister
}

// ErrNotFound indicates the locator resolved but the content does not
// exist (missing file, HTTP 404).
var ErrNotFound = errors.New("not found")

// FetchError reports a failed fetch, carrying the locator that failed.
type FetchError struct {
	Locator string
	Err     error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Locator, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

func newFetchError(locator string, err error) *FetchError {
	return &FetchError{Locator: locator, Err: err}
}

// Router dispatches locators to the fetcher matching their scheme:
// http(s):// to HTTP, git+ to Git, everything else to the filesystem.
type Router struct {
	File *FileFetcher
	HTTP *HTTPFetcher
	Git  *GitFetcher
}

// NewRouter builds a Router with all three fetchers configured.
func NewRouter(file *FileFetcher, http *HTTPFetcher, git *GitFetcher) *Router {
	return &Router{File: file, HTTP: http, Git: git}
}

// Fetch implements Fetcher.
func (r *Router) Fetch(ctx context.Context, locator string) ([]byte, error) {
	switch {
	case strings.HasPrefix(locator, gitLocatorPrefix):
		if r.Git == nil {
			return nil, newFetchError(locator, errors.New("git fetcher not configured"))
		}
		return r.Git.Fetch(ctx, locator)
	case strings.HasPrefix(locator, "http://"), strings.HasPrefix(locator, "https://"):
		if r.HTTP == nil {
			return nil, newFetchError(locator, errors.New("http fetcher not configured"))
		}
		return r.HTTP.Fetch(ctx, locator)
	default:
		if r.File == nil {
			return nil, newFetchError(locator, errors.New("file fetcher not configured"))
		}
		return r.File.Fetch(ctx, locator)
	}
}

// List implements Lister. URLs address exactly one document; file and git
// locators may be globs.
func (r *Router) List(ctx context.Context, locator string) ([]string, error) {
	switch {
	case strings.HasPrefix(locator, gitLocatorPrefix):
		if r.Git == nil {
			return nil, newFetchError(locator, errors.New("git fetcher not configured"))
		}
		return r.Git.List(ctx, locator)
	case strings.HasPrefix(locator, "http://"), strings.HasPrefix(locator, "https://"):
		return []string{locator}, nil
	default:
		if r.File == nil {
			return nil, newFetchError(locator, errors.New("file fetcher not configured"))
		}
		return r.File.List(ctx, locator)
	}
}
