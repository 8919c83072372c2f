package adapter

import (
	"errors"
	"fmt"
)

// ErrSourceUnavailable marks a total fetch failure: the source contributed
// nothing this run, and the pipeline continues with the other sources.
var ErrSourceUnavailable = errors.New("source unavailable")

// ErrorScope partitions adapter errors by blast radius.
type ErrorScope int

const (
	// ScopeItem means a single malformed item: skip it, diagnose, and
	// keep consuming the source.
	ScopeItem ErrorScope = iota

	// ScopeSource means the whole source failed: its contribution
	// degrades to empty with one run-level diagnostic.
	ScopeSource
)

// SourceError is the error type of the adapter contract.
type SourceError struct {
	Scope   ErrorScope
	Source  string
	Locator string
	Err     error
}

func (e *SourceError) Error() string {
	scope := "item"
	if e.Scope == ScopeSource {
		scope = "source"
	}
	if e.Locator != "" {
		return fmt.Sprintf("%s %s (%s): %v", scope, e.Source, e.Locator, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", scope, e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Unavailable reports whether the error is source-scoped.
func (e *SourceError) Unavailable() bool { return e.Scope == ScopeSource }

// ItemError builds an item-scoped error.
func ItemError(source, locator string, err error) *SourceError {
	return &SourceError{Scope: ScopeItem, Source: source, Locator: locator, Err: err}
}

// SourceUnavailable builds a source-scoped error wrapping
// ErrSourceUnavailable.
func SourceUnavailable(source, locator string, err error) *SourceError {
	return &SourceError{
		Scope:   ScopeSource,
		Source:  source,
		Locator: locator,
		Err:     fmt.Errorf("%w: %w", ErrSourceUnavailable, err),
	}
}
