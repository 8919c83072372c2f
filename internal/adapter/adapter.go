// Package adapter defines the contract between the pipeline and its source
// adapters. An adapter turns one kind of external source (front-matter
// documents, a package index, a syndication feed, scraped pages) into
// canonical records; everything it fetches goes through the injected fetch
// collaborator.
package adapter

import (
	"context"
	"iter"

	"git.home.luguber.info/inful/sitesync/internal/foundation"
	"git.home.luguber.info/inful/sitesync/internal/record"
)

// RawItem is one item produced by a fetch, before normalization.
type RawItem struct {
	// Locator identifies the item within its source: a file path, a
	// page URL, or an entry id.
	Locator string

	// Payload holds the raw bytes for adapters that parse per item.
	Payload []byte

	// Fields holds pre-parsed values for adapters whose wire format is
	// decoded during fetch (feed entries, registry pages).
	Fields map[string]any
}

// Items is the lazy item sequence produced by Fetch. It is finite and not
// restartable once consumed. A nil error accompanies each good item; an
// item-scoped *SourceError is yielded in place of an item that could not
// be produced, and iteration continues afterwards unless the error is
// source-scoped.
type Items = iter.Seq2[RawItem, *SourceError]

// Normalized is a successfully normalized record together with any
// non-fatal findings made while mapping source keys to fields (unknown
// front-matter keys, ignored attributes).
type Normalized struct {
	Record   record.Record
	Warnings []Warning
}

// Warning is a non-fatal finding attached to a successful normalization.
type Warning struct {
	Field   string
	Message string
}

// Source is one configured content source. Implementations are used by a
// single pipeline task at a time and need not be safe for concurrent use.
type Source interface {
	// Name returns the configured source name, used in provenance and
	// diagnostics.
	Name() string

	// Kind returns the content kind this source produces.
	Kind() string

	// Fetch produces the item sequence behind one locator. A non-nil
	// error means the source could not be reached at all; the pipeline
	// degrades its contribution to empty.
	Fetch(ctx context.Context, locator string) (Items, *SourceError)

	// Normalize maps one raw item onto a canonical record of the
	// source's kind. The slug and provenance are left for the
	// normalizer; Normalize only fills fields.
	Normalize(item RawItem) foundation.Result[Normalized, *SourceError]
}

// ItemsFromSlice exposes already-materialized items as a sequence.
func ItemsFromSlice(items []RawItem) Items {
	return func(yield func(RawItem, *SourceError) bool) {
		for _, item := range items {
			if !yield(item, nil) {
				return
			}
		}
	}
}

// NoItems is an empty sequence.
func NoItems() Items {
	return func(func(RawItem, *SourceError) bool) {}
}
