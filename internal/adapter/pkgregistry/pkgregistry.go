// Package pkgregistry adapts a paginated JSON package index into
// package-entry records. The index is walked page by page via a cursor
// until exhaustion; each index entry becomes one raw item.
package pkgregistry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"git.home.luguber.info/inful/sitesync/internal/adapter"
	"git.home.luguber.info/inful/sitesync/internal/fetch"
	"git.home.luguber.info/inful/sitesync/internal/foundation"
	"git.home.luguber.info/inful/sitesync/internal/record"
	"git.home.luguber.info/inful/sitesync/internal/schema"
)

const defaultPageSize = 50

// Entry keys handled outside of the direct field mapping.
const (
	slugKey = "slug"
	nameKey = "name"
)

// entryAliases maps index entry keys to field names where the index wire
// format and the kind disagree.
var entryAliases = map[string]string{
	nameKey: "title",
}

// indexPage is one page of the package index wire format.
type indexPage struct {
	Packages   []json.RawMessage `json:"packages"`
	NextCursor string            `json:"next_cursor"`
}

// Adapter walks a package index and produces records of a fixed kind.
type Adapter struct {
	name     string
	kind     *schema.Kind
	client   fetch.Fetcher
	pageSize int
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithPageSize sets the page size requested from the index.
func WithPageSize(n int) Option {
	return func(a *Adapter) {
		if n > 0 {
			a.pageSize = n
		}
	}
}

// New creates a package-index adapter producing records of the given kind.
func New(name string, kind *schema.Kind, client fetch.Fetcher, opts ...Option) *Adapter {
	a := &Adapter{name: name, kind: kind, client: client, pageSize: defaultPageSize}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name implements adapter.Source.
func (a *Adapter) Name() string { return a.name }

// Kind implements adapter.Source.
func (a *Adapter) Kind() string { return a.kind.Name() }

// Fetch pages through the index at the locator and yields one raw item per
// entry. A failed first page makes the source unavailable immediately; a
// failure on a later page also degrades the source, because a half-fetched
// index is not a usable snapshot.
func (a *Adapter) Fetch(ctx context.Context, locator string) (adapter.Items, *adapter.SourceError) {
	first, err := a.fetchPage(ctx, locator, "")
	if err != nil {
		return nil, adapter.SourceUnavailable(a.name, locator, err)
	}

	return func(yield func(adapter.RawItem, *adapter.SourceError) bool) {
		pg := first
		cursor := ""
		for {
			for _, entry := range pg.Packages {
				item, err := decodeEntry(locator, entry)
				if err != nil {
					if !yield(adapter.RawItem{}, adapter.ItemError(a.name, locator, err)) {
						return
					}
					continue
				}
				if !yield(item, nil) {
					return
				}
			}
			if pg.NextCursor == "" {
				return
			}
			if pg.NextCursor == cursor {
				yield(adapter.RawItem{}, adapter.SourceUnavailable(a.name, locator, errors.New("pagination cursor did not advance")))
				return
			}
			cursor = pg.NextCursor

			next, err := a.fetchPage(ctx, locator, cursor)
			if err != nil {
				yield(adapter.RawItem{}, adapter.SourceUnavailable(a.name, locator, err))
				return
			}
			pg = next
		}
	}, nil
}

func (a *Adapter) fetchPage(ctx context.Context, locator, cursor string) (indexPage, error) {
	pageURL, err := pageLocator(locator, cursor, a.pageSize)
	if err != nil {
		return indexPage{}, err
	}
	data, err := a.client.Fetch(ctx, pageURL)
	if err != nil {
		return indexPage{}, err
	}
	var pg indexPage
	if err := json.Unmarshal(data, &pg); err != nil {
		return indexPage{}, fmt.Errorf("decode index page: %w", err)
	}
	return pg, nil
}

// pageLocator appends cursor and limit query parameters to the index
// locator, preserving any parameters already present.
func pageLocator(locator, cursor string, limit int) (string, error) {
	u, err := url.Parse(locator)
	if err != nil {
		return "", fmt.Errorf("parse index locator: %w", err)
	}
	q := u.Query()
	q.Set("limit", strconv.Itoa(limit))
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// decodeEntry turns one index entry into a raw item. Entries carrying a
// name are addressable individually in diagnostics.
func decodeEntry(locator string, entry json.RawMessage) (adapter.RawItem, error) {
	var fields map[string]any
	if err := json.Unmarshal(entry, &fields); err != nil {
		return adapter.RawItem{}, fmt.Errorf("decode index entry: %w", err)
	}
	itemLocator := locator
	if name, ok := fields[nameKey].(string); ok && name != "" {
		itemLocator = locator + "#" + name
	}
	return adapter.RawItem{Locator: itemLocator, Payload: entry, Fields: fields}, nil
}

// Normalize maps one index entry onto the kind's fields. The package name
// becomes the title; unknown entry keys become warnings.
func (a *Adapter) Normalize(item adapter.RawItem) foundation.Result[adapter.Normalized, *adapter.SourceError] {
	if item.Fields == nil {
		return foundation.Err[adapter.Normalized](adapter.ItemError(a.name, item.Locator, errors.New("index entry has no fields")))
	}

	rec := record.Record{
		Kind:   a.kind.Name(),
		Fields: make(map[string]record.Value),
	}
	var warnings []adapter.Warning

	// Sorted key order keeps warning order deterministic across runs.
	names := make([]string, 0, len(item.Fields))
	for k := range item.Fields {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, key := range names {
		raw := item.Fields[key]
		if key == slugKey {
			if s, ok := raw.(string); ok {
				rec.Slug = s
			} else {
				warnings = append(warnings, adapter.Warning{Field: slugKey, Message: fmt.Sprintf("slug must be a string, got %T", raw)})
			}
			continue
		}

		field := key
		if alias, ok := entryAliases[key]; ok {
			field = alias
		}
		def, ok := a.kind.Field(field)
		if !ok {
			warnings = append(warnings, adapter.Warning{Field: key, Message: "unknown index entry key"})
			continue
		}

		value, err := adapter.CoerceValue(def, raw)
		if err != nil {
			warnings = append(warnings, adapter.Warning{Field: field, Message: fmt.Sprintf("value ignored: %v", err)})
			continue
		}
		rec.Fields[field] = value
	}

	return foundation.Ok[adapter.Normalized, *adapter.SourceError](adapter.Normalized{Record: rec, Warnings: warnings})
}
