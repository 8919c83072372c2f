// Package feed adapts syndication feeds (RSS and Atom) into records of a
// fixed kind, one record per feed entry. Entries without a link cannot be
// referenced from the site and are skipped with a diagnostic.
package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/mmcdole/gofeed"

	"git.home.luguber.info/inful/sitesync/internal/adapter"
	"git.home.luguber.info/inful/sitesync/internal/fetch"
	"git.home.luguber.info/inful/sitesync/internal/foundation"
	"git.home.luguber.info/inful/sitesync/internal/record"
	"git.home.luguber.info/inful/sitesync/internal/schema"
)

// Field keys produced from a feed entry.
const (
	titleKey   = "title"
	linkKey    = "link"
	dateKey    = "date"
	summaryKey = "summary"
	tagsKey    = "tags"
)

// Adapter parses one feed per locator and produces records of a fixed
// kind.
type Adapter struct {
	name   string
	kind   *schema.Kind
	client fetch.Fetcher
	parser *gofeed.Parser
}

// New creates a feed adapter producing records of the given kind.
func New(name string, kind *schema.Kind, client fetch.Fetcher) *Adapter {
	return &Adapter{name: name, kind: kind, client: client, parser: gofeed.NewParser()}
}

// Name implements adapter.Source.
func (a *Adapter) Name() string { return a.name }

// Kind implements adapter.Source.
func (a *Adapter) Kind() string { return a.kind.Name() }

// Fetch retrieves and parses the feed behind the locator and yields one
// raw item per entry. An unreachable or unparseable feed makes the source
// unavailable; entry-level problems surface later, in Normalize.
func (a *Adapter) Fetch(ctx context.Context, locator string) (adapter.Items, *adapter.SourceError) {
	data, err := a.client.Fetch(ctx, locator)
	if err != nil {
		return nil, adapter.SourceUnavailable(a.name, locator, err)
	}
	parsed, err := a.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, adapter.SourceUnavailable(a.name, locator, fmt.Errorf("parse feed: %w", err))
	}

	return func(yield func(adapter.RawItem, *adapter.SourceError) bool) {
		for i, entry := range parsed.Items {
			if !yield(entryItem(locator, i, entry), nil) {
				return
			}
		}
	}, nil
}

// entryItem flattens one feed entry into the keyed fields the kind maps.
// Absent entry elements stay absent rather than becoming empty values.
func entryItem(locator string, index int, entry *gofeed.Item) adapter.RawItem {
	fields := make(map[string]any)
	if entry.Title != "" {
		fields[titleKey] = entry.Title
	}
	if entry.Link != "" {
		fields[linkKey] = entry.Link
	}
	if t := entryTime(entry); t != nil {
		fields[dateKey] = *t
	}
	if entry.Description != "" {
		fields[summaryKey] = entry.Description
	}
	if len(entry.Categories) > 0 {
		fields[tagsKey] = entry.Categories
	}

	return adapter.RawItem{
		Locator: locator + "#" + entryID(index, entry),
		Fields:  fields,
	}
}

// entryTime prefers the published timestamp and falls back to updated.
func entryTime(entry *gofeed.Item) *time.Time {
	if entry.PublishedParsed != nil {
		return entry.PublishedParsed
	}
	return entry.UpdatedParsed
}

// entryID gives each entry a stable identity for diagnostics: the GUID
// when present, else the link, else the entry's position.
func entryID(index int, entry *gofeed.Item) string {
	if entry.GUID != "" {
		return entry.GUID
	}
	if entry.Link != "" {
		return entry.Link
	}
	return fmt.Sprintf("entry-%d", index)
}

// Normalize maps one feed entry onto the kind's fields. An entry without a
// link is malformed and skipped with an item error.
func (a *Adapter) Normalize(item adapter.RawItem) foundation.Result[adapter.Normalized, *adapter.SourceError] {
	if link, ok := item.Fields[linkKey].(string); !ok || link == "" {
		return foundation.Err[adapter.Normalized](adapter.ItemError(a.name, item.Locator, errors.New("feed entry missing link")))
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
		def, ok := a.kind.Field(key)
		if !ok {
			warnings = append(warnings, adapter.Warning{Field: key, Message: "no matching field on kind"})
			continue
		}
		value, err := adapter.CoerceValue(def, item.Fields[key])
		if err != nil {
			warnings = append(warnings, adapter.Warning{Field: key, Message: fmt.Sprintf("value ignored: %v", err)})
			continue
		}
		rec.Fields[key] = value
	}

	return foundation.Ok[adapter.Normalized, *adapter.SourceError](adapter.Normalized{Record: rec, Warnings: warnings})
}
