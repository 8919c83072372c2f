// Package frontmatter adapts hand-written documents with a structured YAML
// header into canonical records. Header keys map to fields by name;
// unknown keys become warnings, and the Markdown body supplies fallbacks
// for a missing title or description.
package frontmatter

import (
	"context"
	"fmt"
	"sort"

	"git.home.luguber.info/inful/sitesync/internal/adapter"
	"git.home.luguber.info/inful/sitesync/internal/fetch"
	"git.home.luguber.info/inful/sitesync/internal/foundation"
	"git.home.luguber.info/inful/sitesync/internal/record"
	"git.home.luguber.info/inful/sitesync/internal/schema"
)

// Header keys handled outside of the field mapping.
const slugKey = "slug"

// Fields the body can backfill when the header leaves them out.
const (
	titleField       = "title"
	descriptionField = "description"
	summaryField     = "summary"
)

// Adapter reads front-matter documents from file, git, or HTTP locators.
type Adapter struct {
	name   string
	kind   *schema.Kind
	client fetch.Client
}

// New creates a front-matter adapter producing records of the given kind.
func New(name string, kind *schema.Kind, client fetch.Client) *Adapter {
	return &Adapter{name: name, kind: kind, client: client}
}

// Name implements adapter.Source.
func (a *Adapter) Name() string { return a.name }

// Kind implements adapter.Source.
func (a *Adapter) Kind() string { return a.kind.Name() }

// Fetch lists the documents behind a locator (typically a glob) and yields
// one raw item per document. A failed listing makes the source
// unavailable; a single unreadable document is skipped with an item error.
func (a *Adapter) Fetch(ctx context.Context, locator string) (adapter.Items, *adapter.SourceError) {
	paths, err := a.client.List(ctx, locator)
	if err != nil {
		return nil, adapter.SourceUnavailable(a.name, locator, err)
	}

	return func(yield func(adapter.RawItem, *adapter.SourceError) bool) {
		for _, path := range paths {
			data, err := a.client.Fetch(ctx, path)
			if err != nil {
				if !yield(adapter.RawItem{}, adapter.ItemError(a.name, path, err)) {
					return
				}
				continue
			}
			if !yield(adapter.RawItem{Locator: path, Payload: data}, nil) {
				return
			}
		}
	}, nil
}

// Normalize parses one document and maps its header onto the kind's
// fields.
func (a *Adapter) Normalize(item adapter.RawItem) foundation.Result[adapter.Normalized, *adapter.SourceError] {
	header, body, _, err := split(item.Payload)
	if err != nil {
		return foundation.Err[adapter.Normalized](adapter.ItemError(a.name, item.Locator, err))
	}
	keys, err := parseHeader(header)
	if err != nil {
		return foundation.Err[adapter.Normalized](adapter.ItemError(a.name, item.Locator, fmt.Errorf("parse header: %w", err)))
	}

	rec := record.Record{
		Kind:   a.kind.Name(),
		Fields: make(map[string]record.Value),
	}
	var warnings []adapter.Warning

	// Sorted key order keeps warning order deterministic across runs.
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, key := range names {
		raw := keys[key]
		if key == slugKey {
			if s, ok := raw.(string); ok {
				rec.Slug = s
			} else {
				warnings = append(warnings, adapter.Warning{Field: slugKey, Message: fmt.Sprintf("slug must be a string, got %T", raw)})
			}
			continue
		}

		def, ok := a.kind.Field(key)
		if !ok {
			warnings = append(warnings, adapter.Warning{Field: key, Message: "unknown front-matter key"})
			continue
		}

		value, err := adapter.CoerceValue(def, raw)
		if err != nil {
			warnings = append(warnings, adapter.Warning{Field: key, Message: fmt.Sprintf("value ignored: %v", err)})
			continue
		}
		rec.Fields[key] = value
	}

	a.backfillFromBody(&rec, body)

	return foundation.Ok[adapter.Normalized, *adapter.SourceError](adapter.Normalized{Record: rec, Warnings: warnings})
}

// backfillFromBody fills a missing title from the first heading and a
// missing description or summary from the first paragraph, but only for
// fields the kind declares.
func (a *Adapter) backfillFromBody(rec *record.Record, body []byte) {
	if def, ok := a.kind.Field(titleField); ok && def.Type == schema.TypeString {
		if _, present := rec.Fields[titleField]; !present {
			if heading := firstHeading(body); heading != "" {
				rec.Fields[titleField] = record.String(heading)
			}
		}
	}

	for _, name := range []string{descriptionField, summaryField} {
		def, ok := a.kind.Field(name)
		if !ok || def.Type != schema.TypeString {
			continue
		}
		if _, present := rec.Fields[name]; present {
			continue
		}
		if excerpt := firstParagraph(body, def.Rule.MaxLen); excerpt != "" {
			rec.Fields[name] = record.String(excerpt)
		}
	}
}
