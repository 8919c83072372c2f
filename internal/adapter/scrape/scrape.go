// Package scrape adapts served pages into records by extracting fields
// through CSS selectors, one record per page. It is the most
// failure-prone adapter: a selector that matches nothing yields an absent
// optional field, and only a required field without a match fails the
// item.
package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"git.home.luguber.info/inful/sitesync/internal/adapter"
	"git.home.luguber.info/inful/sitesync/internal/fetch"
	"git.home.luguber.info/inful/sitesync/internal/foundation"
	"git.home.luguber.info/inful/sitesync/internal/record"
	"git.home.luguber.info/inful/sitesync/internal/schema"
)

// slugKey selects a source-supplied slug instead of a declared field.
const slugKey = "slug"

// attrMarker introduces an attribute extraction suffix on a selector, as
// in `a.apply::attr(href)`. Without it the selector extracts text.
const attrMarker = "::attr("

// selector is one parsed field selector.
type selector struct {
	css  string
	attr string
}

func parseSelector(raw string) (selector, error) {
	base, rest, found := strings.Cut(raw, attrMarker)
	if !found {
		return selector{css: raw}, nil
	}
	name, ok := strings.CutSuffix(rest, ")")
	if !ok || name == "" || base == "" {
		return selector{}, fmt.Errorf("malformed selector %q", raw)
	}
	return selector{css: base, attr: name}, nil
}

// Adapter extracts one record per fetched page.
type Adapter struct {
	name      string
	kind      *schema.Kind
	client    fetch.Fetcher
	selectors map[string]selector
}

// New creates a page-scrape adapter. The selectors map field names of the
// kind (plus the reserved slug key) to CSS selectors; selectors for
// fields the kind does not declare are rejected.
func New(name string, kind *schema.Kind, client fetch.Fetcher, selectors map[string]string) (*Adapter, error) {
	parsed := make(map[string]selector, len(selectors))
	for field, raw := range selectors {
		if field != slugKey {
			if _, ok := kind.Field(field); !ok {
				return nil, fmt.Errorf("selector for unknown field %q on kind %q", field, kind.Name())
			}
		}
		sel, err := parseSelector(raw)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", field, err)
		}
		parsed[field] = sel
	}
	return &Adapter{name: name, kind: kind, client: client, selectors: parsed}, nil
}

// Name implements adapter.Source.
func (a *Adapter) Name() string { return a.name }

// Kind implements adapter.Source.
func (a *Adapter) Kind() string { return a.kind.Name() }

// Fetch retrieves one page and yields it as a single raw item. A missing
// page is an item-level problem; any other fetch failure means the site
// is unreachable and the source degrades.
func (a *Adapter) Fetch(ctx context.Context, locator string) (adapter.Items, *adapter.SourceError) {
	data, err := a.client.Fetch(ctx, locator)
	if err != nil {
		if errors.Is(err, fetch.ErrNotFound) {
			return func(yield func(adapter.RawItem, *adapter.SourceError) bool) {
				yield(adapter.RawItem{}, adapter.ItemError(a.name, locator, err))
			}, nil
		}
		return nil, adapter.SourceUnavailable(a.name, locator, err)
	}
	return adapter.ItemsFromSlice([]adapter.RawItem{{Locator: locator, Payload: data}}), nil
}

// Normalize parses the page and runs every configured selector against
// it. Field order follows the kind, so warnings are deterministic.
func (a *Adapter) Normalize(item adapter.RawItem) foundation.Result[adapter.Normalized, *adapter.SourceError] {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(item.Payload))
	if err != nil {
		return foundation.Err[adapter.Normalized](adapter.ItemError(a.name, item.Locator, fmt.Errorf("parse page: %w", err)))
	}

	rec := record.Record{
		Kind:   a.kind.Name(),
		Fields: make(map[string]record.Value),
	}
	var warnings []adapter.Warning

	if sel, ok := a.selectors[slugKey]; ok {
		if text, found := extractOne(doc, sel); found {
			rec.Slug = text
		}
	}

	for _, def := range a.kind.Fields() {
		sel, ok := a.selectors[def.Name]
		if !ok {
			if def.Required {
				return foundation.Err[adapter.Normalized](a.missingField(item, def.Name, "no selector configured"))
			}
			continue
		}

		raw, found := a.extract(doc, def, sel)
		if !found {
			if def.Required {
				return foundation.Err[adapter.Normalized](a.missingField(item, def.Name, "selector matched nothing"))
			}
			continue
		}

		value, err := adapter.CoerceValue(def, raw)
		if err != nil {
			if def.Required {
				return foundation.Err[adapter.Normalized](a.missingField(item, def.Name, err.Error()))
			}
			warnings = append(warnings, adapter.Warning{Field: def.Name, Message: fmt.Sprintf("value ignored: %v", err)})
			continue
		}
		rec.Fields[def.Name] = value
	}

	return foundation.Ok[adapter.Normalized, *adapter.SourceError](adapter.Normalized{Record: rec, Warnings: warnings})
}

func (a *Adapter) missingField(item adapter.RawItem, field, reason string) *adapter.SourceError {
	return adapter.ItemError(a.name, item.Locator, fmt.Errorf("required field %q: %s", field, reason))
}

// extract pulls the raw value for one field. List fields collect every
// match; everything else takes the first.
func (a *Adapter) extract(doc *goquery.Document, def schema.FieldDef, sel selector) (any, bool) {
	if def.Type == schema.TypeStringList {
		var items []string
		doc.Find(sel.css).Each(func(_ int, node *goquery.Selection) {
			if text, ok := nodeValue(node, sel.attr); ok {
				items = append(items, text)
			}
		})
		if len(items) == 0 {
			return nil, false
		}
		return items, true
	}

	text, ok := extractOne(doc, sel)
	if !ok {
		return nil, false
	}
	return text, true
}

func extractOne(doc *goquery.Document, sel selector) (string, bool) {
	node := doc.Find(sel.css).First()
	if node.Length() == 0 {
		return "", false
	}
	return nodeValue(node, sel.attr)
}

// nodeValue reads either an attribute or the trimmed text of a node. An
// empty result counts as no match, since an empty scraped value carries
// no content.
func nodeValue(node *goquery.Selection, attr string) (string, bool) {
	var text string
	if attr != "" {
		val, ok := node.Attr(attr)
		if !ok {
			return "", false
		}
		text = val
	} else {
		text = node.Text()
	}
	text = strings.TrimSpace(text)
	return text, text != ""
}
