// Package normalize finalizes adapter output: it derives slugs,
// canonicalizes tag-like fields, and attaches provenance. It performs no
// cross-record checks and never drops a record; deciding whether a record
// is publishable is the validator's call.
package normalize

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/inful/mdfp"

	"git.home.luguber.info/inful/sitesync/internal/record"
	"git.home.luguber.info/inful/sitesync/internal/schema"
	"git.home.luguber.info/inful/sitesync/internal/util/sets"
)

// titleField is the field a slug is derived from when the source supplies
// none.
const titleField = "title"

// Normalizer applies the per-record normalization pass.
type Normalizer struct {
	registry *schema.Registry
}

// New creates a Normalizer over the given registry.
func New(registry *schema.Registry) *Normalizer {
	return &Normalizer{registry: registry}
}

// Apply finalizes one adapter-produced record: string-list fields are
// canonicalized, a slug is derived from the title unless the source
// supplied one (the supplied slug always wins), and provenance with the
// content fingerprint is attached.
func (n *Normalizer) Apply(rec record.Record, prov record.Provenance) record.Record {
	if kind, err := n.registry.Lookup(rec.Kind); err == nil {
		canonicalizeTags(kind, rec.Fields)
	}

	if rec.Slug == "" {
		if title, ok := rec.Fields[titleField]; ok {
			rec.Slug = Slugify(title.Text())
		}
	}

	prov.ContentHash = ContentHash(&rec)
	rec.Provenance = prov
	return rec
}

// canonicalizeTags trims, lower-cases, and dedupes every string-list
// field, keeping first-seen order.
func canonicalizeTags(kind *schema.Kind, fields map[string]record.Value) {
	for _, def := range kind.Fields() {
		if def.Type != schema.TypeStringList {
			continue
		}
		v, ok := fields[def.Name]
		if !ok {
			continue
		}
		items, ok := v.AsList()
		if !ok {
			continue
		}

		seen := sets.New[string]()
		canonical := make([]string, 0, len(items))
		for _, item := range items {
			tag := strings.ToLower(strings.TrimSpace(item))
			if tag == "" || seen.Contains(tag) {
				continue
			}
			seen.Add(tag)
			canonical = append(canonical, tag)
		}
		fields[def.Name] = record.List(canonical...)
	}
}

// ContentHash fingerprints a record's canonical content. The hash covers
// the slug and every field in a stable serialization, so it changes
// exactly when the published content would.
func ContentHash(rec *record.Record) string {
	lines := make([]string, 0, len(rec.Fields)+1)
	lines = append(lines, "slug: "+rec.Slug)

	names := make([]string, 0, len(rec.Fields))
	for name := range rec.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		lines = append(lines, name+": "+canonicalValue(rec.Fields[name]))
	}

	return mdfp.CalculateFingerprintFromParts(strings.Join(lines, "\n"), "")
}

// canonicalValue renders a value into the stable string form used for
// fingerprinting. It is not a wire format; only identity matters here.
func canonicalValue(v record.Value) string {
	switch v.Type() {
	case record.TypeNumber:
		n, _ := v.AsNumber()
		return strconv.FormatFloat(n, 'f', -1, 64)
	case record.TypeStringList:
		items, _ := v.AsList()
		return strings.Join(items, ",")
	case record.TypeObject:
		obj, _ := v.AsObject()
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		pairs := make([]string, 0, len(keys))
		for _, k := range keys {
			pairs = append(pairs, fmt.Sprintf("%s=%s", k, canonicalValue(obj[k])))
		}
		return "{" + strings.Join(pairs, ",") + "}"
	default:
		return v.Text()
	}
}
