// Package sitedata serializes publishable records into one JSON document
// per content kind, the files the static site builder consumes. Output is
// byte-stable for an unchanged input snapshot: records sort by slug
// (ascending, case-insensitive), keys follow the registry's field order
// with the slug first, and nested object keys are sorted.
package sitedata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"git.home.luguber.info/inful/sitesync/internal/emit"
	"git.home.luguber.info/inful/sitesync/internal/record"
	"git.home.luguber.info/inful/sitesync/internal/schema"
)

// sourceField is the reserved key carrying provenance in emitted records.
const sourceField = "_source"

// Emitter builds the per-kind site data artifacts.
type Emitter struct {
	registry      *schema.Registry
	includeSource bool
}

// Option configures an Emitter.
type Option func(*Emitter)

// WithProvenance emits a `_source` object on every record: the adapter,
// the locator, and the content hash. The fetch timestamp stays out so
// unchanged content produces unchanged bytes.
func WithProvenance() Option {
	return func(e *Emitter) { e.includeSource = true }
}

// New creates an emitter over the given registry.
func New(registry *schema.Registry, opts ...Option) *Emitter {
	e := &Emitter{registry: registry}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Emit renders one `<kind>.json` artifact per registered kind, in
// registration order. Kinds without records still produce a file holding
// an empty list, so the consumer's file layout never varies.
func (e *Emitter) Emit(records []record.Record) ([]emit.Artifact, error) {
	byKind := make(map[string][]*record.Record)
	for i := range records {
		rec := &records[i]
		byKind[rec.Kind] = append(byKind[rec.Kind], rec)
	}

	artifacts := make([]emit.Artifact, 0, len(e.registry.Kinds()))
	for _, kind := range e.registry.Kinds() {
		group := byKind[kind.Name()]
		sortBySlug(group)

		docs := make([]*orderedObject, 0, len(group))
		for _, rec := range group {
			docs = append(docs, e.recordObject(kind, rec))
		}

		data, err := json.MarshalIndent(docs, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode %s records: %w", kind.Name(), err)
		}
		artifacts = append(artifacts, emit.Artifact{
			Dest:  kind.Name() + ".json",
			Bytes: append(data, '\n'),
		})
	}
	return artifacts, nil
}

// sortBySlug orders records by slug ascending, case-insensitive, with the
// exact slug as tie-breaker so the order is total.
func sortBySlug(group []*record.Record) {
	sort.Slice(group, func(i, j int) bool {
		li, lj := strings.ToLower(group[i].Slug), strings.ToLower(group[j].Slug)
		if li != lj {
			return li < lj
		}
		return group[i].Slug < group[j].Slug
	})
}

// recordObject renders one record: slug first, declared fields in schema
// order, provenance last. Absent optional fields emit their declared
// default only when the field opts in.
func (e *Emitter) recordObject(kind *schema.Kind, rec *record.Record) *orderedObject {
	obj := &orderedObject{}
	obj.add("slug", rec.Slug)

	for _, def := range kind.Fields() {
		value, ok := rec.Fields[def.Name]
		if !ok {
			if def.EmitDefault {
				if dv, has := def.Default.Get(); has {
					obj.add(def.Name, jsonValue(dv))
				}
			}
			continue
		}
		obj.add(def.Name, jsonValue(value))
	}

	if e.includeSource {
		src := &orderedObject{}
		src.add("adapter", rec.Provenance.Adapter)
		src.add("locator", rec.Provenance.Locator)
		src.add("content_hash", rec.Provenance.ContentHash)
		obj.add(sourceField, src)
	}
	return obj
}

// jsonValue converts a typed value for JSON encoding. Nested objects
// become ordered objects with sorted keys.
func jsonValue(v record.Value) any {
	obj, ok := v.AsObject()
	if !ok {
		return v.Plain()
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := &orderedObject{}
	for _, k := range keys {
		out.add(k, jsonValue(obj[k]))
	}
	return out
}

// orderedObject is a JSON object that marshals its pairs in insertion
// order, which encoding/json's maps cannot guarantee.
type orderedObject struct {
	pairs []pair
}

type pair struct {
	key   string
	value any
}

func (o *orderedObject) add(key string, value any) {
	o.pairs = append(o.pairs, pair{key: key, value: value})
}

// MarshalJSON emits compact JSON; json.MarshalIndent re-indents it into
// the surrounding document.
func (o *orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range o.pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(p.value)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
