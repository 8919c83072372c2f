// Package cmsconfig projects the schema registry into the single YAML
// configuration document the CMS host reads. The projection is
// schema-only: no record data is involved, so regeneration succeeds with
// zero content present and always reflects the current registry. The
// document is built from yaml nodes in registration order, which makes
// regeneration byte-stable for an unchanged schema.
package cmsconfig

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitesync/internal/emit"
	"git.home.luguber.info/inful/sitesync/internal/record"
	"git.home.luguber.info/inful/sitesync/internal/schema"
)

// DefaultDest is the artifact destination when none is configured.
const DefaultDest = "cms-config.yml"

// dateFormat is the editing format advertised for date fields.
const dateFormat = "YYYY-MM-DD"

// Emitter builds the CMS configuration artifact.
type Emitter struct {
	registry *schema.Registry
	dest     string
}

// New creates an emitter writing to the given destination name.
func New(registry *schema.Registry, dest string) *Emitter {
	if dest == "" {
		dest = DefaultDest
	}
	return &Emitter{registry: registry, dest: dest}
}

// Emit renders the configuration document.
func (e *Emitter) Emit() (emit.Artifact, error) {
	doc := e.document()

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		_ = enc.Close()
		return emit.Artifact{}, fmt.Errorf("encode cms config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return emit.Artifact{}, fmt.Errorf("encode cms config: %w", err)
	}

	return emit.Artifact{Dest: e.dest, Bytes: buf.Bytes()}, nil
}

func (e *Emitter) document() *yaml.Node {
	collections := &yaml.Node{Kind: yaml.SequenceNode}
	for _, kind := range e.registry.Kinds() {
		collections.Content = append(collections.Content, e.collectionNode(kind))
	}

	root := &yaml.Node{Kind: yaml.MappingNode}
	appendPair(root, "collections", collections)
	return root
}

func (e *Emitter) collectionNode(kind *schema.Kind) *yaml.Node {
	fields := &yaml.Node{Kind: yaml.SequenceNode}
	for _, def := range kind.Fields() {
		fields.Content = append(fields.Content, e.fieldNode(def))
	}

	node := &yaml.Node{Kind: yaml.MappingNode}
	appendPair(node, "name", strNode(kind.Name()))
	appendPair(node, "fields", fields)
	return node
}

// fieldNode renders one field widget. Every field carries name, widget,
// and required; selects carry their options, dates their editing format,
// relations their target collection, and defaulted fields their default.
func (e *Emitter) fieldNode(def schema.FieldDef) *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode}
	appendPair(node, "name", strNode(def.Name))
	appendPair(node, "widget", strNode(widgetFor(def.Type)))
	appendPair(node, "required", boolNode(def.Required))

	switch def.Type {
	case schema.TypeEnum:
		values, _ := e.registry.EnumValues(def.Rule.Enum)
		appendPair(node, "options", strSeqNode(values))
	case schema.TypeDate:
		appendPair(node, "format", strNode(dateFormat))
	case schema.TypeReference:
		appendPair(node, "collection", strNode(def.TargetKind))
		appendPair(node, "value_field", strNode("slug"))
	}

	if dv, ok := def.Default.Get(); ok {
		appendPair(node, "default", valueNode(dv))
	}
	return node
}

// widgetFor maps a semantic field type to the CMS widget kind.
func widgetFor(t schema.FieldType) string {
	switch t {
	case schema.TypeEnum:
		return "select"
	case schema.TypeDate:
		return "datetime"
	case schema.TypeStringList:
		return "list"
	case schema.TypeReference:
		return "relation"
	case schema.TypeObject:
		return "object"
	case schema.TypeNumber:
		return "number"
	default:
		return "text"
	}
}

func appendPair(node *yaml.Node, key string, value *yaml.Node) {
	node.Content = append(node.Content, strNode(key), value)
}

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func boolNode(b bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}
}

func strSeqNode(items []string) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, item := range items {
		seq.Content = append(seq.Content, strNode(item))
	}
	return seq
}

// valueNode renders a default value. Nested object keys are sorted so the
// document stays byte-stable.
func valueNode(v record.Value) *yaml.Node {
	switch v.Type() {
	case record.TypeNumber:
		n, _ := v.AsNumber()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(n, 'f', -1, 64)}
	case record.TypeStringList:
		items, _ := v.AsList()
		return strSeqNode(items)
	case record.TypeObject:
		obj, _ := v.AsObject()
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		node := &yaml.Node{Kind: yaml.MappingNode}
		for _, k := range keys {
			appendPair(node, k, valueNode(obj[k]))
		}
		return node
	default:
		return strNode(v.Text())
	}
}
