package cmsconfig

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/sitesync/internal/schema"
)

type configDoc struct {
	Collections []struct {
		Name   string           `yaml:"name"`
		Fields []map[string]any `yaml:"fields"`
	} `yaml:"collections"`
}

func builtinRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	r, err := schema.DefaultRegistry()
	require.NoError(t, err)
	return r
}

func emitDoc(t *testing.T, r *schema.Registry) configDoc {
	t.Helper()
	artifact, err := New(r, "").Emit()
	require.NoError(t, err)

	var doc configDoc
	require.NoError(t, yaml.Unmarshal(artifact.Bytes, &doc))
	return doc
}

func TestEmit_SameRegistryTwice_ByteIdenticalOutput(t *testing.T) {
	r := builtinRegistry(t)

	first, err := New(r, "").Emit()
	require.NoError(t, err)
	second, err := New(r, "").Emit()
	require.NoError(t, err)

	require.Equal(t, first.Bytes, second.Bytes)
}

func TestEmit_Collections_FollowRegistrationOrder(t *testing.T) {
	doc := emitDoc(t, builtinRegistry(t))

	names := make([]string, len(doc.Collections))
	for i, c := range doc.Collections {
		names[i] = c.Name
	}
	require.Equal(t, []string{
		schema.KindTutorial,
		schema.KindWorkshop,
		schema.KindSuccessStory,
		schema.KindJobPosting,
		schema.KindPackageEntry,
		schema.KindChangelogEntry,
	}, names)
}

func TestEmit_Field_CarriesNameWidgetRequired(t *testing.T) {
	doc := emitDoc(t, builtinRegistry(t))

	title := doc.Collections[0].Fields[0]
	require.Equal(t, "title", title["name"])
	require.Equal(t, "text", title["widget"])
	require.Equal(t, true, title["required"])
}

func TestEmit_EnumField_CarriesSelectOptions(t *testing.T) {
	doc := emitDoc(t, builtinRegistry(t))

	var difficulty map[string]any
	for _, f := range doc.Collections[0].Fields {
		if f["name"] == "difficulty" {
			difficulty = f
		}
	}
	require.NotNil(t, difficulty)
	require.Equal(t, "select", difficulty["widget"])
	require.Equal(t, []any{"beginner", "intermediate", "advanced"}, difficulty["options"])
}

func TestEmit_ReferenceField_CarriesTargetCollection(t *testing.T) {
	doc := emitDoc(t, builtinRegistry(t))

	var related map[string]any
	for _, f := range doc.Collections[0].Fields {
		if f["name"] == "related" {
			related = f
		}
	}
	require.NotNil(t, related)
	require.Equal(t, "relation", related["widget"])
	require.Equal(t, schema.KindTutorial, related["collection"])
	require.Equal(t, "slug", related["value_field"])
}

func TestEmit_DateField_CarriesFormat(t *testing.T) {
	doc := emitDoc(t, builtinRegistry(t))

	var date map[string]any
	for _, f := range doc.Collections[0].Fields {
		if f["name"] == "date" {
			date = f
		}
	}
	require.NotNil(t, date)
	require.Equal(t, "datetime", date["widget"])
	require.Equal(t, "YYYY-MM-DD", date["format"])
}

func TestEmit_DefaultedField_CarriesDefault(t *testing.T) {
	doc := emitDoc(t, builtinRegistry(t))

	var location map[string]any
	for _, c := range doc.Collections {
		if c.Name != schema.KindWorkshop {
			continue
		}
		for _, f := range c.Fields {
			if f["name"] == "location" {
				location = f
			}
		}
	}
	require.NotNil(t, location)
	require.Equal(t, "online", location["default"])
}

func TestEmit_FieldAddedToRegistry_AppearsWithZeroContent(t *testing.T) {
	r := schema.NewRegistry()
	_, err := r.Define("note", []schema.FieldDef{
		{Name: "title", Type: schema.TypeString, Required: true},
	})
	require.NoError(t, err)
	before := emitDoc(t, r)
	require.Len(t, before.Collections[0].Fields, 1)

	r = schema.NewRegistry()
	_, err = r.Define("note", []schema.FieldDef{
		{Name: "title", Type: schema.TypeString, Required: true},
		{Name: "pinned", Type: schema.TypeString},
	})
	require.NoError(t, err)
	after := emitDoc(t, r)
	require.Len(t, after.Collections[0].Fields, 2)
	require.Equal(t, "pinned", after.Collections[0].Fields[1]["name"])
}

func TestEmit_DestDefaults_WhenUnset(t *testing.T) {
	artifact, err := New(builtinRegistry(t), "").Emit()
	require.NoError(t, err)
	require.Equal(t, DefaultDest, artifact.Dest)
}
