package sitedata

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitesync/internal/emit"
	"git.home.luguber.info/inful/sitesync/internal/record"
	"git.home.luguber.info/inful/sitesync/internal/schema"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.DefaultRegistry()
	require.NoError(t, err)
	return reg
}

func tutorialRecord(slug, title string) record.Record {
	return record.Record{
		Kind: schema.KindTutorial,
		Slug: slug,
		Fields: map[string]record.Value{
			"title": record.String(title),
			"date":  record.DateOnly(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)),
			"tags":  record.List("go"),
		},
		Provenance: record.Provenance{
			Adapter:     "tutorials",
			Locator:     "content/tutorials/" + slug + ".md",
			FetchedAt:   time.Date(2024, 3, 16, 8, 0, 0, 0, time.UTC),
			ContentHash: "fp-" + slug,
		},
	}
}

func artifactFor(t *testing.T, artifacts []emit.Artifact, dest string) emit.Artifact {
	t.Helper()
	for _, a := range artifacts {
		if a.Dest == dest {
			return a
		}
	}
	t.Fatalf("no artifact %q emitted", dest)
	return emit.Artifact{}
}

// objectKeys returns an object's keys in document order.
func objectKeys(t *testing.T, doc json.RawMessage) []string {
	t.Helper()
	dec := json.NewDecoder(bytes.NewReader(doc))
	tok, err := dec.Token()
	require.NoError(t, err)
	require.Equal(t, json.Delim('{'), tok)

	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		require.NoError(t, err)
		keys = append(keys, tok.(string))
		var skip json.RawMessage
		require.NoError(t, dec.Decode(&skip))
	}
	return keys
}

func TestEmit_NoRecords_OneEmptyArtifactPerKindInRegistrationOrder(t *testing.T) {
	e := New(testRegistry(t))

	artifacts, err := e.Emit(nil)

	require.NoError(t, err)
	dests := make([]string, 0, len(artifacts))
	for _, a := range artifacts {
		dests = append(dests, a.Dest)
		require.Equal(t, "[]\n", string(a.Bytes))
	}
	require.Equal(t, []string{
		"tutorial.json",
		"workshop.json",
		"success-story.json",
		"job-posting.json",
		"package-entry.json",
		"changelog-entry.json",
	}, dests)
}

func TestEmit_SameRecordsTwice_ByteIdenticalOutput(t *testing.T) {
	e := New(testRegistry(t), WithProvenance())
	records := []record.Record{
		tutorialRecord("generics-basics", "Generics Basics"),
		tutorialRecord("error-handling", "Error Handling"),
	}

	first, err := e.Emit(records)
	require.NoError(t, err)
	second, err := e.Emit(records)
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestEmit_RecordKeys_SlugFirstThenSchemaOrder(t *testing.T) {
	e := New(testRegistry(t))
	rec := tutorialRecord("generics-basics", "Generics Basics")
	rec.Fields["author"] = record.String("Kim")

	artifacts, err := e.Emit([]record.Record{rec})
	require.NoError(t, err)

	var docs []json.RawMessage
	require.NoError(t, json.Unmarshal(artifactFor(t, artifacts, "tutorial.json").Bytes, &docs))
	require.Len(t, docs, 1)
	require.Equal(t, []string{"slug", "title", "date", "tags", "author"}, objectKeys(t, docs[0]))
}

func TestEmit_Records_SortBySlugCaseInsensitive(t *testing.T) {
	e := New(testRegistry(t))
	records := []record.Record{
		tutorialRecord("Cherry", "Third"),
		tutorialRecord("apple", "First"),
		tutorialRecord("Banana", "Second"),
	}

	artifacts, err := e.Emit(records)
	require.NoError(t, err)

	var docs []struct {
		Slug string `json:"slug"`
	}
	require.NoError(t, json.Unmarshal(artifactFor(t, artifacts, "tutorial.json").Bytes, &docs))
	require.Len(t, docs, 3)
	require.Equal(t, "apple", docs[0].Slug)
	require.Equal(t, "Banana", docs[1].Slug)
	require.Equal(t, "Cherry", docs[2].Slug)
}

func TestEmit_AbsentDefaultedField_EmitsDeclaredDefault(t *testing.T) {
	e := New(testRegistry(t))
	rec := record.Record{
		Kind: schema.KindWorkshop,
		Slug: "go-basics-workshop",
		Fields: map[string]record.Value{
			"title": record.String("Go Basics"),
			"date":  record.DateOnly(time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)),
			"tags":  record.List("go"),
		},
	}

	artifacts, err := e.Emit([]record.Record{rec})
	require.NoError(t, err)

	var docs []map[string]any
	require.NoError(t, json.Unmarshal(artifactFor(t, artifacts, "workshop.json").Bytes, &docs))
	require.Len(t, docs, 1)
	require.Equal(t, "online", docs[0]["location"])
}

func TestEmit_AbsentOptionalField_OmittedFromOutput(t *testing.T) {
	e := New(testRegistry(t))

	artifacts, err := e.Emit([]record.Record{tutorialRecord("generics-basics", "Generics Basics")})
	require.NoError(t, err)

	var docs []map[string]any
	require.NoError(t, json.Unmarshal(artifactFor(t, artifacts, "tutorial.json").Bytes, &docs))
	require.Len(t, docs, 1)
	require.NotContains(t, docs[0], "description")
	require.NotContains(t, docs[0], "difficulty")
}

func TestEmit_DateValues_RenderAsFormattedStrings(t *testing.T) {
	e := New(testRegistry(t))

	artifacts, err := e.Emit([]record.Record{tutorialRecord("generics-basics", "Generics Basics")})
	require.NoError(t, err)

	var docs []map[string]any
	require.NoError(t, json.Unmarshal(artifactFor(t, artifacts, "tutorial.json").Bytes, &docs))
	require.Equal(t, "2024-03-15", docs[0]["date"])
}

func TestEmit_WithProvenance_AppendsSourceObject(t *testing.T) {
	e := New(testRegistry(t), WithProvenance())

	artifacts, err := e.Emit([]record.Record{tutorialRecord("generics-basics", "Generics Basics")})
	require.NoError(t, err)

	var docs []struct {
		Source map[string]any `json:"_source"`
	}
	require.NoError(t, json.Unmarshal(artifactFor(t, artifacts, "tutorial.json").Bytes, &docs))
	require.Len(t, docs, 1)
	require.Len(t, docs[0].Source, 3)
	require.Equal(t, "tutorials", docs[0].Source["adapter"])
	require.Equal(t, "content/tutorials/generics-basics.md", docs[0].Source["locator"])
	require.Equal(t, "fp-generics-basics", docs[0].Source["content_hash"])
}

func TestEmit_WithoutProvenance_OmitsSourceObject(t *testing.T) {
	e := New(testRegistry(t))

	artifacts, err := e.Emit([]record.Record{tutorialRecord("generics-basics", "Generics Basics")})
	require.NoError(t, err)

	var docs []map[string]any
	require.NoError(t, json.Unmarshal(artifactFor(t, artifacts, "tutorial.json").Bytes, &docs))
	require.NotContains(t, docs[0], "_source")
}

func TestEmit_NestedObjectValues_SortKeys(t *testing.T) {
	reg := schema.NewRegistry()
	_, err := reg.Define("release", []schema.FieldDef{
		{Name: "title", Type: schema.TypeString, Required: true},
		{Name: "assets", Type: schema.TypeObject},
	})
	require.NoError(t, err)

	e := New(reg)
	rec := record.Record{
		Kind: "release",
		Slug: "v2-4-0",
		Fields: map[string]record.Value{
			"title": record.String("v2.4.0"),
			"assets": record.Object(map[string]record.Value{
				"windows": record.String("sync.zip"),
				"darwin":  record.String("sync-darwin.tar.gz"),
				"linux":   record.String("sync-linux.tar.gz"),
			}),
		},
	}

	artifacts, err := e.Emit([]record.Record{rec})
	require.NoError(t, err)

	var docs []struct {
		Assets json.RawMessage `json:"assets"`
	}
	require.NoError(t, json.Unmarshal(artifactFor(t, artifacts, "release.json").Bytes, &docs))
	require.Len(t, docs, 1)
	require.Equal(t, []string{"darwin", "linux", "windows"}, objectKeys(t, docs[0].Assets))
}

func TestEmit_UnregisteredKindRecords_AreIgnored(t *testing.T) {
	e := New(testRegistry(t))
	stray := record.Record{Kind: "no-such-kind", Slug: "stray"}

	artifacts, err := e.Emit([]record.Record{stray})
	require.NoError(t, err)

	for _, a := range artifacts {
		require.Equal(t, "[]\n", string(a.Bytes))
	}
}
