package pkgregistry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitesync/internal/adapter"
	"git.home.luguber.info/inful/sitesync/internal/schema"
)

type fakeFetcher struct {
	pages map[string][]byte
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, locator string) ([]byte, error) {
	f.calls = append(f.calls, locator)
	data, ok := f.pages[locator]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return data, nil
}

func packageKind(t *testing.T) *schema.Kind {
	t.Helper()
	r, err := schema.DefaultRegistry()
	require.NoError(t, err)
	kind, err := r.Lookup(schema.KindPackageEntry)
	require.NoError(t, err)
	return kind
}

func collect(t *testing.T, items adapter.Items) ([]adapter.RawItem, []*adapter.SourceError) {
	t.Helper()
	var raws []adapter.RawItem
	var errs []*adapter.SourceError
	for item, err := range items {
		if err != nil {
			errs = append(errs, err)
			continue
		}
		raws = append(raws, item)
	}
	return raws, errs
}

const index = "https://pkg.example.com/index"

func TestFetch_TwoPages_PaginatesUntilExhaustion(t *testing.T) {
	pages := map[string][]byte{}
	pages[index+"?limit=2"] = []byte(`{"packages": [{"name": "alpha", "version": "1.0.0"}, {"name": "beta", "version": "2.1.0"}], "next_cursor": "YmV0YQ=="}`)
	pages[index+"?cursor=YmV0YQ%3D%3D&limit=2"] = []byte(`{"packages": [{"name": "gamma", "version": "0.3.0"}], "next_cursor": ""}`)
	client := &fakeFetcher{pages: pages}
	a := New("packages", packageKind(t), client, WithPageSize(2))

	items, srcErr := a.Fetch(context.Background(), index)
	require.Nil(t, srcErr)

	raws, errs := collect(t, items)
	require.Empty(t, errs)
	require.Len(t, raws, 3)
	require.Equal(t, index+"#alpha", raws[0].Locator)
	require.Equal(t, index+"#gamma", raws[2].Locator)
	require.Len(t, client.calls, 2)
}

func TestFetch_FirstPageFailure_ReturnsSourceUnavailable(t *testing.T) {
	client := &fakeFetcher{}
	a := New("packages", packageKind(t), client)

	_, srcErr := a.Fetch(context.Background(), index)
	require.NotNil(t, srcErr)
	require.True(t, srcErr.Unavailable())
	require.ErrorIs(t, srcErr, adapter.ErrSourceUnavailable)
}

func TestFetch_LaterPageFailure_DegradesSource(t *testing.T) {
	client := &fakeFetcher{pages: map[string][]byte{
		index + "?limit=50": []byte(`{"packages": [{"name": "alpha"}], "next_cursor": "bmV4dA=="}`),
	}}
	a := New("packages", packageKind(t), client)

	items, srcErr := a.Fetch(context.Background(), index)
	require.Nil(t, srcErr)

	raws, errs := collect(t, items)
	require.Len(t, raws, 1)
	require.Len(t, errs, 1)
	require.True(t, errs[0].Unavailable())
}

func TestFetch_CursorDoesNotAdvance_DegradesSource(t *testing.T) {
	pages := map[string][]byte{}
	pages[index+"?limit=50"] = []byte(`{"packages": [], "next_cursor": "c3R1Y2s="}`)
	pages[index+"?cursor=c3R1Y2s%3D&limit=50"] = []byte(`{"packages": [], "next_cursor": "c3R1Y2s="}`)
	client := &fakeFetcher{pages: pages}
	a := New("packages", packageKind(t), client)

	items, srcErr := a.Fetch(context.Background(), index)
	require.Nil(t, srcErr)

	_, errs := collect(t, items)
	require.Len(t, errs, 1)
	require.True(t, errs[0].Unavailable())
	require.Len(t, client.calls, 2)
}

func TestFetch_MalformedEntry_YieldsItemErrorAndContinues(t *testing.T) {
	client := &fakeFetcher{pages: map[string][]byte{
		index + "?limit=50": []byte(`{"packages": ["not an object", {"name": "beta", "version": "2.0.0"}], "next_cursor": ""}`),
	}}
	a := New("packages", packageKind(t), client)

	items, srcErr := a.Fetch(context.Background(), index)
	require.Nil(t, srcErr)

	raws, errs := collect(t, items)
	require.Len(t, raws, 1)
	require.Len(t, errs, 1)
	require.False(t, errs[0].Unavailable())
	require.Equal(t, index+"#beta", raws[0].Locator)
}

func TestNormalize_EntryFields_MapToDeclaredFields(t *testing.T) {
	a := New("packages", packageKind(t), nil)
	item := adapter.RawItem{
		Locator: index + "#yaml-parser",
		Fields: map[string]any{
			"name":        "yaml-parser",
			"version":     "1.4.2",
			"description": "Streaming YAML parser",
			"downloads":   float64(12840),
			"tags":        []any{"parsing", "yaml"},
		},
	}

	res := a.Normalize(item)
	require.True(t, res.IsOk())

	norm := res.Unwrap()
	require.Empty(t, norm.Warnings)

	title, ok := norm.Record.Field("title")
	require.True(t, ok)
	require.Equal(t, "yaml-parser", title.Text())

	downloads, ok := norm.Record.Field("downloads")
	require.True(t, ok)
	n, ok := downloads.AsNumber()
	require.True(t, ok)
	require.Equal(t, float64(12840), n)

	tags, ok := norm.Record.Field("tags")
	require.True(t, ok)
	list, ok := tags.AsList()
	require.True(t, ok)
	require.Equal(t, []string{"parsing", "yaml"}, list)
}

func TestNormalize_UnknownEntryKey_BecomesWarning(t *testing.T) {
	a := New("packages", packageKind(t), nil)
	item := adapter.RawItem{
		Locator: index + "#alpha",
		Fields:  map[string]any{"name": "alpha", "maintainer": "ops"},
	}

	res := a.Normalize(item)
	require.True(t, res.IsOk())

	norm := res.Unwrap()
	require.Len(t, norm.Warnings, 1)
	require.Equal(t, "maintainer", norm.Warnings[0].Field)
}

func TestNormalize_SuppliedSlug_SetsRecordSlug(t *testing.T) {
	a := New("packages", packageKind(t), nil)
	item := adapter.RawItem{
		Locator: index + "#alpha",
		Fields:  map[string]any{"name": "Alpha Toolkit", "slug": "alpha"},
	}

	res := a.Normalize(item)
	require.True(t, res.IsOk())
	require.Equal(t, "alpha", res.Unwrap().Record.Slug)
}

func TestNormalize_NoFields_ReturnsItemError(t *testing.T) {
	a := New("packages", packageKind(t), nil)

	res := a.Normalize(adapter.RawItem{Locator: index})
	require.False(t, res.IsOk())
	require.False(t, res.UnwrapErr().Unavailable())
}
