package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitesync/internal/adapter"
	"git.home.luguber.info/inful/sitesync/internal/schema"
)

type fakeFetcher struct {
	docs map[string][]byte
}

func (f *fakeFetcher) Fetch(_ context.Context, locator string) ([]byte, error) {
	data, ok := f.docs[locator]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return data, nil
}

func changelogKind(t *testing.T) *schema.Kind {
	t.Helper()
	r, err := schema.DefaultRegistry()
	require.NoError(t, err)
	kind, err := r.Lookup(schema.KindChangelogEntry)
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

const feedURL = "https://example.com/releases.xml"

const rssFixture = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Release Notes</title>
    <link>https://example.com/releases</link>
    <description>Releases</description>
    <item>
      <title>v2.4.0 released</title>
      <link>https://example.com/releases/v2.4.0</link>
      <guid>rel-240</guid>
      <pubDate>Mon, 18 Mar 2024 10:30:00 +0000</pubDate>
      <description>Adds incremental sync.</description>
      <category>Release</category>
      <category>sync</category>
    </item>
    <item>
      <title>Broken entry</title>
      <guid>rel-bad</guid>
      <pubDate>Tue, 19 Mar 2024 08:00:00 +0000</pubDate>
    </item>
  </channel>
</rss>`

const atomFixture = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Changelog</title>
  <id>urn:changelog</id>
  <updated>2024-03-18T10:30:00Z</updated>
  <entry>
    <title>v1.0.0</title>
    <id>urn:rel-100</id>
    <link href="https://example.com/releases/v1.0.0"/>
    <updated>2024-03-18T10:30:00Z</updated>
    <summary>First stable release.</summary>
  </entry>
</feed>`

func TestFetch_RSSFeed_YieldsOneItemPerEntry(t *testing.T) {
	client := &fakeFetcher{docs: map[string][]byte{feedURL: []byte(rssFixture)}}
	a := New("releases", changelogKind(t), client)

	items, srcErr := a.Fetch(context.Background(), feedURL)
	require.Nil(t, srcErr)

	raws, errs := collect(t, items)
	require.Empty(t, errs)
	require.Len(t, raws, 2)
	require.Equal(t, feedURL+"#rel-240", raws[0].Locator)
	require.Equal(t, "v2.4.0 released", raws[0].Fields[titleKey])
	require.Equal(t, []string{"Release", "sync"}, raws[0].Fields[tagsKey])

	_, hasLink := raws[1].Fields[linkKey]
	require.False(t, hasLink)
}

func TestFetch_UnreachableFeed_ReturnsSourceUnavailable(t *testing.T) {
	a := New("releases", changelogKind(t), &fakeFetcher{})

	_, srcErr := a.Fetch(context.Background(), feedURL)
	require.NotNil(t, srcErr)
	require.True(t, srcErr.Unavailable())
	require.ErrorIs(t, srcErr, adapter.ErrSourceUnavailable)
}

func TestFetch_MalformedFeed_ReturnsSourceUnavailable(t *testing.T) {
	client := &fakeFetcher{docs: map[string][]byte{feedURL: []byte("not a feed at all")}}
	a := New("releases", changelogKind(t), client)

	_, srcErr := a.Fetch(context.Background(), feedURL)
	require.NotNil(t, srcErr)
	require.True(t, srcErr.Unavailable())
}

func TestFetch_AtomFeed_ParsesEntries(t *testing.T) {
	client := &fakeFetcher{docs: map[string][]byte{feedURL: []byte(atomFixture)}}
	a := New("releases", changelogKind(t), client)

	items, srcErr := a.Fetch(context.Background(), feedURL)
	require.Nil(t, srcErr)

	raws, errs := collect(t, items)
	require.Empty(t, errs)
	require.Len(t, raws, 1)
	require.Equal(t, feedURL+"#urn:rel-100", raws[0].Locator)
	require.Equal(t, "https://example.com/releases/v1.0.0", raws[0].Fields[linkKey])
	require.Equal(t, "First stable release.", raws[0].Fields[summaryKey])

	date, ok := raws[0].Fields[dateKey].(time.Time)
	require.True(t, ok)
	require.Equal(t, time.Date(2024, 3, 18, 10, 30, 0, 0, time.UTC), date.UTC())
}

func TestNormalize_Entry_MapsToKindFields(t *testing.T) {
	a := New("releases", changelogKind(t), nil)
	item := adapter.RawItem{
		Locator: feedURL + "#rel-240",
		Fields: map[string]any{
			titleKey:   "v2.4.0 released",
			linkKey:    "https://example.com/releases/v2.4.0",
			dateKey:    time.Date(2024, 3, 18, 10, 30, 0, 0, time.UTC),
			summaryKey: "Adds incremental sync.",
			tagsKey:    []string{"Release", "sync"},
		},
	}

	res := a.Normalize(item)
	require.True(t, res.IsOk())

	norm := res.Unwrap()
	require.Empty(t, norm.Warnings)

	link, ok := norm.Record.Field(linkKey)
	require.True(t, ok)
	require.Equal(t, "https://example.com/releases/v2.4.0", link.Text())

	date, ok := norm.Record.Field(dateKey)
	require.True(t, ok)
	require.False(t, date.IsDateOnly())
	require.Equal(t, "2024-03-18T10:30:00Z", date.Text())
}

func TestNormalize_MissingLink_ReturnsItemError(t *testing.T) {
	a := New("releases", changelogKind(t), nil)
	item := adapter.RawItem{
		Locator: feedURL + "#rel-bad",
		Fields:  map[string]any{titleKey: "Broken entry"},
	}

	res := a.Normalize(item)
	require.False(t, res.IsOk())

	srcErr := res.UnwrapErr()
	require.False(t, srcErr.Unavailable())
	require.Contains(t, srcErr.Error(), "missing link")
}
