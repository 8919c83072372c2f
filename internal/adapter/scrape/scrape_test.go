package scrape

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitesync/internal/adapter"
	"git.home.luguber.info/inful/sitesync/internal/fetch"
	"git.home.luguber.info/inful/sitesync/internal/schema"
)

type fakeFetcher struct {
	pages map[string][]byte
	err   error
}

func (f *fakeFetcher) Fetch(_ context.Context, locator string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	data, ok := f.pages[locator]
	if !ok {
		return nil, errors.New("connection refused")
	}
	return data, nil
}

func storyKind(t *testing.T) *schema.Kind {
	t.Helper()
	r, err := schema.DefaultRegistry()
	require.NoError(t, err)
	kind, err := r.Lookup(schema.KindSuccessStory)
	require.NoError(t, err)
	return kind
}

func storySelectors() map[string]string {
	return map[string]string{
		"title":   "h1.story-title",
		"company": ".company",
		"date":    "time::attr(datetime)",
		"quote":   "blockquote.quote",
		"website": "a.website::attr(href)",
		"tags":    ".tags li",
	}
}

const pageURL = "https://example.com/stories/acme"

const storyPage = `<html><body>
<article class="story">
  <h1 class="story-title">Acme Corp ships faster</h1>
  <span class="company">Acme Corp</span>
  <time datetime="2024-02-10">February 10</time>
  <blockquote class="quote">It just works.</blockquote>
  <a class="website" href="https://acme.example">Acme</a>
  <ul class="tags"><li>case-study</li><li>ops</li></ul>
</article>
</body></html>`

func TestNew_SelectorForUnknownField_ReturnsError(t *testing.T) {
	_, err := New("stories", storyKind(t), nil, map[string]string{"sponsor": ".sponsor"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "sponsor")
}

func TestNew_MalformedAttrSelector_ReturnsError(t *testing.T) {
	_, err := New("stories", storyKind(t), nil, map[string]string{"website": "a::attr(href"})
	require.Error(t, err)
}

func TestFetch_Page_YieldsSingleItem(t *testing.T) {
	client := &fakeFetcher{pages: map[string][]byte{pageURL: []byte(storyPage)}}
	a, err := New("stories", storyKind(t), client, storySelectors())
	require.NoError(t, err)

	items, srcErr := a.Fetch(context.Background(), pageURL)
	require.Nil(t, srcErr)

	var count int
	for item, err := range items {
		require.Nil(t, err)
		require.Equal(t, pageURL, item.Locator)
		count++
	}
	require.Equal(t, 1, count)
}

func TestFetch_MissingPage_YieldsItemError(t *testing.T) {
	client := &fakeFetcher{err: &fetch.FetchError{Locator: pageURL, Err: fetch.ErrNotFound}}
	a, err := New("stories", storyKind(t), client, storySelectors())
	require.NoError(t, err)

	items, srcErr := a.Fetch(context.Background(), pageURL)
	require.Nil(t, srcErr)

	var errs []*adapter.SourceError
	for _, itemErr := range items {
		require.NotNil(t, itemErr)
		errs = append(errs, itemErr)
	}
	require.Len(t, errs, 1)
	require.False(t, errs[0].Unavailable())
}

func TestFetch_ConnectionFailure_ReturnsSourceUnavailable(t *testing.T) {
	client := &fakeFetcher{err: errors.New("connection refused")}
	a, err := New("stories", storyKind(t), client, storySelectors())
	require.NoError(t, err)

	_, srcErr := a.Fetch(context.Background(), pageURL)
	require.NotNil(t, srcErr)
	require.True(t, srcErr.Unavailable())
	require.ErrorIs(t, srcErr, adapter.ErrSourceUnavailable)
}

func TestNormalize_Selectors_ExtractDeclaredFields(t *testing.T) {
	a, err := New("stories", storyKind(t), nil, storySelectors())
	require.NoError(t, err)

	res := a.Normalize(adapter.RawItem{Locator: pageURL, Payload: []byte(storyPage)})
	require.True(t, res.IsOk())

	norm := res.Unwrap()
	require.Empty(t, norm.Warnings)

	title, ok := norm.Record.Field("title")
	require.True(t, ok)
	require.Equal(t, "Acme Corp ships faster", title.Text())

	date, ok := norm.Record.Field("date")
	require.True(t, ok)
	require.True(t, date.IsDateOnly())
	require.Equal(t, "2024-02-10", date.Text())

	website, ok := norm.Record.Field("website")
	require.True(t, ok)
	require.Equal(t, "https://acme.example", website.Text())

	tags, ok := norm.Record.Field("tags")
	require.True(t, ok)
	list, ok := tags.AsList()
	require.True(t, ok)
	require.Equal(t, []string{"case-study", "ops"}, list)
}

func TestNormalize_MissingOptionalMatch_LeavesFieldAbsent(t *testing.T) {
	page := `<html><body>
<h1 class="story-title">Acme Corp ships faster</h1>
<span class="company">Acme Corp</span>
<time datetime="2024-02-10">February 10</time>
</body></html>`
	a, err := New("stories", storyKind(t), nil, storySelectors())
	require.NoError(t, err)

	res := a.Normalize(adapter.RawItem{Locator: pageURL, Payload: []byte(page)})
	require.True(t, res.IsOk())

	norm := res.Unwrap()
	require.Empty(t, norm.Warnings)
	_, ok := norm.Record.Field("quote")
	require.False(t, ok)
	_, ok = norm.Record.Field("website")
	require.False(t, ok)
}

func TestNormalize_MissingRequiredMatch_ReturnsItemError(t *testing.T) {
	page := `<html><body><h1 class="story-title">No company here</h1>
<time datetime="2024-02-10">February 10</time></body></html>`
	a, err := New("stories", storyKind(t), nil, storySelectors())
	require.NoError(t, err)

	res := a.Normalize(adapter.RawItem{Locator: pageURL, Payload: []byte(page)})
	require.False(t, res.IsOk())

	srcErr := res.UnwrapErr()
	require.False(t, srcErr.Unavailable())
	require.Contains(t, srcErr.Error(), `"company"`)
}

func TestNormalize_SlugSelector_SetsRecordSlug(t *testing.T) {
	selectors := storySelectors()
	selectors["slug"] = "article::attr(data-slug)"
	page := `<html><body>
<article data-slug="acme-corp">
  <h1 class="story-title">Acme Corp ships faster</h1>
  <span class="company">Acme Corp</span>
  <time datetime="2024-02-10">February 10</time>
</article>
</body></html>`

	a, err := New("stories", storyKind(t), nil, selectors)
	require.NoError(t, err)

	res := a.Normalize(adapter.RawItem{Locator: pageURL, Payload: []byte(page)})
	require.True(t, res.IsOk())
	require.Equal(t, "acme-corp", res.Unwrap().Record.Slug)
}
