package enrich

import (
	"context"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"

	"github.com/thriftngo/storefront-cli/internal/model"
)

// fakeFetcher serves canned detail pages keyed by URL.
type fakeFetcher struct {
	pages   map[string]string
	failOn  map[string]bool
	visited []string
	current string
}

func (f *fakeFetcher) Navigate(_ context.Context, url string) error {
	if f.failOn[url] {
		return eris.Errorf("navigate failed: %s", url)
	}
	f.visited = append(f.visited, url)
	f.current = url
	return nil
}

func (f *fakeFetcher) PageHTML(context.Context) (string, error) {
	return f.pages[f.current], nil
}

const detailPage = `
<dl class="ux-labels-values">
	<dt class="ux-labels-values__labels">Brand</dt>
	<dd class="ux-labels-values__values">Acme</dd>
</dl>
<div class="x-item-description-child">A fine widget.</div>`

func TestEnrichFillsSpecificsAndDescription(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://www.ebay.com/itm/111": detailPage,
	}}
	e := New(f, time.Millisecond, "https://www.ebay.com/itm/")

	got := e.Enrich(context.Background(), []model.Listing{
		{ItemID: "111", Title: "Widget", Price: "$1", URL: "https://www.ebay.com/itm/111"},
	})

	assert.Equal(t, []string{"Brand: Acme"}, got[0].ItemSpecifics)
	assert.Equal(t, "A fine widget.", got[0].Description)
}

func TestEnrichBuildsURLFromItemID(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{
		"https://www.ebay.com/itm/222": detailPage,
	}}
	e := New(f, time.Millisecond, "https://www.ebay.com/itm/")

	e.Enrich(context.Background(), []model.Listing{
		{ItemID: "222", Title: "Widget", Price: "$1"},
	})

	assert.Equal(t, []string{"https://www.ebay.com/itm/222"}, f.visited)
}

func TestEnrichSkipsListingsWithoutItemID(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{}}
	e := New(f, time.Millisecond, "https://www.ebay.com/itm/")

	e.Enrich(context.Background(), []model.Listing{
		{Title: "No ID", Price: "$1"},
	})

	assert.Empty(t, f.visited)
}

func TestEnrichContinuesPastFailures(t *testing.T) {
	f := &fakeFetcher{
		pages:  map[string]string{"https://www.ebay.com/itm/333": detailPage},
		failOn: map[string]bool{"https://www.ebay.com/itm/111": true},
	}
	e := New(f, time.Millisecond, "https://www.ebay.com/itm/")

	got := e.Enrich(context.Background(), []model.Listing{
		{ItemID: "111", Title: "Fails", Price: "$1", Description: "kept as-is"},
		{ItemID: "333", Title: "Works", Price: "$2"},
	})

	// Failed listing keeps its prior fields, later listing still enriched.
	assert.Equal(t, "kept as-is", got[0].Description)
	assert.Equal(t, "A fine widget.", got[1].Description)
}

func TestEnrichPreservesOrder(t *testing.T) {
	f := &fakeFetcher{pages: map[string]string{}}
	e := New(f, time.Millisecond, "https://www.ebay.com/itm/")

	in := []model.Listing{
		{ItemID: "1", Title: "a", Price: "$1"},
		{ItemID: "2", Title: "b", Price: "$2"},
		{ItemID: "3", Title: "c", Price: "$3"},
	}
	got := e.Enrich(context.Background(), in)

	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].Title, got[1].Title, got[2].Title})
}

func TestEnrichStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := &fakeFetcher{pages: map[string]string{}}
	e := New(f, time.Hour, "https://www.ebay.com/itm/")

	e.Enrich(ctx, []model.Listing{{ItemID: "1", Title: "a", Price: "$1"}})
	assert.Empty(t, f.visited)
}
