package app

import (
	"context"
	"testing"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thriftngo/storefront-cli/internal/browser"
	"github.com/thriftngo/storefront-cli/internal/config"
	"github.com/thriftngo/storefront-cli/internal/event"
)

const storefrontMarkup = `
<ul>
  <li class="s-item">
    <a href="https://www.ebay.com/itm/sample-item-title/123456789012">link</a>
    <div class="s-item__title"><span>Sample Item Title</span></div>
    <span class="s-item__price">$19.99</span>
  </li>
  <li class="s-item">
    <a href="https://www.ebay.com/itm/987654321098">link</a>
    <div class="s-item__title"><span>Second Item</span></div>
    <span class="s-item__price">$5.00</span>
  </li>
</ul>`

// fakeSession scripts the browser surface the pipeline drives. Selector
// lookups resolve against the nodes map; everything else records calls.
type fakeSession struct {
	html      string
	htmlErr   error
	nodes     map[string]int
	waitText  map[string]string
	clicked   []string
	navigated []string
}

func (f *fakeSession) Navigate(_ context.Context, url string) error {
	f.navigated = append(f.navigated, url)
	return nil
}

func (f *fakeSession) CurrentURL(context.Context) (string, error) {
	return "https://www.ebay.com/usr/thriftngo5", nil
}

func (f *fakeSession) WaitText(_ context.Context, sel string) (string, error) {
	if text, ok := f.waitText[sel]; ok {
		return text, nil
	}
	return "", browser.ErrElementNotFound
}

func (f *fakeSession) Click(_ context.Context, sel string) error {
	f.clicked = append(f.clicked, sel)
	return nil
}

func (f *fakeSession) FindNodes(_ context.Context, sel string) ([]*cdp.Node, error) {
	return make([]*cdp.Node, f.nodes[sel]), nil
}

func (f *fakeSession) PageHTML(context.Context) (string, error) {
	return f.html, f.htmlErr
}

func (f *fakeSession) Close(context.Context) error { return nil }

func newTestPipeline(bus *event.Bus, sess browserSession) *PipelineOps {
	p := NewPipelineOps(bus, &config.Config{}, nil, nil, nil, "", "")
	p.session = sess
	p.settle = time.Millisecond
	return p
}

func TestExpandIndexExtractsListings(t *testing.T) {
	bus := event.NewBus()
	sess := &fakeSession{
		html:  storefrontMarkup,
		nodes: map[string]int{seeAllSelectors[0]: 1},
	}
	p := newTestPipeline(bus, sess)

	p.ExpandIndex(context.Background())

	e := nextEvent(t, bus)
	scraped, ok := e.(event.ScrapeListings)
	require.True(t, ok, "expected ScrapeListings, got %T", e)
	require.Len(t, scraped.Listings, 2)
	assert.Equal(t, "123456789012", scraped.Listings[0].ItemID)
	assert.Equal(t, "Sample Item Title", scraped.Listings[0].Title)
	assert.Equal(t, []string{seeAllSelectors[0]}, sess.clicked)
}

func TestExpandIndexWithoutSeeAllScrapesCurrentView(t *testing.T) {
	bus := event.NewBus()
	sess := &fakeSession{html: storefrontMarkup}
	p := newTestPipeline(bus, sess)

	p.ExpandIndex(context.Background())

	e := nextEvent(t, bus)
	scraped, ok := e.(event.ScrapeListings)
	require.True(t, ok, "expected ScrapeListings, got %T", e)
	assert.Len(t, scraped.Listings, 2)
	assert.Empty(t, sess.clicked, "absent control must not be clicked")
}

func TestExpandIndexPageCaptureFailure(t *testing.T) {
	bus := event.NewBus()
	sess := &fakeSession{htmlErr: assert.AnError}
	p := newTestPipeline(bus, sess)

	p.ExpandIndex(context.Background())

	e := nextEvent(t, bus)
	failed, ok := e.(event.NavigationFailed)
	require.True(t, ok, "expected NavigationFailed, got %T", e)
	assert.ErrorIs(t, failed.Err, assert.AnError)
}

func TestScrapeStatsEmitsPerFieldEvents(t *testing.T) {
	bus := event.NewBus()
	sess := &fakeSession{waitText: map[string]string{
		itemsSoldSelectors[0]:     "1,250 items sold",
		feedbackScoreSelectors[0]: "100% positive feedback",
	}}
	p := newTestPipeline(bus, sess)

	p.ScrapeStats(context.Background())

	var sold, feedback, followers, seeAll bool
	for !bus.Closed() {
		switch e := nextEvent(t, bus).(type) {
		case event.ScrapeItemsSold:
			sold = true
			assert.Equal(t, 1250, e.Count)
		case event.ScrapeFeedback:
			feedback = true
			assert.Equal(t, "100% positive feedback", e.Score)
		case event.ScrapeFollowerCount:
			followers = true
		case event.ClickSeeAll:
			seeAll = true
		}
		if seeAll {
			break
		}
	}

	assert.True(t, sold)
	assert.True(t, feedback)
	assert.False(t, followers, "missing stat stays unknown")
	assert.True(t, seeAll, "stats sequence always hands off to expansion")
}
