package extract

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleItem = `
<ul>
  <li class="s-item">
    <a href="https://www.ebay.com/itm/sample-item-title/123456789012">link</a>
    <div class="s-item__title"><span>Sample Item Title</span></div>
    <span class="s-item__price">$19.99</span>
    <span class="s-item__shipping">+$4.99 shipping</span>
    <div class="s-item__subtitle"><span class="SECONDARY_INFO">Used</span></div>
    <span class="s-item__dynamic">Buy It Now</span>
    <span class="s-item__watchcount">7 watchers</span>
    <span class="s-item__location">from Austin, TX</span>
  </li>
</ul>`

func TestListingsConcreteScenario(t *testing.T) {
	listings, err := Listings(sampleItem)
	require.NoError(t, err)
	require.Len(t, listings, 1)

	l := listings[0]
	assert.Equal(t, "Sample Item Title", l.Title)
	assert.Equal(t, "$19.99", l.Price)
	assert.Equal(t, "+$4.99 shipping", l.Shipping)
	assert.Equal(t, "Used", l.Condition)
	assert.True(t, l.BuyItNow)
	assert.False(t, l.AcceptsOffers)
	assert.False(t, l.IsNewListing)
	assert.Equal(t, 7, l.Watchers)
	assert.Equal(t, "123456789012", l.ItemID)
	assert.Equal(t, "https://www.ebay.com/itm/sample-item-title/123456789012", l.URL)
}

func TestListingsAcceptancePredicate(t *testing.T) {
	tests := []struct {
		name  string
		title string
		price string
		kept  bool
	}{
		{"both present", "Widget", "$5.00", true},
		{"missing price", "Widget", "", false},
		{"missing title", "", "$5.00", false},
		{"missing both", "", "", false},
		{"whitespace only title", "   ", "$5.00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			html := fmt.Sprintf(`<li class="s-item">
				<span class="s-item__title">%s</span>
				<span class="s-item__price">%s</span>
			</li>`, tt.title, tt.price)
			listings, err := Listings(html)
			require.NoError(t, err)
			if tt.kept {
				assert.Len(t, listings, 1)
			} else {
				assert.Empty(t, listings)
			}
		})
	}
}

func TestListingsFallbackPriority(t *testing.T) {
	// Only the second-priority price selector is present; extraction must
	// resolve to its text.
	html := `<div class="active-item">
		<h3 class="item-title"><span>Fallback Widget</span></h3>
		<span class="s-item__price">$42.00</span>
	</div>`

	listings, err := Listings(html)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "$42.00", listings[0].Price)

	// Deterministic across repeated runs on identical input.
	for i := 0; i < 5; i++ {
		again, err := Listings(html)
		require.NoError(t, err)
		assert.Equal(t, listings, again)
	}
}

func TestListingsHigherPriorityWins(t *testing.T) {
	html := `<div class="active-item">
		<h3 class="item-title"><span>First Priority</span></h3>
		<span class="s-item__title">Second Priority</span>
		<span class="item__price"><span class="bold">$1.00</span></span>
	</div>`
	listings, err := Listings(html)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "First Priority", listings[0].Title)
}

func TestListingsNoContainerStrategyMixing(t *testing.T) {
	// Both container generations are present; the first matching catalog
	// selects the whole document, so the s-item entry is never visited.
	html := `
	<div class="active-item">
		<h3 class="item-title"><span>Old Markup</span></h3>
		<span class="item__price"><span class="bold">$2.00</span></span>
	</div>
	<li class="s-item">
		<span class="s-item__title">New Markup</span>
		<span class="s-item__price">$3.00</span>
	</li>`
	listings, err := Listings(html)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "Old Markup", listings[0].Title)
}

func TestListingsBooleanMarkers(t *testing.T) {
	html := `<li class="s-item">
		<span class="s-item__title--tagblock">NEW LISTING</span>
		<span class="s-item__title">Marker Widget</span>
		<span class="s-item__price">$9.99</span>
		<span class="s-item__dynamic">Buy It Now</span>
		<span class="s-item__dynamic">or Best Offer</span>
	</li>`
	listings, err := Listings(html)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.True(t, listings[0].BuyItNow)
	assert.True(t, listings[0].AcceptsOffers)
	assert.True(t, listings[0].IsNewListing)
}

func TestListingsEmptyMarkup(t *testing.T) {
	listings, err := Listings("<html><body><p>nothing here</p></body></html>")
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestListingsItemIDFirstParsedWins(t *testing.T) {
	html := `<li class="s-item">
		<a href="/help/policies">not an item link</a>
		<a href="https://www.ebay.com/itm/111222333444">first item link</a>
		<a href="https://www.ebay.com/itm/999888777666">second item link</a>
		<span class="s-item__title">ID Widget</span>
		<span class="s-item__price">$1.00</span>
	</li>`
	listings, err := Listings(html)
	require.NoError(t, err)
	require.Len(t, listings, 1)
	assert.Equal(t, "111222333444", listings[0].ItemID)
	assert.Equal(t, "https://www.ebay.com/itm/111222333444", listings[0].URL)
}

func TestDetailsSpecificsAndDescription(t *testing.T) {
	html := `
	<dl class="ux-labels-values">
		<dt class="ux-labels-values__labels">Brand</dt>
		<dd class="ux-labels-values__values">Acme</dd>
	</dl>
	<dl class="ux-labels-values">
		<dt class="ux-labels-values__labels">Color:</dt>
		<dd class="ux-labels-values__values">Red</dd>
	</dl>
	<div class="x-item-description-child">
		Gently used, ships fast.
	</div>`

	specifics, desc, err := Details(html)
	require.NoError(t, err)
	assert.Equal(t, []string{"Brand: Acme", "Color: Red"}, specifics)
	assert.Equal(t, "Gently used, ships fast.", desc)
}

func TestDetailsLegacyTable(t *testing.T) {
	html := `
	<table class="itemAttr">
		<tr><td class="attrLabels">Material:</td><td>Cotton</td></tr>
	</table>`
	specifics, desc, err := Details(html)
	require.NoError(t, err)
	assert.Equal(t, []string{"Material: Cotton"}, specifics)
	assert.Empty(t, desc)
}

func TestDetailsNothingFound(t *testing.T) {
	specifics, desc, err := Details("<html><body></body></html>")
	require.NoError(t, err)
	assert.Empty(t, specifics)
	assert.Empty(t, desc)
}

func TestParseCount(t *testing.T) {
	assert.Equal(t, 12, Count("12 watchers"))
	assert.Equal(t, 10, Count("More than 10 available"))
	assert.Equal(t, 1250, Count("1,250 sold"))
	assert.Equal(t, 0, Count("no digits"))
	assert.Equal(t, 0, Count(""))
}
