// Package extract turns raw page markup into structured listings. It is a
// pure transformation: no browser access, no side effects, deterministic on
// identical input.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/thriftngo/storefront-cli/internal/model"
)

// itemIDPattern matches a listing detail href and captures the trailing
// numeric identifier segment.
var itemIDPattern = regexp.MustCompile(`/itm/(?:[^/?#]*/)?(\d+)`)

// Listings extracts every acceptable listing from the given markup.
//
// The container catalog is tried in order; the first selector matching one
// or more elements wins for the whole document, so strategies are never
// mixed within one call. A candidate is kept only when both its resolved
// title and price are non-empty.
func Listings(html string) ([]model.Listing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, eris.Wrap(err, "extract: parse markup")
	}

	var containers *goquery.Selection
	for _, sel := range containerSelectors {
		s := doc.Find(sel)
		if s.Length() > 0 {
			containers = s
			break
		}
	}
	if containers == nil {
		return nil, nil
	}

	var listings []model.Listing
	containers.Each(func(_ int, item *goquery.Selection) {
		l := model.Listing{
			Title:             firstText(item, titleSelectors),
			Price:             firstText(item, priceSelectors),
			Shipping:          firstText(item, shippingSelectors),
			Condition:         firstText(item, conditionSelectors),
			Watchers:          Count(firstText(item, watchersSelectors)),
			Seller:            firstText(item, sellerSelectors),
			SellerFeedback:    firstText(item, sellerFeedbackSelectors),
			Location:          firstText(item, locationSelectors),
			QuantityAvailable: Count(firstText(item, quantitySelectors)),
			Notes:             allText(item, noteSelectors),
			BuyItNow:          hasMarker(item, purchaseOptionSelectors, markerBuyItNow),
			AcceptsOffers:     hasMarker(item, purchaseOptionSelectors, markerBestOffer),
			IsNewListing:      hasMarker(item, newListingSelectors, markerNewListing),
		}
		l.ItemID, l.URL = itemIdentity(item)

		if l.Title == "" || l.Price == "" {
			zap.L().Debug("extract: dropping candidate without title or price",
				zap.String("item_id", l.ItemID),
			)
			return
		}
		listings = append(listings, l)
	})

	return listings, nil
}

// Details extracts item specifics and the long description from a listing
// detail page. Specifics are "key: value" strings in document order.
func Details(html string) (specifics []string, description string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, "", eris.Wrap(err, "extract: parse detail markup")
	}

	for _, cat := range itemSpecificsCatalogs {
		rows := doc.Find(cat.row)
		if rows.Length() == 0 {
			continue
		}
		rows.Each(func(_ int, row *goquery.Selection) {
			label := cleanText(row.Find(cat.label).First().Text())
			value := cleanText(row.Find(cat.value).First().Text())
			if label == "" || value == "" {
				return
			}
			specifics = append(specifics, strings.TrimSuffix(label, ":")+": "+value)
		})
		if len(specifics) > 0 {
			break
		}
	}

	for _, sel := range descriptionSelectors {
		if text := cleanText(doc.Find(sel).First().Text()); text != "" {
			description = text
			break
		}
	}

	return specifics, description, nil
}

// firstText resolves a field through its fallback catalog: the first
// selector yielding non-empty trimmed text wins.
func firstText(item *goquery.Selection, catalog []string) string {
	for _, sel := range catalog {
		if text := cleanText(item.Find(sel).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// allText collects the trimmed text of every match across the catalog,
// preserving order and skipping empties.
func allText(item *goquery.Selection, catalog []string) []string {
	var out []string
	for _, sel := range catalog {
		item.Find(sel).Each(func(_ int, s *goquery.Selection) {
			if text := cleanText(s.Text()); text != "" {
				out = append(out, text)
			}
		})
		if len(out) > 0 {
			break
		}
	}
	return out
}

// hasMarker reports whether any candidate selector's text contains the
// marker phrase, case-insensitively.
func hasMarker(item *goquery.Selection, catalog []string, marker string) bool {
	for _, sel := range catalog {
		found := false
		item.Find(sel).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			if strings.Contains(strings.ToLower(s.Text()), marker) {
				found = true
				return false
			}
			return true
		})
		if found {
			return true
		}
	}
	return false
}

// itemIdentity scans anchor hrefs for the detail-page path pattern and
// returns the first successfully parsed id with its href.
func itemIdentity(item *goquery.Selection) (id, url string) {
	item.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		m := itemIDPattern.FindStringSubmatch(href)
		if m == nil {
			return true
		}
		id = m[1]
		url = href
		return false
	})
	return id, url
}

// Count pulls the first integer out of text like "12 watchers" or
// "More than 10 available". Missing or unparsable text yields zero.
func Count(text string) int {
	digits := countPattern.FindString(strings.ReplaceAll(text, ",", ""))
	if digits == "" {
		return 0
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0
	}
	return n
}

var countPattern = regexp.MustCompile(`\d+`)

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
