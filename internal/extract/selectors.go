package extract

// Selector fallback catalogs for the listing index page. Each catalog is
// ordered by priority; the first selector that yields anything wins. The
// marketplace ships several generations of its listing markup, so every
// logical field carries the locators for each generation we have seen.

// Container catalogs. The first selector matching one or more elements
// selects the whole catalog for the extraction call.
var containerSelectors = []string{
	"div.active-item",
	"li.s-item",
	"div.s-item",
	"div.item-card",
}

var titleSelectors = []string{
	"h3.item-title span",
	".s-item__title span",
	".s-item__title",
	".item-card__title",
}

var priceSelectors = []string{
	".item__price span.bold",
	".s-item__price",
	".item-card__price",
}

var shippingSelectors = []string{
	".item__shipping",
	".s-item__shipping",
	".s-item__logisticsCost",
	".item-card__shipping",
}

var conditionSelectors = []string{
	".item__condition",
	".s-item__subtitle .SECONDARY_INFO",
	".s-item__condition",
	".item-card__condition",
}

var watchersSelectors = []string{
	".me-item-activity__column:nth-child(2) .me-item-activity__column-count",
	".s-item__watchcount",
	".item-card__watchers",
}

var sellerSelectors = []string{
	".item__seller",
	".s-item__seller-info-text",
	".item-card__seller",
}

var sellerFeedbackSelectors = []string{
	".item__seller-feedback",
	".s-item__seller-feedback",
	".item-card__feedback",
}

var locationSelectors = []string{
	".item__location",
	".s-item__location",
	".s-item__itemLocation",
	".item-card__location",
}

var quantitySelectors = []string{
	".item__quantity",
	".s-item__quantity",
	".s-item__quantityAvailable",
	".item-card__quantity",
}

var noteSelectors = []string{
	".item__note",
	".s-item__attribute",
}

// Candidate selectors searched for the boolean marker phrases.
var purchaseOptionSelectors = []string{
	".item__purchase-options",
	".s-item__dynamic",
	".s-item__purchase-options-with-icon",
	".s-item__formatBuyItNow",
	".s-item__formatBestOfferEnabled",
}

var newListingSelectors = []string{
	".item__tag",
	".s-item__title--tagblock",
	".LIGHT_HIGHLIGHT",
}

// Marker phrases, matched case-insensitively as substrings.
const (
	markerBuyItNow   = "buy it now"
	markerBestOffer  = "best offer"
	markerNewListing = "new listing"
)

// specificsCatalog locates one generation of the detail page's
// label/value item-specifics table.
type specificsCatalog struct {
	row   string
	label string
	value string
}

// Detail page catalogs used by the enrichment pass.
var itemSpecificsCatalogs = []specificsCatalog{
	{row: "dl.ux-labels-values", label: ".ux-labels-values__labels", value: ".ux-labels-values__values"},
	{row: ".itemAttr tr", label: "td.attrLabels", value: "td + td"},
	{row: ".item-specifics__row", label: ".item-specifics__label", value: ".item-specifics__value"},
}

var descriptionSelectors = []string{
	".x-item-description-child",
	"#viTabs_0_is",
	"div.item-description",
}
