package model

// Listing represents a single storefront listing as scraped from the
// seller's active-listings page, later enriched from its detail page.
type Listing struct {
	ItemID            string   `json:"item_id"`
	Title             string   `json:"title"`
	Price             string   `json:"price"`
	Shipping          string   `json:"shipping"`
	Condition         string   `json:"condition"`
	Watchers          int      `json:"watchers"`
	Seller            string   `json:"seller"`
	SellerFeedback    string   `json:"seller_feedback"`
	BuyItNow          bool     `json:"buy_it_now"`
	AcceptsOffers     bool     `json:"accepts_offers"`
	Location          string   `json:"location"`
	QuantityAvailable int      `json:"quantity_available"`
	IsNewListing      bool     `json:"is_new_listing"`
	URL               string   `json:"url"`
	Notes             []string `json:"notes,omitempty"`
	ItemSpecifics     []string `json:"item_specifics,omitempty"`
	Description       string   `json:"description,omitempty"`
}

// Enrichable reports whether the listing carries an item id usable as a
// detail-page key.
func (l *Listing) Enrichable() bool {
	return l.ItemID != ""
}

// SellerStats holds the storefront-level figures read from the seller card.
// Each field is overwritten wholesale when its scrape succeeds and is
// otherwise left stale.
type SellerStats struct {
	FeedbackScore string `json:"feedback_score"`
	ItemsSold     int    `json:"items_sold"`
	FollowerCount int    `json:"follower_count"`
}
