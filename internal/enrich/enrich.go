// Package enrich visits each listing's detail page after the index scrape
// and fills in item specifics and the long description.
package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/thriftngo/storefront-cli/internal/extract"
	"github.com/thriftngo/storefront-cli/internal/model"
)

// PageFetcher is the slice of the browser session the enricher needs.
type PageFetcher interface {
	Navigate(ctx context.Context, url string) error
	PageHTML(ctx context.Context) (string, error)
}

// Enricher runs the sequential detail-page pass. Requests go one at a
// time through the shared session and are paced by a fixed delay, so the
// loop never competes with itself for the session's single current page.
type Enricher struct {
	fetcher       PageFetcher
	limiter       *rate.Limiter
	itemURLPrefix string
}

// New creates an enricher pacing one detail request per delay.
func New(fetcher PageFetcher, delay time.Duration, itemURLPrefix string) *Enricher {
	if delay <= 0 {
		delay = time.Second
	}
	return &Enricher{
		fetcher:       fetcher,
		limiter:       rate.NewLimiter(rate.Every(delay), 1),
		itemURLPrefix: itemURLPrefix,
	}
}

// Enrich mutates listings in place and returns the same collection in the
// same order. Listings without a usable item id are skipped. A failure on
// one listing is logged and the loop moves on; none of its fields are
// rolled back.
func (e *Enricher) Enrich(ctx context.Context, listings []model.Listing) []model.Listing {
	for i := range listings {
		if !listings[i].Enrichable() {
			continue
		}
		if err := e.limiter.Wait(ctx); err != nil {
			zap.L().Info("enrich: pass canceled", zap.Error(err))
			return listings
		}
		if err := e.enrichOne(ctx, &listings[i]); err != nil {
			zap.L().Warn("enrich: listing failed, continuing",
				zap.String("item_id", listings[i].ItemID),
				zap.Error(err),
			)
		}
	}
	return listings
}

func (e *Enricher) enrichOne(ctx context.Context, l *model.Listing) error {
	url := l.URL
	if url == "" {
		url = e.itemURLPrefix + l.ItemID
	}

	if err := e.fetcher.Navigate(ctx, url); err != nil {
		return err
	}
	html, err := e.fetcher.PageHTML(ctx)
	if err != nil {
		return err
	}

	specifics, description, err := extract.Details(html)
	if err != nil {
		return err
	}
	if len(specifics) > 0 {
		l.ItemSpecifics = specifics
	}
	if description != "" {
		l.Description = description
	}

	zap.L().Debug("enrich: listing enriched",
		zap.String("item_id", l.ItemID),
		zap.Int("specifics", len(specifics)),
	)
	return nil
}
