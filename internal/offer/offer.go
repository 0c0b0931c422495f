// Package offer implements the discount offer sweep over the seller's
// pending-offer queue.
package offer

import (
	"context"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/thriftngo/storefront-cli/internal/browser"
)

// Queue page locators.
const (
	selOfferButton = ".transactions-line-actions button.me-fake-button.btn--primary"
	selOfferInput  = "#app-sio__offer-section__price"
	selOfferAction = ".sio-button-PRIMARY"
)

// itemPriceScript reads the listing price belonging to the first pending
// offer button, from inside its offer-row container.
const itemPriceScript = `(() => {
	const btn = document.querySelector('` + selOfferButton + `');
	if (!btn) return '';
	const row = btn.closest('.pre-order-item');
	if (!row) return '';
	const price = row.querySelector('.item-price .bold');
	return price ? price.textContent : '';
})()`

// clearOfferInputScript empties the offer amount field before typing.
const clearOfferInputScript = `(() => {
	const input = document.querySelector('` + selOfferInput + `');
	if (input) input.value = '';
})()`

// Session is the slice of the browser session the sweep needs.
type Session interface {
	Navigate(ctx context.Context, url string) error
	Click(ctx context.Context, sel string) error
	SendKeys(ctx context.Context, sel, text string) error
	Evaluate(ctx context.Context, script string, res any) error
	ScrollTo(ctx context.Context, sel string) error
}

// Sweeper walks the pending-offer queue and submits discounted offers
// until no offer button remains.
type Sweeper struct {
	session     Session
	overviewURL string
	settle      time.Duration
}

// NewSweeper creates a sweeper against the given overview page.
func NewSweeper(session Session, overviewURL string) *Sweeper {
	return &Sweeper{session: session, overviewURL: overviewURL, settle: 2 * time.Second}
}

// Sweep submits one offer per pending listing at the given percentage off
// and returns how many were sent. Each iteration reloads the overview so
// the queue shrinks as offers go out.
func (s *Sweeper) Sweep(ctx context.Context, percent int) (int, error) {
	if percent <= 0 || percent >= 100 {
		return 0, eris.Errorf("offer: percentage out of range: %d", percent)
	}

	sent := 0
	for {
		if err := s.session.Navigate(ctx, s.overviewURL); err != nil {
			return sent, eris.Wrap(err, "offer: reload overview")
		}
		if err := s.pause(ctx); err != nil {
			return sent, err
		}

		var priceText string
		if err := s.session.Evaluate(ctx, itemPriceScript, &priceText); err != nil {
			return sent, eris.Wrap(err, "offer: read item price")
		}
		if strings.TrimSpace(priceText) == "" {
			// Queue drained.
			zap.L().Info("offer: no more offer buttons", zap.Int("sent", sent))
			return sent, nil
		}

		offerPrice, err := DiscountedPrice(priceText, percent)
		if err != nil {
			zap.L().Warn("offer: unparsable price, skipping sweep",
				zap.String("price", priceText),
				zap.Error(err),
			)
			return sent, eris.Wrap(err, "offer: parse price")
		}

		if err := s.session.Click(ctx, selOfferButton); err != nil {
			if errors.Is(err, browser.ErrElementNotFound) {
				return sent, nil
			}
			return sent, eris.Wrap(err, "offer: open offer form")
		}
		if err := s.pause(ctx); err != nil {
			return sent, err
		}

		if err := s.session.Evaluate(ctx, clearOfferInputScript, nil); err != nil {
			return sent, eris.Wrap(err, "offer: clear amount field")
		}
		if err := s.session.SendKeys(ctx, selOfferInput, strconv.FormatFloat(offerPrice, 'f', 2, 64)); err != nil {
			return sent, eris.Wrap(err, "offer: enter amount")
		}

		// Review, then submit; same primary button selector on both steps.
		if err := s.session.ScrollTo(ctx, selOfferAction); err != nil && !errors.Is(err, browser.ErrElementNotFound) {
			return sent, eris.Wrap(err, "offer: scroll to review")
		}
		if err := s.session.Click(ctx, selOfferAction); err != nil {
			return sent, eris.Wrap(err, "offer: click review")
		}
		if err := s.pause(ctx); err != nil {
			return sent, err
		}
		if err := s.session.Click(ctx, selOfferAction); err != nil {
			return sent, eris.Wrap(err, "offer: click submit")
		}

		sent++
		zap.L().Info("offer: offer sent",
			zap.String("original_price", strings.TrimSpace(priceText)),
			zap.Float64("offer_price", offerPrice),
		)

		if err := s.pause(ctx); err != nil {
			return sent, err
		}
	}
}

// DiscountedPrice parses a displayed price like "$129.99" or "$1,249.00 ea"
// and applies the percentage discount, rounded to cents.
func DiscountedPrice(priceText string, percent int) (float64, error) {
	cleaned := strings.Fields(strings.TrimSpace(priceText))
	if len(cleaned) == 0 {
		return 0, eris.Errorf("offer: empty price text")
	}
	raw := strings.ReplaceAll(strings.TrimPrefix(cleaned[0], "$"), ",", "")

	price, err := strconv.ParseFloat(raw, 64)
	if err != nil || price <= 0 {
		return 0, eris.Errorf("offer: invalid price format: %q", priceText)
	}

	discounted := price * (1 - float64(percent)/100)
	return math.Round(discounted*100) / 100, nil
}

func (s *Sweeper) pause(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.settle):
		return nil
	}
}
