package storage

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/thriftngo/storefront-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool the mirror needs; pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Close()
}

// PostgresMirror mirrors the CSV store into a listings table, upserting on
// item id. It is optional and config-gated; CSV remains the primary store.
type PostgresMirror struct {
	pool Pool
}

const listingsMigration = `
CREATE TABLE IF NOT EXISTS listings (
	item_id            TEXT PRIMARY KEY,
	title              TEXT NOT NULL,
	price              TEXT NOT NULL,
	shipping           TEXT,
	condition          TEXT,
	watchers           INTEGER NOT NULL DEFAULT 0,
	seller             TEXT,
	seller_feedback    TEXT,
	buy_it_now         BOOLEAN NOT NULL DEFAULT FALSE,
	accepts_offers     BOOLEAN NOT NULL DEFAULT FALSE,
	location           TEXT,
	quantity_available INTEGER NOT NULL DEFAULT 0,
	is_new_listing     BOOLEAN NOT NULL DEFAULT FALSE,
	url                TEXT,
	notes              TEXT,
	item_specifics     TEXT,
	description        TEXT,
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const upsertListing = `
INSERT INTO listings (
	item_id, title, price, shipping, condition, watchers, seller,
	seller_feedback, buy_it_now, accepts_offers, location,
	quantity_available, is_new_listing, url, notes, item_specifics,
	description, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, now())
ON CONFLICT (item_id) DO UPDATE SET
	title = EXCLUDED.title,
	price = EXCLUDED.price,
	shipping = EXCLUDED.shipping,
	condition = EXCLUDED.condition,
	watchers = EXCLUDED.watchers,
	seller = EXCLUDED.seller,
	seller_feedback = EXCLUDED.seller_feedback,
	buy_it_now = EXCLUDED.buy_it_now,
	accepts_offers = EXCLUDED.accepts_offers,
	location = EXCLUDED.location,
	quantity_available = EXCLUDED.quantity_available,
	is_new_listing = EXCLUDED.is_new_listing,
	url = EXCLUDED.url,
	notes = EXCLUDED.notes,
	item_specifics = EXCLUDED.item_specifics,
	description = EXCLUDED.description,
	updated_at = now()`

// NewPostgresMirror connects a mirror to the given database URL.
func NewPostgresMirror(ctx context.Context, databaseURL string) (*PostgresMirror, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "storage: connect postgres mirror")
	}
	return &PostgresMirror{pool: pool}, nil
}

// Migrate creates the listings table if needed.
func (m *PostgresMirror) Migrate(ctx context.Context) error {
	if _, err := m.pool.Exec(ctx, listingsMigration); err != nil {
		return eris.Wrap(err, "storage: migrate listings table")
	}
	return nil
}

// Upsert writes every listing with an item id, last write wins.
func (m *PostgresMirror) Upsert(ctx context.Context, listings []model.Listing) error {
	written := 0
	for _, l := range listings {
		if l.ItemID == "" {
			continue
		}
		_, err := m.pool.Exec(ctx, upsertListing,
			l.ItemID, l.Title, l.Price, l.Shipping, l.Condition, l.Watchers,
			l.Seller, l.SellerFeedback, l.BuyItNow, l.AcceptsOffers,
			l.Location, l.QuantityAvailable, l.IsNewListing, l.URL,
			strings.Join(l.Notes, listSeparator), strings.Join(l.ItemSpecifics, listSeparator), l.Description,
		)
		if err != nil {
			return eris.Wrapf(err, "storage: upsert listing %s", l.ItemID)
		}
		written++
	}
	zap.L().Info("storage: postgres mirror updated", zap.Int("listings", written))
	return nil
}

// Close releases the pool.
func (m *PostgresMirror) Close() {
	m.pool.Close()
}
