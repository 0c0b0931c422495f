// Package storage persists scraped listings: a merged CSV store keyed by
// item id, an optional Postgres mirror, and an optional XLSX report.
package storage

import (
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/thriftngo/storefront-cli/internal/model"
)

// csvHeader is the fixed column order of the persisted store.
var csvHeader = []string{
	"title", "price", "shipping", "condition", "watchers", "seller",
	"seller_feedback", "buy_it_now", "accepts_offers", "location",
	"quantity_available", "is_new_listing", "item_id", "url", "notes",
	"item_specifics", "description",
}

const listSeparator = ";"

// CSVStore is the accumulating listing store. Re-runs merge into it keyed
// by item id; they never append duplicates.
type CSVStore struct {
	path string
}

// NewCSVStore creates a store at the given path. The file need not exist.
func NewCSVStore(path string) *CSVStore {
	return &CSVStore{path: path}
}

// Path returns the store's file path.
func (s *CSVStore) Path() string { return s.path }

// Merge overlays the scraped listings onto the existing store and rewrites
// the whole file. Existing entries with the same item id are overwritten
// (last write wins); entries absent from this run are preserved. A
// malformed existing store is an error, never silently discarded.
func (s *CSVStore) Merge(listings []model.Listing) error {
	byID := map[string]model.Listing{}

	existing, err := s.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	for _, l := range existing {
		byID[l.ItemID] = l
	}

	for _, l := range listings {
		if l.ItemID == "" {
			zap.L().Warn("storage: skipping listing without item id",
				zap.String("title", l.Title),
			)
			continue
		}
		byID[l.ItemID] = l
	}

	ids := make([]string, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrap(err, "storage: create store dir")
		}
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return eris.Wrap(err, "storage: open store for rewrite")
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return eris.Wrap(err, "storage: write header")
	}
	for _, id := range ids {
		if err := w.Write(toRecord(byID[id])); err != nil {
			return eris.Wrapf(err, "storage: write row %s", id)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "storage: flush store")
	}

	zap.L().Info("storage: store rewritten",
		zap.String("path", s.path),
		zap.Int("merged", len(listings)),
		zap.Int("total", len(ids)),
	)
	return nil
}

// Load reads every row of the store. A missing file yields os.ErrNotExist;
// a malformed file is an error.
func (s *CSVStore) Load() ([]model.Listing, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, eris.Wrap(os.ErrNotExist, "storage: store missing")
		}
		return nil, eris.Wrap(err, "storage: open store")
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, eris.Wrap(err, "storage: read header")
	}
	if !equalHeader(header, csvHeader) {
		return nil, eris.Errorf("storage: unexpected header %v", header)
	}

	var listings []model.Listing
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "storage: read row")
		}
		l, err := fromRecord(record)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, nil
}

func toRecord(l model.Listing) []string {
	return []string{
		l.Title,
		l.Price,
		l.Shipping,
		l.Condition,
		strconv.Itoa(l.Watchers),
		l.Seller,
		l.SellerFeedback,
		strconv.FormatBool(l.BuyItNow),
		strconv.FormatBool(l.AcceptsOffers),
		l.Location,
		strconv.Itoa(l.QuantityAvailable),
		strconv.FormatBool(l.IsNewListing),
		l.ItemID,
		l.URL,
		strings.Join(l.Notes, listSeparator),
		strings.Join(l.ItemSpecifics, listSeparator),
		l.Description,
	}
}

func fromRecord(record []string) (model.Listing, error) {
	if len(record) != len(csvHeader) {
		return model.Listing{}, eris.Errorf("storage: row has %d columns, want %d", len(record), len(csvHeader))
	}

	watchers, err := parseIntField(record[4], "watchers")
	if err != nil {
		return model.Listing{}, err
	}
	quantity, err := parseIntField(record[10], "quantity_available")
	if err != nil {
		return model.Listing{}, err
	}
	buyItNow, err := parseBoolField(record[7], "buy_it_now")
	if err != nil {
		return model.Listing{}, err
	}
	acceptsOffers, err := parseBoolField(record[8], "accepts_offers")
	if err != nil {
		return model.Listing{}, err
	}
	isNew, err := parseBoolField(record[11], "is_new_listing")
	if err != nil {
		return model.Listing{}, err
	}

	return model.Listing{
		Title:             record[0],
		Price:             record[1],
		Shipping:          record[2],
		Condition:         record[3],
		Watchers:          watchers,
		Seller:            record[5],
		SellerFeedback:    record[6],
		BuyItNow:          buyItNow,
		AcceptsOffers:     acceptsOffers,
		Location:          record[9],
		QuantityAvailable: quantity,
		IsNewListing:      isNew,
		ItemID:            record[12],
		URL:               record[13],
		Notes:             splitList(record[14]),
		ItemSpecifics:     splitList(record[15]),
		Description:       record[16],
	}, nil
}

func parseIntField(s, field string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, eris.Wrapf(err, "storage: malformed %s", field)
	}
	return n, nil
}

func parseBoolField(s, field string) (bool, error) {
	if s == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, eris.Wrapf(err, "storage: malformed %s", field)
	}
	return b, nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, listSeparator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func equalHeader(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if strings.TrimSpace(a[i]) != b[i] {
			return false
		}
	}
	return true
}
