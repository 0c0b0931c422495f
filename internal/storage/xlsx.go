package storage

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/thriftngo/storefront-cli/internal/model"
)

// WriteXLSX writes a one-sheet listing report with the same columns as the
// CSV store. Unlike the CSV store it is a plain export, not a merge target.
func WriteXLSX(path string, listings []model.Listing) error {
	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("Listings")
	if err != nil {
		return eris.Wrap(err, "storage: add xlsx sheet")
	}

	header := sheet.AddRow()
	for _, col := range csvHeader {
		header.AddCell().SetString(col)
	}

	for _, l := range listings {
		row := sheet.AddRow()
		row.AddCell().SetString(l.Title)
		row.AddCell().SetString(l.Price)
		row.AddCell().SetString(l.Shipping)
		row.AddCell().SetString(l.Condition)
		row.AddCell().SetString(strconv.Itoa(l.Watchers))
		row.AddCell().SetString(l.Seller)
		row.AddCell().SetString(l.SellerFeedback)
		row.AddCell().SetString(strconv.FormatBool(l.BuyItNow))
		row.AddCell().SetString(strconv.FormatBool(l.AcceptsOffers))
		row.AddCell().SetString(l.Location)
		row.AddCell().SetString(strconv.Itoa(l.QuantityAvailable))
		row.AddCell().SetString(strconv.FormatBool(l.IsNewListing))
		row.AddCell().SetString(l.ItemID)
		row.AddCell().SetString(l.URL)
		row.AddCell().SetString(strings.Join(l.Notes, listSeparator))
		row.AddCell().SetString(strings.Join(l.ItemSpecifics, listSeparator))
		row.AddCell().SetString(l.Description)
	}

	if err := wb.Save(path); err != nil {
		return eris.Wrapf(err, "storage: save xlsx %s", path)
	}
	return nil
}
