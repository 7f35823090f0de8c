// Package export writes stored prospects to spreadsheets.
package export

import (
	"context"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/prospector/internal/model"
)

const (
	customerSheet = "Prioritized Customers"
	eventSheet    = "Potential Events"
)

var customerHeader = []string{
	"ID", "Company Name", "Industry", "Revenue", "Size",
	"Stakeholder Name", "Stakeholder Position", "Stakeholder Email",
	"Stakeholder Phone", "Stakeholder Link", "Reasoning", "Created (UTC)",
}

var eventHeader = []string{"ID", "Name", "URL", "Category", "Root URL", "Created (UTC)"}

// Source lists stored records. store.Store satisfies it.
type Source interface {
	ListEvents(ctx context.Context, rootURL string, limit int) ([]model.StoredEvent, error)
	ListCustomers(ctx context.Context, limit int) ([]model.StoredCustomer, error)
}

// Options selects what goes into the workbook.
type Options struct {
	Limit int
	// Events adds a second sheet with stored events, filtered by RootURL
	// when set.
	Events  bool
	RootURL string
}

// Summary reports what was written.
type Summary struct {
	Path      string `json:"path"`
	Customers int    `json:"customers"`
	Events    int    `json:"events"`
}

// Workbook writes stored customers (newest first) and optionally events to
// an .xlsx file at path.
func Workbook(ctx context.Context, src Source, path string, opts Options) (*Summary, error) {
	customers, err := src.ListCustomers(ctx, opts.Limit)
	if err != nil {
		return nil, eris.Wrap(err, "export: list customers")
	}

	f := xlsx.NewFile()
	if err := addSheet(f, customerSheet, customerHeader, customerRows(customers)); err != nil {
		return nil, err
	}

	sum := &Summary{Path: path, Customers: len(customers)}
	if opts.Events {
		events, err := src.ListEvents(ctx, opts.RootURL, opts.Limit)
		if err != nil {
			return nil, eris.Wrap(err, "export: list events")
		}
		if err := addSheet(f, eventSheet, eventHeader, eventRows(events)); err != nil {
			return nil, err
		}
		sum.Events = len(events)
	}

	if err := f.Save(path); err != nil {
		return nil, eris.Wrapf(err, "export: save %s", path)
	}
	return sum, nil
}

func addSheet(f *xlsx.File, name string, header []string, rows [][]string) error {
	sheet, err := f.AddSheet(name)
	if err != nil {
		return eris.Wrapf(err, "export: add sheet %s", name)
	}
	writeRow(sheet, header)
	for _, r := range rows {
		writeRow(sheet, r)
	}
	return nil
}

func writeRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func customerRows(customers []model.StoredCustomer) [][]string {
	rows := make([][]string, len(customers))
	for i, c := range customers {
		rows[i] = []string{
			strconv.FormatInt(c.ID, 10),
			c.CompanyName,
			c.Industry,
			c.Revenue,
			c.Size,
			c.StakeholderName,
			c.StakeholderPosition,
			c.StakeholderEmail,
			c.StakeholderPhone,
			c.StakeholderLink,
			c.Reasoning,
			c.CreateTime.UTC().Format("2006-01-02 15:04:05"),
		}
	}
	return rows
}

func eventRows(events []model.StoredEvent) [][]string {
	rows := make([][]string, len(events))
	for i, e := range events {
		rows[i] = []string{
			strconv.FormatInt(e.ID, 10),
			e.Name,
			e.URL,
			e.Category,
			e.RootURL,
			e.CreateTime.UTC().Format("2006-01-02 15:04:05"),
		}
	}
	return rows
}
