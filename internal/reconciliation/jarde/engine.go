// Package jarde replays approved ledger events into expected quantities and
// compares them with physical counts.
package jarde

import (
	"sort"

	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/shopspring/decimal"
)

type MatchMode string

const (
	// MatchByName keys rows by exact product name and variant value.
	MatchByName MatchMode = "name"
	// MatchByProductID keys rows by product id. Lines without an id take the
	// id their name first appeared with, or stay keyed by name.
	MatchByProductID MatchMode = "id"
)

const DefaultMinorThreshold = 5

type Options struct {
	Match MatchMode
	// MinorThreshold is the smallest absolute variance classified as
	// significant. Zero means DefaultMinorThreshold.
	MinorThreshold int
}

func (o Options) threshold() int {
	if o.MinorThreshold <= 0 {
		return DefaultMinorThreshold
	}
	return o.MinorThreshold
}

type Classification string

const (
	ClassExact       Classification = "exact"
	ClassMinor       Classification = "minor"
	ClassSignificant Classification = "significant"
)

type Row struct {
	ProductID    *string `json:"product_id,omitempty"`
	ProductName  string  `json:"product_name"`
	VariantValue *string `json:"variant_value,omitempty"`
	Starting     int     `json:"starting_quantity"`
	CheckIns     int     `json:"check_ins"`
	CheckOuts    int     `json:"check_outs"`
	Expected     int     `json:"expected_quantity"`

	Actual         *int             `json:"actual_quantity,omitempty"`
	Variance       *int             `json:"variance,omitempty"`
	VariancePct    *decimal.Decimal `json:"variance_pct,omitempty"`
	Classification Classification   `json:"classification,omitempty"`
}

type Summary struct {
	Rows        int `json:"rows"`
	Counted     int `json:"counted"`
	Exact       int `json:"exact"`
	Minor       int `json:"minor"`
	Significant int `json:"significant"`
}

type CompanyReport struct {
	CompanyID string  `json:"company_id"`
	Rows      []Row   `json:"rows"`
	Summary   Summary `json:"summary"`
}

type rowKey struct {
	product string
	byID    bool
	variant string
	base    bool
}

type companyRows struct {
	rows  map[rowKey]*Row
	names map[string]string // product name -> first id seen
}

// Compute replays events into one report per company, sorted by company id.
// Events reviewed after w.End are ignored. Rows without any activity or
// balance are dropped. Compute does not modify events.
func Compute(events []model.LedgerEvent, w Window, opts Options) []CompanyReport {
	ordered := make([]model.LedgerEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := ordered[i], ordered[j]
		if !a.ReviewedAt.Equal(b.ReviewedAt) {
			return a.ReviewedAt.Before(b.ReviewedAt)
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.ID < b.ID
	})

	companies := map[string]*companyRows{}
	for _, e := range ordered {
		if e.ReviewedAt.After(w.End) {
			continue
		}
		c, ok := companies[e.CompanyID]
		if !ok {
			c = &companyRows{rows: map[rowKey]*Row{}, names: map[string]string{}}
			companies[e.CompanyID] = c
		}

		inWindow := w.contains(e.ReviewedAt)
		for _, line := range e.Lines {
			row := c.row(line, opts.Match)
			switch {
			case !inWindow && e.Kind == model.EventCheckIn:
				row.Starting += line.Quantity
			case !inWindow:
				row.Starting -= line.Quantity
			case e.Kind == model.EventCheckIn:
				row.CheckIns += line.Quantity
			default:
				row.CheckOuts += line.Quantity
			}
		}
	}

	ids := make([]string, 0, len(companies))
	for id := range companies {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	reports := make([]CompanyReport, 0, len(ids))
	for _, id := range ids {
		rows := make([]Row, 0, len(companies[id].rows))
		for _, r := range companies[id].rows {
			r.Expected = r.Starting + r.CheckIns - r.CheckOuts
			if r.Starting == 0 && r.CheckIns == 0 && r.CheckOuts == 0 && r.Expected == 0 {
				continue
			}
			rows = append(rows, *r)
		}
		if len(rows) == 0 {
			continue
		}
		sortRows(rows)
		reports = append(reports, CompanyReport{
			CompanyID: id,
			Rows:      rows,
			Summary:   summarize(rows),
		})
	}
	return reports
}

func (c *companyRows) row(line model.LedgerLine, mode MatchMode) *Row {
	key := rowKey{product: line.ProductName, base: line.VariantValue == nil}
	if line.VariantValue != nil {
		key.variant = *line.VariantValue
	}

	var productID *string
	if mode == MatchByProductID {
		id := ""
		if line.ProductID != nil {
			id = *line.ProductID
			if _, seen := c.names[line.ProductName]; !seen {
				c.names[line.ProductName] = id
			}
		} else {
			id = c.names[line.ProductName]
		}
		if id != "" {
			key.product, key.byID = id, true
			productID = &id
		}
	}

	r, ok := c.rows[key]
	if !ok {
		r = &Row{ProductID: productID, ProductName: line.ProductName, VariantValue: clonePtr(line.VariantValue)}
		c.rows[key] = r
	}
	// Keyed by id, the row shows the latest name the product was recorded
	// under.
	if key.byID && line.ProductID != nil {
		r.ProductName = line.ProductName
	}
	return r
}

func sortRows(rows []Row) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.ProductName != b.ProductName {
			return a.ProductName < b.ProductName
		}
		if (a.VariantValue == nil) != (b.VariantValue == nil) {
			return a.VariantValue == nil
		}
		if a.VariantValue != nil && *a.VariantValue != *b.VariantValue {
			return *a.VariantValue < *b.VariantValue
		}
		return deref(a.ProductID) < deref(b.ProductID)
	})
}

func summarize(rows []Row) Summary {
	s := Summary{Rows: len(rows)}
	for _, r := range rows {
		if r.Actual == nil {
			continue
		}
		s.Counted++
		switch r.Classification {
		case ClassExact:
			s.Exact++
		case ClassMinor:
			s.Minor++
		case ClassSignificant:
			s.Significant++
		}
	}
	return s
}

func clonePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
