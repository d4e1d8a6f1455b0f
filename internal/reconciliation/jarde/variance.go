package jarde

import "github.com/shopspring/decimal"

// ActualCount is a physical count for one row. ProductID, when set, is
// compared with rows keyed by id; otherwise the product name is used.
type ActualCount struct {
	CompanyID    string  `json:"company_id" yaml:"company"`
	ProductID    *string `json:"product_id,omitempty" yaml:"product_id,omitempty"`
	ProductName  string  `json:"product_name" yaml:"product"`
	VariantValue *string `json:"variant_value,omitempty" yaml:"variant,omitempty"`
	Actual       int     `json:"actual" yaml:"actual"`
}

// ApplyActuals returns a copy of reports with counts filled in. Rows without
// a count keep a nil variance. Counts matching no row are ignored.
func ApplyActuals(reports []CompanyReport, actuals []ActualCount, opts Options) []CompanyReport {
	out := make([]CompanyReport, len(reports))
	for i, rep := range reports {
		rows := make([]Row, len(rep.Rows))
		copy(rows, rep.Rows)

		for j := range rows {
			row := &rows[j]
			row.Actual, row.Variance, row.VariancePct, row.Classification = nil, nil, nil, ""

			count, ok := findCount(rep.CompanyID, row, actuals)
			if !ok {
				continue
			}
			actual := count.Actual
			variance := actual - row.Expected
			row.Actual = &actual
			row.Variance = &variance
			row.Classification = Classify(variance, opts.threshold())
			if row.Expected != 0 {
				pct := decimal.NewFromInt(int64(variance)).
					Div(decimal.NewFromInt(int64(row.Expected))).
					Mul(decimal.NewFromInt(100)).
					Round(2)
				row.VariancePct = &pct
			}
		}

		out[i] = CompanyReport{CompanyID: rep.CompanyID, Rows: rows, Summary: summarize(rows)}
	}
	return out
}

// Classify grades a variance: zero is exact, below threshold in absolute
// value is minor, anything else significant.
func Classify(variance, threshold int) Classification {
	abs := variance
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs == 0:
		return ClassExact
	case abs < threshold:
		return ClassMinor
	default:
		return ClassSignificant
	}
}

func findCount(companyID string, row *Row, actuals []ActualCount) (ActualCount, bool) {
	for _, a := range actuals {
		if a.CompanyID != companyID {
			continue
		}
		if a.ProductID != nil && row.ProductID != nil {
			if *a.ProductID != *row.ProductID {
				continue
			}
		} else if a.ProductName != row.ProductName {
			continue
		}
		if deref(a.VariantValue) != deref(row.VariantValue) {
			continue
		}
		return a, true
	}
	return ActualCount{}, false
}
