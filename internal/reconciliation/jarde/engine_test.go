package jarde

import (
	"testing"
	"time"

	"github.com/clearpath/warehouse-flow/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(s string) *string { return &s }

func at(day string, hour int) time.Time {
	d, err := time.Parse(DateLayout, day)
	if err != nil {
		panic(err)
	}
	return d.Add(time.Duration(hour) * time.Hour)
}

func checkIn(id, company string, reviewed time.Time, lines ...model.LedgerLine) model.LedgerEvent {
	return model.LedgerEvent{ID: id, Kind: model.EventCheckIn, CompanyID: company, ReviewedAt: reviewed, Lines: lines}
}

func checkOut(id, company string, reviewed time.Time, lines ...model.LedgerLine) model.LedgerEvent {
	return model.LedgerEvent{ID: id, Kind: model.EventCheckOut, CompanyID: company, ReviewedAt: reviewed, Lines: lines}
}

func line(name string, variant *string, qty int) model.LedgerLine {
	return model.LedgerLine{ProductName: name, VariantValue: variant, Quantity: qty}
}

func mustWindow(t *testing.T, start, end string) Window {
	t.Helper()
	w, err := NewWindow(start, end, time.UTC)
	require.NoError(t, err)
	return w
}

func widgetEvents() []model.LedgerEvent {
	return []model.LedgerEvent{
		checkIn("ci-1", "acme", at("2024-01-01", 9),
			line("Widget", ptr("Large"), 10),
			line("Widget", ptr("Small"), 5),
		),
		checkOut("co-1", "acme", at("2024-01-10", 14),
			line("Widget", ptr("Large"), 3),
		),
	}
}

func TestCompute_WidgetScenario(t *testing.T) {
	reports := Compute(widgetEvents(), mustWindow(t, "2024-01-05", "2024-01-15"), Options{})

	require.Len(t, reports, 1)
	assert.Equal(t, "acme", reports[0].CompanyID)
	require.Len(t, reports[0].Rows, 2)

	large, small := reports[0].Rows[0], reports[0].Rows[1]
	assert.Equal(t, "Large", *large.VariantValue)
	assert.Equal(t, 10, large.Starting)
	assert.Equal(t, 0, large.CheckIns)
	assert.Equal(t, 3, large.CheckOuts)
	assert.Equal(t, 7, large.Expected)

	assert.Equal(t, "Small", *small.VariantValue)
	assert.Equal(t, 5, small.Starting)
	assert.Equal(t, 0, small.CheckOuts)
	assert.Equal(t, 5, small.Expected)
}

func TestCompute_Idempotent(t *testing.T) {
	events := widgetEvents()
	w := mustWindow(t, "2024-01-05", "2024-01-15")

	first := Compute(events, w, Options{})
	second := Compute(events, w, Options{})
	assert.Equal(t, first, second)
	assert.Equal(t, widgetEvents(), events)
}

func TestCompute_BoundaryDates(t *testing.T) {
	w := mustWindow(t, "2024-01-05", "2024-01-15")
	events := []model.LedgerEvent{
		// Exactly at the start instant: part of the starting balance.
		checkIn("a", "acme", w.Start, line("Bolt", nil, 4)),
		// First instant after start: inside the window.
		checkIn("b", "acme", w.Start.Add(time.Nanosecond), line("Bolt", nil, 6)),
		// Last instant of the end date: inside.
		checkOut("c", "acme", w.End, line("Bolt", nil, 2)),
		// Next day: ignored.
		checkOut("d", "acme", w.End.Add(time.Nanosecond), line("Bolt", nil, 100)),
	}

	reports := Compute(events, w, Options{})
	require.Len(t, reports, 1)
	require.Len(t, reports[0].Rows, 1)

	row := reports[0].Rows[0]
	assert.Nil(t, row.VariantValue)
	assert.Equal(t, 4, row.Starting)
	assert.Equal(t, 6, row.CheckIns)
	assert.Equal(t, 2, row.CheckOuts)
	assert.Equal(t, 8, row.Expected)
}

func TestCompute_Additivity(t *testing.T) {
	events := []model.LedgerEvent{
		checkIn("1", "acme", at("2024-02-01", 8), line("Crate", nil, 20), line("Crate", ptr("Blue"), 7)),
		checkOut("2", "acme", at("2024-02-03", 8), line("Crate", nil, 5)),
		checkIn("3", "acme", at("2024-02-10", 8), line("Crate", nil, 3), line("Crate", ptr("Blue"), 1)),
		checkOut("4", "acme", at("2024-02-12", 8), line("Crate", ptr("Blue"), 9)),
		checkOut("5", "acme", at("2024-02-20", 0), line("Crate", nil, 1)),
	}

	for _, tc := range []struct{ start, end string }{
		{"2024-01-01", "2024-01-31"},
		{"2024-02-01", "2024-02-01"},
		{"2024-02-03", "2024-02-12"},
		{"2024-02-05", "2024-03-01"},
	} {
		t.Run(tc.start+"_"+tc.end, func(t *testing.T) {
			for _, rep := range Compute(events, mustWindow(t, tc.start, tc.end), Options{}) {
				for _, r := range rep.Rows {
					assert.Equal(t, r.Starting+r.CheckIns-r.CheckOuts, r.Expected)
				}
			}
		})
	}
}

func TestCompute_DropsInactiveRowsAndSorts(t *testing.T) {
	events := []model.LedgerEvent{
		checkIn("1", "zeta", at("2024-03-01", 8), line("Anchor", nil, 2)),
		checkIn("2", "acme", at("2024-03-01", 8),
			line("Widget", ptr("Small"), 1),
			line("Widget", nil, 4),
			line("Anchor", ptr("Large"), 2),
		),
		// Balances to zero before the window: no row.
		checkIn("3", "acme", at("2024-02-01", 8), line("Gone", nil, 3)),
		checkOut("4", "acme", at("2024-02-02", 8), line("Gone", nil, 3)),
	}

	reports := Compute(events, mustWindow(t, "2024-02-15", "2024-03-15"), Options{})
	require.Len(t, reports, 2)
	assert.Equal(t, "acme", reports[0].CompanyID)
	assert.Equal(t, "zeta", reports[1].CompanyID)

	var got []string
	for _, r := range reports[0].Rows {
		v := "base"
		if r.VariantValue != nil {
			v = *r.VariantValue
		}
		got = append(got, r.ProductName+"/"+v)
	}
	assert.Equal(t, []string{"Anchor/Large", "Widget/base", "Widget/Small"}, got)
	assert.Equal(t, 3, reports[0].Summary.Rows)
}

func TestCompute_NameMatchingIsExact(t *testing.T) {
	events := []model.LedgerEvent{
		checkIn("1", "acme", at("2024-01-01", 8), line("Widget", ptr("Large"), 10)),
		checkOut("2", "acme", at("2024-01-02", 8), line("widget", ptr("Large"), 3)),
	}

	reports := Compute(events, mustWindow(t, "2024-01-01", "2024-01-31"), Options{})
	require.Len(t, reports, 1)
	require.Len(t, reports[0].Rows, 2)
	assert.Equal(t, "Widget", reports[0].Rows[0].ProductName)
	assert.Equal(t, 10, reports[0].Rows[0].Expected)
	assert.Equal(t, "widget", reports[0].Rows[1].ProductName)
	assert.Equal(t, -3, reports[0].Rows[1].Expected)
}

func TestCompute_MatchByProductID(t *testing.T) {
	withID := func(id, name string, variant *string, qty int) model.LedgerLine {
		l := line(name, variant, qty)
		l.ProductID = ptr(id)
		return l
	}
	events := []model.LedgerEvent{
		checkIn("1", "acme", at("2024-01-01", 8), withID("p1", "Widget", ptr("Large"), 10)),
		// Legacy line without an id, recorded under the original name.
		checkOut("2", "acme", at("2024-01-03", 8), line("Widget", ptr("Large"), 2)),
		// After a rename.
		checkOut("3", "acme", at("2024-01-06", 8), withID("p1", "Widget Pro", ptr("Large"), 3)),
	}
	w := mustWindow(t, "2024-01-05", "2024-01-31")

	t.Run("by id", func(t *testing.T) {
		reports := Compute(events, w, Options{Match: MatchByProductID})
		require.Len(t, reports, 1)
		require.Len(t, reports[0].Rows, 1)

		row := reports[0].Rows[0]
		require.NotNil(t, row.ProductID)
		assert.Equal(t, "p1", *row.ProductID)
		assert.Equal(t, "Widget Pro", row.ProductName)
		assert.Equal(t, 8, row.Starting)
		assert.Equal(t, 3, row.CheckOuts)
		assert.Equal(t, 5, row.Expected)
	})

	t.Run("by name", func(t *testing.T) {
		reports := Compute(events, w, Options{Match: MatchByName})
		require.Len(t, reports, 1)
		require.Len(t, reports[0].Rows, 2)

		assert.Equal(t, "Widget", reports[0].Rows[0].ProductName)
		assert.Equal(t, 8, reports[0].Rows[0].Expected)
		assert.Equal(t, "Widget Pro", reports[0].Rows[1].ProductName)
		assert.Equal(t, -3, reports[0].Rows[1].Expected)
	})
}

func TestClassify(t *testing.T) {
	tests := []struct {
		variance int
		want     Classification
	}{
		{0, ClassExact},
		{1, ClassMinor},
		{-4, ClassMinor},
		{4, ClassMinor},
		{5, ClassSignificant},
		{-5, ClassSignificant},
		{120, ClassSignificant},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.variance, DefaultMinorThreshold), "variance %d", tt.variance)
	}
}

func TestApplyActuals(t *testing.T) {
	reports := Compute(widgetEvents(), mustWindow(t, "2024-01-05", "2024-01-15"), Options{})

	counted := ApplyActuals(reports, []ActualCount{
		{CompanyID: "acme", ProductName: "Widget", VariantValue: ptr("Large"), Actual: 6},
		{CompanyID: "other", ProductName: "Widget", VariantValue: ptr("Small"), Actual: 1},
	}, Options{})

	require.Len(t, counted, 1)
	large, small := counted[0].Rows[0], counted[0].Rows[1]

	require.NotNil(t, large.Variance)
	assert.Equal(t, 6, *large.Actual)
	assert.Equal(t, -1, *large.Variance)
	assert.Equal(t, ClassMinor, large.Classification)
	require.NotNil(t, large.VariancePct)
	assert.Equal(t, "-14.29", large.VariancePct.StringFixed(2))

	assert.Nil(t, small.Actual)
	assert.Nil(t, small.Variance)
	assert.Empty(t, small.Classification)

	assert.Equal(t, Summary{Rows: 2, Counted: 1, Minor: 1}, counted[0].Summary)
	// The input report is left alone.
	assert.Nil(t, reports[0].Rows[0].Actual)
}

func TestApplyActuals_ZeroExpected(t *testing.T) {
	events := []model.LedgerEvent{
		checkIn("1", "acme", at("2024-01-06", 8), line("Bolt", nil, 5)),
		checkOut("2", "acme", at("2024-01-07", 8), line("Bolt", nil, 5)),
	}
	reports := Compute(events, mustWindow(t, "2024-01-05", "2024-01-15"), Options{})
	counted := ApplyActuals(reports, []ActualCount{{CompanyID: "acme", ProductName: "Bolt", Actual: 9}}, Options{})

	row := counted[0].Rows[0]
	assert.Equal(t, 0, row.Expected)
	assert.Equal(t, 9, *row.Variance)
	assert.Nil(t, row.VariancePct)
	assert.Equal(t, ClassSignificant, row.Classification)
}

func TestNewWindow(t *testing.T) {
	loc := time.FixedZone("WIB", 7*60*60)
	w, err := NewWindow("2024-01-05", "2024-01-05", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, loc), w.Start)
	assert.Equal(t, time.Date(2024, 1, 5, 23, 59, 59, 999999999, loc), w.End)

	_, err = NewWindow("2024-01-06", "2024-01-05", loc)
	assert.True(t, model.IsValidation(err))

	_, err = NewWindow("01/05/2024", "2024-01-05", loc)
	assert.True(t, model.IsValidation(err))
}
