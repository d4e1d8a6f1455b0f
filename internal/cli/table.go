package cli

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/clearpath/warehouse-flow/internal/reconciliation/dto"
	"github.com/clearpath/warehouse-flow/internal/reconciliation/jarde"
)

const dateLayout = "2006-01-02"

// WriteTable prints one block per company. Cells without a physical count
// show "-".
func WriteTable(w io.Writer, rep *dto.Report) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Reconciliation %s .. %s (match: %s)\n",
		rep.Start.Format(dateLayout), rep.End.Format(dateLayout), rep.Match)
	if len(rep.Companies) == 0 {
		fmt.Fprintln(tw, "No stock movements.")
		return tw.Flush()
	}

	for _, c := range rep.Companies {
		fmt.Fprintf(tw, "\nCompany: %s\n", c.CompanyID)
		fmt.Fprintln(tw, "PRODUCT\tVARIANT\tSTART\tIN\tOUT\tEXPECTED\tACTUAL\tVARIANCE\tPCT\tCLASS")
		for _, r := range c.Rows {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s\t%s\t%s\t%s\n",
				r.ProductName,
				variantCell(r),
				r.Starting,
				r.CheckIns,
				r.CheckOuts,
				r.Expected,
				intCell(r.Actual),
				intCell(r.Variance),
				pctCell(r),
				classCell(r.Classification),
			)
		}
		s := c.Summary
		fmt.Fprintf(tw, "rows=%d counted=%d exact=%d minor=%d significant=%d\n",
			s.Rows, s.Counted, s.Exact, s.Minor, s.Significant)
	}
	return tw.Flush()
}

func variantCell(r jarde.Row) string {
	if r.VariantValue == nil {
		return "-"
	}
	return *r.VariantValue
}

func intCell(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

func pctCell(r jarde.Row) string {
	if r.VariancePct == nil {
		return "-"
	}
	return r.VariancePct.StringFixed(2) + "%"
}

func classCell(c jarde.Classification) string {
	if c == "" {
		return "-"
	}
	return string(c)
}
