package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/clearpath/warehouse-flow/internal/reconciliation/jarde"
	"gopkg.in/yaml.v3"
)

// countSheet is the physical count file:
//
//	counts:
//	  - company: acme
//	    product: Widget
//	    variant: Large
//	    actual: 5
type countSheet struct {
	Counts []jarde.ActualCount `yaml:"counts"`
}

// ReadCounts parses a count sheet. An empty document yields no counts.
func ReadCounts(r io.Reader) ([]jarde.ActualCount, error) {
	var sheet countSheet
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&sheet); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read counts: %w", err)
	}

	for i, c := range sheet.Counts {
		if strings.TrimSpace(c.CompanyID) == "" {
			return nil, fmt.Errorf("counts[%d]: company is required", i)
		}
		if c.ProductName == "" && c.ProductID == nil {
			return nil, fmt.Errorf("counts[%d]: product or product_id is required", i)
		}
		if c.Actual < 0 {
			return nil, fmt.Errorf("counts[%d]: actual must not be negative", i)
		}
	}
	return sheet.Counts, nil
}
