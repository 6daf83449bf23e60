package inventory

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseRestockRows(t *testing.T) {
	tests := []struct {
		name         string
		rows         [][]string
		wantParsed   int
		wantProblems int
		check        func(t *testing.T, parsed []ParsedRestockRow)
	}{
		{
			name: "header row skipped",
			rows: [][]string{
				{"SKU", "Quantity", "Unit Cost"},
				{"tshirt-red", "10", "99.50"},
			},
			wantParsed: 1,
			check: func(t *testing.T, parsed []ParsedRestockRow) {
				if parsed[0].SKU != "TSHIRT-RED" {
					t.Errorf("sku = %q, want normalized TSHIRT-RED", parsed[0].SKU)
				}
				if parsed[0].Quantity != 10 {
					t.Errorf("quantity = %d, want 10", parsed[0].Quantity)
				}
				if !parsed[0].UnitCost.Equal(decimal.NewFromFloat(99.5)) {
					t.Errorf("unit cost = %s, want 99.5", parsed[0].UnitCost)
				}
			},
		},
		{
			name: "no header row",
			rows: [][]string{
				{"SHOE-42", "3"},
			},
			wantParsed: 1,
		},
		{
			name: "blank and short rows reported",
			rows: [][]string{
				{"SKU", "Qty"},
				{""},
				{"SHOE-42"},
				{"SHOE-43", "2"},
			},
			wantParsed:   1,
			wantProblems: 1,
		},
		{
			name: "bad quantity and bad cost reported",
			rows: [][]string{
				{"SHOE-42", "abc"},
				{"SHOE-43", "-5"},
				{"SHOE-44", "2", "not-a-price"},
				{"SHOE-45", "2", "5.00"},
			},
			wantParsed:   1,
			wantProblems: 3,
		},
		{
			name:       "empty sheet",
			rows:       [][]string{},
			wantParsed: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, problems := ParseRestockRows(tt.rows)
			if len(parsed) != tt.wantParsed {
				t.Errorf("parsed rows = %d, want %d", len(parsed), tt.wantParsed)
			}
			if len(problems) != tt.wantProblems {
				t.Errorf("problems = %d (%v), want %d", len(problems), problems, tt.wantProblems)
			}
			if tt.check != nil && len(parsed) == tt.wantParsed && tt.wantParsed > 0 {
				tt.check(t, parsed)
			}
		})
	}
}
