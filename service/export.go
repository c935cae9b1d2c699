package service

import (
	"strconv"

	"github.com/addy2510/policymanager/model"
	"github.com/shopspring/decimal"
)

// Cell is one value of an exported table. Number is set for numeric cells;
// a numeric column with no value is written as an empty text cell.
type Cell struct {
	Text   string
	Number *decimal.Decimal
}

func textCell(s string) Cell { return Cell{Text: s} }

func numberCell(d *decimal.Decimal) Cell {
	if d == nil {
		return Cell{}
	}
	v := *d
	return Cell{Text: decimalText(v), Number: &v}
}

// decimalText keeps the stored scale, so 1000.50 stays 1000.50
func decimalText(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

// IsNumber reports whether the cell is written as a number
func (c Cell) IsNumber() bool { return c.Number != nil }

// TableStyle carries the presentation an encoder may honor
type TableStyle struct {
	HeaderFill     string
	HeaderFontSize float64
	// ColumnWidths applies per column; the last width repeats for the rest
	ColumnWidths []float64
}

// Width returns the width of column i
func (s TableStyle) Width(i int) float64 {
	if len(s.ColumnWidths) == 0 {
		return 0
	}
	if i >= len(s.ColumnWidths) {
		return s.ColumnWidths[len(s.ColumnWidths)-1]
	}
	return s.ColumnWidths[i]
}

// Table is the format independent result of an export
type Table struct {
	Sheet  string
	Header []string
	Rows   [][]Cell
	Style  TableStyle
}

const (
	SingleSheetName = "Policy Details"
	ListSheetName   = "Policies"

	singleHeaderFill = "#DDEBF7"
	listHeaderFill   = "#E2EFDA"
)

type exportField struct {
	label string
	cell  func(r *model.PolicyRequest) Cell
}

// exportFields fixes the column order of both table forms
var exportFields = []exportField{
	{"Policy Number", func(r *model.PolicyRequest) Cell { return textCell(optInt(r.PolicyNumber)) }},
	{"Person Name", func(r *model.PolicyRequest) Cell { return textCell(optStr(r.PersonName)) }},
	{"Group Code", func(r *model.PolicyRequest) Cell { return textCell(optStr(r.GroupCode)) }},
	{"FUP", func(r *model.PolicyRequest) Cell { return textCell(optStr(r.FUP)) }},
	{"Maturity Date", func(r *model.PolicyRequest) Cell { return textCell(optDate(r.MaturityDate)) }},
	{"Premium", func(r *model.PolicyRequest) Cell { return numberCell(r.Premium) }},
	{"Term", func(r *model.PolicyRequest) Cell { return textCell(optStr(r.Term)) }},
	{"Date of Birth", func(r *model.PolicyRequest) Cell { return textCell(optDate(r.DOB)) }},
	{"Address", func(r *model.PolicyRequest) Cell { return textCell(optStr(r.Address)) }},
	{"Mode", func(r *model.PolicyRequest) Cell { return textCell(optStr(r.Mode)) }},
	{"Product", func(r *model.PolicyRequest) Cell { return textCell(optStr(r.Product)) }},
	{"Commencement Date", func(r *model.PolicyRequest) Cell { return textCell(optDate(r.CommencementDate)) }},
	{"Sum Assured", func(r *model.PolicyRequest) Cell { return numberCell(r.SumAssured) }},
	{"Group Head", func(r *model.PolicyRequest) Cell { return textCell(optStr(r.GroupHead)) }},
}

// ExportHeaders returns the field names in export order
func ExportHeaders() []string {
	names := make([]string, len(exportFields))
	for i, f := range exportFields {
		names[i] = f.label
	}
	return names
}

// BuildSingleTable lays one policy out as Field/Value rows. Every value is text.
func BuildSingleTable(req *model.PolicyRequest) Table {
	rows := make([][]Cell, 0, len(exportFields))
	for _, f := range exportFields {
		v := f.cell(req)
		rows = append(rows, []Cell{textCell(f.label), textCell(v.Text)})
	}
	return Table{
		Sheet:  SingleSheetName,
		Header: []string{"Field", "Value"},
		Rows:   rows,
		Style: TableStyle{
			HeaderFill:     singleHeaderFill,
			HeaderFontSize: 12,
			ColumnWidths:   []float64{25, 30},
		},
	}
}

// BuildListTable writes one row per request in input order. Premium and sum
// assured stay numeric.
func BuildListTable(reqs []model.PolicyRequest) Table {
	rows := make([][]Cell, 0, len(reqs))
	for i := range reqs {
		row := make([]Cell, len(exportFields))
		for j, f := range exportFields {
			row[j] = f.cell(&reqs[i])
		}
		rows = append(rows, row)
	}
	return Table{
		Sheet:  ListSheetName,
		Header: ExportHeaders(),
		Rows:   rows,
		Style: TableStyle{
			HeaderFill:     listHeaderFill,
			HeaderFontSize: 11,
			ColumnWidths:   []float64{18},
		},
	}
}

func optStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optInt(n *int64) string {
	if n == nil {
		return ""
	}
	return strconv.FormatInt(*n, 10)
}

func optDate(d *model.Date) string {
	if d == nil {
		return ""
	}
	return d.String()
}
