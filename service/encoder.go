package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/addy2510/policymanager/model"
	"github.com/addy2510/policymanager/pkg/logger"
	"github.com/xuri/excelize/v2"
)

// Export formats
const (
	FormatXLSX = "xlsx"
	FormatCSV  = "csv"
)

// TableEncoder turns a Table into a finished document
type TableEncoder interface {
	Encode(w io.Writer, t Table) error
	ContentType() string
	Extension() string
}

// EncoderFor picks the encoder for format; an empty format means xlsx.
func EncoderFor(format string) (TableEncoder, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", FormatXLSX:
		return XLSXEncoder{}, nil
	case FormatCSV:
		return CSVEncoder{}, nil
	}
	return nil, ValidationFailed("unsupported export format %q", format)
}

// XLSXEncoder writes a single sheet workbook
type XLSXEncoder struct{}

func (XLSXEncoder) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (XLSXEncoder) Extension() string { return FormatXLSX }

func (XLSXEncoder) Encode(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.Sheet
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: t.Style.HeaderFontSize},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{t.Style.HeaderFill}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	dataStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "left"},
	})
	if err != nil {
		return fmt.Errorf("data style: %w", err)
	}

	for i, h := range t.Header {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(sheet, cell, h); err != nil {
			return err
		}
	}
	if len(t.Header) > 0 {
		last, err := excelize.CoordinatesToCellName(len(t.Header), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return err
		}
	}

	for r, row := range t.Rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if v.IsNumber() {
				err = f.SetCellFloat(sheet, cell, v.Number.InexactFloat64(), -1, 64)
			} else {
				err = f.SetCellStr(sheet, cell, v.Text)
			}
			if err != nil {
				return fmt.Errorf("write %s: %w", cell, err)
			}
			if err := f.SetCellStyle(sheet, cell, cell, dataStyle); err != nil {
				return err
			}
		}
	}

	for i := range t.Header {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if width := t.Style.Width(i); width > 0 {
			if err := f.SetColWidth(sheet, col, col, width); err != nil {
				return err
			}
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// CSVEncoder writes the header and rows as comma separated text. Styling is dropped.
type CSVEncoder struct{}

func (CSVEncoder) ContentType() string { return "text/csv; charset=utf-8" }

func (CSVEncoder) Extension() string { return FormatCSV }

func (CSVEncoder) Encode(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	for _, row := range t.Rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = v.Text
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFile is an encoded export ready to send
type ExportFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// Exporter encodes policies into downloadable tables
type Exporter struct {
	policies *PolicyService
}

func NewExporter(policies *PolicyService) *Exporter {
	return &Exporter{policies: policies}
}

// ExportOne encodes a single policy in the Field/Value layout
func (e *Exporter) ExportOne(ctx context.Context, req *model.PolicyRequest, format string) (*ExportFile, error) {
	name := "policy"
	if req.PolicyNumber != nil {
		name = fmt.Sprintf("policy_%d", *req.PolicyNumber)
	}
	return e.encode(ctx, BuildSingleTable(req), name, format)
}

// ExportMany encodes the requests as one row each, in order
func (e *Exporter) ExportMany(ctx context.Context, reqs []model.PolicyRequest, format string) (*ExportFile, error) {
	return e.encode(ctx, BuildListTable(reqs), "policies", format)
}

// ExportMaturity encodes every policy in the window, not just one page.
func (e *Exporter) ExportMaturity(ctx context.Context, w MaturityWindow, format string) (*ExportFile, error) {
	enc, err := EncoderFor(format)
	if err != nil {
		return nil, err
	}
	policies, err := e.policies.MaturityAll(ctx, w)
	if err != nil {
		return nil, err
	}
	reqs := make([]model.PolicyRequest, len(policies))
	for i, p := range policies {
		reqs[i] = p.Request()
	}
	return e.encodeWith(ctx, enc, BuildListTable(reqs), "maturity_policies")
}

func (e *Exporter) encode(ctx context.Context, t Table, name, format string) (*ExportFile, error) {
	enc, err := EncoderFor(format)
	if err != nil {
		return nil, err
	}
	return e.encodeWith(ctx, enc, t, name)
}

func (e *Exporter) encodeWith(ctx context.Context, enc TableEncoder, t Table, name string) (*ExportFile, error) {
	var buf bytes.Buffer
	if err := enc.Encode(&buf, t); err != nil {
		return nil, fmt.Errorf("encode %s: %w", enc.Extension(), err)
	}
	logger.Debug(ctx, "export encoded", "sheet", t.Sheet, "rows", len(t.Rows), "format", enc.Extension(), "bytes", buf.Len())
	return &ExportFile{
		Name:        name + "." + enc.Extension(),
		ContentType: enc.ContentType(),
		Data:        buf.Bytes(),
	}, nil
}
