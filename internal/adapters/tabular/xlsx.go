package tabular

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/motelhub/directory/internal/domain/entities"
)

const (
	// ExportSheet names the sheet written by WriteXLSX
	ExportSheet = "Venues"
	// TemplateSheet names the sheet written by WriteXLSXTemplate
	TemplateSheet = "Template"
)

// WriteXLSX writes a workbook with one sheet listing every venue and its room count
func WriteXLSX(w io.Writer, venues []entities.Venue) error {
	header := append(append([]string{}, Headers...), RoomsHeader)
	rows := make([][]interface{}, 0, len(venues))
	for _, v := range venues {
		row := make([]interface{}, 0, len(header))
		if v.ID != 0 {
			row = append(row, v.ID)
		} else {
			row = append(row, "")
		}
		for _, s := range venueRecord(v)[1:] {
			row = append(row, s)
		}
		row = append(row, len(v.Rooms))
		rows = append(rows, row)
	}
	return writeWorkbook(w, ExportSheet, header, rows)
}

// WriteXLSXTemplate writes the import template: the header without the id
// and room columns and one example row
func WriteXLSXTemplate(w io.Writer) error {
	header := Headers[1:]
	row := make([]interface{}, 0, len(header))
	for _, s := range venueRecord(TemplateVenue)[1:] {
		row = append(row, s)
	}
	return writeWorkbook(w, TemplateSheet, header, [][]interface{}{row})
}

func writeWorkbook(w io.Writer, sheet string, header []string, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}

	for col, h := range header {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("write header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, bold); err != nil {
			return fmt.Errorf("style header %s: %w", cell, err)
		}
	}

	for r, row := range rows {
		for col, value := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("write cell %s: %w", cell, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// ReadXLSX parses venues from the first sheet of a workbook. A data row
// without a name rejects the whole import.
func ReadXLSX(r io.Reader) ([]entities.Venue, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %v: %w", err, entities.ErrInvalidImport)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets: %w", entities.ErrInvalidImport)
	}

	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %v: %w", sheets[0], err, entities.ErrInvalidImport)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty: %w", sheets[0], entities.ErrInvalidImport)
	}

	cols, err := mapHeader(rows[0])
	if err != nil {
		return nil, err
	}

	venues := make([]entities.Venue, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if cols.empty(row) {
			continue
		}
		if cols.blank(row, fieldName) {
			return nil, fmt.Errorf("row %d has no name: %w", i+2, entities.ErrInvalidImport)
		}
		venues = append(venues, cols.venueFromRecord(row))
	}
	return venues, nil
}
