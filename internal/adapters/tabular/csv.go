package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/motelhub/directory/internal/domain/entities"
)

// legacyRecordSeparator is the two-character sequence older exports used
// between records instead of a real newline
const legacyRecordSeparator = `\n`

// WriteCSV writes a header row followed by one row per venue
func WriteCSV(w io.Writer, venues []entities.Venue) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, v := range venues {
		if err := cw.Write(venueRecord(v)); err != nil {
			return fmt.Errorf("write csv row for venue %d: %w", v.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVTemplate writes the header and a single example row with an empty id
func WriteCSVTemplate(w io.Writer) error {
	return WriteCSV(w, []entities.Venue{TemplateVenue})
}

// ReadCSV parses venues from r. Rows without a name are skipped and counted.
// Files that contain no newline but do contain the literal sequence \n are
// read as legacy exports.
func ReadCSV(r io.Reader) ([]entities.Venue, int, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, fmt.Errorf("read csv: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !bytes.ContainsAny(data, "\r\n") && bytes.Contains(data, []byte(legacyRecordSeparator)) {
		data = bytes.ReplaceAll(data, []byte(legacyRecordSeparator), []byte("\n"))
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("parse csv: %v: %w", err, entities.ErrInvalidImport)
	}
	if len(records) == 0 {
		return nil, 0, fmt.Errorf("csv file is empty: %w", entities.ErrInvalidImport)
	}

	cols, err := mapHeader(records[0])
	if err != nil {
		return nil, 0, err
	}

	venues := make([]entities.Venue, 0, len(records)-1)
	skipped := 0
	for _, record := range records[1:] {
		if cols.empty(record) {
			continue
		}
		if cols.blank(record, fieldName) {
			skipped++
			continue
		}
		venues = append(venues, cols.venueFromRecord(record))
	}
	return venues, skipped, nil
}
