// Package tabular converts venue lists to and from CSV and XLSX sheets.
// Rooms are never part of the tabular form.
package tabular

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/motelhub/directory/internal/domain/entities"
)

type field int

const (
	fieldID field = iota
	fieldName
	fieldDescription
	fieldLocation
	fieldWebsite
	fieldPhone
	fieldEmail
	fieldLogo
	fieldRooms
)

// Headers is the column layout written by every export
var Headers = []string{"ID", "Name", "Description", "Location", "Website", "Phone", "Email", "Logo URL"}

// RoomsHeader is appended by spreadsheet exports
const RoomsHeader = "Rooms"

// headerAliases also accepts the Portuguese headers of older exports
var headerAliases = map[string]field{
	"id":                fieldID,
	"name":              fieldName,
	"nome":              fieldName,
	"description":       fieldDescription,
	"descrição":         fieldDescription,
	"descricao":         fieldDescription,
	"location":          fieldLocation,
	"localização":       fieldLocation,
	"localizacao":       fieldLocation,
	"address":           fieldLocation,
	"website":           fieldWebsite,
	"site":              fieldWebsite,
	"phone":             fieldPhone,
	"telefone":          fieldPhone,
	"email":             fieldEmail,
	"e-mail":            fieldEmail,
	"logo url":          fieldLogo,
	"logo":              fieldLogo,
	"rooms":             fieldRooms,
	"número de quartos": fieldRooms,
	"numero de quartos": fieldRooms,
}

// columnMap records which column index holds each known field
type columnMap map[field]int

func mapHeader(header []string) (columnMap, error) {
	cols := columnMap{}
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if f, ok := headerAliases[key]; ok {
			if _, dup := cols[f]; !dup {
				cols[f] = i
			}
		}
	}
	if _, ok := cols[fieldName]; !ok {
		return nil, fmt.Errorf("header has no name column: %w", entities.ErrInvalidImport)
	}
	return cols, nil
}

func (c columnMap) get(record []string, f field) string {
	i, ok := c[f]
	if !ok || i >= len(record) {
		return ""
	}
	return record[i]
}

func (c columnMap) blank(record []string, f field) bool {
	return strings.TrimSpace(c.get(record, f)) == ""
}

func (c columnMap) empty(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// venueFromRecord builds a venue from one data row. Values are kept as
// written; the id is zero unless the id column holds a whole number.
func (c columnMap) venueFromRecord(record []string) entities.Venue {
	return entities.Venue{
		ID:          parseID(strings.TrimSpace(c.get(record, fieldID))),
		Name:        c.get(record, fieldName),
		Description: c.get(record, fieldDescription),
		Location:    c.get(record, fieldLocation),
		Website:     c.get(record, fieldWebsite),
		Phone:       c.get(record, fieldPhone),
		Email:       c.get(record, fieldEmail),
		Logo:        c.get(record, fieldLogo),
		Rooms:       []entities.Room{},
	}
}

func parseID(s string) int64 {
	if id, err := strconv.ParseInt(s, 10, 64); err == nil && id > 0 {
		return id
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 && f == math.Trunc(f) && f < math.MaxInt64 {
		return int64(f)
	}
	return 0
}

func venueRecord(v entities.Venue) []string {
	id := ""
	if v.ID != 0 {
		id = strconv.FormatInt(v.ID, 10)
	}
	return []string{id, v.Name, v.Description, v.Location, v.Website, v.Phone, v.Email, v.Logo}
}

// TemplateVenue is the example row shipped in import templates
var TemplateVenue = entities.Venue{
	Name:        "Example Motel",
	Description: "Description of the example motel",
	Location:    "123 Example Street",
	Website:     "https://www.example.com",
	Phone:       "(11) 99999-9999",
	Email:       "contact@example.com",
	Logo:        "https://example.com/logo.png",
}
