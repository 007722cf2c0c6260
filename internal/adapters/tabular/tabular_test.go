package tabular

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/motelhub/directory/internal/domain/entities"
)

func sampleVenues() []entities.Venue {
	return []entities.Venue{
		{ID: 1700000000001, Name: "Blue Moon", Description: `Cozy, "quiet" rooms`, Location: "Rua A, 10", Website: "bluemoon.com", Phone: "123", Email: "a@b.com", Logo: "https://img/logo.png",
			Rooms: []entities.Room{{ID: 1, Name: "Suite"}, {ID: 2, Name: "Standard"}}},
		{ID: 1700000000002, Name: "Red Door"},
	}
}

func TestWriteCSVHasHeaderAndOneLinePerVenue(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleVenues()))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "ID,Name,Description,Location,Website,Phone,Email,Logo URL", lines[0])
	assert.Contains(t, lines[1], `"Cozy, ""quiet"" rooms"`)
	assert.Contains(t, lines[1], `"Rua A, 10"`)
}

func TestCSVRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleVenues()))

	venues, skipped, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, venues, 2)

	first := venues[0]
	assert.Equal(t, int64(1700000000001), first.ID)
	assert.Equal(t, "Blue Moon", first.Name)
	assert.Equal(t, `Cozy, "quiet" rooms`, first.Description)
	assert.Equal(t, "Rua A, 10", first.Location)
	assert.Equal(t, "https://img/logo.png", first.Logo)
	assert.NotNil(t, first.Rooms)
	assert.Empty(t, first.Rooms)
}

func TestCSVRoundTripKeepsPadding(t *testing.T) {
	padded := []entities.Venue{{
		ID:          3,
		Name:        " Padded Inn ",
		Description: "  two spaces ",
		Location:    "\tTabbed",
		Phone:       "  ",
	}}
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, padded))

	venues, skipped, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, venues, 1)
	assert.Equal(t, " Padded Inn ", venues[0].Name)
	assert.Equal(t, "  two spaces ", venues[0].Description)
	assert.Equal(t, "\tTabbed", venues[0].Location)
	assert.Equal(t, "  ", venues[0].Phone)
	assert.Equal(t, int64(3), venues[0].ID)
}

func TestReadCSVSkipsBlankPaddedName(t *testing.T) {
	input := "Name,Location\n\"   \",Here\n"

	venues, skipped, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	assert.Empty(t, venues)
}

func TestReadCSVLegacyLiteralSeparator(t *testing.T) {
	legacy := `ID,Nome,Descrição,Localização,Website,Telefone,Email,Logo URL\n` +
		`5,"Motel Sol","Bom","Rua B",sol.com,999,s@s.com,\n` +
		`,"Motel Lua","","",,,,\n`

	venues, skipped, err := ReadCSV(strings.NewReader(legacy))
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, venues, 2)

	assert.Equal(t, int64(5), venues[0].ID)
	assert.Equal(t, "Motel Sol", venues[0].Name)
	assert.Equal(t, "sol.com", venues[0].Website)
	assert.Zero(t, venues[1].ID, "blank ids are left for the store to assign")
	assert.Equal(t, "Motel Lua", venues[1].Name)
}

func TestReadCSVSkipsRowsWithoutName(t *testing.T) {
	input := "Name,Location\nAlpha,Here\n,Nowhere\nBeta,There\n\n"

	venues, skipped, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, venues, 2)
	assert.Equal(t, "Alpha", venues[0].Name)
	assert.Zero(t, venues[0].ID)
	assert.Equal(t, "There", venues[1].Location)
}

func TestReadCSVRejectsMissingNameColumn(t *testing.T) {
	_, _, err := ReadCSV(strings.NewReader("ID,Location\n1,Here\n"))
	assert.ErrorIs(t, err, entities.ErrInvalidImport)

	_, _, err = ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, entities.ErrInvalidImport)
}

func TestCSVTemplate(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSVTemplate(&buf))

	venues, _, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, venues, 1)
	assert.Equal(t, TemplateVenue.Name, venues[0].Name)
	assert.Zero(t, venues[0].ID)
}

func TestXLSXRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, sampleVenues()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []string{ExportSheet}, f.GetSheetList())
	rooms, err := f.GetCellValue(ExportSheet, "I2")
	require.NoError(t, err)
	assert.Equal(t, "2", rooms)
	require.NoError(t, f.Close())

	venues, err := ReadXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, venues, 2)
	assert.Equal(t, int64(1700000000001), venues[0].ID)
	assert.Equal(t, `Cozy, "quiet" rooms`, venues[0].Description)
	assert.Equal(t, "Red Door", venues[1].Name)
	assert.Empty(t, venues[1].Rooms)
}

func TestXLSXTemplateHasNoIDColumn(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSXTemplate(&buf))

	venues, err := ReadXLSX(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, venues, 1)
	assert.Zero(t, venues[0].ID)
	assert.Equal(t, TemplateVenue.Email, venues[0].Email)
}

func TestReadXLSXRejectsRowWithoutName(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Nome", "Localização"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"Motel Sol", "Rua B"}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]interface{}{"", "Rua C"}))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = ReadXLSX(&buf)
	require.ErrorIs(t, err, entities.ErrInvalidImport)
	assert.Contains(t, err.Error(), "row 3")
}

func TestReadXLSXRejectsGarbage(t *testing.T) {
	_, err := ReadXLSX(strings.NewReader("not a workbook"))
	assert.ErrorIs(t, err, entities.ErrInvalidImport)
}
