package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/motelhub/directory/internal/adapters/tabular"
	"github.com/motelhub/directory/internal/domain/entities"
	"github.com/motelhub/directory/internal/infrastructure/logger"
	"github.com/motelhub/directory/internal/ports"
)

const (
	contentTypeCSV  = "text/csv; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// TransferService moves the venue list in and out of CSV and XLSX files
type TransferService struct {
	venueRepo ports.VenueRepository
	logger    *logger.Logger
	now       func() time.Time
}

// NewTransferService creates a new transfer service
func NewTransferService(venueRepo ports.VenueRepository, logger *logger.Logger) *TransferService {
	return &TransferService{
		venueRepo: venueRepo,
		logger:    logger.WithComponent("transfer_service"),
		now:       time.Now,
	}
}

// DetectFormat picks the table format from an explicit value, falling back to
// the extension of filename.
func DetectFormat(explicit, filename string) (ports.TableFormat, error) {
	value := strings.ToLower(strings.TrimSpace(explicit))
	if value == "" {
		value = strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	}
	switch value {
	case "csv":
		return ports.FormatCSV, nil
	case "xlsx", "excel":
		return ports.FormatXLSX, nil
	case "":
		return ports.FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported format %q: %w", value, entities.ErrInvalidImport)
}

// Export renders every venue, without rooms, in the requested format
func (s *TransferService) Export(ctx context.Context, format ports.TableFormat) (*ports.ExportFile, error) {
	venues, err := s.venueRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list venues: %w", err)
	}

	var buf bytes.Buffer
	base := "venues_export_" + s.now().Format("2006-01-02")
	file, err := s.render(&buf, format, base, func(w io.Writer) error {
		if format == ports.FormatXLSX {
			return tabular.WriteXLSX(w, venues)
		}
		return tabular.WriteCSV(w, venues)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Venues exported", "format", format, "count", len(venues))
	return file, nil
}

// Template returns an empty import file with one example row
func (s *TransferService) Template(format ports.TableFormat) (*ports.ExportFile, error) {
	var buf bytes.Buffer
	return s.render(&buf, format, "venues_template", func(w io.Writer) error {
		if format == ports.FormatXLSX {
			return tabular.WriteXLSXTemplate(w)
		}
		return tabular.WriteCSVTemplate(w)
	})
}

func (s *TransferService) render(buf *bytes.Buffer, format ports.TableFormat, base string, write func(io.Writer) error) (*ports.ExportFile, error) {
	var file ports.ExportFile
	switch format {
	case ports.FormatCSV:
		file.Filename, file.ContentType = base+".csv", contentTypeCSV
	case ports.FormatXLSX:
		file.Filename, file.ContentType = base+".xlsx", contentTypeXLSX
	default:
		return nil, fmt.Errorf("unsupported format %q: %w", format, entities.ErrInvalidImport)
	}

	if err := write(buf); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", format, err)
	}
	file.Data = buf.Bytes()
	return &file, nil
}

// Import parses r and merges the rows into the store by venue name. A row
// whose name matches an existing venue (ignoring case and surrounding
// spaces) updates that venue's fields and keeps its rooms; any other row is
// created as a new venue.
func (s *TransferService) Import(ctx context.Context, format ports.TableFormat, r io.Reader) (*ports.ImportResult, error) {
	var (
		rows    []entities.Venue
		skipped int
		err     error
	)
	switch format {
	case ports.FormatCSV:
		rows, skipped, err = tabular.ReadCSV(r)
	case ports.FormatXLSX:
		rows, err = tabular.ReadXLSX(r)
	default:
		err = fmt.Errorf("unsupported format %q: %w", format, entities.ErrInvalidImport)
	}
	if err != nil {
		return nil, err
	}

	existing, err := s.venueRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list venues: %w", err)
	}
	byName := make(map[string]int64, len(existing))
	for _, v := range existing {
		byName[nameKey(v.Name)] = v.ID
	}

	result := &ports.ImportResult{Skipped: skipped, Venues: make([]entities.Venue, 0, len(rows))}
	for _, row := range rows {
		if !entities.ValidWebsite(row.Website) {
			s.logger.Warnw("Dropping invalid website on import", "name", row.Name, "website", row.Website)
			row.Website = ""
		}

		if id, ok := byName[nameKey(row.Name)]; ok {
			updated, err := s.venueRepo.Update(ctx, id, func(v *entities.Venue) error {
				v.Name = row.Name
				v.Description = row.Description
				v.Location = row.Location
				v.Website = row.Website
				v.Phone = row.Phone
				v.Email = row.Email
				v.Logo = row.Logo
				return nil
			})
			if err != nil {
				return result, fmt.Errorf("failed to update venue %q: %w", row.Name, err)
			}
			result.Updated++
			result.Venues = append(result.Venues, *updated)
			continue
		}

		venue := row
		if err := s.venueRepo.Create(ctx, &venue); err != nil {
			return result, fmt.Errorf("failed to create venue %q: %w", row.Name, err)
		}
		byName[nameKey(venue.Name)] = venue.ID
		result.Created++
		result.Venues = append(result.Venues, venue)
	}

	s.logger.Infow("Venues imported", "format", format, "created", result.Created, "updated", result.Updated, "skipped", result.Skipped)
	return result, nil
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
