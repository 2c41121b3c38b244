package io

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kataras/golog"
	"github.com/rotisserie/eris"
	"github.com/williampepple1/listing-scraper/internal/config"
	"github.com/williampepple1/listing-scraper/pkg/models"
	"github.com/xuri/excelize/v2"
)

// Column is one output column of a flat export
type Column struct {
	Header string
	Value  func(r *models.Record) string
}

// FieldColumn exports a record field. Social links are joined with newlines.
func FieldColumn(header string, f models.Field) Column {
	return Column{Header: header, Value: func(r *models.Record) string { return r.Get(f) }}
}

// SubjectColumn exports the subject identifier
func SubjectColumn(header string) Column {
	return Column{Header: header, Value: func(r *models.Record) string { return r.Subject }}
}

// Column sets per command
var (
	CompanyColumns = []Column{
		SubjectColumn("Code"),
		FieldColumn("Name", models.FieldName),
		FieldColumn("Sector", models.FieldSector),
		FieldColumn("Website", models.FieldWebsite),
		FieldColumn("Phone", models.FieldPhone),
		FieldColumn("SocialLinks", models.FieldSocialLinks),
	}
	ProfileColumns = []Column{
		SubjectColumn("Code"),
		FieldColumn("Name", models.FieldName),
		FieldColumn("Sector", models.FieldSector),
		FieldColumn("Website", models.FieldWebsite),
		FieldColumn("Phone", models.FieldPhone),
		FieldColumn("Email", models.FieldEmail),
		FieldColumn("Address", models.FieldAddress),
		FieldColumn("SocialLinks", models.FieldSocialLinks),
	}
	PlaceColumns = []Column{
		FieldColumn("Name", models.FieldName),
		FieldColumn("Sector", models.FieldSector),
		FieldColumn("Address", models.FieldAddress),
		FieldColumn("Website", models.FieldWebsite),
		FieldColumn("Phone", models.FieldPhone),
		FieldColumn("MapsURL", models.FieldMapsURL),
		FieldColumn("Rating", models.FieldRating),
		FieldColumn("ReviewCount", models.FieldReviewCount),
	}
	MapsColumns = []Column{
		FieldColumn("Name", models.FieldName),
		FieldColumn("Address", models.FieldAddress),
		FieldColumn("Rating", models.FieldRating),
		FieldColumn("ReviewCount", models.FieldReviewCount),
		FieldColumn("Sector", models.FieldSector),
		FieldColumn("Website", models.FieldWebsite),
		FieldColumn("Phone", models.FieldPhone),
		FieldColumn("MapsURL", models.FieldMapsURL),
		FieldColumn("SocialLinks", models.FieldSocialLinks),
	}
)

// ResultWriter writes finalized records to the configured output
type ResultWriter struct {
	Config *config.IOConfig
	log    *golog.Logger
	now    func() time.Time
}

// NewResultWriter creates a new result writer
func NewResultWriter(cfg *config.IOConfig, log *golog.Logger) *ResultWriter {
	return &ResultWriter{Config: cfg, log: log, now: time.Now}
}

// SaveToFile writes records in the configured format and returns the path
// actually written. Without an output file the name is prefix plus a
// timestamp. A failed xlsx write falls back to CSV beside the requested path.
func (w *ResultWriter) SaveToFile(records []*models.Record, columns []Column, prefix string) (string, error) {
	format := strings.ToLower(w.Config.OutputFormat)
	path := w.Config.OutputFile
	if path == "" {
		path = fmt.Sprintf("%s_%s.%s", prefix, w.now().Format("20060102_150405"), format)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", eris.Wrapf(err, "create output dir %s", dir)
		}
	}

	switch format {
	case "json":
		return path, writeJSON(path, records)
	case "csv":
		return path, writeCSV(path, records, columns)
	case "xlsx":
		err := writeXLSX(path, records, columns)
		if err == nil {
			return path, nil
		}
		fallback := strings.TrimSuffix(path, filepath.Ext(path)) + ".csv"
		w.log.Warnf("xlsx write to %s failed (%v), falling back to %s", path, err, fallback)
		if err := writeCSV(fallback, records, columns); err != nil {
			return "", err
		}
		return fallback, nil
	default:
		return "", eris.Errorf("unsupported output format: %s", w.Config.OutputFormat)
	}
}

func rows(records []*models.Record, columns []Column) [][]string {
	out := make([][]string, 0, len(records))
	for _, r := range records {
		row := make([]string, len(columns))
		for i, c := range columns {
			row[i] = c.Value(r)
		}
		out = append(out, row)
	}
	return out
}

func headers(columns []Column) []string {
	h := make([]string, len(columns))
	for i, c := range columns {
		h[i] = c.Header
	}
	return h
}

func writeJSON(path string, records []*models.Record) error {
	if records == nil {
		records = []*models.Record{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return eris.Wrap(err, "encode records")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return eris.Wrapf(err, "write %s", path)
	}
	return nil
}

func writeCSV(path string, records []*models.Record, columns []Column) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write(headers(columns)); err != nil {
		return eris.Wrapf(err, "write %s", path)
	}
	if err := cw.WriteAll(rows(records, columns)); err != nil {
		return eris.Wrapf(err, "write %s", path)
	}
	return nil
}

func writeXLSX(path string, records []*models.Record, columns []Column) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return eris.Wrap(err, "create header style")
	}

	widths := make([]int, len(columns))
	for i, h := range headers(columns) {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return eris.Wrap(err, "write header")
		}
		widths[i] = len(h)
	}
	last, _ := excelize.CoordinatesToCellName(len(columns), 1)
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return eris.Wrap(err, "style header")
	}

	for r, row := range rows(records, columns) {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return eris.Wrapf(err, "write cell %s", cell)
			}
			for _, line := range strings.Split(v, "\n") {
				if n := len([]rune(line)); n > widths[c] {
					widths[c] = n
				}
			}
		}
	}

	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(sheet, col, col, float64(min(w+2, 60)))
	}
	if err := f.SaveAs(path); err != nil {
		return eris.Wrapf(err, "save %s", path)
	}
	return nil
}
