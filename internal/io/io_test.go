package io

import (
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/williampepple1/listing-scraper/internal/config"
	"github.com/williampepple1/listing-scraper/internal/logger"
	"github.com/williampepple1/listing-scraper/pkg/models"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newReader() *IdentifierReader {
	return NewIdentifierReader(&config.Default().IO, logger.Discard())
}

func TestIdentifierReader_CSV(t *testing.T) {
	path := writeFile(t, "companies.csv",
		"\ufeffName,Code,Sector\n"+
			"\"Astra Agro Lestari Tbk. BEI: AALI\",,Pertanian\n"+
			"Bank Central Asia Tbk.,BBCA,Keuangan\n"+
			"No identifier here,,\n"+
			"Telkom BEI:  TLKM ,IGNORED,Infrastruktur\n")

	ids, err := newReader().ReadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"AALI", "BBCA", "TLKM"}, ids)
}

func TestIdentifierReader_CSVMissingColumns(t *testing.T) {
	path := writeFile(t, "companies.csv", "Foo,Bar\n1,2\n")
	_, err := newReader().ReadFromFile(path)
	assert.Error(t, err)
}

func TestIdentifierReader_PlainLines(t *testing.T) {
	path := writeFile(t, "codes.txt", "\ufeffBBCA\n# comment\n\n  TLKM  \n")
	ids, err := newReader().ReadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"BBCA", "TLKM"}, ids)
}

func TestIdentifierReader_Errors(t *testing.T) {
	_, err := newReader().ReadFromFile(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, err = newReader().GetIdentifiers()
	assert.Error(t, err)
}

func TestExtractCode(t *testing.T) {
	code, ok := ExtractCode("Bank Central Asia BEI: BBCA", "BEI:")
	assert.True(t, ok)
	assert.Equal(t, "BBCA", code)

	code, ok = ExtractCode("X BEI: ABCD BEI: EFGH", "BEI:")
	assert.True(t, ok)
	assert.Equal(t, "ABCD", code)

	_, ok = ExtractCode("Bank Central Asia", "BEI:")
	assert.False(t, ok)
	_, ok = ExtractCode("Trailing BEI:   ", "BEI:")
	assert.False(t, ok)
	_, ok = ExtractCode("anything", "")
	assert.False(t, ok)
}

func TestSlice(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}
	assert.Equal(t, []string{"b", "c"}, Slice(ids, 1, 2))
	assert.Equal(t, []string{"c", "d"}, Slice(ids, 2, 10))
	assert.Equal(t, ids, Slice(ids, 0, 0))
	assert.Equal(t, ids, Slice(ids, -3, 0))
	assert.Nil(t, Slice(ids, 4, 1))
}

func sampleRecords() []*models.Record {
	return []*models.Record{
		{
			Subject:     "BBCA",
			Name:        "Bank Central Asia Tbk.",
			Sector:      "Keuangan",
			Phone:       "021-1234567",
			SocialLinks: []string{"https://facebook.com/bbca", "https://instagram.com/goodlifebca"},
		},
		{Subject: "TLKM", Name: "Telkom Indonesia", Sector: "Infrastruktur"},
	}
}

func newWriter(t *testing.T, format, file string) *ResultWriter {
	t.Helper()
	cfg := config.Default().IO
	cfg.OutputFormat = format
	cfg.OutputFile = file
	w := NewResultWriter(&cfg, logger.Discard())
	w.now = func() time.Time { return time.Date(2024, 3, 1, 9, 30, 5, 0, time.UTC) }
	return w
}

func TestResultWriter_CSV(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out", "companies.csv")
	path, err := newWriter(t, "csv", out).SaveToFile(sampleRecords(), CompanyColumns, "companies")
	require.NoError(t, err)
	assert.Equal(t, out, path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Code", "Name", "Sector", "Website", "Phone", "SocialLinks"}, rows[0])
	assert.Equal(t, []string{"BBCA", "Bank Central Asia Tbk.", "Keuangan", "", "021-1234567",
		"https://facebook.com/bbca\nhttps://instagram.com/goodlifebca"}, rows[1])
	assert.Equal(t, "TLKM", rows[2][0])
}

func TestResultWriter_JSON(t *testing.T) {
	out := filepath.Join(t.TempDir(), "companies.json")
	_, err := newWriter(t, "json", out).SaveToFile(sampleRecords(), CompanyColumns, "companies")
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var got []models.Record
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got, 2)
	assert.Equal(t, []string{"https://facebook.com/bbca", "https://instagram.com/goodlifebca"}, got[0].SocialLinks)
}

func TestResultWriter_XLSX(t *testing.T) {
	out := filepath.Join(t.TempDir(), "profiles.xlsx")
	path, err := newWriter(t, "xlsx", out).SaveToFile(sampleRecords(), ProfileColumns, "profiles")
	require.NoError(t, err)
	assert.Equal(t, out, path)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Code", rows[0][0])
	assert.Equal(t, "SocialLinks", rows[0][7])
	assert.Equal(t, "BBCA", rows[1][0])
	assert.Equal(t, "https://facebook.com/bbca\nhttps://instagram.com/goodlifebca", rows[1][7])
}

func TestResultWriter_XLSXFallsBackToCSV(t *testing.T) {
	dir := t.TempDir()
	// a directory where the workbook should go makes SaveAs fail
	out := filepath.Join(dir, "blocked.xlsx")
	require.NoError(t, os.Mkdir(out, 0755))

	path, err := newWriter(t, "xlsx", out).SaveToFile(sampleRecords(), CompanyColumns, "companies")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "blocked.csv"), path)
	assert.FileExists(t, path)
}

func TestResultWriter_DefaultFileName(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	path, err := newWriter(t, "csv", "").SaveToFile(nil, PlaceColumns, "places")
	require.NoError(t, err)
	assert.Equal(t, "places_20240301_093005.csv", path)
	assert.FileExists(t, filepath.Join(dir, path))
}

func TestResultWriter_UnsupportedFormat(t *testing.T) {
	_, err := newWriter(t, "yaml", filepath.Join(t.TempDir(), "x.yaml")).SaveToFile(nil, CompanyColumns, "x")
	assert.Error(t, err)
}
