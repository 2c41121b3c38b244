package io

import (
	"bufio"
	"encoding/csv"
	stdio "io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kataras/golog"
	"github.com/rotisserie/eris"
	"github.com/williampepple1/listing-scraper/internal/config"
)

const bom = "\ufeff"

// IdentifierReader reads the subjects to profile from a previous run's output
type IdentifierReader struct {
	Config *config.IOConfig
	log    *golog.Logger
}

// NewIdentifierReader creates a new identifier reader
func NewIdentifierReader(cfg *config.IOConfig, log *golog.Logger) *IdentifierReader {
	return &IdentifierReader{Config: cfg, log: log}
}

// ReadFromFile reads identifiers from a CSV table or, for any other
// extension, from a plain file with one identifier per line.
func (r *IdentifierReader) ReadFromFile(filename string) ([]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, eris.Wrapf(err, "open identifiers %s", filename)
	}
	defer file.Close()

	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		ids, err := r.readCSV(file)
		if err != nil {
			return nil, eris.Wrapf(err, "read identifiers %s", filename)
		}
		return ids, nil
	}
	return readLines(file)
}

// GetIdentifiers reads the configured input file
func (r *IdentifierReader) GetIdentifiers() ([]string, error) {
	if r.Config.InputFile == "" {
		return nil, eris.New("no input file configured")
	}
	return r.ReadFromFile(r.Config.InputFile)
}

func (r *IdentifierReader) readCSV(in stdio.Reader) ([]string, error) {
	cr := csv.NewReader(in)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == stdio.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "read header")
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], bom)
	}

	idCol := columnIndex(header, r.Config.IDColumn)
	codeCol := columnIndex(header, r.Config.CodeColumn)
	if idCol < 0 && codeCol < 0 {
		return nil, eris.Errorf("neither %q nor %q column found", r.Config.IDColumn, r.Config.CodeColumn)
	}

	var ids []string
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == stdio.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "line %d", line)
		}

		if id, ok := ExtractCode(cell(row, idCol), r.Config.IDDelimiter); ok {
			ids = append(ids, id)
			continue
		}
		if code := strings.TrimSpace(cell(row, codeCol)); code != "" {
			ids = append(ids, code)
			continue
		}
		r.log.Warnf("line %d: no identifier found, skipping", line)
	}
	return ids, nil
}

// ExtractCode returns the trimmed text following delimiter in s,
// e.g. "Bank Central Asia BEI: BBCA" gives "BBCA".
func ExtractCode(s, delimiter string) (string, bool) {
	if delimiter == "" {
		return "", false
	}
	_, after, ok := strings.Cut(s, delimiter)
	if !ok {
		return "", false
	}
	after, _, _ = strings.Cut(after, delimiter)
	code := strings.TrimSpace(after)
	return code, code != ""
}

// Slice returns up to limit identifiers starting at start. A limit of zero
// or less keeps everything after start.
func Slice(ids []string, start, limit int) []string {
	if start < 0 {
		start = 0
	}
	if start >= len(ids) {
		return nil
	}
	end := len(ids)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return ids[start:end]
}

func readLines(in stdio.Reader) ([]string, error) {
	var ids []string
	scanner := bufio.NewScanner(in)
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, bom)
			first = false
		}
		id := strings.TrimSpace(line)
		if id != "" && !strings.HasPrefix(id, "#") {
			ids = append(ids, id)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, eris.Wrap(err, "scan identifiers")
	}
	return ids, nil
}

func columnIndex(header []string, name string) int {
	if name == "" {
		return -1
	}
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}
