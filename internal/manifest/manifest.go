// Package manifest loads the authoritative passenger roster and owns its
// audit-snapshot behavior. The roster is the ground truth every boarding
// session is validated against.
package manifest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// ErrEmptyManifest is returned when the roster file contains no passenger rows.
var ErrEmptyManifest = errors.New("manifest is empty")

// Quorum is the number of checks that must pass for a row to be validated.
const Quorum = 4

// Columns required in every manifest source, in canonical order.
var RequiredColumns = []string{
	"First Name",
	"Last Name",
	"Date of Birth",
	"Flight No.",
	"Seat",
	"From",
	"To",
	"Boarding Time",
}

// Outcome holds the five per-check results for one row. ValidationStatus is
// never stored; it is always derived through Validated so the derived value
// cannot drift from the bits it summarizes.
type Outcome struct {
	Name         bool
	DateOfBirth  bool
	BoardingPass bool
	Person       bool
	Luggage      bool
}

// PassedCount returns how many of the five checks passed.
func (o Outcome) PassedCount() int {
	count := 0
	for _, passed := range []bool{o.Name, o.DateOfBirth, o.BoardingPass, o.Person, o.Luggage} {
		if passed {
			count++
		}
	}
	return count
}

// Validated reports whether the row reached quorum.
func (o Outcome) Validated() bool {
	return o.PassedCount() >= Quorum
}

// Row is one passenger's ground truth plus the outcome of the last validation
// pass over it.
type Row struct {
	FirstName    string
	LastName     string
	DateOfBirth  string
	FlightNo     string
	Seat         string
	From         string
	To           string
	BoardingTime string

	Outcome Outcome
}

// Load reads the roster at path. XLSX workbooks are read from their first
// sheet; anything else is treated as CSV. A missing required column or an
// empty roster is fatal for the session.
func Load(path string) ([]Row, error) {
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		return loadXLSX(path)
	}
	return loadCSV(path)
}

func loadCSV(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read manifest csv: %w", err)
	}
	return rowsFromRecords(records)
}

func loadXLSX(path string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyManifest
	}
	records, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read manifest sheet: %w", err)
	}
	return rowsFromRecords(records)
}

func rowsFromRecords(records [][]string) ([]Row, error) {
	if len(records) == 0 {
		return nil, ErrEmptyManifest
	}

	header := records[0]
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}
	for _, required := range RequiredColumns {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("manifest is missing required column %q", required)
		}
	}

	cell := func(record []string, column string) string {
		i := index[column]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	rows := make([]Row, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, Row{
			FirstName:    cell(record, "First Name"),
			LastName:     cell(record, "Last Name"),
			DateOfBirth:  cell(record, "Date of Birth"),
			FlightNo:     cell(record, "Flight No."),
			Seat:         cell(record, "Seat"),
			From:         cell(record, "From"),
			To:           cell(record, "To"),
			BoardingTime: cell(record, "Boarding Time"),
		})
	}
	if len(rows) == 0 {
		return nil, ErrEmptyManifest
	}
	return rows, nil
}

// Snapshot writes a timestamped CSV copy of the loaded roster for audit, next
// to the source file unless snapshotDir overrides the location. It returns the
// path of the written copy.
func Snapshot(rows []Row, sourcePath, snapshotDir string) (string, error) {
	if len(rows) == 0 {
		return "", ErrEmptyManifest
	}

	base := filepath.Base(sourcePath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	dir := snapshotDir
	if dir == "" {
		dir = filepath.Dir(sourcePath)
	}
	timestamp := time.Now().Format("20060102_150405")
	target := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", stem, timestamp))

	f, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create manifest snapshot: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(RequiredColumns); err != nil {
		return "", fmt.Errorf("write snapshot header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.FirstName,
			row.LastName,
			row.DateOfBirth,
			row.FlightNo,
			row.Seat,
			row.From,
			row.To,
			row.BoardingTime,
		}
		if err := writer.Write(record); err != nil {
			return "", fmt.Errorf("write snapshot row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("flush snapshot: %w", err)
	}
	return target, nil
}
