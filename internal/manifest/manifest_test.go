package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestOutcomeQuorumExhaustive(t *testing.T) {
	// All 32 boolean combinations: validated iff at least 4 of 5 bits set.
	for mask := 0; mask < 32; mask++ {
		outcome := Outcome{
			Name:         mask&1 != 0,
			DateOfBirth:  mask&2 != 0,
			BoardingPass: mask&4 != 0,
			Person:       mask&8 != 0,
			Luggage:      mask&16 != 0,
		}

		want := 0
		for bit := 0; bit < 5; bit++ {
			if mask&(1<<bit) != 0 {
				want++
			}
		}

		if got := outcome.PassedCount(); got != want {
			t.Fatalf("mask %05b: expected %d passed checks, got %d", mask, want, got)
		}
		if got := outcome.Validated(); got != (want >= Quorum) {
			t.Fatalf("mask %05b: expected validated=%v with %d passes", mask, want >= Quorum, want)
		}
	}
}

const sampleCSV = `First Name,Last Name,Date of Birth,Flight No.,Seat,From,To,Boarding Time
Jane,Public,1985-06-01,AB123,14C,JFK,LHR,10:30
John,Smith,1990-03-15,AB123,15A,JFK,LHR,10:30
`

func writeTempManifest(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write manifest fixture: %v", err)
	}
	return path
}

func TestLoadCSV(t *testing.T) {
	path := writeTempManifest(t, "manifest.csv", sampleCSV)

	rows, err := Load(path)
	if err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	first := rows[0]
	if first.FirstName != "Jane" || first.LastName != "Public" {
		t.Fatalf("unexpected passenger: %+v", first)
	}
	if first.FlightNo != "AB123" || first.Seat != "14C" || first.From != "JFK" || first.To != "LHR" {
		t.Fatalf("unexpected flight data: %+v", first)
	}
	if first.Outcome != (Outcome{}) {
		t.Fatalf("freshly loaded row should carry no outcome, got %+v", first.Outcome)
	}
}

func TestLoadRejectsMissingColumn(t *testing.T) {
	content := "First Name,Last Name,Flight No.,Seat,From,To,Boarding Time\nJane,Public,AB123,14C,JFK,LHR,10:30\n"
	path := writeTempManifest(t, "manifest.csv", content)

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected missing column error")
	}
	if !strings.Contains(err.Error(), "Date of Birth") {
		t.Fatalf("expected error to name the missing column, got %v", err)
	}
}

func TestLoadRejectsEmptyManifest(t *testing.T) {
	header := strings.Join(RequiredColumns, ",") + "\n"
	path := writeTempManifest(t, "manifest.csv", header)

	if _, err := Load(path); err != ErrEmptyManifest {
		t.Fatalf("expected ErrEmptyManifest, got %v", err)
	}
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for i, column := range RequiredColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, column); err != nil {
			t.Fatalf("failed to write header: %v", err)
		}
	}
	values := []string{"Jane", "Public", "1985-06-01", "AB123", "14C", "JFK", "LHR", "10:30"}
	for i, value := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			t.Fatalf("failed to write row: %v", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("failed to save workbook: %v", err)
	}

	rows, err := Load(path)
	if err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].FirstName != "Jane" || rows[0].DateOfBirth != "1985-06-01" {
		t.Fatalf("unexpected row: %+v", rows[0])
	}
}

func TestSnapshotWritesTimestampedCopy(t *testing.T) {
	path := writeTempManifest(t, "manifest.csv", sampleCSV)

	rows, err := Load(path)
	if err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}

	snapshotPath, err := Snapshot(rows, path, "")
	if err != nil {
		t.Fatalf("expected snapshot to succeed, got %v", err)
	}

	base := filepath.Base(snapshotPath)
	if !strings.HasPrefix(base, "manifest_") || !strings.HasSuffix(base, ".csv") {
		t.Fatalf("unexpected snapshot name: %s", base)
	}
	if filepath.Dir(snapshotPath) != filepath.Dir(path) {
		t.Fatalf("snapshot should sit next to the source, got %s", snapshotPath)
	}

	copied, err := Load(snapshotPath)
	if err != nil {
		t.Fatalf("snapshot should be loadable, got %v", err)
	}
	if len(copied) != len(rows) {
		t.Fatalf("expected %d rows in snapshot, got %d", len(rows), len(copied))
	}
	if copied[0] != rows[0] {
		t.Fatalf("snapshot row differs from source: %+v vs %+v", copied[0], rows[0])
	}
}

func TestSnapshotHonorsTargetDir(t *testing.T) {
	path := writeTempManifest(t, "manifest.csv", sampleCSV)
	targetDir := t.TempDir()

	rows, err := Load(path)
	if err != nil {
		t.Fatalf("expected load to succeed, got %v", err)
	}

	snapshotPath, err := Snapshot(rows, path, targetDir)
	if err != nil {
		t.Fatalf("expected snapshot to succeed, got %v", err)
	}
	if filepath.Dir(snapshotPath) != targetDir {
		t.Fatalf("expected snapshot in %s, got %s", targetDir, snapshotPath)
	}
}
