package worksheet

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSheet(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sheet1.xml")
	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<sheetData>` + body + `</sheetData>
</worksheet>`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func newIterator(t *testing.T, body string, outputColumnNames, skipEmptyCells bool) *Iterator {
	t.Helper()
	path := writeSheet(t, body)
	it := New(path, Resolver{}, outputColumnNames, skipEmptyCells)
	if err := it.Rewind(); err != nil {
		t.Fatalf("Rewind: %v", err)
	}
	return it
}

// TestSparseRowPostFill matches spec.md §8 scenario 5: cells present only at
// A, C, E with spans="1:5" declared.
func TestSparseRowPostFill(t *testing.T) {
	body := `<row r="1" spans="1:5"><c r="A1"><v>1</v></c><c r="C1"><v>2</v></c><c r="E1"><v>3</v></c></row>`

	t.Run("gaps filled when not skipping empty", func(t *testing.T) {
		it := newIterator(t, body, false, false)
		defer it.Close()
		row, err := it.Next()
		if err != nil {
			t.Fatal(err)
		}
		want := Row{0: "1", 1: "", 2: "2", 3: "", 4: "3"}
		if len(row) != len(want) {
			t.Fatalf("row = %v, want %v", row, want)
		}
		for k, v := range want {
			if row[k] != v {
				t.Errorf("row[%v] = %v, want %v", k, row[k], v)
			}
		}
	})

	t.Run("gaps omitted when skipping empty", func(t *testing.T) {
		it := newIterator(t, body, false, true)
		defer it.Close()
		row, err := it.Next()
		if err != nil {
			t.Fatal(err)
		}
		want := Row{0: "1", 2: "2", 4: "3"}
		if len(row) != len(want) {
			t.Fatalf("row = %v, want %v", row, want)
		}
		for k, v := range want {
			if row[k] != v {
				t.Errorf("row[%v] = %v, want %v", k, row[k], v)
			}
		}
	})
}

// TestSpansIsLowerBound checks that a cell reference past the declared
// spans width still widens the row instead of being dropped.
func TestSpansIsLowerBound(t *testing.T) {
	body := `<row r="1" spans="1:2"><c r="A1"><v>1</v></c><c r="F1"><v>2</v></c></row>`
	it := newIterator(t, body, false, false)
	defer it.Close()
	row, err := it.Next()
	if err != nil {
		t.Fatal(err)
	}
	if len(row) != 6 {
		t.Fatalf("row has %d entries, want 6 (widened past declared spans): %v", len(row), row)
	}
	if row[0] != "1" || row[5] != "2" {
		t.Errorf("row = %v, want A=1, F=2", row)
	}
	for c := 1; c < 5; c++ {
		if row[c] != "" {
			t.Errorf("row[%d] = %v, want empty fill", c, row[c])
		}
	}
}

// TestEntirelyEmptyRowSkipped checks the single-null-placeholder rule for an
// entirely empty row when skip_empty_cells is set.
func TestEntirelyEmptyRowSkipped(t *testing.T) {
	body := `<row r="1" spans="1:3"></row>`
	it := newIterator(t, body, false, true)
	defer it.Close()
	row, err := it.Next()
	if err != nil {
		t.Fatal(err)
	}
	if len(row) != 1 {
		t.Fatalf("row = %v, want single nil-keyed placeholder", row)
	}
	if v, ok := row[nil]; !ok || v != nil {
		t.Errorf("row[nil] = %v, ok=%v, want nil,true", v, ok)
	}
}

func TestOutputColumnNames(t *testing.T) {
	body := `<row r="1"><c r="A1"><v>1</v></c><c r="B1"><v>2</v></c></row>`
	it := newIterator(t, body, true, false)
	defer it.Close()
	row, err := it.Next()
	if err != nil {
		t.Fatal(err)
	}
	if row["A"] != "1" || row["B"] != "2" {
		t.Errorf("row = %v, want A=1, B=2", row)
	}
}

func TestMultipleRowsAndRowNumbering(t *testing.T) {
	body := `<row r="1"><c r="A1"><v>1</v></c></row><row r="2"><c r="A2"><v>2</v></c></row>`
	it := newIterator(t, body, false, false)
	defer it.Close()

	row1, err := it.Next()
	if err != nil {
		t.Fatal(err)
	}
	if it.Key() != 1 || row1[0] != "1" {
		t.Errorf("row 1: key=%d row=%v", it.Key(), row1)
	}

	row2, err := it.Next()
	if err != nil {
		t.Fatal(err)
	}
	if it.Key() != 2 || row2[0] != "2" {
		t.Errorf("row 2: key=%d row=%v", it.Key(), row2)
	}

	row3, err := it.Next()
	if err != nil {
		t.Fatal(err)
	}
	if row3 != nil || it.Valid() {
		t.Errorf("expected exhausted iterator, got row=%v valid=%v", row3, it.Valid())
	}
}

func TestColumnIndexAndLettersBijection(t *testing.T) {
	tests := []struct {
		letters string
		index   int
	}{
		{"A", 0},
		{"Z", 25},
		{"AA", 26},
		{"AZ", 51},
		{"BA", 52},
	}
	for _, tc := range tests {
		t.Run(tc.letters, func(t *testing.T) {
			idx, ok := columnIndex(tc.letters + "1")
			if !ok || idx != tc.index {
				t.Errorf("columnIndex(%q1) = %d,%v want %d,true", tc.letters, idx, ok, tc.index)
			}
			if got := columnLetters(tc.index); got != tc.letters {
				t.Errorf("columnLetters(%d) = %q, want %q", tc.index, got, tc.letters)
			}
		})
	}
}

// TestBooleanCells checks the "b" cell type shortcut bypasses shared
// strings and number formatting entirely.
func TestBooleanCells(t *testing.T) {
	body := `<row r="1"><c r="A1" t="b"><v>1</v></c><c r="B1" t="b"><v>0</v></c></row>`
	it := newIterator(t, body, false, false)
	defer it.Close()
	row, err := it.Next()
	if err != nil {
		t.Fatal(err)
	}
	if row[0] != true || row[1] != false {
		t.Errorf("row = %v, want A=true, B=false", row)
	}
}
