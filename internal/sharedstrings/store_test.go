package sharedstrings

import (
	"os"
	"path/filepath"
	"testing"
)

func writeSharedStrings(t *testing.T, entries ...string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "sharedStrings.xml")

	doc := `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="` +
		itoa(len(entries)) + `" uniqueCount="` + itoa(len(entries)) + `">`
	for _, e := range entries {
		doc += "<si><t>" + e + "</t></si>"
	}
	doc += "</sst>"

	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

// TestGetOutOfOrderDefaultCache matches spec.md §8 scenario 2: uniqueCount=3,
// entries ["x","y","z"], requested in order 2,0,1,2, under the default
// configuration where everything fits in the RAM cache.
func TestGetOutOfOrderDefaultCache(t *testing.T) {
	path := writeSharedStrings(t, "x", "y", "z")
	s, err := Open(path, t.TempDir(), DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	want := map[int]string{2: "z", 0: "x", 1: "y"}
	order := []int{2, 0, 1, 2}
	for _, idx := range order {
		got, err := s.Get(idx)
		if err != nil {
			t.Fatalf("Get(%d): %v", idx, err)
		}
		if got != want[idx] {
			t.Errorf("Get(%d) = %q, want %q", idx, got, want[idx])
		}
	}
	if len(s.spillFiles) != 0 {
		t.Errorf("expected no spill files under default cache, got %d", len(s.spillFiles))
	}
}

// TestGetOutOfOrderForcedSpill repeats the same scenario with a cache budget
// of zero, forcing every entry past the first into a spill file.
func TestGetOutOfOrderForcedSpill(t *testing.T) {
	path := writeSharedStrings(t, "x", "y", "z")
	cfg := Config{
		UseCache:                true,
		CacheSizeKilobyte:       0,
		UseOptimizedFiles:       true,
		OptimizedFileEntryCount: 2500,
		KeepFileHandles:         true,
	}
	s, err := Open(path, t.TempDir(), cfg)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if len(s.spillFiles) == 0 {
		t.Fatal("expected at least one spill file once the cache budget is exhausted")
	}

	want := map[int]string{2: "z", 0: "x", 1: "y"}
	order := []int{2, 0, 1, 2}
	for _, idx := range order {
		got, err := s.Get(idx)
		if err != nil {
			t.Fatalf("Get(%d): %v", idx, err)
		}
		if got != want[idx] {
			t.Errorf("Get(%d) = %q, want %q", idx, got, want[idx])
		}
	}
}

func TestGetOutOfRangeReturnsEmpty(t *testing.T) {
	path := writeSharedStrings(t, "x", "y")
	s, err := Open(path, t.TempDir(), DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	got, err := s.Get(5)
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("Get(5) = %q, want empty string for out-of-range index", got)
	}
}

func TestEmptyPathAlwaysReturnsEmpty(t *testing.T) {
	s, err := Open("", t.TempDir(), DefaultConfig())
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Get(0)
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("Get(0) on an absent shared-strings part = %q, want empty", got)
	}
}
