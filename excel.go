// Package excel reads SpreadsheetML (.xlsx) packages without loading a
// worksheet into memory whole: rows are pulled lazily off the underlying
// zip's XML parts. See SPEC_FULL.md for the full design.
package excel

import (
	"os"

	"github.com/NikkyAmresh/excel-manager/internal/rels"
	"github.com/NikkyAmresh/excel-manager/internal/sharedstrings"
	"github.com/NikkyAmresh/excel-manager/internal/xlerr"
	"github.com/NikkyAmresh/excel-manager/internal/zipfs"
	"github.com/NikkyAmresh/excel-manager/numfmt"
	"github.com/NikkyAmresh/excel-manager/styles"
	"github.com/NikkyAmresh/excel-manager/worksheet"
)

// SheetRef identifies one worksheet as declared in xl/workbook.xml.
type SheetRef struct {
	Name           string
	RelationshipID string
}

// Reader opens one .xlsx package and iterates the rows of whichever
// worksheet is currently selected via ChangeSheet.
type Reader struct {
	cfg     Config
	pkg     *zipfs.Package
	tempDir string
	graph   *rels.Graph

	sheets     []SheetRef
	sheetIndex int

	sharedStrings *sharedstrings.Store
	styleTable    styles.Table
	formats       *numfmt.Engine

	sheetPaths map[string]string // relationship id -> extracted worksheet XML path
	current    *worksheet.Iterator
	rowsSeen   int
}

// Open opens the .xlsx package at path with the given configuration.
func Open(path string, cfg Config) (*Reader, error) {
	pkg, err := zipfs.Open(path)
	if err != nil {
		return nil, wrap("excel.Open", err)
	}

	tempDir, err := os.MkdirTemp(cfg.TempDir, "excel-manager-*")
	if err != nil {
		pkg.Close()
		return nil, wrap("excel.Open", err)
	}

	rd := &Reader{
		cfg:        cfg,
		pkg:        pkg,
		tempDir:    tempDir,
		sheetPaths: make(map[string]string),
	}

	if err := rd.init(); err != nil {
		rd.Close()
		return nil, err
	}
	return rd, nil
}

func (r *Reader) init() error {
	graph, err := rels.Resolve(r.pkg, r.pkg.BytesOf)
	if err != nil {
		return wrap("excel.Open", err)
	}
	r.graph = graph

	workbookPath, err := r.extract(graph.Workbook.OriginalPath)
	if err != nil {
		return wrap("excel.Open", err)
	}
	sheets, err := readSheetList(workbookPath)
	if err != nil {
		return wrap("excel.Open", err)
	}
	r.sheets = sheets

	sharedStringsPath := ""
	if r.graph.SharedStrings.Valid {
		p, err := r.extract(r.graph.SharedStrings.OriginalPath)
		if err != nil {
			return wrap("excel.Open", err)
		}
		sharedStringsPath = p
	}
	store, err := sharedstrings.Open(sharedStringsPath, r.tempDir, r.cfg.SharedStrings)
	if err != nil {
		return wrap("excel.Open", err)
	}
	r.sharedStrings = store

	if r.graph.Styles.Valid {
		stylesPath, err := r.extract(r.graph.Styles.OriginalPath)
		if err != nil {
			return wrap("excel.Open", err)
		}
		table, customFormats, err := styles.Load(stylesPath)
		if err != nil {
			return wrap("excel.Open", err)
		}
		r.styleTable = table
		r.formats = numfmt.NewEngine(
			customFormats,
			r.cfg.CustomizedFormats,
			r.cfg.ForceDateFormat,
			r.cfg.ForceTimeFormat,
			r.cfg.ForceDatetimeFormat,
			r.cfg.ReturnDateTimeObjects,
			r.cfg.DecimalSeparator,
			r.cfg.ThousandSeparator,
			r.cfg.CurrencyCode,
		)
	} else {
		r.formats = numfmt.NewEngine(nil, r.cfg.CustomizedFormats, r.cfg.ForceDateFormat,
			r.cfg.ForceTimeFormat, r.cfg.ForceDatetimeFormat, r.cfg.ReturnDateTimeObjects,
			r.cfg.DecimalSeparator, r.cfg.ThousandSeparator, r.cfg.CurrencyCode)
	}

	if len(r.sheets) > 0 {
		return r.ChangeSheetErr(0)
	}
	return nil
}

func (r *Reader) extract(originalPath string) (string, error) {
	if originalPath == "" {
		return "", nil
	}
	return r.pkg.Extract(originalPath, r.tempDir)
}

// Sheets returns the worksheets declared by the package, ordered by the
// numeric suffix of each sheet's relationship id ("rId3" -> 3), which may
// differ from the order of the <sheets> element.
func (r *Reader) Sheets() []SheetRef { return r.sheets }

// ChangeSheet selects the worksheet at index (0-based, in Sheets order) as
// the active iteration target and rewinds it. It reports false — not an
// error — when index is out of range, per spec.md §7's NotFound kind.
func (r *Reader) ChangeSheet(index int) bool {
	return r.ChangeSheetErr(index) == nil
}

// ChangeSheetErr is ChangeSheet's error-returning form, used internally by
// Open and exposed for callers that want to distinguish NotFound from other
// failures.
func (r *Reader) ChangeSheetErr(index int) error {
	if index < 0 || index >= len(r.sheets) {
		return wrap("excel.ChangeSheet", xlerr.ErrNotFound)
	}
	if r.current != nil {
		r.current.Close()
	}
	rID := r.sheets[index].RelationshipID
	sheetPath, ok := r.sheetPaths[rID]
	if !ok {
		elem, known := r.graph.Worksheets[rID]
		if !known || !elem.Valid {
			return wrap("excel.ChangeSheet", xlerr.ErrCorruptPackage)
		}
		p, err := r.extract(elem.OriginalPath)
		if err != nil {
			return wrap("excel.ChangeSheet", err)
		}
		sheetPath = p
		r.sheetPaths[rID] = p
	}

	r.current = worksheet.New(sheetPath, worksheet.Resolver{
		SharedStrings: r.sharedStrings,
		Formats:       r.formats,
		Styles:        r.styleTable,
	}, r.cfg.OutputColumnNames, r.cfg.SkipEmptyCells)
	r.sheetIndex = index
	r.rowsSeen = 0
	return wrap("excel.ChangeSheet", r.current.Rewind())
}

// Rewind resets iteration on the active worksheet to its first row.
func (r *Reader) Rewind() error {
	if r.current == nil {
		return wrap("excel.Rewind", xlerr.ErrInvalidArg)
	}
	r.rowsSeen = 0
	return wrap("excel.Rewind", r.current.Rewind())
}

// Next advances to and returns the next row of the active worksheet.
func (r *Reader) Next() (worksheet.Row, error) {
	if r.current == nil {
		return nil, wrap("excel.Next", xlerr.ErrInvalidArg)
	}
	row, err := r.current.Next()
	if err != nil {
		return nil, wrap("excel.Next", err)
	}
	if r.current.Valid() {
		r.rowsSeen++
	}
	return row, nil
}

// Valid reports whether the active worksheet currently sits on a usable
// row.
func (r *Reader) Valid() bool { return r.current != nil && r.current.Valid() }

// Key returns the active worksheet's current 1-based row number.
func (r *Reader) Key() int {
	if r.current == nil {
		return 0
	}
	return r.current.Key()
}

// Count returns the number of rows produced so far by the active
// worksheet's iteration.
func (r *Reader) Count() int { return r.rowsSeen }

// Close releases every resource the Reader holds: the zip archive, the
// shared-strings store, and the reader's temp directory (extracted parts
// and any shared-strings spill files).
func (r *Reader) Close() error {
	var firstErr error
	record := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if r.current != nil {
		record(r.current.Close())
		r.current = nil
	}
	if r.sharedStrings != nil {
		record(r.sharedStrings.Close())
	}
	if r.pkg != nil {
		record(r.pkg.Close())
	}
	if r.tempDir != "" {
		record(os.RemoveAll(r.tempDir))
	}
	if firstErr != nil {
		return wrap("excel.Close", firstErr)
	}
	return nil
}
