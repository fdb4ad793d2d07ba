// Package worksheet pulls rows out of a single xl/worksheets/sheetN.xml
// part. It never loads the sheet into memory whole: Next advances a state
// machine over the underlying XML token stream one row at a time.
package worksheet

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/NikkyAmresh/excel-manager/internal/xlerr"
	"github.com/NikkyAmresh/excel-manager/internal/xmlreader"
	"github.com/NikkyAmresh/excel-manager/numfmt"
	"github.com/NikkyAmresh/excel-manager/styles"
)

// State is the iterator's position in the sheet.
type State int

const (
	Closed State = iota
	BeforeFirstRow
	InsideRow
	BetweenRows
	Ended
)

// Row is one worksheet row. Keys are column indices (0-based int) unless
// OutputColumnNames was requested at construction, in which case keys are
// spreadsheet column letters ("A", "B", …).
type Row map[any]any

// Resolver supplies the three pieces of workbook-wide state the iterator
// needs to turn a raw cell into a value: the shared-string table, the
// number-format engine, and the resolved style table. All are non-owning —
// the iterator never closes them.
type Resolver struct {
	SharedStrings interface {
		Get(index int) (string, error)
	}
	Formats *numfmt.Engine
	Styles  styles.Table
}

// Iterator reads rows from one worksheet XML part.
type Iterator struct {
	path     string
	resolver Resolver

	namedCols bool
	skipEmpty bool

	state     State
	r         *xmlreader.Reader
	rowNumber int
	valid     bool
}

// New constructs an Iterator over the worksheet XML at path. Resolution of
// shared strings and number formats is deferred to resolver, and is not
// invoked until Next produces a cell.
func New(path string, resolver Resolver, outputColumnNames, skipEmptyCells bool) *Iterator {
	return &Iterator{
		path:      path,
		resolver:  resolver,
		namedCols: outputColumnNames,
		skipEmpty: skipEmptyCells,
		state:     Closed,
	}
}

// Rewind (re)opens the worksheet XML and resets iteration to just before
// the first row.
func (it *Iterator) Rewind() error {
	if it.r != nil {
		it.r.Close()
		it.r = nil
	}
	r, err := xmlreader.Open(it.path)
	if err != nil {
		return fmt.Errorf("worksheet: %w", xlerr.ErrIoUnreadable)
	}
	it.r = r
	it.state = BeforeFirstRow
	it.rowNumber = 0
	it.valid = true
	return nil
}

// Valid reports whether the iterator currently sits on a usable row.
func (it *Iterator) Valid() bool { return it.valid && it.state != Ended && it.state != Closed }

// Key returns the current row's 1-based row number.
func (it *Iterator) Key() int { return it.rowNumber }

// Close releases the underlying XML reader.
func (it *Iterator) Close() error {
	if it.r == nil {
		return nil
	}
	err := it.r.Close()
	it.r = nil
	it.state = Closed
	return err
}

// Next advances to the next row and returns it. A nil row with Valid()
// false afterward means the sheet is exhausted.
func (it *Iterator) Next() (Row, error) {
	it.rowNumber++

	found, declared, rowAttr, err := it.seekRow()
	if err != nil {
		return nil, err
	}
	if !found {
		it.valid = false
		it.state = Ended
		return nil, nil
	}
	if rowAttr != it.rowNumber {
		// Sparse: the next <row> on disk belongs to a later row number
		// than expected. Emit a placeholder and do not consume it.
		it.state = BetweenRows
		return it.blankRow(declared), nil
	}
	it.state = InsideRow
	return it.readRowBody(declared)
}

// seekRow positions the reader on the next <row> element, reporting its
// declared span width (from spans="a:b", or 0 if absent/unreadable) and its
// r attribute (or the expected row number if r is absent/unreadable). A
// <row> opening tag that the previous call answered with a sparse
// placeholder is still the current node; it is reused rather than skipped
// while its row number has not yet been passed.
func (it *Iterator) seekRow() (found bool, declaredWidth int, rowAttr int, err error) {
	reuse := !it.r.IsClosingTag() && it.r.MatchesElement("row")
	if reuse {
		raw, _ := it.r.Attribute("r")
		if n, convErr := strconv.Atoi(raw); convErr != nil || n < it.rowNumber {
			reuse = false
		}
	}
	if !reuse {
		ok, err := it.r.NextNS("row")
		if err != nil {
			return false, 0, 0, err
		}
		if !ok {
			return false, 0, 0, nil
		}
	}
	rowAttr = it.rowNumber
	if raw, present := it.r.Attribute("r"); present {
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			rowAttr = n
		}
	}
	declaredWidth = 0
	if spans, present := it.r.Attribute("spans"); present {
		parts := strings.SplitN(spans, ":", 2)
		if len(parts) == 2 {
			if b, convErr := strconv.Atoi(parts[1]); convErr == nil {
				declaredWidth = b
			}
		}
	}
	return true, declaredWidth, rowAttr, nil
}

func (it *Iterator) blankRow(declaredWidth int) Row {
	if it.skipEmpty {
		return Row{nil: nil}
	}
	if declaredWidth <= 0 {
		return Row{}
	}
	row := make(Row, declaredWidth)
	for c := 0; c < declaredWidth; c++ {
		row[it.rowKey(c)] = ""
	}
	return row
}

func (it *Iterator) rowKey(col int) any {
	if it.namedCols {
		return columnLetters(col)
	}
	return col
}

// readRowBody consumes the cells of the row whose opening <row> tag was
// just matched by seekRow, returning them as a Row, and terminates at the
// matching </row>.
func (it *Iterator) readRowBody(declaredWidth int) (Row, error) {
	row := make(Row)

	nextCol := 0
	maxCol := -1
	haveCell := false
	var curCol int
	var curType string
	var curStyle int
	var curText strings.Builder
	inValue := false

	flush := func() error {
		if !haveCell {
			return nil
		}
		value, err := it.resolveCell(curText.String(), curType, curStyle)
		if err != nil {
			return err
		}
		row[it.rowKey(curCol)] = value
		haveCell = false
		curText.Reset()
		return nil
	}

	for {
		more, err := it.r.Read()
		if err != nil {
			return nil, err
		}
		if !more {
			it.state = Ended
			it.valid = false
			return it.finalizeRow(row, declaredWidth, maxCol), nil
		}

		if it.r.IsClosingTag() {
			switch it.r.LocalName() {
			case "row":
				if err := flush(); err != nil {
					return nil, err
				}
				it.state = BetweenRows
				return it.finalizeRow(row, declaredWidth, maxCol), nil
			case "c":
				if err := flush(); err != nil {
					return nil, err
				}
			case "v", "is":
				inValue = false
			}
			continue
		}

		switch it.r.LocalName() {
		case "c":
			if err := flush(); err != nil {
				return nil, err
			}
			curCol = nextCol
			if raw, present := it.r.Attribute("r"); present {
				if c, ok := columnIndex(raw); ok {
					curCol = c
				}
			}
			curType = ""
			if t, present := it.r.Attribute("t"); present {
				curType = t
			}
			curStyle = 0
			if s, present := it.r.Attribute("s"); present {
				if n, convErr := strconv.Atoi(s); convErr == nil {
					curStyle = n
				}
			}
			nextCol = curCol + 1
			if curCol > maxCol {
				maxCol = curCol
			}
			haveCell = true
			if !it.skipEmpty {
				row[it.rowKey(curCol)] = ""
			}
		case "v", "is":
			inValue = true
		default:
			if inValue {
				curText.WriteString(it.r.CharData())
			}
		}
	}
}

// finalizeRow applies spec.md §4.5's post-fill rule: when empty-skipping is
// off, any column up to max(declaredWidth, maxCol+1) not already present is
// filled with "" so the row is a dense sequence (spans is only a lower
// bound — a cell past the declared width still widens the row). When
// empty-skipping is on, gaps are never filled; if that leaves the row with
// no entries at all, a single null placeholder is emitted instead of an
// empty map.
func (it *Iterator) finalizeRow(row Row, declaredWidth, maxCol int) Row {
	if it.skipEmpty {
		if len(row) == 0 {
			return Row{nil: nil}
		}
		return row
	}
	width := declaredWidth
	if maxCol+1 > width {
		width = maxCol + 1
	}
	for c := 0; c < width; c++ {
		key := it.rowKey(c)
		if _, ok := row[key]; !ok {
			row[key] = ""
		}
	}
	return row
}

// resolveCell turns raw cell text into its final value, per spec.md §4.5
// and §4.4: shared-string resolution, then number-format application or
// general formatting.
func (it *Iterator) resolveCell(raw, cellType string, styleIdx int) (any, error) {
	text := raw
	numeric := cellType == "" || cellType == "n"

	if cellType == "s" {
		idx, err := strconv.Atoi(strings.TrimSpace(raw))
		if err == nil && it.resolver.SharedStrings != nil {
			s, err := it.resolver.SharedStrings.Get(idx)
			if err != nil {
				return nil, err
			}
			text = s
		}
		numeric = false
	}
	if cellType == "b" {
		return text == "1", nil
	}

	if styleIdx > 0 {
		ref := it.resolver.Styles.At(styleIdx)
		if it.resolver.Formats != nil {
			return it.resolver.Formats.Format(text, numeric, ref)
		}
		return text, nil
	}
	if numeric && strings.TrimSpace(text) != "" && it.resolver.Formats != nil {
		if v, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			return it.resolver.Formats.General(v), nil
		}
	}
	return text, nil
}

// columnIndex decodes the alphabetic column prefix of a cell reference
// like "AA12" into a 0-based column index.
func columnIndex(ref string) (int, bool) {
	i := 0
	for i < len(ref) && ref[i] >= 'A' && ref[i] <= 'Z' {
		i++
	}
	if i == 0 {
		return 0, false
	}
	col := 0
	for j := 0; j < i; j++ {
		col = col*26 + int(ref[j]-'A'+1)
	}
	return col - 1, true
}

// columnLetters encodes a 0-based column index as spreadsheet letters.
func columnLetters(col int) string {
	col++
	var b []byte
	for col > 0 {
		col--
		b = append([]byte{byte('A' + col%26)}, b...)
		col /= 26
	}
	return string(b)
}
