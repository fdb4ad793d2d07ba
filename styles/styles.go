// Package styles holds the resolved cell-format (XF) table parsed from
// xl/styles.xml: the numFmts overrides and the per-xf cellXfs entries,
// reduced to the three-way Ref the number-format engine needs (it uses
// only the numFmtId and the applyNumberFormat/quotePrefix flags; fonts,
// borders, and fills are out of scope per spec.md §1).
package styles

// Kind discriminates the three possible resolutions of a cellXfs entry.
type Kind int

const (
	// NoFormat means the cell's raw value passes through unchanged
	// (quotePrefix was set and no number format applies).
	NoFormat Kind = iota
	// General means the cell uses General formatting (an xf with no
	// numFmtId or with applyNumberFormat off, and no quotePrefix). An xf
	// with numFmtId 0 resolves to NumFmt(0), not General.
	General
	// NumFmt means the cell uses the named numFmtId, builtin or custom.
	NumFmt
)

// Ref is one resolved cellXfs entry.
type Ref struct {
	Kind     Kind
	NumFmtID int // meaningful only when Kind == NumFmt
}

// Table is the ordered list of resolved cellXfs entries; Table[s] is used by
// style index s from a worksheet cell's "s" attribute.
type Table []Ref

// At returns the Ref for style index s, or the General ref when s is out of
// range (styles.xml absent or malformed).
func (t Table) At(s int) Ref {
	if s < 0 || s >= len(t) {
		return Ref{Kind: General}
	}
	return t[s]
}

// Resolve computes the Ref for one cellXfs xf entry per spec.md §4.4:
//
//   - NumFmt(numFmtId) when numFmtId is present and applyNumberFormat is
//     missing, "1", or "true" (absent is treated as true — see DESIGN.md).
//   - NoFormat when quotePrefix is truthy and the above does not apply.
//   - General otherwise.
func Resolve(numFmtID *int, applyNumberFormat, quotePrefix string) Ref {
	if numFmtID != nil {
		if applyNumberFormat == "" || applyNumberFormat == "1" || applyNumberFormat == "true" {
			return Ref{Kind: NumFmt, NumFmtID: *numFmtID}
		}
	}
	if isTruthy(quotePrefix) {
		return Ref{Kind: NoFormat}
	}
	return Ref{Kind: General}
}

func isTruthy(v string) bool {
	return v == "1" || v == "true"
}

// BuiltInNumFmt maps built-in numFmtId values (0-49) to their canonical
// format code strings, per ECMA-376 §18.8.30. IDs not present here are
// locale-dependent built-ins with no static string representation.
var BuiltInNumFmt = map[int]string{
	0:  "General",
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	5:  `($#,##0_);($#,##0)`,
	6:  `($#,##0_);[Red]($#,##0)`,
	7:  `($#,##0.00_);($#,##0.00)`,
	8:  `($#,##0.00_);[Red]($#,##0.00)`,
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "mm-dd-yy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "h:mm",
	21: "h:mm:ss",
	22: "m/d/yy h:mm",
	37: `#,##0_);(#,##0)`,
	38: `#,##0_);[Red](#,##0)`,
	39: `#,##0.00_);(#,##0.00)`,
	40: `#,##0.00_);[Red](#,##0.00)`,
	41: `_(* #,##0_);_(* (#,##0);_(* "-"_);_(@_)`,
	42: `_($* #,##0_);_($* (#,##0);_($* "-"_);_(@_)`,
	43: `_(* #,##0.00_);_(* (#,##0.00);_(* "-"??_);_(@_)`,
	44: `_($* #,##0.00_);_($* (#,##0.00);_($* "-"??_);_(@_)`,
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mm:ss.0",
	48: "##0.0E+0",
	49: "@",
}
