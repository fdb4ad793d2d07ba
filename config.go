package excel

import "github.com/NikkyAmresh/excel-manager/internal/sharedstrings"

// Config carries every option spec.md's external-interfaces table lists.
type Config struct {
	// TempDir is the base directory for extracted parts and spill files.
	// The system temp directory is used when empty.
	TempDir string
	// ReturnDateTimeObjects makes DateTime-formatted cells return
	// time.Time values instead of formatted strings.
	ReturnDateTimeObjects bool
	// OutputColumnNames remaps row keys from 0-based integers to
	// spreadsheet column letters ("A", "B", …).
	OutputColumnNames bool
	// SkipEmptyCells omits gaps in a row instead of filling them with "";
	// an entirely empty row becomes a single-entry row keyed by a nil
	// placeholder instead of an empty map.
	SkipEmptyCells bool

	// SharedStrings configures the shared-strings store (spec.md §4.3).
	SharedStrings sharedstrings.Config

	// CustomizedFormats overrides format codes by numFmtId. Only ids in
	// styles.BuiltInNumFmt are overridden; entries for other ids are
	// ignored.
	CustomizedFormats map[int]string
	// ForceDateFormat, ForceTimeFormat, and ForceDatetimeFormat, when
	// set, are used in place of a date/time cell's compiled format code.
	ForceDateFormat     string
	ForceTimeFormat     string
	ForceDatetimeFormat string

	// DecimalSeparator, ThousandSeparator, and CurrencyCode are
	// locale-derived rendering defaults; the core never looks these up
	// itself.
	DecimalSeparator  string
	ThousandSeparator string
	CurrencyCode      string
}

// DefaultConfig returns the Reader's default configuration.
func DefaultConfig() Config {
	return Config{
		SharedStrings:     sharedstrings.DefaultConfig(),
		DecimalSeparator:  ".",
		ThousandSeparator: ",",
		CurrencyCode:      "USD",
	}
}
