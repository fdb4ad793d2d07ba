package numfmt

import (
	"math"
	"time"
)

// Excel/Lotus 1900 date system uses two different epochs depending on the
// day count, not one epoch with a uniform correction: below day 60 the
// epoch is 1899-12-31 (so day 1 lands on 1900-01-01); at and above day 60
// the epoch shifts to 1899-12-30, which silently folds the nonexistent
// 1900-02-29 (Lotus 1-2-3's phantom leap day, which Excel perpetuates for
// backward compatibility) onto the same calendar day as day 59. This
// dual-epoch shape is PhpSpreadsheet's actual Date::excelToDateTimeObject
// algorithm, which spec.md's "day-count is floor(value), minus 1 if > 60"
// prose is a loose paraphrase of; the dual-epoch form is what reproduces
// spec.md §8's own worked examples (serial 1 -> 1900-01-01, serial 60 ->
// 1900-02-28, serial 61 -> 1900-03-01) exactly, so it is what's kept here.
var (
	epochLow  = time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)
	epochHigh = time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
)

// serialToTime converts an Excel date serial to a time.Time.
func serialToTime(value float64) time.Time {
	days := math.Floor(value)

	epoch := epochLow
	if days >= 60 {
		epoch = epochHigh
	}

	// frac is always in [0,1) regardless of value's sign, since days is
	// value's floor; secs is therefore always a forward offset.
	frac := value - math.Floor(value)
	secs := int64(math.Round(frac * 86400))

	t := epoch.AddDate(0, 0, int(days))
	t = t.Add(time.Duration(secs) * time.Second)
	return t
}
