package styles

import "testing"

func intPtr(n int) *int { return &n }

func TestResolve(t *testing.T) {
	tests := []struct {
		name              string
		numFmtID          *int
		applyNumberFormat string
		quotePrefix       string
		want              Ref
	}{
		{"numFmtId present, applyNumberFormat absent defaults true", intPtr(14), "", "", Ref{Kind: NumFmt, NumFmtID: 14}},
		{"numFmtId present, applyNumberFormat explicit 1", intPtr(14), "1", "", Ref{Kind: NumFmt, NumFmtID: 14}},
		{"numFmtId present, applyNumberFormat explicit true", intPtr(14), "true", "", Ref{Kind: NumFmt, NumFmtID: 14}},
		{"numFmtId present but applyNumberFormat false falls through to quotePrefix", intPtr(14), "0", "1", Ref{Kind: NoFormat}},
		{"numFmtId present but applyNumberFormat false, no quotePrefix", intPtr(14), "0", "", Ref{Kind: General}},
		{"no numFmtId, quotePrefix set", nil, "", "1", Ref{Kind: NoFormat}},
		{"no numFmtId, no quotePrefix", nil, "", "", Ref{Kind: General}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Resolve(tc.numFmtID, tc.applyNumberFormat, tc.quotePrefix)
			if got != tc.want {
				t.Errorf("Resolve(%v, %q, %q) = %+v, want %+v", tc.numFmtID, tc.applyNumberFormat, tc.quotePrefix, got, tc.want)
			}
		})
	}
}

func TestTableAtOutOfRange(t *testing.T) {
	tbl := Table{{Kind: NumFmt, NumFmtID: 14}}
	if got := tbl.At(5); got.Kind != General {
		t.Errorf("At(5) = %+v, want General", got)
	}
	if got := tbl.At(-1); got.Kind != General {
		t.Errorf("At(-1) = %+v, want General", got)
	}
	if got := tbl.At(0); got.Kind != NumFmt || got.NumFmtID != 14 {
		t.Errorf("At(0) = %+v, want NumFmt/14", got)
	}
}

func TestBuiltInNumFmtKnownIDs(t *testing.T) {
	tests := map[int]string{
		0:  "General",
		9:  "0%",
		14: "mm-dd-yy",
		49: "@",
	}
	for id, want := range tests {
		if got := BuiltInNumFmt[id]; got != want {
			t.Errorf("BuiltInNumFmt[%d] = %q, want %q", id, got, want)
		}
	}
}
