package excel

import (
	"sort"
	"strconv"

	"github.com/NikkyAmresh/excel-manager/internal/xmlreader"
)

// relIDSuffix extracts the trailing integer of a relationship id such as
// "rId3" -> 3. Non-numeric or missing suffixes sort as 0, keeping their
// relative document order via sort.SliceStable.
func relIDSuffix(rID string) int {
	i := len(rID)
	for i > 0 && rID[i-1] >= '0' && rID[i-1] <= '9' {
		i--
	}
	if i == len(rID) {
		return 0
	}
	n, err := strconv.Atoi(rID[i:])
	if err != nil {
		return 0
	}
	return n
}

// readSheetList parses the <sheets> element of xl/workbook.xml, then orders
// the result by the numeric suffix of each sheet's relationship id (e.g.
// "rId3" -> 3) per spec.md §9 — this may diverge from the <sheets> element's
// own document order, which is the documented, intentional behavior.
func readSheetList(path string) ([]SheetRef, error) {
	r, err := xmlreader.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	found, err := r.NextNS("sheets")
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var sheets []SheetRef
	for {
		more, err := r.Read()
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		if r.IsClosingTag() {
			if r.LocalName() == "sheets" {
				break
			}
			continue
		}
		if r.LocalName() != "sheet" {
			continue
		}
		name, _ := r.Attribute("name")
		rID, _ := r.Attribute("id", xmlreader.NSRelDoc)
		sheets = append(sheets, SheetRef{Name: name, RelationshipID: rID})
	}

	sort.SliceStable(sheets, func(i, j int) bool {
		return relIDSuffix(sheets[i].RelationshipID) < relIDSuffix(sheets[j].RelationshipID)
	})
	return sheets, nil
}
