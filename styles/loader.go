package styles

import (
	"strconv"

	"github.com/NikkyAmresh/excel-manager/internal/xmlreader"
)

// Load parses xl/styles.xml at path into a Table of resolved cellXfs
// entries and the id->code map of custom <numFmts> entries declared in the
// same document.
func Load(path string) (Table, map[int]string, error) {
	r, err := xmlreader.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer r.Close()

	customFormats := make(map[int]string)
	var table Table

	for {
		more, err := r.Read()
		if err != nil {
			return nil, nil, err
		}
		if !more {
			break
		}
		if r.IsClosingTag() {
			continue
		}
		if r.LocalName() == "numFmt" {
			idRaw, hasID := r.Attribute("numFmtId")
			code, hasCode := r.Attribute("formatCode")
			if hasID && hasCode {
				if id, convErr := strconv.Atoi(idRaw); convErr == nil {
					customFormats[id] = code
				}
			}
		}
		// cellStyleXfs precedes cellXfs in document order and uses the
		// same <xf> element shape; it must be skipped wholesale so its
		// entries don't pollute the cellXfs-indexed Table that cell "s"
		// attributes address.
		if r.LocalName() == "cellStyleXfs" {
			if err := skipElement(r, "cellStyleXfs"); err != nil {
				return nil, nil, err
			}
			continue
		}
		if r.LocalName() == "cellXfs" {
			t, err := readCellXfs(r)
			if err != nil {
				return nil, nil, err
			}
			table = t
		}
	}
	return table, customFormats, nil
}

func skipElement(r *xmlreader.Reader, name string) error {
	depth := 1
	for depth > 0 {
		more, err := r.Read()
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
		if r.IsClosingTag() {
			if r.LocalName() == name {
				depth--
			}
			continue
		}
		if r.LocalName() == name {
			depth++
		}
	}
	return nil
}

func readCellXfs(r *xmlreader.Reader) (Table, error) {
	var table Table
	for {
		more, err := r.Read()
		if err != nil {
			return nil, err
		}
		if !more {
			return table, nil
		}
		if r.IsClosingTag() {
			if r.LocalName() == "cellXfs" {
				return table, nil
			}
			continue
		}
		if r.LocalName() != "xf" {
			continue
		}
		var numFmtID *int
		if raw, ok := r.Attribute("numFmtId"); ok {
			if n, convErr := strconv.Atoi(raw); convErr == nil {
				numFmtID = &n
			}
		}
		applyNumberFormat, _ := r.Attribute("applyNumberFormat")
		quotePrefix, _ := r.Attribute("quotePrefix")
		table = append(table, Resolve(numFmtID, applyNumberFormat, quotePrefix))
	}
}
