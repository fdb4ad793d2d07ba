package xmlreader

import "testing"

const sheetDoc = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main">
<sheetData>
<row r="1"><c r="A1" t="s"><v>0</v></c></row>
</sheetData>
</worksheet>`

const legacyNSDoc = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<worksheet xmlns="http://purl.oclc.org/ooxml/spreadsheetml/main">
<sheetData><row r="1"></row></sheetData>
</worksheet>`

func TestNextNSFindsElementAndAttributes(t *testing.T) {
	r := FromBytes([]byte(sheetDoc))
	defer r.Close()

	ok, err := r.NextNS("c")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected to find <c>")
	}
	if ref, present := r.Attribute("r"); !present || ref != "A1" {
		t.Errorf("Attribute(r) = %q, present=%v, want A1,true", ref, present)
	}
	if ty, present := r.Attribute("t"); !present || ty != "s" {
		t.Errorf("Attribute(t) = %q, present=%v, want s,true", ty, present)
	}
	if _, present := r.Attribute("missing"); present {
		t.Error("Attribute(missing) should not be present")
	}
}

func TestNextNSMatchesLegacyNamespace(t *testing.T) {
	r := FromBytes([]byte(legacyNSDoc))
	defer r.Close()

	ok, err := r.NextNS("row")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected to find <row> under the purl.oclc.org namespace variant")
	}
}

func TestNextNSReturnsFalseAtEOF(t *testing.T) {
	r := FromBytes([]byte(sheetDoc))
	defer r.Close()

	ok, err := r.NextNS("nonexistent")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected no match for an element that never appears")
	}

	// The reader is now exhausted; a second call should behave the same way
	// rather than erroring.
	ok2, err := r.NextNS("row")
	if err != nil {
		t.Fatal(err)
	}
	if ok2 {
		t.Error("expected no further matches once the stream is exhausted")
	}
}

func TestMatchesElementRejectsWrongNamespace(t *testing.T) {
	r := FromBytes([]byte(legacyNSDoc))
	defer r.Close()

	ok, err := r.NextNS("row")
	if err != nil || !ok {
		t.Fatalf("NextNS(row): ok=%v err=%v", ok, err)
	}
	// row matched under NSXLSXMain (the reader's default), which accepts
	// both URI families; NSRelDoc should not match the same element.
	if r.MatchesElement("row", NSRelDoc) {
		t.Error("row should not match under the relationships namespace")
	}
}

func TestInvalidNamespaceID(t *testing.T) {
	r := FromBytes([]byte(sheetDoc))
	defer r.Close()
	if r.MatchesNamespace(NSID(99), false) {
		t.Error("an unregistered NSID should never match")
	}
}

func TestIsClosingTagAndCharData(t *testing.T) {
	r := FromBytes([]byte(`<a>text</a>`))
	defer r.Close()

	ok, err := r.NextNS("a", NSNone)
	if err != nil || !ok {
		t.Fatalf("NextNS(a): ok=%v err=%v", ok, err)
	}
	if r.IsClosingTag() {
		t.Error("start element reported as closing tag")
	}

	more, err := r.Read()
	if err != nil || !more {
		t.Fatalf("Read() char data: more=%v err=%v", more, err)
	}
	if r.CharData() != "text" {
		t.Errorf("CharData() = %q, want text", r.CharData())
	}

	more, err = r.Read()
	if err != nil || !more {
		t.Fatalf("Read() closing tag: more=%v err=%v", more, err)
	}
	if !r.IsClosingTag() || r.LocalName() != "a" {
		t.Errorf("expected closing </a>, got closing=%v name=%q", r.IsClosingTag(), r.LocalName())
	}
}
