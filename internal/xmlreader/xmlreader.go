// Package xmlreader is a thin namespace-tolerant adapter over encoding/xml's
// pull decoder. OOXML parts mix two equivalent namespace URI families (the
// 2006 schemas.openxmlformats.org URIs and the legacy purl.oclc.org mirrors),
// and the core needs to match elements and attributes by local name without
// caring which family a given document uses.
package xmlreader

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

// NSID is a short identifier for a set of namespace URIs considered
// equivalent for matching purposes.
type NSID int

const (
	// NSNone matches the empty namespace (unprefixed elements/attributes).
	NSNone NSID = iota
	// NSXLSXMain is the SpreadsheetML main namespace.
	NSXLSXMain
	// NSRelDoc is the officeDocument relationships namespace.
	NSRelDoc
	// NSRelPkg is the package relationships namespace.
	NSRelPkg
)

// uris maps each NSID to the set of URIs accepted for it.
var uris = map[NSID][]string{
	NSNone: {""},
	NSXLSXMain: {
		"http://schemas.openxmlformats.org/spreadsheetml/2006/main",
		"http://purl.oclc.org/ooxml/spreadsheetml/main",
	},
	NSRelDoc: {
		"http://schemas.openxmlformats.org/officeDocument/2006/relationships",
		"http://purl.oclc.org/ooxml/officeDocument/relationships",
	},
	NSRelPkg: {
		"http://schemas.openxmlformats.org/package/2006/relationships",
		"http://purl.oclc.org/ooxml/officeDocument/relationships",
	},
}

// ErrInvalidNamespace is the error uriSet reports for an unknown NSID. The
// exported matching functions do not return it: given an unknown id they
// report no match.
var ErrInvalidNamespace = fmt.Errorf("xmlreader: invalid namespace identifier")

func uriSet(id NSID) ([]string, error) {
	set, ok := uris[id]
	if !ok {
		return nil, ErrInvalidNamespace
	}
	return set, nil
}

// Reader pulls nodes one at a time from an XML stream, matching elements and
// attributes by local name within a small set of namespace identifiers.
type Reader struct {
	dec     *xml.Decoder
	closer  io.Closer
	cur     xml.Token
	defElem NSID
	defAttr NSID
	atEOF   bool
}

// Open opens the file at path for namespaced pull reading.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("xmlreader: open %q: %w", path, err)
	}
	r := newReader(f, f)
	return r, nil
}

// FromBytes wraps an in-memory XML document for namespaced pull reading.
func FromBytes(data []byte) *Reader {
	return newReader(bytes.NewReader(data), nil)
}

func newReader(r io.Reader, closer io.Closer) *Reader {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	return &Reader{dec: dec, closer: closer, defElem: NSXLSXMain, defAttr: NSNone}
}

// SetDefaultElementNS sets the namespace identifier used by MatchesElement
// and NextNS when no explicit identifier is given.
func (r *Reader) SetDefaultElementNS(id NSID) { r.defElem = id }

// SetDefaultAttributeNS sets the namespace identifier used by Attribute when
// no explicit identifier is given.
func (r *Reader) SetDefaultAttributeNS(id NSID) { r.defAttr = id }

// Close releases the underlying file handle, if any. It is a no-op for
// readers constructed with FromBytes.
func (r *Reader) Close() error {
	if r.closer != nil {
		return r.closer.Close()
	}
	return nil
}

// Read advances to the next node in the stream. It returns false (with a nil
// error) at end of document.
func (r *Reader) Read() (bool, error) {
	if r.atEOF {
		return false, nil
	}
	tok, err := r.dec.Token()
	if err != nil {
		if err == io.EOF {
			r.atEOF = true
			r.cur = nil
			return false, nil
		}
		return false, fmt.Errorf("xmlreader: read token: %w", err)
	}
	r.cur = xml.CopyToken(tok)
	return true, nil
}

// IsClosingTag reports whether the current node is a closing (end) element.
func (r *Reader) IsClosingTag() bool {
	_, ok := r.cur.(xml.EndElement)
	return ok
}

// LocalName returns the local name of the current element, or "" if the
// current node is not a start or end element.
func (r *Reader) LocalName() string {
	switch t := r.cur.(type) {
	case xml.StartElement:
		return t.Name.Local
	case xml.EndElement:
		return t.Name.Local
	}
	return ""
}

// CharData returns the raw character data of the current node, or "" if the
// current node is not character data.
func (r *Reader) CharData() string {
	if cd, ok := r.cur.(xml.CharData); ok {
		return string(cd)
	}
	return ""
}

// MatchesNamespace reports whether the current element's namespace URI is
// acceptable for id. forAttr does not change the check: it always tests the
// namespace of the current start or end element itself, never that of an
// attribute. An unknown id reports false.
func (r *Reader) MatchesNamespace(id NSID, forAttr bool) bool {
	set, err := uriSet(id)
	if err != nil {
		return false
	}
	var space string
	switch t := r.cur.(type) {
	case xml.StartElement:
		space = t.Name.Space
	case xml.EndElement:
		space = t.Name.Space
	default:
		return false
	}
	for _, u := range set {
		if u == space {
			return true
		}
	}
	return false
}

// MatchesElement reports whether the current node is a start or end element
// with local name localName in one of the accepted namespace URIs for id. If
// no id is given, the reader's default element namespace is used.
func (r *Reader) MatchesElement(localName string, id ...NSID) bool {
	nsID := r.defElem
	if len(id) > 0 {
		nsID = id[0]
	}
	set, err := uriSet(nsID)
	if err != nil {
		return false
	}
	var name xml.Name
	switch t := r.cur.(type) {
	case xml.StartElement:
		name = t.Name
	case xml.EndElement:
		name = t.Name
	default:
		return false
	}
	if name.Local != localName {
		return false
	}
	for _, u := range set {
		if u == name.Space {
			return true
		}
	}
	return false
}

// MatchesOneOf tries each candidate local name (in the reader's default
// element namespace) and returns the first one that matches the current
// node, or "" if none match.
func (r *Reader) MatchesOneOf(names []string) string {
	for _, n := range names {
		if r.MatchesElement(n) {
			return n
		}
	}
	return ""
}

// Attribute returns the value of the first attribute on the current start
// element whose local name is localName and whose namespace URI is accepted
// for id (NSNone matches unprefixed attributes). If no id is given, the
// reader's default attribute namespace is used. ok is false if the current
// node isn't a start element or no attribute matches.
func (r *Reader) Attribute(localName string, id ...NSID) (value string, ok bool) {
	nsID := r.defAttr
	if len(id) > 0 {
		nsID = id[0]
	}
	set, err := uriSet(nsID)
	if err != nil {
		return "", false
	}
	se, isStart := r.cur.(xml.StartElement)
	if !isStart {
		return "", false
	}
	for _, a := range se.Attr {
		if a.Name.Local != localName {
			continue
		}
		for _, u := range set {
			if u == a.Name.Space {
				return a.Value, true
			}
		}
	}
	return "", false
}

// NextNS advances the stream until a start element matching localName/id is
// found (sibling-or-deeper from the current position), or until the stream
// ends. It returns false when no such element is found before EOF.
func (r *Reader) NextNS(localName string, id ...NSID) (bool, error) {
	for {
		more, err := r.Read()
		if err != nil {
			return false, err
		}
		if !more {
			return false, nil
		}
		if _, isStart := r.cur.(xml.StartElement); !isStart {
			continue
		}
		if r.MatchesElement(localName, id...) {
			return true, nil
		}
	}
}
