// Package rels resolves an OOXML package's relationship graph: the root
// _rels/.rels file, then the workbook's own .rels file, producing typed
// references to the workbook, worksheet, shared-strings, and styles parts.
package rels

import (
	"encoding/xml"
	"fmt"
	"path"
	"strings"

	"github.com/NikkyAmresh/excel-manager/internal/xlerr"
)

// Locator is the subset of the zip collaborator the resolver needs to mark
// elements valid.
type Locator interface {
	Locate(name string) bool
}

// Element is one resolved relationship target.
type Element struct {
	ID           string
	OriginalPath string // in-package path
	AccessPath   string // always empty: neither Resolve nor excel.Reader fills it in
	Valid        bool
}

// Graph is the resolved relationship graph for a package.
type Graph struct {
	Workbook      Element
	Worksheets    map[string]Element // keyed by relationship id
	SharedStrings Element            // zero value if absent
	Styles        Element            // zero value if absent
}

type xmlRelationships struct {
	Relationship []xmlRelationship `xml:"Relationship"`
}

type xmlRelationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

// Resolve builds the relationship graph for the package rooted at loc.
func Resolve(loc Locator, bytesOf func(string) ([]byte, error)) (*Graph, error) {
	rootRels, err := parseRels(bytesOf, RelsPathFor(""))
	if err != nil {
		return nil, fmt.Errorf("rels: root .rels: %w", err)
	}

	var workbookPath string
	for _, r := range rootRels {
		if discriminator(r.Type) == "officeDocument" {
			workbookPath = normalizeTarget("", r.Target)
			break
		}
	}
	if workbookPath == "" || !loc.Locate(workbookPath) {
		return nil, fmt.Errorf("rels: no valid officeDocument relationship: %w", xlerr.ErrCorruptPackage)
	}

	g := &Graph{
		Workbook: Element{
			ID:           "workbook",
			OriginalPath: workbookPath,
			Valid:        true,
		},
		Worksheets: make(map[string]Element),
	}

	wbRels, err := parseRels(bytesOf, RelsPathFor(workbookPath))
	if err != nil {
		return nil, fmt.Errorf("rels: workbook .rels: %w", err)
	}

	wbDir := path.Dir(workbookPath)
	for _, r := range wbRels {
		target := normalizeTarget(wbDir, r.Target)
		elem := Element{ID: r.ID, OriginalPath: target, Valid: loc.Locate(target)}
		switch discriminator(r.Type) {
		case "worksheet":
			g.Worksheets[r.ID] = elem
		case "sharedStrings":
			g.SharedStrings = elem
		case "styles":
			g.Styles = elem
		default:
			// Other relationship types (theme, calcChain, ...) are ignored
			// silently, per spec.md §4.2.
		}
	}
	return g, nil
}

// RelsPathFor returns the relationship-file path for package part p.
//
//   - "" (the package root) maps to "_rels/.rels".
//   - A path ending in "/" maps to "<p>_rels/.rels".
//   - Otherwise the relationship file is "<dir>/_rels/<base>.rels".
func RelsPathFor(p string) string {
	if p == "" {
		return "_rels/.rels"
	}
	if strings.HasSuffix(p, "/") {
		return p + "_rels/.rels"
	}
	dir := path.Dir(p)
	base := path.Base(p)
	if dir == "." {
		return "_rels/" + base + ".rels"
	}
	return dir + "/_rels/" + base + ".rels"
}

// discriminator returns the trailing segment of a relationship Type URI.
func discriminator(relType string) string {
	if i := strings.LastIndex(relType, "/"); i >= 0 {
		return relType[i+1:]
	}
	return relType
}

// normalizeTarget resolves Target relative to the directory of the
// referring part (refDir), handling backslashes and absolute-in-package
// targets (a leading "/").
func normalizeTarget(refDir, target string) string {
	target = strings.ReplaceAll(target, "\\", "/")
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	if refDir == "" || refDir == "." {
		return target
	}
	return path.Clean(refDir + "/" + target)
}

func parseRels(bytesOf func(string) ([]byte, error), relsPath string) ([]xmlRelationship, error) {
	data, err := bytesOf(relsPath)
	if err != nil {
		// Missing .rels is not itself corruption for callers that tolerate
		// absent optional parts (sharedStrings/styles); the caller decides.
		return nil, err
	}
	var doc xmlRelationships
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rels XML %q: %w", relsPath, err)
	}
	return doc.Relationship, nil
}
