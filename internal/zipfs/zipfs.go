// Package zipfs implements the zip collaborator contract the core needs:
// locating parts by name, reading them whole, and extracting them to a
// directory for seekable access. It wraps archive/zip directly; the core
// never opens a zip file itself.
package zipfs

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/NikkyAmresh/excel-manager/internal/xlerr"
)

// Package is a read-only view over an opened zip archive.
type Package struct {
	rc    *zip.ReadCloser
	index map[string]*zip.File
}

// Open opens the zip archive at path.
func Open(path string) (*Package, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("zipfs: open %q: %w", path, err)
	}
	p := &Package{rc: rc, index: make(map[string]*zip.File, len(rc.File))}
	for _, f := range rc.File {
		p.index[normalize(f.Name)] = f
	}
	return p, nil
}

// Close releases the underlying archive handle.
func (p *Package) Close() error {
	if p.rc == nil {
		return nil
	}
	return p.rc.Close()
}

// Locate reports whether name exists in the archive.
func (p *Package) Locate(name string) bool {
	_, ok := p.index[normalize(name)]
	return ok
}

// BytesOf reads the full contents of the named part.
func (p *Package) BytesOf(name string) ([]byte, error) {
	f, ok := p.index[normalize(name)]
	if !ok {
		return nil, fmt.Errorf("zipfs: %q not found in archive", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("zipfs: open %q: %w", name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("zipfs: read %q: %w", name, err)
	}
	return data, nil
}

// Extract writes the named part's contents into destDir under a file name
// made from its in-package path with every "/" replaced by "_", and returns
// the resulting on-disk path. A failure to read the part out of the archive
// wraps xlerr.ErrZipFailure.
func (p *Package) Extract(name, destDir string) (string, error) {
	f, ok := p.index[normalize(name)]
	if !ok {
		return "", fmt.Errorf("zipfs: %q not found in archive", name)
	}
	rc, err := f.Open()
	if err != nil {
		return "", fmt.Errorf("zipfs: open %q: %w: %w", name, xlerr.ErrZipFailure, err)
	}
	defer rc.Close()

	base := strings.ReplaceAll(name, "/", "_")
	dest := filepath.Join(destDir, base)
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("zipfs: create %q: %w", dest, err)
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return "", fmt.Errorf("zipfs: extract %q: %w: %w", name, xlerr.ErrZipFailure, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("zipfs: close %q: %w", dest, err)
	}
	return dest, nil
}

func normalize(name string) string {
	return strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "/")
}
