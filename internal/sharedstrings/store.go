package sharedstrings

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/NikkyAmresh/excel-manager/internal/xlerr"
	"github.com/NikkyAmresh/excel-manager/internal/xmlreader"
)

// Store resolves shared-string indices produced by the worksheet reader. It
// is built once per workbook by prescanning xl/sharedStrings.xml, then
// answers Get in whatever of three ways the prescan decided: RAM cache,
// on-disk spill file, or a rescan of the original XML.
type Store struct {
	xmlPath     string
	tempDir     string
	cfg         Config
	uniqueCount int

	ramCache []string
	ramCount int

	spillFiles   []*spillFile
	writingSpill *spillFile

	fallback      *xmlreader.Reader
	fallbackIndex int
	fallbackValue string
	fallbackValid bool
}

// Open prescans the shared-strings part at xmlPath (already extracted to a
// seekable file by the zip collaborator) and returns a ready Store. An
// empty xmlPath means the package has no shared-strings part at all; Get
// then always returns "".
func Open(xmlPath, tempDir string, cfg Config) (*Store, error) {
	s := &Store{xmlPath: xmlPath, tempDir: tempDir, cfg: cfg}
	if xmlPath == "" {
		return s, nil
	}
	if err := s.prescan(); err != nil {
		return nil, fmt.Errorf("sharedstrings: prescan: %w", err)
	}
	return s, nil
}

func (s *Store) prescan() error {
	r, err := xmlreader.Open(s.xmlPath)
	if err != nil {
		return fmt.Errorf("%w", xlerr.ErrIoUnreadable)
	}
	defer r.Close()

	found, err := r.NextNS("sst")
	if err != nil {
		return err
	}
	if !found {
		return nil
	}
	if n, ok := r.Attribute("uniqueCount"); ok {
		if v, err := strconv.Atoi(n); err == nil {
			s.uniqueCount = v
		}
	}
	if s.uniqueCount == 0 {
		return nil
	}

	writeToCache := s.cfg.UseCache
	approxBytes := 0
	index := 0
	inSI := false
	var value []byte

	for {
		more, err := r.Read()
		if err != nil {
			return err
		}
		if !more {
			break
		}
		if r.IsClosingTag() {
			if r.LocalName() == "si" {
				if err := s.prepare(index, string(value), writeToCache); err != nil {
					return err
				}
				if writeToCache {
					approxBytes += len(value)
					if approxBytes > s.cfg.CacheSizeKilobyte*1024 {
						writeToCache = false
						if index+1 < len(s.ramCache) {
							s.ramCache = s.ramCache[:index+1]
						}
						s.ramCount = index + 1
					}
				}
				index++
				inSI = false
				value = nil
			}
			continue
		}
		if name := r.LocalName(); name == "si" {
			inSI = true
			value = nil
			continue
		}
		if inSI {
			if cd := r.CharData(); cd != "" {
				value = append(value, cd...)
			}
		}
	}

	if s.writingSpill != nil {
		if err := s.writingSpill.closeWrite(); err != nil {
			return err
		}
	}
	sort.Slice(s.spillFiles, func(i, j int) bool {
		return s.spillFiles[i].firstIndex < s.spillFiles[j].firstIndex
	})
	return nil
}

// prepare disposes of one shared-string value discovered during the
// prescan, per spec.md §4.3.
func (s *Store) prepare(index int, value string, writeToCache bool) error {
	if writeToCache {
		if index >= len(s.ramCache) {
			grown := make([]string, ((index/100)+1)*100)
			copy(grown, s.ramCache)
			s.ramCache = grown
		}
		s.ramCache[index] = value
		if index+1 > s.ramCount {
			s.ramCount = index + 1
		}
		return nil
	}
	if !s.cfg.UseOptimizedFiles {
		return nil
	}
	if s.writingSpill == nil || s.writingSpill.count >= s.cfg.OptimizedFileEntryCount {
		if s.writingSpill != nil {
			if err := s.writingSpill.closeWrite(); err != nil {
				return err
			}
		}
		sf, err := newSpillFile(s.tempDir, index)
		if err != nil {
			return err
		}
		s.writingSpill = sf
		s.spillFiles = append(s.spillFiles, sf)
	}
	return s.writingSpill.append(value)
}

// Get resolves target_index to its shared-string value, per spec.md §4.3.
func (s *Store) Get(index int) (string, error) {
	if s.xmlPath == "" {
		return "", nil
	}
	if s.uniqueCount > 0 && index >= s.uniqueCount {
		return "", nil
	}
	if index < s.ramCount && index < len(s.ramCache) {
		return s.ramCache[index], nil
	}
	if sf := s.spillFileFor(index); sf != nil {
		value, err := sf.valueAt(index-sf.firstIndex, s.cfg.KeepFileHandles)
		switch {
		case err == nil:
			return value, nil
		case err == errMalformed:
			return "", nil
		}
		// io.EOF and any I/O error fall through to the XML rescan.
	}
	return s.xmlFallback(index)
}

func (s *Store) spillFileFor(index int) *spillFile {
	var best *spillFile
	for _, sf := range s.spillFiles {
		if sf.firstIndex <= index {
			best = sf
		} else {
			break
		}
	}
	return best
}

func (s *Store) xmlFallback(target int) (string, error) {
	if s.fallbackValid && s.fallbackIndex == target {
		return s.fallbackValue, nil
	}
	if s.fallback != nil && target < s.fallbackIndex {
		s.fallback.Close()
		s.fallback = nil
	}
	if s.fallback == nil {
		r, err := xmlreader.Open(s.xmlPath)
		if err != nil {
			return "", fmt.Errorf("%w", xlerr.ErrIoUnreadable)
		}
		found, err := r.NextNS("sst")
		if err != nil || !found {
			r.Close()
			return "", err
		}
		s.fallback = r
		s.fallbackIndex = -1
		s.fallbackValid = false
	}

	for s.fallbackIndex < target {
		ok, err := s.fallback.NextNS("si")
		if err != nil {
			return "", err
		}
		if !ok {
			return "", nil
		}
		s.fallbackIndex++
	}

	var value []byte
	for {
		more, err := s.fallback.Read()
		if err != nil {
			return "", err
		}
		if !more {
			break
		}
		if s.fallback.IsClosingTag() && s.fallback.LocalName() == "si" {
			break
		}
		if cd := s.fallback.CharData(); cd != "" {
			value = append(value, cd...)
		}
	}

	s.fallbackValue = string(value)
	s.fallbackValid = true

	if !s.cfg.KeepFileHandles {
		s.fallback.Close()
		s.fallback = nil
		s.fallbackIndex = -1
		s.fallbackValid = false
	}
	return s.fallbackValue, nil
}

// TempFiles returns the paths of every spill file the prescan created.
func (s *Store) TempFiles() []string {
	paths := make([]string, 0, len(s.spillFiles))
	for _, sf := range s.spillFiles {
		paths = append(paths, sf.path)
	}
	return paths
}

// Close releases all open handles (spill files and the XML fallback
// reader) without unlinking any spill file; the caller owns deletion of
// its temp directory.
func (s *Store) Close() error {
	var firstErr error
	for _, sf := range s.spillFiles {
		if err := sf.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.fallback != nil {
		if err := s.fallback.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		s.fallback = nil
	}
	return firstErr
}
