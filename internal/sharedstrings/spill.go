package sharedstrings

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// errMalformed marks a spill line that failed to decode as JSON.
var errMalformed = errors.New("sharedstrings: malformed spill entry")

// spillFile is one seek-optimized disk file holding a contiguous run of
// shared-string values, one JSON-encoded value per line.
type spillFile struct {
	firstIndex int
	path       string
	count      int // entries written, used to know when the file is full

	writer *os.File

	file      *os.File
	reader    *bufio.Reader
	cursor    int // local index of the next line to be read
	memoIndex int
	memoValue string
	memoValid bool
}

const tagAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// randomTag derives a 5-char base-36 spill-file tag from a fresh UUID's
// random bytes, so spill files created in the same process never collide.
func randomTag() string {
	id := uuid.New()
	var b [5]byte
	for i := range b {
		b[i] = tagAlphabet[int(id[i])%len(tagAlphabet)]
	}
	return string(b[:])
}

func newSpillFile(dir string, firstIndex int) (*spillFile, error) {
	name := "sst-" + strconv.Itoa(firstIndex) + "-" + randomTag() + ".jsonl"
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, err
	}
	return &spillFile{firstIndex: firstIndex, path: path, writer: f}, nil
}

// append writes one entry to the end of the file. The caller tracks count
// against Config.OptimizedFileEntryCount to decide when to roll over.
func (sf *spillFile) append(value string) error {
	enc, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if _, err := sf.writer.Write(enc); err != nil {
		return err
	}
	if _, err := sf.writer.Write([]byte("\n")); err != nil {
		return err
	}
	sf.count++
	return nil
}

// closeWrite finalizes the write side; it does not affect read state.
func (sf *spillFile) closeWrite() error {
	if sf.writer == nil {
		return nil
	}
	err := sf.writer.Close()
	sf.writer = nil
	return err
}

// valueAt returns the value at local (the index within this file, i.e.
// targetIndex - firstIndex), opening or rewinding the file as needed.
// io.EOF means the file ended before reaching local; errMalformed means the
// line at that position could not be decoded.
func (sf *spillFile) valueAt(local int, keepHandle bool) (string, error) {
	if sf.memoValid && sf.memoIndex == local {
		return sf.memoValue, nil
	}

	if sf.file == nil {
		f, err := os.Open(sf.path)
		if err != nil {
			return "", err
		}
		sf.file = f
		sf.reader = bufio.NewReader(f)
		sf.cursor = 0
	} else if sf.cursor > local {
		if _, err := sf.file.Seek(0, io.SeekStart); err != nil {
			return "", err
		}
		sf.reader = bufio.NewReader(sf.file)
		sf.cursor = 0
	}

	var line string
	for {
		l, err := sf.reader.ReadString('\n')
		if l == "" && err != nil {
			return "", io.EOF
		}
		line = strings.TrimRight(l, "\n")
		reached := sf.cursor == local
		sf.cursor++
		if reached {
			break
		}
		if err != nil {
			return "", io.EOF
		}
	}

	var value string
	if err := json.Unmarshal([]byte(line), &value); err != nil {
		return "", errMalformed
	}

	sf.memoIndex = local
	sf.memoValue = value
	sf.memoValid = true

	if !keepHandle {
		sf.file.Close()
		sf.file = nil
		sf.reader = nil
	}
	return value, nil
}

func (sf *spillFile) close() error {
	if err := sf.closeWrite(); err != nil {
		return err
	}
	if sf.file != nil {
		err := sf.file.Close()
		sf.file = nil
		return err
	}
	return nil
}
