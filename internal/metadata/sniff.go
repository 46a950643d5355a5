package metadata

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// DICOM part-10 files carry a 128-byte preamble followed by the magic
// marker "DICM".
const (
	magicOffset = 128
	magicMarker = "DICM"
)

// Sniffer reports whether a file is in the archive format, without decoding it.
type Sniffer interface {
	IsArchiveFile(path string) (bool, error)
}

// MagicSniffer recognizes archive files by the fixed-offset magic marker.
type MagicSniffer struct{}

// NewMagicSniffer returns the production Sniffer.
func NewMagicSniffer() *MagicSniffer {
	return &MagicSniffer{}
}

// IsArchiveFile checks the magic marker at the fixed preamble offset. Files
// shorter than the preamble are simply not archive files, not errors.
func (s *MagicSniffer) IsArchiveFile(path string) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	header := make([]byte, magicOffset+len(magicMarker))
	if _, err := io.ReadFull(file, header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return false, nil
		}
		return false, fmt.Errorf("read header of %s: %w", path, err)
	}

	return bytes.Equal(header[magicOffset:], []byte(magicMarker)), nil
}
