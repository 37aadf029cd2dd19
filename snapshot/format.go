package snapshot

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	// MagicBytes identifies a snapshot file.
	MagicBytes = "CSNP"
	// FormatVersion is the current snapshot format.
	FormatVersion uint16 = 1
)

var (
	// ErrInvalidFormat is returned when the input is not a snapshot.
	ErrInvalidFormat = errors.New("not a careersearch snapshot")
	// ErrUnsupportedVersion is returned for snapshots written by a newer format.
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
)

// Header precedes the compressed payload.
type Header struct {
	Magic    [4]byte
	Version  uint16
	Flags    uint16
	Reserved [4]byte
}

// WriteHeader writes the current header to w.
func WriteHeader(w io.Writer) error {
	header := Header{
		Magic:   [4]byte{'C', 'S', 'N', 'P'},
		Version: FormatVersion,
	}
	return binary.Write(w, binary.LittleEndian, header)
}

// ReadHeader reads and validates a header.
func ReadHeader(r io.Reader) (*Header, error) {
	var header Header
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrInvalidFormat
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	if string(header.Magic[:]) != MagicBytes {
		return nil, fmt.Errorf("%w: magic %q", ErrInvalidFormat, string(header.Magic[:]))
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, header.Version)
	}
	return &header, nil
}
