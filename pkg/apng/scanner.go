package apng

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Scanner walks the chunks of a PNG stream looking for image data.
type Scanner struct {
	r   io.ReadSeeker
	hdr [chunkHeaderSize]byte
}

// NewScanner returns a Scanner reading from r, which must be positioned at
// the start of a chunk header.
func NewScanner(r io.ReadSeeker) *Scanner {
	return &Scanner{r: r}
}

// NextData advances to the next IDAT chunk and returns the length of its
// payload. On return the stream is positioned at the first payload byte; the
// caller must consume the payload and the trailing 4-byte CRC before calling
// NextData again. Chunks of any other type are skipped.
//
// NextData returns io.EOF once the IEND chunk has been read.
func (s *Scanner) NextData() (uint32, error) {
	for {
		if _, err := io.ReadFull(s.r, s.hdr[:]); err != nil {
			return 0, truncated(err)
		}
		length := binary.BigEndian.Uint32(s.hdr[0:4])
		switch string(s.hdr[4:8]) {
		case TypeIDAT:
			return length, nil
		case TypeIEND:
			return 0, io.EOF
		}
		if _, err := s.r.Seek(int64(length)+chunkCRCSize, io.SeekCurrent); err != nil {
			return 0, err
		}
	}
}

// ReadImageData concatenates the payloads of every IDAT chunk from the current
// position of r up to IEND. It also reports how many IDAT chunks were found.
func ReadImageData(r io.ReadSeeker) ([]byte, int, error) {
	var (
		buf    bytes.Buffer
		chunks int
	)
	s := NewScanner(r)
	for {
		n, err := s.NextData()
		if errors.Is(err, io.EOF) {
			return buf.Bytes(), chunks, nil
		}
		if err != nil {
			return nil, chunks, err
		}
		if _, err := io.CopyN(&buf, r, int64(n)); err != nil {
			return nil, chunks, truncated(err)
		}
		if _, err := r.Seek(chunkCRCSize, io.SeekCurrent); err != nil {
			return nil, chunks, err
		}
		chunks++
	}
}

// truncated maps a short read onto ErrTruncatedChunk.
func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %w", ErrTruncatedChunk, io.ErrUnexpectedEOF)
	}
	return err
}
