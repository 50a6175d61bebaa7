package apng

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// ChunkInfo describes one chunk of an inspected stream.
type ChunkInfo struct {
	Offset      int64   `json:"offset"`
	Type        string  `json:"type"`
	Length      uint32  `json:"length"`
	CRC         uint32  `json:"crc"`
	ComputedCRC uint32  `json:"computed_crc"`
	Sequence    *uint32 `json:"sequence,omitempty"`
}

// Valid reports whether the stored CRC matches the recomputed one.
func (c ChunkInfo) Valid() bool { return c.CRC == c.ComputedCRC }

// Info is the chunk-level structure of a PNG or APNG stream.
type Info struct {
	Header    *ImageHeader      `json:"header,omitempty"`
	Animation *AnimationControl `json:"animation,omitempty"`
	Frames    []FrameControl    `json:"frames,omitempty"`
	Chunks    []ChunkInfo       `json:"chunks"`
	Size      int64             `json:"size"`
}

// InspectFile inspects the PNG or APNG file at path.
func InspectFile(path string) (*Info, error) {
	src, err := OpenSource(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = src.Close() }()
	return Inspect(src)
}

// Inspect reads a PNG or APNG stream up to and including IEND, recording every
// chunk and recomputing its CRC. Checksum mismatches are recorded rather than
// returned; use Verify to reject them.
func Inspect(r io.Reader) (*Info, error) {
	br := bufio.NewReader(r)

	var sig [signatureSize]byte
	if _, err := io.ReadFull(br, sig[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrNotPNG
		}
		return nil, err
	}
	if string(sig[:]) != Signature {
		return nil, ErrNotPNG
	}

	info := &Info{Size: int64(signatureSize)}
	var (
		hdr     [chunkHeaderSize]byte
		crc     [chunkCRCSize]byte
		payload bytes.Buffer
	)
	for {
		if _, err := io.ReadFull(br, hdr[:]); err != nil {
			return nil, truncated(err)
		}
		length := binary.BigEndian.Uint32(hdr[0:4])
		if length > maxChunkLength {
			return nil, fmt.Errorf("%w: length %d at offset %d", ErrChunkTooLarge, length, info.Size)
		}
		typ := string(hdr[4:8])

		payload.Reset()
		if _, err := io.CopyN(&payload, br, int64(length)); err != nil {
			return nil, truncated(err)
		}
		if _, err := io.ReadFull(br, crc[:]); err != nil {
			return nil, truncated(err)
		}

		data := payload.Bytes()
		ci := ChunkInfo{
			Offset:      info.Size,
			Type:        typ,
			Length:      length,
			CRC:         binary.BigEndian.Uint32(crc[:]),
			ComputedCRC: ChunkCRC(typ, data),
		}
		info.record(&ci, data)
		info.Chunks = append(info.Chunks, ci)
		info.Size += int64(chunkHeaderSize) + int64(length) + chunkCRCSize

		if typ == TypeIEND {
			return info, nil
		}
	}
}

func (info *Info) record(ci *ChunkInfo, data []byte) {
	switch ci.Type {
	case TypeIHDR:
		if h, ok := decodeImageHeader(data); ok && info.Header == nil {
			info.Header = &h
		}
	case TypeacTL:
		if c, ok := decodeAnimationControl(data); ok {
			info.Animation = &c
		}
	case TypefcTL:
		if fc, ok := decodeFrameControl(data); ok {
			info.Frames = append(info.Frames, fc)
			seq := fc.SequenceNumber
			ci.Sequence = &seq
		}
	case TypefdAT:
		if len(data) >= sequenceSize {
			seq := binary.BigEndian.Uint32(data[:sequenceSize])
			ci.Sequence = &seq
		}
	}
}

// Count returns the number of chunks of the given type.
func (info *Info) Count(typ string) int {
	n := 0
	for _, c := range info.Chunks {
		if c.Type == typ {
			n++
		}
	}
	return n
}

// Verify checks every chunk CRC and that fcTL/fdAT sequence numbers run
// 0, 1, 2, ... in stream order.
func (info *Info) Verify() error {
	var next uint32
	for _, c := range info.Chunks {
		if !c.Valid() {
			return fmt.Errorf("%w: %s at offset %d: stored %08x, computed %08x",
				ErrChecksum, c.Type, c.Offset, c.CRC, c.ComputedCRC)
		}
		if c.Sequence == nil {
			continue
		}
		if *c.Sequence != next {
			return fmt.Errorf("%w: %s at offset %d has %d, want %d",
				ErrSequence, c.Type, c.Offset, *c.Sequence, next)
		}
		next++
	}
	return nil
}
