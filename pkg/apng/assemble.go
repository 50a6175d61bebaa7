package apng

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
)

const outputBufSize = 1 << 16

// Frame describes one frame after it has been written.
type Frame struct {
	Index          int
	Path           string
	Width          uint32
	Height         uint32
	SequenceNumber uint32 // of the frame's fcTL
	DataSize       int    // image data bytes, excluding any fdAT sequence prefix
}

// Assembler builds an APNG from an ordered list of PNG files. The zero value
// is ready to use.
type Assembler struct {
	// OnFrame, if set, is called after each frame has been written.
	OnFrame func(Frame)
}

// Assemble writes an APNG built from srcs to the file dst.
func Assemble(dst string, srcs []string) error {
	var a Assembler
	return a.Assemble(dst, srcs)
}

// Assemble writes an APNG built from srcs to the file dst, creating or
// truncating it. On failure dst is left in place with partial contents; it is
// the caller's job to remove it.
func (a *Assembler) Assemble(dst string, srcs []string) error {
	if len(srcs) == 0 {
		return ErrNoSources
	}

	f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	bw := bufio.NewWriterSize(f, outputBufSize)
	if err := a.AssembleTo(bw, srcs); err != nil {
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// AssembleTo writes an APNG built from srcs to w. The image header of srcs[0]
// becomes the header of the animation; every source contributes one frame, in
// order.
func (a *Assembler) AssembleTo(w io.Writer, srcs []string) error {
	if len(srcs) == 0 {
		return ErrNoSources
	}

	hdr, err := readSourceHeader(srcs[0])
	if err != nil {
		return err
	}

	aw := NewWriter(w)
	if err := aw.WriteSignature(); err != nil {
		return err
	}
	if err := aw.WriteHeader(hdr[:]); err != nil {
		return err
	}
	if err := aw.WriteAnimationControl(AnimationControl{
		NumFrames: uint32(len(srcs)),
		NumPlays:  DefaultNumPlays,
	}); err != nil {
		return err
	}

	for i, path := range srcs {
		frame, err := writeFrame(aw, i, path)
		if err != nil {
			return fmt.Errorf("frame %d (%s): %w", i, path, err)
		}
		if a.OnFrame != nil {
			a.OnFrame(frame)
		}
	}

	return aw.WriteEnd()
}

func writeFrame(aw *Writer, index int, path string) (Frame, error) {
	src, err := OpenSource(path)
	if err != nil {
		return Frame{}, err
	}
	defer func() { _ = src.Close() }()

	var hdr [HeaderChunkSize]byte
	if err := readHeaderChunk(src, &hdr); err != nil {
		return Frame{}, err
	}
	width, height := headerDimensions(hdr[:])

	data, chunks, err := ReadImageData(src)
	if err != nil {
		return Frame{}, err
	}
	if chunks == 0 {
		return Frame{}, ErrNoImageData
	}

	fc, err := aw.WriteFrame(width, height, data)
	if err != nil {
		return Frame{}, err
	}
	return Frame{
		Index:          index,
		Path:           path,
		Width:          width,
		Height:         height,
		SequenceNumber: fc.SequenceNumber,
		DataSize:       len(data),
	}, nil
}

func readSourceHeader(path string) ([HeaderChunkSize]byte, error) {
	var hdr [HeaderChunkSize]byte
	src, err := OpenSource(path)
	if err != nil {
		return hdr, err
	}
	defer func() { _ = src.Close() }()

	if err := readHeaderChunk(src, &hdr); err != nil {
		return hdr, fmt.Errorf("%s: %w", path, err)
	}
	return hdr, nil
}

// readHeaderChunk reads the IHDR chunk that immediately follows the signature
// and leaves r positioned at the next chunk.
func readHeaderChunk(r io.ReadSeeker, hdr *[HeaderChunkSize]byte) error {
	if _, err := r.Seek(int64(signatureSize), io.SeekStart); err != nil {
		return err
	}
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fmt.Errorf("%w: %w", ErrShortHeader, io.ErrUnexpectedEOF)
		}
		return err
	}
	return nil
}
