package apng

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Writer emits an APNG chunk stream.
//
// Calls must follow the container order: WriteSignature, WriteHeader,
// WriteAnimationControl, one WriteFrame per frame, then WriteEnd. The first
// frame is written as IDAT, every later frame as fdAT. A Writer is not safe for
// concurrent use.
type Writer struct {
	w      io.Writer
	seq    SequenceNumbers
	frames int
	n      int64
	ended  bool

	// scratch holds the payload of the control chunk being written.
	scratch [fctlPayloadSize]byte
}

// NewWriter returns a Writer targeting w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Written returns the number of bytes written so far.
func (w *Writer) Written() int64 { return w.n }

// Frames returns the number of frames written so far.
func (w *Writer) Frames() int { return w.frames }

// WriteSignature writes the 8-byte PNG signature.
func (w *Writer) WriteSignature() error {
	return w.write([]byte(Signature))
}

// WriteHeader copies a complete IHDR chunk, framing included, to the output
// without inspecting or re-checksumming it.
func (w *Writer) WriteHeader(chunk []byte) error {
	if len(chunk) != HeaderChunkSize {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrShortHeader, len(chunk), HeaderChunkSize)
	}
	return w.write(chunk)
}

// WriteAnimationControl writes the acTL chunk.
func (w *Writer) WriteAnimationControl(c AnimationControl) error {
	payload := w.scratch[:actlPayloadSize]
	c.encode(payload)
	return w.writeChunk(TypeacTL, payload)
}

// WriteFrame writes the fcTL chunk for a frame of the given size followed by
// its image data. It returns the frame control that was written.
func (w *Writer) WriteFrame(width, height uint32, data []byte) (FrameControl, error) {
	if w.ended {
		return FrameControl{}, ErrWriterEnded
	}
	if len(data) > maxChunkLength-sequenceSize {
		return FrameControl{}, fmt.Errorf("%w: %d bytes of frame data", ErrChunkTooLarge, len(data))
	}

	fc := FrameControl{
		SequenceNumber: w.seq.Next(),
		Width:          width,
		Height:         height,
		DelayNum:       DefaultDelayNum,
		DelayDen:       DefaultDelayDen,
		DisposeOp:      DefaultDisposeOp,
		BlendOp:        DefaultBlendOp,
	}
	payload := w.scratch[:fctlPayloadSize]
	fc.encode(payload)
	if err := w.writeChunk(TypefcTL, payload); err != nil {
		return FrameControl{}, err
	}

	var err error
	if w.frames == 0 {
		err = w.writeChunk(TypeIDAT, data)
	} else {
		var seq [sequenceSize]byte
		binary.BigEndian.PutUint32(seq[:], w.seq.Next())
		err = w.writeChunk(TypefdAT, seq[:], data)
	}
	if err != nil {
		return FrameControl{}, err
	}
	w.frames++
	return fc, nil
}

// WriteEnd writes the IEND trailer. The Writer must not be used afterwards.
func (w *Writer) WriteEnd() error {
	if err := w.writeChunk(TypeIEND); err != nil {
		return err
	}
	w.ended = true
	return nil
}

// writeChunk frames the concatenation of parts as a single chunk.
func (w *Writer) writeChunk(typ string, parts ...[]byte) error {
	if w.ended {
		return ErrWriterEnded
	}
	var length int
	for _, p := range parts {
		length += len(p)
	}
	if length > maxChunkLength {
		return fmt.Errorf("%w: %s chunk of %d bytes", ErrChunkTooLarge, typ, length)
	}

	var header [chunkHeaderSize]byte
	binary.BigEndian.PutUint32(header[0:4], uint32(length))
	copy(header[4:8], typ)
	if err := w.write(header[:]); err != nil {
		return err
	}
	for _, p := range parts {
		if err := w.write(p); err != nil {
			return err
		}
	}
	var footer [chunkCRCSize]byte
	binary.BigEndian.PutUint32(footer[:], ChunkCRC(typ, parts...))
	return w.write(footer[:])
}

func (w *Writer) write(p []byte) error {
	if len(p) == 0 {
		return nil
	}
	n, err := w.w.Write(p)
	w.n += int64(n)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	return err
}
