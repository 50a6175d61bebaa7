package apng

import (
	"encoding/binary"
	"hash/crc32"
)

// maxChunkLength is the largest payload a PNG chunk may declare.
const maxChunkLength = 1<<31 - 1

// AnimationControl is the acTL chunk payload.
type AnimationControl struct {
	NumFrames uint32 `json:"num_frames"`
	NumPlays  uint32 `json:"num_plays"` // 0 loops forever
}

func (c AnimationControl) encode(b []byte) {
	binary.BigEndian.PutUint32(b[0:4], c.NumFrames)
	binary.BigEndian.PutUint32(b[4:8], c.NumPlays)
}

func decodeAnimationControl(b []byte) (AnimationControl, bool) {
	if len(b) != actlPayloadSize {
		return AnimationControl{}, false
	}
	return AnimationControl{
		NumFrames: binary.BigEndian.Uint32(b[0:4]),
		NumPlays:  binary.BigEndian.Uint32(b[4:8]),
	}, true
}

// FrameControl is the fcTL chunk payload.
type FrameControl struct {
	SequenceNumber uint32    `json:"sequence_number"`
	Width          uint32    `json:"width"`
	Height         uint32    `json:"height"`
	XOffset        uint32    `json:"x_offset"`
	YOffset        uint32    `json:"y_offset"`
	DelayNum       uint16    `json:"delay_num"`
	DelayDen       uint16    `json:"delay_den"`
	DisposeOp      DisposeOp `json:"dispose_op"`
	BlendOp        BlendOp   `json:"blend_op"`
}

func (c *FrameControl) encode(b []byte) {
	binary.BigEndian.PutUint32(b[0:4], c.SequenceNumber)
	binary.BigEndian.PutUint32(b[4:8], c.Width)
	binary.BigEndian.PutUint32(b[8:12], c.Height)
	binary.BigEndian.PutUint32(b[12:16], c.XOffset)
	binary.BigEndian.PutUint32(b[16:20], c.YOffset)
	binary.BigEndian.PutUint16(b[20:22], c.DelayNum)
	binary.BigEndian.PutUint16(b[22:24], c.DelayDen)
	b[24] = byte(c.DisposeOp)
	b[25] = byte(c.BlendOp)
}

func decodeFrameControl(b []byte) (FrameControl, bool) {
	if len(b) != fctlPayloadSize {
		return FrameControl{}, false
	}
	return FrameControl{
		SequenceNumber: binary.BigEndian.Uint32(b[0:4]),
		Width:          binary.BigEndian.Uint32(b[4:8]),
		Height:         binary.BigEndian.Uint32(b[8:12]),
		XOffset:        binary.BigEndian.Uint32(b[12:16]),
		YOffset:        binary.BigEndian.Uint32(b[16:20]),
		DelayNum:       binary.BigEndian.Uint16(b[20:22]),
		DelayDen:       binary.BigEndian.Uint16(b[22:24]),
		DisposeOp:      DisposeOp(b[24]),
		BlendOp:        BlendOp(b[25]),
	}, true
}

// ImageHeader is the decoded IHDR chunk payload.
type ImageHeader struct {
	Width             uint32 `json:"width"`
	Height            uint32 `json:"height"`
	BitDepth          uint8  `json:"bit_depth"`
	ColorType         uint8  `json:"color_type"`
	CompressionMethod uint8  `json:"compression_method"`
	FilterMethod      uint8  `json:"filter_method"`
	InterlaceMethod   uint8  `json:"interlace_method"`
}

func decodeImageHeader(b []byte) (ImageHeader, bool) {
	if len(b) != ihdrPayloadSize {
		return ImageHeader{}, false
	}
	return ImageHeader{
		Width:             binary.BigEndian.Uint32(b[0:4]),
		Height:            binary.BigEndian.Uint32(b[4:8]),
		BitDepth:          b[8],
		ColorType:         b[9],
		CompressionMethod: b[10],
		FilterMethod:      b[11],
		InterlaceMethod:   b[12],
	}, true
}

// headerDimensions reads width and height out of a complete IHDR chunk,
// framing included.
func headerDimensions(chunk []byte) (width, height uint32) {
	width = binary.BigEndian.Uint32(chunk[ihdrWidthOffset : ihdrWidthOffset+4])
	height = binary.BigEndian.Uint32(chunk[ihdrHeightOffset : ihdrHeightOffset+4])
	return width, height
}

// SequenceNumbers hands out the shared fcTL/fdAT sequence, starting at 0.
type SequenceNumbers uint32

// Next returns the current number and advances the counter.
func (s *SequenceNumbers) Next() uint32 {
	n := uint32(*s)
	*s++
	return n
}

// ChunkCRC returns the CRC-32 of a chunk's type tag followed by its payload
// parts, as stored in the chunk trailer.
func ChunkCRC(typ string, parts ...[]byte) uint32 {
	crc := crc32.NewIEEE()
	_, _ = crc.Write([]byte(typ))
	for _, p := range parts {
		_, _ = crc.Write(p)
	}
	return crc.Sum32()
}

// AppendChunk appends a complete chunk (length, type, payload, CRC) to dst.
func AppendChunk(dst []byte, typ string, payload []byte) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(payload)))
	dst = append(dst, typ...)
	dst = append(dst, payload...)
	return binary.BigEndian.AppendUint32(dst, ChunkCRC(typ, payload))
}
