// Package apng assembles Animated PNG files from standalone PNG stills.
//
// Frames are never decoded. Each source contributes its IDAT payload, which is
// relabelled as IDAT (first frame) or fdAT (later frames) behind a synthesized
// fcTL chunk. The image header of the first source becomes the header of the
// whole animation.
//
// For the container layout, see:
//
// https://wiki.mozilla.org/APNG_Specification
// https://www.w3.org/TR/PNG/
package apng

// PNG and APNG layout constants must never change.
const (
	// Signature is the fixed 8-byte prefix of every PNG stream.
	Signature = "\x89PNG\r\n\x1a\n"

	signatureSize = len(Signature)

	// HeaderChunkSize is the size of a complete IHDR chunk including its
	// length, type and CRC framing.
	HeaderChunkSize = 25

	chunkHeaderSize  = 8
	chunkCRCSize     = 4
	sequenceSize     = 4
	actlPayloadSize  = 8
	fctlPayloadSize  = 26
	ihdrPayloadSize  = 13
	ihdrWidthOffset  = 8
	ihdrHeightOffset = 12
)

// Chunk type tags.
const (
	TypeIHDR = "IHDR"
	TypeIDAT = "IDAT"
	TypeIEND = "IEND"
	TypeacTL = "acTL"
	TypefcTL = "fcTL"
	TypefdAT = "fdAT"
)

// Frame timing and compositing are fixed for every assembled animation.
const (
	DefaultDelayNum  uint16 = 1000
	DefaultDelayDen  uint16 = 1000
	DefaultNumPlays  uint32 = 0 // loop forever
	DefaultDisposeOp        = DisposeOpNone
	DefaultBlendOp          = BlendOpSource
)

// DisposeOp is the fcTL dispose operator.
type DisposeOp uint8

const (
	DisposeOpNone       DisposeOp = 0
	DisposeOpBackground DisposeOp = 1
	DisposeOpPrevious   DisposeOp = 2
)

// BlendOp is the fcTL blend operator.
type BlendOp uint8

const (
	BlendOpSource BlendOp = 0
	BlendOpOver   BlendOp = 1
)
