package apng

import "errors"

var (
	ErrNoSources      = errors.New("apng: no source images")
	ErrShortHeader    = errors.New("apng: source too short for image header")
	ErrTruncatedChunk = errors.New("apng: truncated chunk")
	ErrNoImageData    = errors.New("apng: source has no image data")
	ErrNotPNG         = errors.New("apng: invalid PNG signature")
	ErrChecksum       = errors.New("apng: chunk checksum mismatch")
	ErrSequence       = errors.New("apng: sequence numbers out of order")
	ErrChunkTooLarge  = errors.New("apng: chunk payload too large")
	ErrWriterEnded    = errors.New("apng: writer already ended")
)
