package apng

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func encodeTestPNG(t *testing.T, width, height int, fill color.NRGBA) []byte {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.SetNRGBA(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// imageData returns the concatenated IDAT payloads of a PNG stream.
func imageData(t *testing.T, stream []byte) []byte {
	t.Helper()

	info, err := Inspect(bytes.NewReader(stream))
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	var out []byte
	for _, c := range info.Chunks {
		if c.Type != TypeIDAT {
			continue
		}
		start := c.Offset + chunkHeaderSize
		out = append(out, stream[start:start+int64(c.Length)]...)
	}
	return out
}

// rechunkPNG rebuilds a PNG with its image data split over parts IDAT
// chunks. A tEXt chunk precedes the data; with interleave set, an ancillary
// chunk also sits between consecutive IDAT chunks.
func rechunkPNG(t *testing.T, stream []byte, parts int, interleave bool) []byte {
	t.Helper()

	data := imageData(t, stream)
	out := []byte(Signature)
	out = append(out, stream[signatureSize:signatureSize+HeaderChunkSize]...)
	out = AppendChunk(out, "tEXt", []byte("Comment\x00test frame"))

	step := (len(data) + parts - 1) / parts
	for i := range parts {
		lo := min(i*step, len(data))
		hi := min(lo+step, len(data))
		if interleave && i > 0 {
			out = AppendChunk(out, "skIp", []byte{1, 2, 3})
		}
		out = AppendChunk(out, TypeIDAT, data[lo:hi])
	}
	return AppendChunk(out, TypeIEND, nil)
}

func writeTestFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
