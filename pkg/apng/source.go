package apng

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// Source is a read-only, seekable view of one PNG file.
type Source struct {
	r       *bytes.Reader
	data    []byte
	mmapped bool
}

// OpenSource maps the file at path read-only. If mmap is unavailable, the file
// is read into memory instead. The returned Source must be closed to release
// any mapping.
func OpenSource(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 < 0 || size64 > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("apng: source %s: size %d out of range", path, size64)
	}
	size := int(size64)

	// Empty files cannot be mapped.
	if size > 0 {
		data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
		if err == nil {
			return newSource(data, true), nil
		}
	}

	data, err := readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return newSource(data, false), nil
}

// NewSource wraps an in-memory PNG stream.
func NewSource(data []byte) *Source {
	return newSource(data, false)
}

func newSource(data []byte, mmapped bool) *Source {
	return &Source{r: bytes.NewReader(data), data: data, mmapped: mmapped}
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

// Size returns the length of the underlying file.
func (s *Source) Size() int64 { return int64(len(s.data)) }

func (s *Source) Read(p []byte) (int, error) { return s.r.Read(p) }

func (s *Source) Seek(offset int64, whence int) (int64, error) { return s.r.Seek(offset, whence) }

func (s *Source) ReadAt(p []byte, off int64) (int, error) { return s.r.ReadAt(p, off) }

// Close releases the mapping, if any. Reads after Close fail.
func (s *Source) Close() error {
	if s == nil || s.data == nil {
		return nil
	}
	var err error
	if s.mmapped {
		err = unix.Munmap(s.data)
	}
	s.data = nil
	s.mmapped = false
	s.r = bytes.NewReader(nil)
	return err
}
