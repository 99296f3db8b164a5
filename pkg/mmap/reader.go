// Package mmap provides a read-only memory-mapped file source.
//
// Raw chunk scanning reads compressed pages sequentially; mapping the file
// serves those reads straight from the page cache without a userspace copy.
// Reader satisfies io.ReaderAt, io.Seeker and io.Closer, which is what the
// Parquet reader needs from a byte source.
package mmap

import (
	"io"
	"os"

	"github.com/querylab/parqscan/pkg/errors"
)

// Reader is a memory-mapped file. ReadAt is safe for concurrent use; Seek
// carries per-reader state and is not.
type Reader struct {
	data []byte
	off  int64
}

// Open maps path read-only. The underlying descriptor is closed once the
// mapping is established; the mapping outlives it.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is supplied by the caller
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to open file")
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to stat file")
	}
	if stat.Size() == 0 {
		return nil, errors.New(errors.ErrorTypeIO, "cannot map empty file")
	}

	data, err := mapFile(int(f.Fd()), int(stat.Size()))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to mmap file")
	}

	// Advice failures are harmless; the mapping still works.
	_ = advise(data, madvSequential)

	return &Reader{data: data}, nil
}

// Size returns the mapped length in bytes.
func (r *Reader) Size() int64 {
	return int64(len(r.data))
}

// Bytes returns the mapped region. The slice is invalid after Close.
func (r *Reader) Bytes() []byte {
	return r.data
}

// ReadAt implements io.ReaderAt over the mapping.
func (r *Reader) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 {
		return 0, errors.Newf(errors.ErrorTypeIO, "negative read offset %d", off)
	}
	if off >= int64(len(r.data)) {
		return 0, io.EOF
	}

	n := copy(p, r.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Read implements io.Reader at the reader's seek position.
func (r *Reader) Read(p []byte) (int, error) {
	n, err := r.ReadAt(p, r.off)
	r.off += int64(n)
	return n, err
}

// Seek implements io.Seeker.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	var base int64
	switch whence {
	case io.SeekStart:
		base = 0
	case io.SeekCurrent:
		base = r.off
	case io.SeekEnd:
		base = int64(len(r.data))
	default:
		return 0, errors.Newf(errors.ErrorTypeIO, "invalid seek whence %d", whence)
	}

	pos := base + offset
	if pos < 0 {
		return 0, errors.Newf(errors.ErrorTypeIO, "negative seek position %d", pos)
	}
	r.off = pos
	return pos, nil
}

// Close unmaps the file. The Reader must not be used afterwards.
func (r *Reader) Close() error {
	if r.data == nil {
		return nil
	}
	data := r.data
	r.data = nil
	if err := unmapFile(data); err != nil {
		return errors.Wrap(err, errors.ErrorTypeIO, "failed to munmap file")
	}
	return nil
}
