// Package rawscan searches decompressed Parquet column-chunk bytes without
// decoding values.
//
// The count it produces is byte-level: every non-overlapping occurrence of
// the needle inside the decompressed page buffers is counted, including
// occurrences inside dictionary pages. A single row's value can contribute
// more than one occurrence, and values are scanned as the encoding laid them
// out, not split at logical value boundaries. This is the intended trade-off
// of skipping the decode step and is NOT comparable to the row-match count
// produced by batchscan.
package rawscan

import (
	"bytes"
	stderrors "errors"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/file"

	"github.com/querylab/parqscan/pkg/errors"
	"github.com/querylab/parqscan/pkg/mmap"
)

// CountOccurrences scans every textual column chunk of every row group for
// the needle and returns the total byte-level occurrence count.
//
// Memory stays bounded by a single decompressed page at a time. A failure on
// any chunk aborts the whole scan; the returned error carries the column
// name and row-group index. An empty needle counts nothing.
func CountOccurrences(rdr *file.Reader, needle []byte) (int64, error) {
	if len(needle) == 0 {
		return 0, nil
	}

	var total int64
	for rg := 0; rg < rdr.NumRowGroups(); rg++ {
		rgr := rdr.RowGroup(rg)
		rgMeta := rgr.MetaData()

		for col := 0; col < rgMeta.NumColumns(); col++ {
			chunk, err := rgMeta.ColumnChunk(col)
			if err != nil {
				return 0, errors.Wrap(err, errors.ErrorTypeFormat, "failed to read column chunk metadata").
					WithRowGroup(rg)
			}
			if chunk.Type() != parquet.Types.ByteArray {
				continue
			}

			n, err := scanChunk(rgr, col, needle)
			if err != nil {
				return 0, errors.Wrap(err, scanErrorType(err), "failed to scan column chunk").
					WithColumn(chunk.PathInSchema().String()).
					WithRowGroup(rg)
			}
			total += n
		}
	}

	return total, nil
}

// CountOccurrencesInFile opens path, scans it and closes it.
func CountOccurrencesInFile(path string, needle []byte) (int64, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is supplied by the caller
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeIO, "failed to open file")
	}
	defer f.Close()

	rdr, err := file.NewParquetReader(f)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeFormat, "failed to parse parquet footer")
	}
	defer rdr.Close()

	return CountOccurrences(rdr, needle)
}

// CountOccurrencesMapped is CountOccurrencesInFile over a memory mapping
// instead of buffered reads. Counts are identical; only the IO path differs.
func CountOccurrencesMapped(path string, needle []byte) (int64, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return 0, err
	}
	defer m.Close()

	rdr, err := file.NewParquetReader(m)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeFormat, "failed to parse parquet footer")
	}
	defer rdr.Close()

	return CountOccurrences(rdr, needle)
}

// scanErrorType distinguishes read failures from codec failures when a chunk
// scan aborts. A truncated or unreadable file surfaces as *os.PathError or a
// short read; anything else out of the page reader is a decompression or
// decode problem.
func scanErrorType(err error) errors.ErrorType {
	var pathErr *os.PathError
	if stderrors.As(err, &pathErr) ||
		stderrors.Is(err, io.ErrUnexpectedEOF) ||
		stderrors.Is(err, io.EOF) {
		return errors.ErrorTypeIO
	}
	return errors.ErrorTypeDecode
}

// scanChunk counts occurrences in one column chunk, page by page. Page
// buffers come out of the page reader already decompressed. The page reader
// owns page lifetime: Next releases the previous page before decoding the
// next one, so pages must not be released here.
func scanChunk(rgr *file.RowGroupReader, col int, needle []byte) (int64, error) {
	pages, err := rgr.GetColumnPageReader(col)
	if err != nil {
		return 0, err
	}

	var n int64
	for pages.Next() {
		page := pages.Page()
		if page == nil {
			continue
		}
		n += int64(bytes.Count(page.Data(), needle))
	}
	if err := pages.Err(); err != nil {
		return 0, err
	}

	return n, nil
}
