// Package batchscan searches fully decoded Arrow batches for substring
// matches.
//
// Counting here has row semantics: each non-null value of each textual
// column is tested once, regardless of how many times the needle occurs
// inside it. The result is therefore not comparable to rawscan's byte-level
// occurrence count.
package batchscan

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/querylab/parqscan/pkg/errors"
	pstrings "github.com/querylab/parqscan/pkg/strings"
)

// RecordSource yields decoded batches. It is a subset of
// array.RecordReader, so pqarrow record readers satisfy it directly. A
// source is finite and restartable only by recreation.
type RecordSource interface {
	Next() bool
	Record() arrow.Record
	Err() error
}

// CountMatches tests every non-null value of every textual column in every
// batch for containment of needle and returns the number of matching values.
// Null values never match. Each batch is only held for the duration of its
// own iteration.
func CountMatches(src RecordSource, needle string) (int64, error) {
	var total int64

	for src.Next() {
		rec := src.Record()
		for i := 0; i < int(rec.NumCols()); i++ {
			total += countInColumn(rec.Column(i), needle)
		}
	}
	// The pqarrow record reader parks io.EOF in Err() when the stream is
	// exhausted; that is clean termination, not a decode failure.
	if err := src.Err(); err != nil && !stderrors.Is(err, io.EOF) {
		return 0, errors.Wrap(err, errors.ErrorTypeDecode, "batch source failed")
	}

	return total, nil
}

func countInColumn(col arrow.Array, needle string) int64 {
	var n int64

	switch arr := col.(type) {
	case *array.String:
		for i := 0; i < arr.Len(); i++ {
			if !arr.IsNull(i) && strings.Contains(arr.Value(i), needle) {
				n++
			}
		}
	case *array.LargeString:
		for i := 0; i < arr.Len(); i++ {
			if !arr.IsNull(i) && strings.Contains(arr.Value(i), needle) {
				n++
			}
		}
	case *array.Binary:
		for i := 0; i < arr.Len(); i++ {
			if !arr.IsNull(i) && strings.Contains(pstrings.BytesToString(arr.Value(i)), needle) {
				n++
			}
		}
	case *array.LargeBinary:
		for i := 0; i < arr.Len(); i++ {
			if !arr.IsNull(i) && strings.Contains(pstrings.BytesToString(arr.Value(i)), needle) {
				n++
			}
		}
	}

	return n
}

// NewFileSource builds the decode pipeline for path with the given batch
// size. The returned cleanup releases the reader; restarting a scan means
// calling NewFileSource again.
func NewFileSource(ctx context.Context, path string, batchSize int64) (RecordSource, func(), error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is supplied by the caller
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to open file")
	}

	rdr, err := file.NewParquetReader(f)
	if err != nil {
		_ = f.Close()
		return nil, nil, errors.Wrap(err, errors.ErrorTypeFormat, "failed to parse parquet footer")
	}

	arrowRdr, err := pqarrow.NewFileReader(rdr,
		pqarrow.ArrowReadProperties{BatchSize: batchSize}, memory.DefaultAllocator)
	if err != nil {
		_ = rdr.Close()
		return nil, nil, errors.Wrap(err, errors.ErrorTypeDecode, "failed to create arrow reader")
	}

	rr, err := arrowRdr.GetRecordReader(ctx, nil, nil)
	if err != nil {
		_ = rdr.Close()
		return nil, nil, errors.Wrap(err, errors.ErrorTypeDecode, "failed to create record reader")
	}

	cleanup := func() {
		rr.Release()
		_ = rdr.Close()
	}
	return rr, cleanup, nil
}

// CountMatchesInFile runs one full scan of path at the given batch size.
func CountMatchesInFile(ctx context.Context, path string, needle string, batchSize int64) (int64, error) {
	src, cleanup, err := NewFileSource(ctx, path, batchSize)
	if err != nil {
		return 0, err
	}
	defer cleanup()

	return CountMatches(src, needle)
}
