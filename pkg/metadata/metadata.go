// Package metadata inspects Parquet file footers and classifies columns.
//
// Everything here works off footer metadata alone: no page is read and no
// value is decompressed. FileInfo is immutable after construction and safe to
// share by reference across goroutines.
package metadata

import (
	"os"

	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/file"

	"github.com/querylab/parqscan/pkg/errors"
)

// DenyColumnTimestamp is excluded from text-column selection by name. DuckDB
// view binding rejects the "@timestamp" identifier in generated filters, so
// it is kept out of every strategy's column set to preserve identical
// selections across strategies. An explicit name exclusion, not a rule.
const DenyColumnTimestamp = "@timestamp"

// ColumnChunkInfo describes one column chunk within one row group.
type ColumnChunkInfo struct {
	// Name is the dotted path of the column in the schema
	Name string
	// PhysicalType is the Parquet physical type of the chunk
	PhysicalType parquet.Type
	// LogicalType is the column's logical type annotation, for display
	LogicalType string
	// Codec is the compression codec the chunk is stored with
	Codec compress.Compression
	// CompressedSize is the on-disk byte size of the chunk
	CompressedSize int64
	// UncompressedSize is the byte size of the chunk after decompression
	UncompressedSize int64
	// NumValues is the number of values in the chunk
	NumValues int64
}

// Textual reports whether the column is eligible for substring search.
// Byte-array columns carry strings and binary blobs; fixed-width types never
// hold text.
func (c ColumnChunkInfo) Textual() bool {
	return c.PhysicalType == parquet.Types.ByteArray
}

// RowGroupInfo describes one row group of the file.
type RowGroupInfo struct {
	NumRows int64
	Columns []ColumnChunkInfo
}

// FileInfo is the parsed footer metadata of a Parquet file. Column ordering
// is identical across all row groups.
type FileInfo struct {
	Path      string
	NumRows   int64
	RowGroups []RowGroupInfo
}

// Inspect opens path and parses its footer into a FileInfo. Open and read
// failures carry ErrorTypeIO; a missing, truncated or corrupt footer carries
// ErrorTypeFormat.
func Inspect(path string) (*FileInfo, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path is supplied by the caller
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeIO, "failed to open file")
	}
	defer f.Close()

	rdr, err := file.NewParquetReader(f)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFormat, "failed to parse parquet footer")
	}
	defer rdr.Close()

	info, err := FromReader(rdr)
	if err != nil {
		return nil, err
	}
	info.Path = path
	return info, nil
}

// InspectReader parses footer metadata from an in-memory or otherwise
// seekable source.
func InspectReader(r parquet.ReaderAtSeeker) (*FileInfo, error) {
	rdr, err := file.NewParquetReader(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeFormat, "failed to parse parquet footer")
	}
	defer rdr.Close()

	return FromReader(rdr)
}

// FromReader builds a FileInfo from an already open Parquet reader.
func FromReader(rdr *file.Reader) (*FileInfo, error) {
	schema := rdr.MetaData().Schema

	info := &FileInfo{
		NumRows:   rdr.NumRows(),
		RowGroups: make([]RowGroupInfo, 0, rdr.NumRowGroups()),
	}

	for rg := 0; rg < rdr.NumRowGroups(); rg++ {
		rgMeta := rdr.RowGroup(rg).MetaData()

		group := RowGroupInfo{
			NumRows: rgMeta.NumRows(),
			Columns: make([]ColumnChunkInfo, 0, rgMeta.NumColumns()),
		}

		for col := 0; col < rgMeta.NumColumns(); col++ {
			chunk, err := rgMeta.ColumnChunk(col)
			if err != nil {
				return nil, errors.Wrap(err, errors.ErrorTypeFormat, "failed to read column chunk metadata").
					WithRowGroup(rg)
			}

			logical := ""
			if lt := schema.Column(col).LogicalType(); lt != nil {
				logical = lt.String()
			}

			group.Columns = append(group.Columns, ColumnChunkInfo{
				Name:             chunk.PathInSchema().String(),
				PhysicalType:     chunk.Type(),
				LogicalType:      logical,
				Codec:            chunk.Compression(),
				CompressedSize:   chunk.TotalCompressedSize(),
				UncompressedSize: chunk.TotalUncompressedSize(),
				NumValues:        chunk.NumValues(),
			})
		}

		info.RowGroups = append(info.RowGroups, group)
	}

	return info, nil
}
