// Package testutil provides Parquet fixture writers for parqscan tests and
// benchmarks.
package testutil

import (
	"fmt"
	"os"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
)

// Column describes one column of a fixture file. Exactly one of Strings or
// Ints must be set; nil entries become nulls.
type Column struct {
	Name    string
	Strings []*string
	Ints    []*int64
}

type fileOpts struct {
	codec      compress.Compression
	dictionary bool
}

// FileOption customizes fixture file layout.
type FileOption func(*fileOpts)

// WithCompression selects the column chunk compression codec.
func WithCompression(codec compress.Compression) FileOption {
	return func(o *fileOpts) { o.codec = codec }
}

// WithDictionary toggles dictionary encoding.
func WithDictionary(enabled bool) FileOption {
	return func(o *fileOpts) { o.dictionary = enabled }
}

// Ptr returns a pointer to s, for building nullable string columns.
func Ptr(s string) *string {
	return &s
}

// IntPtr returns a pointer to v, for building nullable int64 columns.
func IntPtr(v int64) *int64 {
	return &v
}

// WriteFile writes the columns to path as a single-row-group Parquet file.
func WriteFile(tb testing.TB, path string, cols []Column, opts ...FileOption) {
	tb.Helper()
	WriteFileGroups(tb, path, [][]Column{cols}, opts...)
}

// WriteFileGroups writes one row group per entry of groups. Every group must
// carry the same columns in the same order.
func WriteFileGroups(tb testing.TB, path string, groups [][]Column, opts ...FileOption) {
	tb.Helper()

	o := fileOpts{codec: compress.Codecs.Snappy, dictionary: true}
	for _, opt := range opts {
		opt(&o)
	}

	if len(groups) == 0 {
		tb.Fatal("testutil: at least one row group is required")
	}

	schema := schemaFor(tb, groups[0])

	f, err := os.Create(path) //nolint:gosec // G304: test fixture path
	if err != nil {
		tb.Fatalf("testutil: failed to create %s: %v", path, err)
	}

	props := parquet.NewWriterProperties(
		parquet.WithCompression(o.codec),
		parquet.WithDictionaryDefault(o.dictionary),
	)
	mem := memory.NewGoAllocator()
	arrowProps := pqarrow.NewArrowWriterProperties(pqarrow.WithAllocator(mem))

	fw, err := pqarrow.NewFileWriter(schema, f, props, arrowProps)
	if err != nil {
		tb.Fatalf("testutil: failed to create parquet writer: %v", err)
	}

	for _, cols := range groups {
		rec := buildRecord(tb, mem, schema, cols)
		// Write starts a fresh row group per record.
		if err := fw.Write(rec); err != nil {
			rec.Release()
			tb.Fatalf("testutil: failed to write row group: %v", err)
		}
		rec.Release()
	}

	if err := fw.Close(); err != nil {
		tb.Fatalf("testutil: failed to close parquet writer: %v", err)
	}
}

// SampleLogValues are the canonical fixture rows: two of the three contain
// the "k8s" needle.
var SampleLogValues = []string{
	"k8s pod started",
	"no match here",
	"k8s pod stopped",
}

// WriteSampleFile writes the canonical fixture: a textual "log" column with
// SampleLogValues, a textual "@timestamp" column, a textual "level" column
// and a non-textual int64 "count" column. Returns the row count.
func WriteSampleFile(tb testing.TB, path string, opts ...FileOption) int {
	tb.Helper()

	logs := make([]*string, len(SampleLogValues))
	stamps := make([]*string, len(SampleLogValues))
	levels := make([]*string, len(SampleLogValues))
	counts := make([]*int64, len(SampleLogValues))
	for i, v := range SampleLogValues {
		logs[i] = Ptr(v)
		stamps[i] = Ptr(fmt.Sprintf("2023-01-01T00:00:0%dZ", i))
		levels[i] = Ptr("info")
		counts[i] = IntPtr(int64(i))
	}

	WriteFile(tb, path, []Column{
		{Name: "log", Strings: logs},
		{Name: "@timestamp", Strings: stamps},
		{Name: "level", Strings: levels},
		{Name: "count", Ints: counts},
	}, opts...)

	return len(SampleLogValues)
}

// GenerateLogLines builds n synthetic log lines; every hitEvery-th line
// contains the needle.
func GenerateLogLines(n, hitEvery int, needle string) []*string {
	out := make([]*string, n)
	for i := 0; i < n; i++ {
		var line string
		if hitEvery > 0 && i%hitEvery == 0 {
			line = fmt.Sprintf("level=info msg=\"%s pod %d reconciled\" node=worker-%d", needle, i, i%17)
		} else {
			line = fmt.Sprintf("level=info msg=\"container %d healthy\" node=worker-%d", i, i%17)
		}
		out[i] = &line
	}
	return out
}

func schemaFor(tb testing.TB, cols []Column) *arrow.Schema {
	tb.Helper()

	fields := make([]arrow.Field, 0, len(cols))
	for _, col := range cols {
		switch {
		case col.Strings != nil:
			fields = append(fields, arrow.Field{Name: col.Name, Type: arrow.BinaryTypes.String, Nullable: true})
		case col.Ints != nil:
			fields = append(fields, arrow.Field{Name: col.Name, Type: arrow.PrimitiveTypes.Int64, Nullable: true})
		default:
			tb.Fatalf("testutil: column %s has no values", col.Name)
		}
	}
	return arrow.NewSchema(fields, nil)
}

func buildRecord(tb testing.TB, mem memory.Allocator, schema *arrow.Schema, cols []Column) arrow.Record {
	tb.Helper()

	bld := array.NewRecordBuilder(mem, schema)
	defer bld.Release()

	for i, col := range cols {
		switch b := bld.Field(i).(type) {
		case *array.StringBuilder:
			for _, v := range col.Strings {
				if v == nil {
					b.AppendNull()
				} else {
					b.Append(*v)
				}
			}
		case *array.Int64Builder:
			for _, v := range col.Ints {
				if v == nil {
					b.AppendNull()
				} else {
					b.Append(*v)
				}
			}
		default:
			tb.Fatalf("testutil: unsupported builder type %T for column %s", b, col.Name)
		}
	}

	return bld.NewRecord()
}
