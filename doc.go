// Package parqscan compares substring-search strategies over Parquet files.
//
// A log line like "k8s pod started" can be found three ways, each trading
// decode work against search precision:
//
// 1. Raw chunk scanning (pkg/rawscan): decompress column-chunk pages and
// count byte-level needle occurrences without decoding a single value.
// Dictionary pages are scanned too, so the count is occurrences in the
// encoded layout, not matching rows.
//
// 2. Decoded batch scanning (pkg/batchscan): materialize Arrow batches
// through the Parquet decode pipeline and test each non-null value once.
// The count has row semantics and is invariant under batch size.
//
// 3. Engine-integrated matching (pkg/engine): register a pure scalar
// str_match(text, text) -> bool function into DuckDB and let the engine's
// own scan drive the search through a WHERE filter.
//
// # Quick Start
//
// Run the full benchmark against a file:
//
//	FILE=logs.parquet NEEDLE=k8s parqscan bench --iterations 5
//
// Or drive the strategies directly:
//
//	info, _ := metadata.Inspect("logs.parquet")
//	columns := metadata.TextColumns(info)
//
//	occurrences, _ := rawscan.CountOccurrencesInFile("logs.parquet", []byte("k8s"))
//	rows, _ := batchscan.CountMatchesInFile(ctx, "logs.parquet", "k8s", 8192)
//
//	eng, _ := engine.New(ctx)
//	defer eng.Close()
//	eng.RegisterFile(ctx, "tbl", "logs.parquet")
//	query, _ := engine.BuildFilterQuery("tbl", columns.Names(), "k8s", engine.FilterMatch)
//	matched, _ := eng.CountRows(ctx, query)
//
// # Key Packages
//
//	pkg/metadata     - Footer inspection and text-column selection
//	pkg/rawscan      - Byte-level scanning of decompressed column chunks
//	pkg/batchscan    - Row-level scanning of decoded Arrow batches
//	pkg/engine       - DuckDB session with the registered matcher function
//	pkg/mmap         - Memory-mapped byte source for the raw scanner
//	internal/harness - Benchmark orchestration, reports, tracing
//	pkg/errors       - Structured error handling
//	pkg/logger       - Structured logging
//	pkg/metrics      - Prometheus metrics per strategy
//
// # Semantics
//
// The three counts are deliberately not interchangeable. Raw counts
// byte-level occurrences (two hits inside one value count twice); decoded
// and engine count matching rows and must agree with each other. Column
// selection is shared: textual means physical type BYTE_ARRAY, and the
// "@timestamp" column is excluded by name because generated engine filters
// cannot bind it.
package parqscan
