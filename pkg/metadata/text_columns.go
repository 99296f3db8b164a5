package metadata

// TextColumnSet is a derived view over a FileInfo: the textual columns minus
// the deny list, each with its aggregate uncompressed size across all row
// groups. It is rebuilt on demand and never mutated in place. Iteration
// order follows first-seen column order in the footer.
type TextColumnSet struct {
	names []string
	sizes map[string]int64
}

// TextColumns selects the textual columns of info, excluding the
// DenyColumnTimestamp name, and aggregates their uncompressed sizes. Sizes
// come from footer metadata only; nothing is decompressed.
func TextColumns(info *FileInfo) *TextColumnSet {
	set := &TextColumnSet{sizes: make(map[string]int64)}

	for _, group := range info.RowGroups {
		for _, col := range group.Columns {
			if !col.Textual() || col.Name == DenyColumnTimestamp {
				continue
			}
			if _, seen := set.sizes[col.Name]; !seen {
				set.names = append(set.names, col.Name)
			}
			set.sizes[col.Name] += col.UncompressedSize
		}
	}

	return set
}

// Names returns the column names in first-seen footer order.
func (s *TextColumnSet) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Size returns the aggregate uncompressed size of the named column.
func (s *TextColumnSet) Size(name string) (int64, bool) {
	size, ok := s.sizes[name]
	return size, ok
}

// TotalSize returns the sum of uncompressed sizes of all selected columns,
// used for throughput normalization.
func (s *TextColumnSet) TotalSize() int64 {
	var total int64
	for _, size := range s.sizes {
		total += size
	}
	return total
}

// Len returns the number of selected columns.
func (s *TextColumnSet) Len() int {
	return len(s.names)
}

// Contains reports whether the named column was selected.
func (s *TextColumnSet) Contains(name string) bool {
	_, ok := s.sizes[name]
	return ok
}
