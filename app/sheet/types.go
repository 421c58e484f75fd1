package sheet

// Row is one decoded spreadsheet data row. Cells are keyed by the
// lower-cased, trimmed header name; Index is the 1-based position of the row
// within the file's data rows.
type Row struct {
	Index int
	Cells map[string]string
}

func (r Row) Get(column string) string {
	return r.Cells[column]
}

func (r Row) IsEmpty() bool {
	for _, value := range r.Cells {
		if value != "" {
			return false
		}
	}
	return true
}
