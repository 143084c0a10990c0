package eji

// Table is a raw tabular input: ordered column names and rows of mixed cell
// values as loaded from a CSV. A Table is treated as immutable once built.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// ColumnIndex returns the position of the first column named name, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the table has a column called name.
func (t Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// Len is the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Cell returns the value at row i under column name.
func (t Table) Cell(i int, name string) (any, bool) {
	if i < 0 || i >= len(t.Rows) {
		return nil, false
	}
	j := t.ColumnIndex(name)
	if j < 0 || j >= len(t.Rows[i]) {
		return nil, false
	}
	return t.Rows[i][j], true
}

// Normalize returns a copy of t with legacy Mean_* columns renamed to their
// canonical RPL_* names. Other columns pass through unchanged. The input is
// never modified and Normalize(Normalize(t)) equals Normalize(t).
func Normalize(t Table) Table {
	out := Table{
		Columns: make([]string, len(t.Columns)),
		Rows:    make([][]any, len(t.Rows)),
	}
	for i, c := range t.Columns {
		if id, ok := MetricByColumn(c); ok {
			out.Columns[i] = id.Column()
			continue
		}
		out.Columns[i] = c
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]any(nil), row...)
	}
	return out
}

// presentMetrics returns the metrics with a canonical column in t.
func presentMetrics(t Table) map[MetricID]bool {
	set := make(map[MetricID]bool)
	for _, c := range t.Columns {
		if id, ok := MetricByColumn(c); ok && c == id.Column() {
			set[id] = true
		}
	}
	return set
}

// ReconcileMetrics returns the metrics to display for one year: every base
// metric plus each optional metric with a column in any of the given tables.
// Tables are expected to be normalized.
func ReconcileMetrics(tables ...Table) []MetricID {
	set := make(map[MetricID]bool)
	for _, m := range BaseMetrics {
		set[m] = true
	}
	for _, t := range tables {
		for id := range presentMetrics(t) {
			set[id] = true
		}
	}
	return sortMetrics(set)
}

// ReconcileYears returns the metrics shared by two years. An optional metric
// survives only when both years carry it.
func ReconcileYears(baseline, other []Table) []MetricID {
	a := ReconcileMetrics(baseline...)
	inOther := make(map[MetricID]bool)
	for _, m := range ReconcileMetrics(other...) {
		inOther[m] = true
	}
	set := make(map[MetricID]bool)
	for _, m := range a {
		if !m.Optional() || inOther[m] {
			set[m] = true
		}
	}
	return sortMetrics(set)
}

// DroppedMetrics lists the optional metrics present in exactly one of the
// two years and therefore left out of a comparison.
func DroppedMetrics(baseline, other []Table) []MetricID {
	kept := make(map[MetricID]bool)
	for _, m := range ReconcileYears(baseline, other) {
		kept[m] = true
	}
	set := make(map[MetricID]bool)
	for _, m := range append(ReconcileMetrics(baseline...), ReconcileMetrics(other...)...) {
		if !kept[m] {
			set[m] = true
		}
	}
	return sortMetrics(set)
}
