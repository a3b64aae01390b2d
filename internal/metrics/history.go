package metrics

// History records named loss series over training epochs. Rows are aligned
// with Epochs; columns with Names.
type History struct {
	Names  []string
	Epochs []int
	Rows   [][]float64
}

func NewHistory(names ...string) *History {
	return &History{Names: append([]string(nil), names...)}
}

// Append records one epoch's values, which must match Names in length and
// order.
func (h *History) Append(epoch int, values ...float64) {
	row := make([]float64, len(values))
	copy(row, values)
	h.Epochs = append(h.Epochs, epoch)
	h.Rows = append(h.Rows, row)
}

func (h *History) Len() int { return len(h.Rows) }

// Series extracts one named column, or nil if the name is unknown.
func (h *History) Series(name string) []float64 {
	col := -1
	for i, n := range h.Names {
		if n == name {
			col = i
			break
		}
	}
	if col < 0 {
		return nil
	}
	out := make([]float64, len(h.Rows))
	for i, row := range h.Rows {
		out[i] = row[col]
	}
	return out
}

// Last returns the final recorded value of a named series, or 0.
func (h *History) Last(name string) float64 {
	s := h.Series(name)
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}
