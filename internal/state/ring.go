package state

// Row is a single normalized spectrum row, length C.
type Row []float32

// Ring is the Waterfall Ring: a fixed-size R×C circular buffer of rows
// stored flat and row-major, oldest row first when snapshotted. Appending
// past capacity displaces the oldest row (FIFO).
type Ring struct {
	data     []float32 // len == rows*cols
	rows     int       // R
	cols     int       // C
	writeIdx int       // next row slot to write, mod rows
	filled   int       // rows written so far, capped at rows
}

// NewRing allocates a zeroed R×C ring.
func NewRing(rows, cols int) *Ring {
	return &Ring{
		data: make([]float32, rows*cols),
		rows: rows,
		cols: cols,
	}
}

// Rows reports R.
func (r *Ring) Rows() int { return r.rows }

// Cols reports C.
func (r *Ring) Cols() int { return r.cols }

// Append writes row into the next slot, displacing the oldest row once the
// ring is full. row must have length Cols().
func (r *Ring) Append(row []float32) {
	start := r.writeIdx * r.cols
	copy(r.data[start:start+r.cols], row)
	r.writeIdx = (r.writeIdx + 1) % r.rows
	if r.filled < r.rows {
		r.filled++
	}
}

// Snapshot returns a copy of the ring's rows in insertion order, oldest
// first. When the ring is not yet full, only the rows written so far are
// returned.
func (r *Ring) Snapshot() []Row {
	out := make([]Row, r.filled)
	oldest := 0
	if r.filled == r.rows {
		oldest = r.writeIdx
	}
	for i := 0; i < r.filled; i++ {
		idx := (oldest + i) % r.rows
		row := make(Row, r.cols)
		copy(row, r.data[idx*r.cols:(idx+1)*r.cols])
		out[i] = row
	}
	return out
}

// Latest returns a copy of the most recently appended row, or nil if the
// ring is empty.
func (r *Ring) Latest() Row {
	if r.filled == 0 {
		return nil
	}
	idx := (r.writeIdx - 1 + r.rows) % r.rows
	row := make(Row, r.cols)
	copy(row, r.data[idx*r.cols:(idx+1)*r.cols])
	return row
}
