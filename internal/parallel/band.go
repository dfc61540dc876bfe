// Package parallel provides row-band partitioning and a worker pool for
// multi-worker fractal rendering.
//
// A raster is split into contiguous, non-overlapping row bands, one per
// worker. Each worker writes only the rows of its own band, so the shared
// output buffer needs no locking; ownership of finished rows is handed back
// to the scheduler by message.
package parallel

// Band is a contiguous range of raster rows [Start, Start+Rows).
type Band struct {
	// Index is the band's position in the split (0-based, top to bottom).
	Index int

	// Start is the first row of the band.
	Start int

	// Rows is the number of rows in the band.
	Rows int
}

// End returns the row after the last row of the band.
func (b Band) End() int {
	return b.Start + b.Rows
}

// Contains reports whether row y lies in the band.
func (b Band) Contains(y int) bool {
	return y >= b.Start && y < b.End()
}

// Batches splits the band into consecutive sub-ranges of at most size rows.
// The last batch may be shorter. A size <= 0 yields the band itself.
func (b Band) Batches(size int) []Band {
	if b.Rows <= 0 {
		return nil
	}
	if size <= 0 || size >= b.Rows {
		return []Band{b}
	}

	out := make([]Band, 0, (b.Rows+size-1)/size)
	for y := b.Start; y < b.End(); y += size {
		out = append(out, Band{Index: len(out), Start: y, Rows: min(size, b.End()-y)})
	}
	return out
}

// SplitRows divides height rows into at most n bands whose sizes differ by
// at most one row. Empty bands are never produced, so fewer than n bands
// come back when height < n. It returns nil for height <= 0.
func SplitRows(height, n int) []Band {
	if height <= 0 {
		return nil
	}
	if n <= 0 {
		n = 1
	}
	n = min(n, height)

	base := height / n
	extra := height % n

	bands := make([]Band, n)
	start := 0
	for i := range n {
		rows := base
		if i < extra {
			rows++
		}
		bands[i] = Band{Index: i, Start: start, Rows: rows}
		start += rows
	}
	return bands
}
