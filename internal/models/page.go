package models

// Page is an offset window over an ordered listing. The offset is rounded
// down to a whole page: from=3,size=2 selects the second page.
type Page struct {
	From int
	Size int
}

func (p Page) Offset() int {
	if p.Size <= 0 {
		return 0
	}
	return (p.From / p.Size) * p.Size
}

func (p Page) Limit() int {
	return p.Size
}

// Slice cuts the page out of an already ordered list of n elements. The
// bounds never exceed n, whatever the page values.
func (p Page) Slice(n int) (int, int) {
	lo := min(p.Offset(), n)
	if lo < 0 {
		lo = 0
	}
	size := max(p.Size, 0)
	return lo, lo + min(size, n-lo)
}
