package repository

// Page selects one 1-based page of a listing. A zero Size means everything.
type Page struct {
	Number int
	Size   int
}

// Offset is the number of rows before the page; pages below 1 count as the first.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Next returns the following page.
func (p Page) Next() Page { return Page{Number: max(p.Number, 1) + 1, Size: p.Size} }
