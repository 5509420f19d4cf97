package models

// Page is an offset window expressed as from/size.
// The window is aligned to whole pages: from is rounded down to a multiple
// of size, so from=7,size=5 reads the second page (rows 5..9).
type Page struct {
	From int `json:"from"`
	Size int `json:"size"`
}

// Number returns the zero-based page index.
func (p Page) Number() int {
	if p.Size <= 0 {
		return 0
	}
	return p.From / p.Size
}

// Offset returns the first row of the page.
func (p Page) Offset() int {
	return p.Number() * p.Size
}

// Limit returns the maximum number of rows in the page.
func (p Page) Limit() int {
	return p.Size
}
