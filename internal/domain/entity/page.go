package entity

// Page is one slice of a paginated listing.
type Page[T any] struct {
	Items       []T
	Total       int64
	PerPage     int
	CurrentPage int
}

func (p Page[T]) LastPage() int {
	if p.PerPage <= 0 || p.Total == 0 {
		return 1
	}
	last := int(p.Total) / p.PerPage
	if int(p.Total)%p.PerPage != 0 {
		last++
	}
	return last
}

// From is the 1-based position of the first item on the page, 0 when empty.
func (p Page[T]) From() int {
	if len(p.Items) == 0 {
		return 0
	}
	return (p.CurrentPage-1)*p.PerPage + 1
}

func (p Page[T]) To() int {
	if len(p.Items) == 0 {
		return 0
	}
	return p.From() + len(p.Items) - 1
}
