package model

// PageRequest selects a zero-based page of the given size
type PageRequest struct {
	Page int
	Size int
}

// Offset is the index of the first element of the page
func (r PageRequest) Offset() int {
	return r.Page * r.Size
}

// Page is one slice of a larger ordered result
type Page[T any] struct {
	Content       []T   `json:"content"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
	Empty         bool  `json:"empty"`
}

// NewPage assembles a page from its content and the total match count
func NewPage[T any](content []T, req PageRequest, total int64) Page[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if req.Size > 0 {
		pages = int((total + int64(req.Size) - 1) / int64(req.Size))
	}
	return Page[T]{
		Content:       content,
		TotalElements: total,
		TotalPages:    pages,
		Number:        req.Page,
		Size:          req.Size,
		First:         req.Page == 0,
		Last:          req.Page+1 >= pages,
		Empty:         len(content) == 0,
	}
}

// EmptyPage is the page returned when no query is issued
func EmptyPage[T any](req PageRequest) Page[T] {
	return NewPage[T](nil, req, 0)
}

// MapPage converts the content of a page, keeping its position
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, len(p.Content))
	for i, v := range p.Content {
		out[i] = fn(v)
	}
	return Page[U]{
		Content:       out,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		Number:        p.Number,
		Size:          p.Size,
		First:         p.First,
		Last:          p.Last,
		Empty:         p.Empty,
	}
}

// PageSlice cuts the requested page out of an already ordered slice
func PageSlice[T any](all []T, req PageRequest) Page[T] {
	total := int64(len(all))
	start := req.Offset()
	if start < 0 || start > len(all) {
		start = len(all)
	}
	end := start + req.Size
	if end > len(all) {
		end = len(all)
	}
	content := make([]T, end-start)
	copy(content, all[start:end])
	return NewPage(content, req, total)
}
