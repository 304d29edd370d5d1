package paging

const DefaultPageSize = 12

// PageCount is the number of pages for total results. An empty result
// still has one (empty) page.
func PageCount(total, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

// ClampPage keeps a 1-based page within the valid range for total results.
func ClampPage(page, total, size int) int {
	if page < 1 {
		return 1
	}
	if last := PageCount(total, size); page > last {
		return last
	}
	return page
}

// Paginate returns the 1-based page of results. Out of range pages are
// empty.
func Paginate[T any](results []T, page, size int) []T {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		return results[:0:0]
	}
	start := (page - 1) * size
	if start >= len(results) {
		return results[:0:0]
	}
	end := min(start+size, len(results))
	return results[start:end:end]
}

// Info describes one page of a result for presentation.
type Info struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalCount int `json:"totalCount"`
	PageCount  int `json:"pageCount"`
}

func NewInfo(page, size, total int) Info {
	if size <= 0 {
		size = DefaultPageSize
	}
	return Info{
		Page:       ClampPage(page, total, size),
		PageSize:   size,
		TotalCount: total,
		PageCount:  PageCount(total, size),
	}
}

func (i Info) HasNext() bool {
	return i.Page < i.PageCount
}

func (i Info) HasPrevious() bool {
	return i.Page > 1
}
