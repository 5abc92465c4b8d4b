package repositories

// pageOffset returns the OFFSET of a 1-based page. ok is false when the page
// starts past the last of total rows; the caller answers with an empty page
// instead of querying, which also keeps huge page numbers from overflowing.
func pageOffset(page, limit, total int) (offset int, ok bool) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		return 0, false
	}
	if page-1 > total/limit {
		return 0, false
	}
	return (page - 1) * limit, true
}
