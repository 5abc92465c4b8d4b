package services

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// normalizePage clamps page to >= 1 and limit to [1, MaxPageSize], using
// DefaultPageSize when limit is unset.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}
