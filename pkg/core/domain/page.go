package domain

// DefaultPageSize applies when a listing does not ask for a limit.
const DefaultPageSize = 100

// NormalizePage returns the paging actually applied to a listing.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	return page, limit
}
