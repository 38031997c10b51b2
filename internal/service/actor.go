package service

// Actor is the verified identity performing an operation. Identity and
// role resolution happen outside this service; the engine only makes
// authorization decisions against the supplied claims.
type Actor struct {
	ID   string
	Role string
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// normalizePage clamps pagination inputs and converts them to
// limit/offset form.
func normalizePage(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit, (page - 1) * limit
}
