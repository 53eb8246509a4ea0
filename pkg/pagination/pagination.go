package pagination

const (
	// DefaultPage is the page number used when none is provided.
	DefaultPage = 1
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 10
	// MaxLimit caps how many rows any listing query can request.
	MaxLimit = 100
)

// Params holds page pagination inputs from controllers or services.
type Params struct {
	Page  int
	Limit int
}

// Page describes the pagination block attached to listing responses.
type Page struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NormalizePage enforces the minimum page number.
func NormalizePage(page int) int {
	if page <= 0 {
		return DefaultPage
	}
	return page
}

// NormalizeLimit enforces the configured default and maximum limits.
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// Normalize applies both page and limit rules.
func Normalize(p Params) Params {
	return Params{
		Page:  NormalizePage(p.Page),
		Limit: NormalizeLimit(p.Limit),
	}
}

// Offset returns the row offset for the normalized params.
func (p Params) Offset() int {
	return (NormalizePage(p.Page) - 1) * NormalizeLimit(p.Limit)
}

// NewPage builds the response pagination block for a total row count.
// TotalPages is ceil(total/limit), so an empty result reports zero pages.
func NewPage(p Params, total int64) Page {
	p = Normalize(p)
	pages := int(total) / p.Limit
	if int(total)%p.Limit != 0 {
		pages++
	}
	return Page{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: pages,
	}
}
