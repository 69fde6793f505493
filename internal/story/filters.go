package story

// Sort keys accepted by the story listing.
const (
	SortPublishDateAsc  = "publishDate:asc"
	SortPublishDateDesc = "publishDate:desc"
	SortCreatedAtAsc    = "createdAt:asc"
	SortCreatedAtDesc   = "createdAt:desc"
)

// Filters narrows a story listing. Zero values mean "not set".
type Filters struct {
	Page     int
	PageSize int
	Theme    Theme
	Status   Status
	Search   string
	DateFrom string // ISO date or timestamp
	DateTo   string
	Sort     string
}

func ValidSort(s string) bool {
	switch s {
	case SortPublishDateAsc, SortPublishDateDesc, SortCreatedAtAsc, SortCreatedAtDesc:
		return true
	}
	return false
}
