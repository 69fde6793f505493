package cms

import (
	"net/url"
	"strconv"

	"hang-in-there/internal/story"
)

const populateFeaturedImage = "featuredImage"

// BuildQuery translates story filters into Strapi's bracketed query
// parameters. Unset filters are omitted; sort falls back to newest first and
// the featured image relation is always populated.
func BuildQuery(f story.Filters) url.Values {
	q := url.Values{}

	if f.Page > 0 {
		q.Set("pagination[page]", strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 {
		q.Set("pagination[pageSize]", strconv.Itoa(f.PageSize))
	}

	if f.Theme != "" {
		q.Set("filters[theme][$eq]", string(f.Theme))
	}
	if f.Status != "" {
		q.Set("filters[status][$eq]", string(f.Status))
	}
	if f.DateFrom != "" {
		q.Set("filters[publishDate][$gte]", f.DateFrom)
	}
	if f.DateTo != "" {
		q.Set("filters[publishDate][$lte]", f.DateTo)
	}

	if f.Search != "" {
		q.Set("filters[$or][0][headline][$containsi]", f.Search)
		q.Set("filters[$or][1][narrative][$containsi]", f.Search)
	}

	if f.Sort != "" {
		q.Set("sort", f.Sort)
	} else {
		q.Set("sort", story.SortPublishDateDesc)
	}

	q.Set("populate", populateFeaturedImage)

	return q
}
