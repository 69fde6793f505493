package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"hang-in-there/internal/cms"
	"hang-in-there/internal/story"
)

const CodeInvalidQuery = cms.CodeInvalidQuery

func filtersFromQuery(q url.Values) (story.Filters, *cms.APIError) {
	var f story.Filters
	var err *cms.APIError

	if f.Page, err = positiveInt(q, "page"); err != nil {
		return f, err
	}
	if f.PageSize, err = positiveInt(q, "pageSize"); err != nil {
		return f, err
	}

	if v := q.Get("theme"); v != "" {
		f.Theme = story.Theme(v)
		if !f.Theme.Valid() {
			return f, invalidQuery("theme", v)
		}
	}
	if v := q.Get("status"); v != "" {
		f.Status = story.Status(v)
		if !f.Status.Valid() {
			return f, invalidQuery("status", v)
		}
	}
	if v := q.Get("sort"); v != "" {
		if !story.ValidSort(v) {
			return f, invalidQuery("sort", v)
		}
		f.Sort = v
	}

	f.Search = q.Get("search")
	f.DateFrom = q.Get("dateFrom")
	f.DateTo = q.Get("dateTo")

	return f, nil
}

func positiveInt(q url.Values, key string) (int, *cms.APIError) {
	v := q.Get(key)
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, invalidQuery(key, v)
	}
	return n, nil
}

func invalidQuery(param, value string) *cms.APIError {
	return &cms.APIError{
		Code:       CodeInvalidQuery,
		Message:    fmt.Sprintf("invalid value for %s", param),
		StatusCode: http.StatusBadRequest,
		Details:    map[string]any{"param": param, "value": value},
	}
}
