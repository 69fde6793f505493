package cms

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"

	"hang-in-there/internal/story"
)

// fakeStrapi serves a subset of Strapi's REST filtering over in-memory entries.
type fakeStrapi struct {
	*httptest.Server

	mu       sync.Mutex
	entries  []StrapiStory
	requests []*http.Request
}

func newFakeStrapi(entries ...StrapiStory) *fakeStrapi {
	f := &fakeStrapi{entries: entries}
	f.Server = httptest.NewServer(http.HandlerFunc(f.serve))
	return f
}

func (f *fakeStrapi) add(entries ...StrapiStory) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entries...)
}

func (f *fakeStrapi) lastRequest() *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

func (f *fakeStrapi) serve(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Clone(r.Context()))
	entries := append([]StrapiStory(nil), f.entries...)
	f.mu.Unlock()

	switch {
	case r.URL.Path == "/_health":
		w.WriteHeader(http.StatusOK)
	case r.URL.Path == "/api/stories":
		f.list(w, r.URL.Query(), entries)
	case strings.HasPrefix(r.URL.Path, "/api/stories/"):
		f.single(w, strings.TrimPrefix(r.URL.Path, "/api/stories/"), entries)
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": map[string]any{"name": "NotFoundError", "message": "Not Found"},
		})
	}
}

func (f *fakeStrapi) list(w http.ResponseWriter, q url.Values, entries []StrapiStory) {
	var out []StrapiStory
	for _, e := range entries {
		if matches(e.Attributes, q) {
			out = append(out, e)
		}
	}

	desc := q.Get("sort") != story.SortPublishDateAsc
	sort.SliceStable(out, func(i, j int) bool {
		if desc {
			return out[i].Attributes.PublishDate > out[j].Attributes.PublishDate
		}
		return out[i].Attributes.PublishDate < out[j].Attributes.PublishDate
	})

	page := atoiOr(q.Get("pagination[page]"), 1)
	pageSize := atoiOr(q.Get("pagination[pageSize]"), 25)
	total := len(out)

	lo := min((page-1)*pageSize, total)
	hi := min(lo+pageSize, total)

	var resp StrapiCollectionResponse
	resp.Data = append([]StrapiStory{}, out[lo:hi]...)
	resp.Meta.Pagination = story.Pagination{
		Page:      page,
		PageSize:  pageSize,
		PageCount: (total + pageSize - 1) / pageSize,
		Total:     total,
	}
	writeJSON(w, http.StatusOK, resp)
}

func (f *fakeStrapi) single(w http.ResponseWriter, id string, entries []StrapiStory) {
	for _, e := range entries {
		if strconv.FormatInt(e.ID, 10) == id {
			entry := e
			writeJSON(w, http.StatusOK, StrapiSingleResponse{Data: &entry, Meta: map[string]any{}})
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{
		"error": map[string]any{"name": "NotFoundError", "message": "Story not found"},
	})
}

func matches(a StrapiStoryAttributes, q url.Values) bool {
	if v := q.Get("filters[theme][$eq]"); v != "" && string(a.Theme) != v {
		return false
	}
	if v := q.Get("filters[status][$eq]"); v != "" && string(a.Status) != v {
		return false
	}
	if v := q.Get("filters[publishDate][$gte]"); v != "" && a.PublishDate < v {
		return false
	}
	if v := q.Get("filters[publishDate][$lte]"); v != "" && a.PublishDate > v {
		return false
	}
	if v := q.Get("filters[$or][0][headline][$containsi]"); v != "" {
		needle := strings.ToLower(v)
		if !strings.Contains(strings.ToLower(a.Headline), needle) &&
			!strings.Contains(strings.ToLower(a.Narrative), needle) {
			return false
		}
	}
	return true
}

func atoiOr(s string, fallback int) int {
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return fallback
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func fixture(id int64, theme story.Theme, status story.Status, publishDate string) StrapiStory {
	return StrapiStory{
		ID: id,
		Attributes: StrapiStoryAttributes{
			Headline:          "Story " + strconv.FormatInt(id, 10),
			Narrative:         "A narrative about perseverance.",
			SubjectName:       "Jane Smith",
			SubjectIdentifier: "nurse, USA",
			Theme:             theme,
			SourceURL:         "https://example.com/story",
			SourceAttribution: "Example News",
			PublishDate:       publishDate,
			ScheduledDate:     publishDate,
			Status:            status,
			CommentsEnabled:   true,
			CreatedAt:         "2024-01-01T00:00:00.000Z",
			UpdatedAt:         "2024-01-02T00:00:00.000Z",
		},
	}
}
