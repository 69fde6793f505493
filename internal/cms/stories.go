package cms

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hang-in-there/internal/story"

	"go.uber.org/zap"
)

const (
	opListStories  = "list_stories"
	opDailyStory   = "daily_story"
	opStoryByID    = "story_by_id"
	opHealthProbe  = "health"
	storiesPath    = "/stories"
	healthPath     = "/_health"
	defaultTZ      = "UTC"
	dayStartSuffix = "T00:00:00.000Z"
	dayEndSuffix   = "T23:59:59.999Z"
)

type Health struct {
	Available bool `json:"available"`
}

// ListStories returns one page of stories matching f, newest first unless
// f.Sort says otherwise.
func (c *Client) ListStories(ctx context.Context, f story.Filters) Result[story.Page] {
	start := time.Now()

	res := fetch[StrapiCollectionResponse](ctx, c, storiesPath+"?"+BuildQuery(f).Encode())
	if !res.Success {
		return finish(c, opListStories, start, Fail[story.Page](res.Error))
	}

	stories := make([]story.Story, 0, len(res.Data.Data))
	for _, entry := range res.Data.Data {
		stories = append(stories, c.mapStory(entry))
	}

	return finish(c, opListStories, start, Ok(story.Page{
		Stories:    stories,
		Pagination: res.Data.Meta.Pagination,
	}))
}

// GetDailyStory returns the published story whose publish date falls on
// today's calendar date in timezone. An empty timezone means UTC.
func (c *Client) GetDailyStory(ctx context.Context, timezone string) Result[story.Story] {
	start := time.Now()

	if timezone == "" {
		timezone = defaultTZ
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return finish(c, opDailyStory, start, Fail[story.Story](&APIError{
			Code:       CodeInvalidTimezone,
			Message:    "Unknown timezone",
			StatusCode: http.StatusBadRequest,
			Details:    map[string]any{"timezone": timezone},
		}))
	}

	from, to := DailyWindow(c.now(), loc)
	q := BuildQuery(story.Filters{
		PageSize: 1,
		Status:   story.StatusPublished,
		DateFrom: from,
		DateTo:   to,
		Sort:     story.SortPublishDateDesc,
	})

	res := fetch[StrapiCollectionResponse](ctx, c, storiesPath+"?"+q.Encode())
	if !res.Success {
		return finish(c, opDailyStory, start, Fail[story.Story](res.Error))
	}

	if len(res.Data.Data) == 0 {
		return finish(c, opDailyStory, start, Fail[story.Story](&APIError{
			Code:       CodeNoDailyStory,
			Message:    "No story is scheduled for today",
			StatusCode: http.StatusNotFound,
		}))
	}

	return finish(c, opDailyStory, start, Ok(c.mapStory(res.Data.Data[0])))
}

// DailyWindow returns the UTC timestamp bounds covering the calendar date of
// now as seen in loc.
func DailyWindow(now time.Time, loc *time.Location) (from, to string) {
	day := now.In(loc).Format(time.DateOnly)
	return day + dayStartSuffix, day + dayEndSuffix
}

// GetStoryByID fetches one story with its featured image. A blank id is
// rejected without calling the CMS.
func (c *Client) GetStoryByID(ctx context.Context, id string) Result[story.Story] {
	start := time.Now()

	if strings.TrimSpace(id) == "" {
		return finish(c, opStoryByID, start, Fail[story.Story](&APIError{
			Code:       CodeInvalidQuery,
			Message:    "Story id is required",
			StatusCode: http.StatusBadRequest,
		}))
	}

	q := url.Values{}
	q.Set("populate", populateFeaturedImage)

	res := fetch[StrapiSingleResponse](ctx, c, storiesPath+"/"+url.PathEscape(id)+"?"+q.Encode())
	if !res.Success {
		return finish(c, opStoryByID, start, Fail[story.Story](res.Error))
	}

	// Strapi answers 200 with a null entry for some filtered single lookups.
	if res.Data.Data == nil {
		return finish(c, opStoryByID, start, Fail[story.Story](&APIError{
			Code:       CodeNotFound,
			Message:    "Story not found",
			StatusCode: http.StatusNotFound,
			Details:    map[string]any{"id": id},
		}))
	}

	return finish(c, opStoryByID, start, Ok(c.mapStory(*res.Data.Data)))
}

// CheckHealth probes the CMS liveness endpoint. A response of any status is a
// success whose Available flag mirrors a 2xx; an unreachable CMS is a
// CMS_UNAVAILABLE failure.
func (c *Client) CheckHealth(ctx context.Context) Result[Health] {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL+healthPath, nil)
	if err != nil {
		return finish(c, opHealthProbe, start, Fail[Health](unavailableError()))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("cms health probe failed", zap.Error(err))
		return finish(c, opHealthProbe, start, Fail[Health](unavailableError()))
	}
	_ = resp.Body.Close()

	ok := resp.StatusCode >= 200 && resp.StatusCode <= 299
	return finish(c, opHealthProbe, start, Ok(Health{Available: ok}))
}

func unavailableError() *APIError {
	return &APIError{
		Code:    CodeCMSUnavailable,
		Message: "Strapi CMS is not available",
	}
}

func (c *Client) mapStory(entry StrapiStory) story.Story {
	s := MapStory(entry.ID, entry.Attributes)
	if !s.Theme.Valid() || !s.Status.Valid() {
		c.logger.Warn("story has values outside the known enums",
			zap.String("story_id", s.ID),
			zap.String("theme", string(s.Theme)),
			zap.String("status", string(s.Status)),
		)
	}
	return s
}
