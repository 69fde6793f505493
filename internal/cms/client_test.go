package cms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
	_ "time/tzdata"

	"hang-in-there/internal/story"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type mockObserver struct {
	mock.Mock
}

func (m *mockObserver) ObserveCMSRequest(operation, code string, d time.Duration) {
	m.Called(operation, code, d)
}

type ClientSuite struct {
	suite.Suite

	strapi *fakeStrapi
	logs   *observer.ObservedLogs
	logger *zap.Logger
	now    time.Time

	client *Client
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	core, logs := observer.New(zapcore.DebugLevel)
	s.logs = logs
	s.logger = zap.New(core)
	s.now = time.Date(2024, 3, 10, 2, 30, 0, 0, time.UTC)

	s.strapi = newFakeStrapi(
		fixture(1, story.ThemeGrit, story.StatusPublished, "2024-03-01T09:00:00.000Z"),
		fixture(2, story.ThemeLove, story.StatusPublished, "2024-03-02T09:00:00.000Z"),
		fixture(3, story.ThemeGrit, story.StatusDraft, "2024-03-03T09:00:00.000Z"),
		fixture(4, story.ThemeGrit, story.StatusPublished, "2024-03-04T09:00:00.000Z"),
		fixture(5, story.ThemeCare, story.StatusScheduled, "2024-03-05T09:00:00.000Z"),
	)
	s.client = s.newClient(s.strapi.URL, "")
}

func (s *ClientSuite) TearDownTest() {
	s.client.Close()
	s.strapi.Close()
}

func (s *ClientSuite) newClient(baseURL, token string, opts ...Option) *Client {
	opts = append([]Option{
		WithLogger(s.logger),
		WithClock(func() time.Time { return s.now }),
	}, opts...)
	return NewClient(baseURL, token, opts...)
}

func (s *ClientSuite) TestListStories_PublishedGritScenario() {
	res := s.client.ListStories(context.Background(), story.Filters{
		Status:   story.StatusPublished,
		Theme:    story.ThemeGrit,
		PageSize: 3,
	})

	s.Require().True(res.Success, "%+v", res.Error)
	s.Require().Len(res.Data.Stories, 2)
	s.Equal("4", res.Data.Stories[0].ID)
	s.Equal("1", res.Data.Stories[1].ID)
	s.True(res.Data.Stories[0].PublishDate.After(res.Data.Stories[1].PublishDate))
	s.Equal(story.Pagination{Page: 1, PageSize: 3, PageCount: 1, Total: 2}, res.Data.Pagination)
}

func (s *ClientSuite) TestListStories_MapsEveryEntry() {
	res := s.client.ListStories(context.Background(), story.Filters{})

	s.Require().True(res.Success)
	s.Len(res.Data.Stories, 5)
	for _, st := range res.Data.Stories {
		s.NotEmpty(st.ID)
		s.Equal("Story "+st.ID, st.Headline)
	}
	s.Equal(5, res.Data.Pagination.Total)
}

func (s *ClientSuite) TestListStories_Headers() {
	res := s.client.ListStories(context.Background(), story.Filters{})
	s.Require().True(res.Success)

	req := s.strapi.lastRequest()
	s.Equal("application/json", req.Header.Get("Content-Type"))
	s.Empty(req.Header.Get("Authorization"))

	authed := s.newClient(s.strapi.URL, "secret-token")
	defer authed.Close()

	res = authed.ListStories(context.Background(), story.Filters{})
	s.Require().True(res.Success)
	s.Equal("Bearer secret-token", s.strapi.lastRequest().Header.Get("Authorization"))
	s.Equal("/api/stories", s.strapi.lastRequest().URL.Path)
}

func (s *ClientSuite) TestListStories_WarnsOnUnknownEnums() {
	odd := newFakeStrapi(fixture(9, story.Theme("hope"), story.StatusPublished, "2024-03-01T09:00:00.000Z"))
	defer odd.Close()

	c := s.newClient(odd.URL, "")
	defer c.Close()

	res := c.ListStories(context.Background(), story.Filters{})
	s.Require().True(res.Success)
	s.Equal(story.Theme("hope"), res.Data.Stories[0].Theme)
	s.Equal(1, s.logs.FilterMessage("story has values outside the known enums").Len())
}

func (s *ClientSuite) TestGetStoryByID() {
	res := s.client.GetStoryByID(context.Background(), "2")

	s.Require().True(res.Success)
	s.Equal("2", res.Data.ID)
	s.Equal(story.ThemeLove, res.Data.Theme)
	s.Equal("featuredImage", s.strapi.lastRequest().URL.Query().Get("populate"))
}

func (s *ClientSuite) TestGetStoryByID_Idempotent() {
	first := s.client.GetStoryByID(context.Background(), "1")
	second := s.client.GetStoryByID(context.Background(), "1")

	s.Require().True(first.Success)
	s.Equal(first, second)
}

func (s *ClientSuite) TestGetStoryByID_NotFound() {
	res := s.client.GetStoryByID(context.Background(), "999")

	s.Require().False(res.Success)
	s.Equal("NotFoundError", res.Error.Code)
	s.Equal("Story not found", res.Error.Message)
	s.Equal(http.StatusNotFound, res.Error.StatusCode)
	s.Equal(1, s.logs.FilterMessage("cms request failed").Len())
}

func (s *ClientSuite) TestGetStoryByID_NullData() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":null,"meta":{}}`))
	}))
	defer srv.Close()

	c := s.newClient(srv.URL, "")
	defer c.Close()

	res := c.GetStoryByID(context.Background(), "42")

	s.Require().False(res.Success)
	s.Equal(CodeNotFound, res.Error.Code)
	s.Equal(http.StatusNotFound, res.Error.StatusCode)
	s.Empty(res.Data.ID)
}

func (s *ClientSuite) TestGetStoryByID_BlankID() {
	for _, id := range []string{"", "  "} {
		res := s.client.GetStoryByID(context.Background(), id)

		s.Require().False(res.Success)
		s.Equal(CodeInvalidQuery, res.Error.Code)
		s.Equal(http.StatusBadRequest, res.Error.StatusCode)
	}
	s.Nil(s.strapi.lastRequest())
}

func (s *ClientSuite) TestRemoteError_UnparsableBody() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	c := s.newClient(srv.URL, "")
	defer c.Close()

	res := c.GetStoryByID(context.Background(), "1")

	s.Require().False(res.Success)
	s.Equal(CodeStrapiError, res.Error.Code)
	s.Equal("Strapi API error: 502", res.Error.Message)
	s.Equal(http.StatusBadGateway, res.Error.StatusCode)
}

func (s *ClientSuite) TestRemoteError_Details() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": map[string]any{
				"name":    "ValidationError",
				"message": "Invalid key",
				"details": map[string]any{"key": "nope"},
			},
		})
	}))
	defer srv.Close()

	c := s.newClient(srv.URL, "")
	defer c.Close()

	res := c.ListStories(context.Background(), story.Filters{})

	s.Require().False(res.Success)
	s.Equal("ValidationError", res.Error.Code)
	s.Equal(http.StatusBadRequest, res.Error.StatusCode)
	s.Equal(map[string]any{"key": "nope"}, res.Error.Details)
}

func (s *ClientSuite) TestTimeout() {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer slow.Close()

	c := s.newClient(slow.URL, "", WithTimeouts(50*time.Millisecond, 50*time.Millisecond))
	defer c.Close()

	res := c.ListStories(context.Background(), story.Filters{})

	s.Require().False(res.Success)
	s.Equal(CodeTimeoutError, res.Error.Code)
	s.Equal(0, res.Error.StatusCode)
}

func (s *ClientSuite) TestCancelledContextIsTimeout() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := s.client.GetStoryByID(ctx, "1")

	s.Require().False(res.Success)
	s.Equal(CodeTimeoutError, res.Error.Code)
}

func (s *ClientSuite) TestNetworkError() {
	dead := httptest.NewServer(http.NotFoundHandler())
	url := dead.URL
	dead.Close()

	c := s.newClient(url, "")
	defer c.Close()

	res := c.ListStories(context.Background(), story.Filters{})

	s.Require().False(res.Success)
	s.Equal(CodeNetworkError, res.Error.Code)
	s.Equal("Unable to connect to Strapi CMS", res.Error.Message)
	s.Contains(res.Error.Details, "originalError")
}

func (s *ClientSuite) TestMalformedSuccessBody() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("{not json"))
	}))
	defer srv.Close()

	c := s.newClient(srv.URL, "")
	defer c.Close()

	res := c.ListStories(context.Background(), story.Filters{})

	s.Require().False(res.Success)
	s.Equal(CodeNetworkError, res.Error.Code)
}

func (s *ClientSuite) TestGetDailyStory_NoneScheduled() {
	res := s.client.GetDailyStory(context.Background(), "")

	s.Require().False(res.Success)
	s.Equal(CodeNoDailyStory, res.Error.Code)
	s.Equal(http.StatusNotFound, res.Error.StatusCode)

	q := s.strapi.lastRequest().URL.Query()
	s.Equal("published", q.Get("filters[status][$eq]"))
	s.Equal("2024-03-10T00:00:00.000Z", q.Get("filters[publishDate][$gte]"))
	s.Equal("2024-03-10T23:59:59.999Z", q.Get("filters[publishDate][$lte]"))
	s.Equal("1", q.Get("pagination[pageSize]"))
	s.Equal("publishDate:desc", q.Get("sort"))
	s.Equal("featuredImage", q.Get("populate"))
}

func (s *ClientSuite) TestGetDailyStory_UsesCallerTimezone() {
	// 02:30 UTC on the 10th is still the 9th in New York.
	s.strapi.add(fixture(6, story.ThemeCommunity, story.StatusPublished, "2024-03-09T14:00:00.000Z"))

	res := s.client.GetDailyStory(context.Background(), "America/New_York")

	s.Require().True(res.Success, "%+v", res.Error)
	s.Equal("6", res.Data.ID)
	s.Equal(story.ThemeCommunity, res.Data.Theme)
	s.Equal("2024-03-09T00:00:00.000Z", s.strapi.lastRequest().URL.Query().Get("filters[publishDate][$gte]"))
}

func (s *ClientSuite) TestGetDailyStory_InvalidTimezone() {
	res := s.client.GetDailyStory(context.Background(), "Mars/Olympus_Mons")

	s.Require().False(res.Success)
	s.Equal(CodeInvalidTimezone, res.Error.Code)
	s.Equal(http.StatusBadRequest, res.Error.StatusCode)
	s.Nil(s.strapi.lastRequest(), "no request should reach the CMS")
}

func (s *ClientSuite) TestCheckHealth_Available() {
	res := s.client.CheckHealth(context.Background())

	s.Require().True(res.Success)
	s.True(res.Data.Available)

	req := s.strapi.lastRequest()
	s.Equal(http.MethodHead, req.Method)
	s.Equal("/_health", req.URL.Path)
}

func (s *ClientSuite) TestCheckHealth_NotReady() {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := s.newClient(srv.URL, "")
	defer c.Close()

	res := c.CheckHealth(context.Background())

	s.Require().True(res.Success)
	s.False(res.Data.Available)
}

func (s *ClientSuite) TestCheckHealth_ConnectionRefused() {
	dead := httptest.NewServer(http.NotFoundHandler())
	url := dead.URL
	dead.Close()

	c := s.newClient(url, "")
	defer c.Close()

	res := c.CheckHealth(context.Background())

	s.Require().False(res.Success)
	s.Equal(CodeCMSUnavailable, res.Error.Code)
	s.Equal(0, res.Error.StatusCode)
}

func (s *ClientSuite) TestObserverReceivesOperationAndCode() {
	obs := &mockObserver{}
	obs.On("ObserveCMSRequest", opStoryByID, "ok", mock.AnythingOfType("time.Duration")).Once()
	obs.On("ObserveCMSRequest", opStoryByID, "NotFoundError", mock.AnythingOfType("time.Duration")).Once()

	c := s.newClient(s.strapi.URL, "", WithObserver(obs))
	defer c.Close()

	c.GetStoryByID(context.Background(), "1")
	c.GetStoryByID(context.Background(), "404")

	obs.AssertExpectations(s.T())
}

func TestDailyWindow(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Fatal(err)
	}
	now := time.Date(2024, 12, 31, 20, 0, 0, 0, time.UTC)

	from, to := DailyWindow(now, tokyo)
	if from != "2025-01-01T00:00:00.000Z" || to != "2025-01-01T23:59:59.999Z" {
		t.Fatalf("unexpected window %s..%s", from, to)
	}

	from, _ = DailyWindow(now, time.UTC)
	if from != "2024-12-31T00:00:00.000Z" {
		t.Fatalf("unexpected UTC window start %s", from)
	}
}
