package ingest

import (
	"context"
	"time"

	"hang-in-there/internal/cms"
	"hang-in-there/internal/story"

	"go.uber.org/zap"
)

const AbsoluteMaxPages = 5000 // absolute max amount of pages we sync per run

type StoryLister interface {
	ListStories(ctx context.Context, f story.Filters) cms.Result[story.Page]
}

// ticker is an interface so we can swap out time.Ticker in tests.
type ticker interface {
	C() <-chan time.Time
	Stop()
}

type tickerFactory func(d time.Duration) ticker

// timeTicker is the real implementation backed by time.Ticker.
type timeTicker struct {
	*time.Ticker
}

func (t *timeTicker) C() <-chan time.Time {
	return t.Ticker.C
}

func (t *timeTicker) Stop() {
	t.Ticker.Stop()
}

// Service mirrors published CMS stories into the story repository.
type Service struct {
	repo      story.Repository
	client    StoryLister
	pageSize  int
	maxPages  int
	maxPolls  int
	logger    *zap.Logger
	newTicker tickerFactory
}

func NewService(repo story.Repository, client StoryLister, pageSize, maxPages, maxPolls int, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		repo:     repo,
		client:   client,
		pageSize: pageSize,
		maxPages: maxPages,
		maxPolls: maxPolls,
		logger:   logger,
		newTicker: func(d time.Duration) ticker {
			return &timeTicker{time.NewTicker(d)}
		},
	}
}

// RunOnce walks every page of published stories and upserts them. A failed
// CMS call ends the run with that error; a failed upsert is logged and skipped.
func (s *Service) RunOnce(ctx context.Context) error {
	page := 1
	seen := make(map[string]struct{}) // pages can shift while we walk them

	for {
		res := s.client.ListStories(ctx, story.Filters{
			Page:     page,
			PageSize: s.pageSize,
			Status:   story.StatusPublished,
		})
		if !res.Success {
			_, err := res.Unwrap()
			return err
		}

		if len(res.Data.Stories) == 0 {
			s.logger.Info("no content on page, stopping", zap.Int("page", page))
			return nil
		}

		changed := 0
		for i := range res.Data.Stories {
			st := &res.Data.Stories[i]
			if _, ok := seen[st.ID]; ok {
				continue
			}
			seen[st.ID] = struct{}{}

			ok, err := s.repo.UpsertByStoryID(ctx, st)
			if err != nil {
				s.logger.Error("failed to upsert story", zap.String("story_id", st.ID), zap.Error(err))
				continue
			}
			if ok {
				changed++
			}
		}
		s.logger.Info("page synced", zap.Int("page", page), zap.Int("changed", changed))

		if page >= AbsoluteMaxPages {
			s.logger.Warn("safety stop", zap.Int("pages", AbsoluteMaxPages))
			return nil
		}

		if s.maxPages >= 0 && page >= s.maxPages {
			s.logger.Info("reached configured page limit", zap.Int("max_pages", s.maxPages))
			return nil
		}

		if page >= res.Data.Pagination.PageCount {
			s.logger.Info("reached reported last page", zap.Int("page_count", res.Data.Pagination.PageCount))
			return nil
		}

		page++
	}
}

func (s *Service) StartPolling(ctx context.Context, interval time.Duration) {
	t := s.newTicker(interval)
	defer t.Stop()

	pollCount := 0

	s.logger.Info("polling cms", zap.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("poller stopping, context cancelled")
			return

		case <-t.C():
			pollCount++
			s.logger.Info("poll starting", zap.Int("poll", pollCount))

			// hard limit
			pollCtx, cancel := context.WithTimeout(ctx, 25*time.Minute)

			if err := s.RunOnce(pollCtx); err != nil {
				s.logger.Error("poll failed", zap.Int("poll", pollCount), zap.Error(err))
			}

			cancel()

			if s.maxPolls > 0 && pollCount >= s.maxPolls {
				s.logger.Info("poller stopping, max polls reached", zap.Int("polls", pollCount))
				return
			}
		}
	}
}
