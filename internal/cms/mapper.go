package cms

import (
	"strconv"
	"time"

	"hang-in-there/internal/story"
)

// MapStory flattens a Strapi entry into a Story. Enum fields are copied as-is.
func MapStory(id int64, a StrapiStoryAttributes) story.Story {
	return story.Story{
		ID:                strconv.FormatInt(id, 10),
		Headline:          a.Headline,
		Narrative:         a.Narrative,
		SubjectName:       a.SubjectName,
		SubjectIdentifier: a.SubjectIdentifier,
		Theme:             a.Theme,
		SourceURL:         a.SourceURL,
		SourceAttribution: a.SourceAttribution,
		PublishDate:       parseDate(a.PublishDate),
		ScheduledDate:     parseDate(a.ScheduledDate),
		Status:            a.Status,
		FeaturedImage:     mapMedia(a.FeaturedImage),
		CommentsEnabled:   a.CommentsEnabled,
		CreatedAt:         parseDate(a.CreatedAt),
		UpdatedAt:         parseDate(a.UpdatedAt),
	}
}

func mapMedia(rel *StrapiMediaRelation) *story.Media {
	if rel == nil || rel.Data == nil {
		return nil
	}
	a := rel.Data.Attributes

	return &story.Media{
		ID:              rel.Data.ID,
		Name:            a.Name,
		AlternativeText: deref(a.AlternativeText),
		Caption:         deref(a.Caption),
		Width:           a.Width,
		Height:          a.Height,
		Formats: story.MediaFormats{
			Thumbnail: a.Formats["thumbnail"],
			Small:     a.Formats["small"],
			Medium:    a.Formats["medium"],
			Large:     a.Formats["large"],
		},
		Hash:       a.Hash,
		Ext:        a.Ext,
		Mime:       a.Mime,
		Size:       a.Size,
		URL:        a.URL,
		PreviewURL: deref(a.PreviewURL),
		Provider:   a.Provider,
		CreatedAt:  parseDate(a.CreatedAt),
		UpdatedAt:  parseDate(a.UpdatedAt),
	}
}

// parseDate accepts "2024-01-01T09:15:00.000Z" or a bare "2024-01-01".
// Anything else maps to the zero time.
func parseDate(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return t
	}
	return time.Time{}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
