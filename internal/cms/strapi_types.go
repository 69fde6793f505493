package cms

import "hang-in-there/internal/story"

type StrapiCollectionResponse struct {
	Data []StrapiStory `json:"data"`
	Meta struct {
		Pagination story.Pagination `json:"pagination"`
	} `json:"meta"`
}

type StrapiSingleResponse struct {
	Data *StrapiStory   `json:"data"`
	Meta map[string]any `json:"meta"`
}

type StrapiStory struct {
	ID         int64                 `json:"id"`
	Attributes StrapiStoryAttributes `json:"attributes"`
}

type StrapiStoryAttributes struct {
	Headline          string               `json:"headline"`
	Narrative         string               `json:"narrative"`
	SubjectName       string               `json:"subjectName"`
	SubjectIdentifier string               `json:"subjectIdentifier"`
	Theme             story.Theme          `json:"theme"`
	SourceURL         string               `json:"sourceUrl"`
	SourceAttribution string               `json:"sourceAttribution"`
	PublishDate       string               `json:"publishDate"`
	ScheduledDate     string               `json:"scheduledDate"`
	Status            story.Status         `json:"status"`
	FeaturedImage     *StrapiMediaRelation `json:"featuredImage"`
	CommentsEnabled   bool                 `json:"commentsEnabled"`
	CreatedAt         string               `json:"createdAt"`
	UpdatedAt         string               `json:"updatedAt"`
}

// StrapiMediaRelation is a populated single-media relation; Data is null
// when no file is attached.
type StrapiMediaRelation struct {
	Data *StrapiMedia `json:"data"`
}

type StrapiMedia struct {
	ID         int64                 `json:"id"`
	Attributes StrapiMediaAttributes `json:"attributes"`
}

type StrapiMediaAttributes struct {
	Name            string                        `json:"name"`
	AlternativeText *string                       `json:"alternativeText"`
	Caption         *string                       `json:"caption"`
	Width           int                           `json:"width"`
	Height          int                           `json:"height"`
	Formats         map[string]*story.MediaFormat `json:"formats"`
	Hash            string                        `json:"hash"`
	Ext             string                        `json:"ext"`
	Mime            string                        `json:"mime"`
	Size            float64                       `json:"size"`
	URL             string                        `json:"url"`
	PreviewURL      *string                       `json:"previewUrl"`
	Provider        string                        `json:"provider"`
	CreatedAt       string                        `json:"createdAt"`
	UpdatedAt       string                        `json:"updatedAt"`
}

type strapiErrorResponse struct {
	Error *struct {
		Name    string         `json:"name"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}
