package story

import "time"

type Theme string

const (
	ThemeGrit        Theme = "grit"
	ThemeLove        Theme = "love"
	ThemeCommunity   Theme = "community"
	ThemeEnvironment Theme = "environment"
	ThemeBalance     Theme = "balance"
	ThemeCare        Theme = "care"
)

func (t Theme) Valid() bool {
	switch t {
	case ThemeGrit, ThemeLove, ThemeCommunity, ThemeEnvironment, ThemeBalance, ThemeCare:
		return true
	}
	return false
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusScheduled Status = "scheduled"
	StatusPublished Status = "published"
)

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusScheduled, StatusPublished:
		return true
	}
	return false
}

// Story is the daily human-interest record owned by the CMS.
type Story struct {
	ID                string    `json:"id" bson:"storyId"`
	Headline          string    `json:"headline" bson:"headline"`
	Narrative         string    `json:"narrative" bson:"narrative"`
	SubjectName       string    `json:"subjectName" bson:"subjectName"`
	SubjectIdentifier string    `json:"subjectIdentifier" bson:"subjectIdentifier"`
	Theme             Theme     `json:"theme" bson:"theme"`
	SourceURL         string    `json:"sourceUrl" bson:"sourceUrl"`
	SourceAttribution string    `json:"sourceAttribution" bson:"sourceAttribution"`
	PublishDate       time.Time `json:"publishDate" bson:"publishDate"`
	ScheduledDate     time.Time `json:"scheduledDate" bson:"scheduledDate"`
	Status            Status    `json:"status" bson:"status"`
	FeaturedImage     *Media    `json:"featuredImage,omitempty" bson:"featuredImage,omitempty"`
	CommentsEnabled   bool      `json:"commentsEnabled" bson:"commentsEnabled"`
	CreatedAt         time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt" bson:"updatedAt"`

	// SyncedAt is set by the mirror repository only.
	SyncedAt time.Time `json:"-" bson:"syncedAt,omitempty"`
}

type Media struct {
	ID              int64        `json:"id" bson:"id"`
	Name            string       `json:"name" bson:"name"`
	AlternativeText string       `json:"alternativeText,omitempty" bson:"alternativeText,omitempty"`
	Caption         string       `json:"caption,omitempty" bson:"caption,omitempty"`
	Width           int          `json:"width" bson:"width"`
	Height          int          `json:"height" bson:"height"`
	Formats         MediaFormats `json:"formats" bson:"formats"`
	Hash            string       `json:"hash" bson:"hash"`
	Ext             string       `json:"ext" bson:"ext"`
	Mime            string       `json:"mime" bson:"mime"`
	Size            float64      `json:"size" bson:"size"` // kilobytes, as reported by the CMS
	URL             string       `json:"url" bson:"url"`
	PreviewURL      string       `json:"previewUrl,omitempty" bson:"previewUrl,omitempty"`
	Provider        string       `json:"provider,omitempty" bson:"provider,omitempty"`
	CreatedAt       time.Time    `json:"createdAt" bson:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt" bson:"updatedAt"`
}

type MediaFormats struct {
	Thumbnail *MediaFormat `json:"thumbnail,omitempty" bson:"thumbnail,omitempty"`
	Small     *MediaFormat `json:"small,omitempty" bson:"small,omitempty"`
	Medium    *MediaFormat `json:"medium,omitempty" bson:"medium,omitempty"`
	Large     *MediaFormat `json:"large,omitempty" bson:"large,omitempty"`
}

type MediaFormat struct {
	Name   string  `json:"name" bson:"name"`
	Hash   string  `json:"hash" bson:"hash"`
	Ext    string  `json:"ext" bson:"ext"`
	Mime   string  `json:"mime" bson:"mime"`
	Width  int     `json:"width" bson:"width"`
	Height int     `json:"height" bson:"height"`
	Size   float64 `json:"size" bson:"size"`
	URL    string  `json:"url" bson:"url"`
}

type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

// Page is one page of a story listing.
type Page struct {
	Stories    []Story    `json:"stories"`
	Pagination Pagination `json:"pagination"`
}
