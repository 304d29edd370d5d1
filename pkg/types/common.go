package types

import "context"

type SuggestionType string

const (
	BrandSuggestion    SuggestionType = "brand"
	ModelSuggestion    SuggestionType = "model"
	CategorySuggestion SuggestionType = "category"
	SizeSuggestion     SuggestionType = "size"
	TagSuggestion      SuggestionType = "tag"
	TermSuggestion     SuggestionType = "term"
)

// SuggestionEntry is a ranked type-ahead candidate.
type SuggestionEntry struct {
	Type      SuggestionType `json:"type"`
	Text      string         `json:"text"`
	Brand     string         `json:"brand,omitempty"`
	Model     string         `json:"model,omitempty"`
	Count     int            `json:"count"`
	Positions []uint32       `json:"-"`
	Score     float64        `json:"score"`
}

// FacetValue is one selectable value of a facet with its record count.
type FacetValue struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

type HistoryMode int

const (
	HistoryReplace HistoryMode = iota
	HistoryPush
)

func (m HistoryMode) String() string {
	if m == HistoryPush {
		return "push"
	}
	return "replace"
}

// Page is one page of records served by a remote provider.
type Page struct {
	Records    []Record `json:"records"`
	TotalCount int      `json:"totalCount"`
}

type PageFetcher interface {
	FetchPage(ctx context.Context, criteria FilterCriteria, page int) (*Page, error)
}

type RatingSource interface {
	FetchRatings(ctx context.Context, ids []string) (map[string]Rating, error)
}

// InputBinding stands in for whatever controls the host exposes. Control ids
// are the canonical state parameter names.
type InputBinding interface {
	GetValue(controlId string) string
	OnChange(controlId string, handler func())
}

type Presenter interface {
	RenderResults(page []Record)
	RenderCount(n int)
	RenderSuggestions(suggestions []SuggestionEntry)
}

type LocationState interface {
	ReadLocationState() map[string]string
	WriteLocationState(state map[string]string, mode HistoryMode)
}
