package models

import "time"

// Sentiment labels as stored in the database and returned by the
// classification API.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// Mixed is returned by predominant-sentiment calculations when no label
// holds a strict majority.
const SentimentMixed = "mixed"

// Geo is a latitude/longitude pair attached to posts from location searches.
type Geo struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Location is a resolved place: coordinates plus the display address the
// geocoder returned. Resolved once per request and reused.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

// DraftPost is a post parsed from the search API before sentiment
// classification.
type DraftPost struct {
	Id                int64     `json:"id"`
	CreatedAt         time.Time `json:"createdAt"`
	AuthorHandle      string    `json:"authorHandle"`
	AuthorDisplayName string    `json:"authorDisplayName"`
	AvatarUrl         string    `json:"avatarUrl"`
	Text              string    `json:"text"`
	Geo               *Geo      `json:"geo,omitempty"`
	Address           string    `json:"address,omitempty"`
}

// Post is a classified post as persisted. Posts are append-only: created
// once, never mutated, never deleted.
type Post struct {
	Id                 int64     `json:"id"`
	CreatedAt          time.Time `json:"createdAt"`
	AuthorHandle       string    `json:"authorHandle"`
	AuthorDisplayName  string    `json:"authorDisplayName"`
	AvatarUrl          string    `json:"avatarUrl"`
	Text               string    `json:"text"`
	Geo                *Geo      `json:"geo,omitempty"`
	Address            string    `json:"address,omitempty"`
	SentimentLabel     string    `json:"sentimentLabel"`
	SentimentScore     float64   `json:"sentimentScore"`
	KeywordSearchTerm  string    `json:"keywordSearchTerm"`
	LocationSearchTerm string    `json:"locationSearchTerm,omitempty"`
	StoredAt           time.Time `json:"storedAt"`
}

// LabelCount pairs a sentiment label with the number of posts carrying it.
type LabelCount struct {
	Label string `json:"label"`
	Count int64  `json:"count"`
}

// SentimentAggregate is a breakdown in fixed positional order:
// positive, neutral, negative. Consumers index by position, not by label,
// so the order must never change.
type SentimentAggregate [3]LabelCount

// Positions in a SentimentAggregate.
const (
	AggregatePositive = 0
	AggregateNeutral  = 1
	AggregateNegative = 2
)

// NewSentimentAggregate builds a breakdown in the fixed order.
func NewSentimentAggregate(positive, neutral, negative int64) SentimentAggregate {
	return SentimentAggregate{
		{Label: SentimentPositive, Count: positive},
		{Label: SentimentNeutral, Count: neutral},
		{Label: SentimentNegative, Count: negative},
	}
}

// Total sums the three counts.
func (a SentimentAggregate) Total() int64 {
	return a[AggregatePositive].Count + a[AggregateNeutral].Count + a[AggregateNegative].Count
}

// QueryStatistics is the percentage breakdown of a result set.
type QueryStatistics struct {
	PercentPositive float64 `json:"percentPositive"`
	PercentNeutral  float64 `json:"percentNeutral"`
	PercentNegative float64 `json:"percentNegative"`
	Total           int64   `json:"total"`
}

// DayAverage is one calendar-day bucket of the sentiment-overtime series.
type DayAverage struct {
	Day     string  `json:"day"`
	Average float64 `json:"average"`
}

// KeywordAverage is one entry of the cross-keyword trend ranking.
type KeywordAverage struct {
	Keyword string  `json:"keyword"`
	Average float64 `json:"average"`
}

// KeywordCount pairs a keyword search term with its stored post count.
type KeywordCount struct {
	Keyword string `json:"keyword"`
	Count   int64  `json:"count"`
}
