package analysis

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"postvibe/db"
	"postvibe/models"
)

// Aggregation windows, in days.
const (
	OvertimeWindowDays = 10
	TrendsWindowDays   = 7
)

// Searcher acquires draft posts from the external search API.
type Searcher interface {
	KeywordSearch(ctx context.Context, keyword string, count int, location *models.Location) ([]models.DraftPost, error)
	UserTimeline(ctx context.Context, handle string, count int) ([]models.DraftPost, error)
}

// Geocoder resolves a free-text place name once per request.
type Geocoder interface {
	Resolve(ctx context.Context, placeName string) (*models.Location, error)
}

// Pipeline classifies and persists a batch of drafts.
type Pipeline interface {
	ClassifyAndPersist(ctx context.Context, drafts []models.DraftPost, keyword string, locationTerm string) ([]models.Post, error)
}

// StatsStore is the read side of the store the analyzer reports from.
type StatsStore interface {
	RecentPosts(ctx context.Context, keyword string, location string, limit int) ([]models.Post, error)
	CountMatching(ctx context.Context, keyword string, location string) (int64, error)
	SentimentBreakdown(ctx context.Context, keyword string, location string) (models.SentimentAggregate, error)
	AverageScore(ctx context.Context, keyword string, location string) (float64, error)
	SentimentOvertime(ctx context.Context, keyword string, location string, windowDays int) ([]models.DayAverage, error)
	SentimentTrends(ctx context.Context, direction db.SortDirection, windowDays int) ([]models.KeywordAverage, error)
}

// Params is the validated input from the caller: keyword non-empty, count
// already clamped to [1,100].
type Params struct {
	Keyword  string
	Count    int
	Location string
}

// Report is everything a search produces: the stored result set plus the
// current and historical statistics over it.
type Report struct {
	Keyword              string                    `json:"keyword"`
	UserSearch           bool                      `json:"userSearch"`
	LocationSearchTerm   string                    `json:"locationSearchTerm,omitempty"`
	Location             *models.Location          `json:"location,omitempty"`
	Results              []models.Post             `json:"results"`
	Breakdown            models.SentimentAggregate `json:"breakdown"`
	Average              float64                   `json:"average"`
	Statistics           models.QueryStatistics    `json:"statistics"`
	HistoricalBreakdown  models.SentimentAggregate `json:"historicalBreakdown"`
	HistoricalAverage    float64                   `json:"historicalAverage"`
	PredominantSentiment string                    `json:"predominantSentiment"`
	Overtime             []models.DayAverage       `json:"overtime"`
	Matching             int64                     `json:"matching"`
	ElapsedSeconds       float64                   `json:"elapsedSeconds"`
}

// TrendsReport holds the global 7-day keyword rankings.
type TrendsReport struct {
	Positive []models.KeywordAverage `json:"positive"`
	Negative []models.KeywordAverage `json:"negative"`
}

// Analyzer wires the acquisition pipeline and the aggregation engine behind
// one entry point per caller request.
type Analyzer struct {
	search     Searcher
	geo        Geocoder
	supervisor Pipeline
	store      StatsStore
}

func NewAnalyzer(search Searcher, geo Geocoder, supervisor Pipeline, store StatsStore) *Analyzer {
	return &Analyzer{
		search:     search,
		geo:        geo,
		supervisor: supervisor,
		store:      store,
	}
}

// Search runs one full batch: acquire, classify, persist, aggregate. The
// whole pipeline executes synchronously within the caller's request.
func (a *Analyzer) Search(ctx context.Context, params Params) (*Report, error) {
	start := time.Now()

	keyword := strings.ToLower(strings.TrimSpace(params.Keyword))
	userSearch := strings.HasPrefix(keyword, "@")

	var location *models.Location
	locationTerm := ""

	var drafts []models.DraftPost
	var err error

	switch {
	case userSearch:
		drafts, err = a.search.UserTimeline(ctx, keyword, params.Count)
	case params.Location != "":
		locationTerm = strings.ToLower(strings.TrimSpace(params.Location))
		location, err = a.geo.Resolve(ctx, locationTerm)
		if err != nil {
			return nil, err
		}
		drafts, err = a.search.KeywordSearch(ctx, keyword, params.Count, location)
	default:
		drafts, err = a.search.KeywordSearch(ctx, keyword, params.Count, nil)
	}
	if err != nil {
		return nil, err
	}

	if _, err := a.supervisor.ClassifyAndPersist(ctx, drafts, keyword, locationTerm); err != nil {
		return nil, err
	}

	address := ""
	if location != nil {
		address = location.Address
	}

	results, err := a.store.RecentPosts(ctx, keyword, address, params.Count)
	if err != nil {
		return nil, err
	}

	breakdown := AggregateSentiment(results)
	average, err := AverageScore(results)
	if err != nil {
		return nil, err
	}
	statistics, err := QueryStatistics(breakdown)
	if err != nil {
		return nil, err
	}

	historicalBreakdown, err := a.store.SentimentBreakdown(ctx, keyword, address)
	if err != nil {
		return nil, err
	}
	historicalAverage, err := a.store.AverageScore(ctx, keyword, address)
	if err != nil {
		return nil, err
	}

	overtime, err := a.store.SentimentOvertime(ctx, keyword, address, OvertimeWindowDays)
	if err != nil {
		return nil, err
	}

	matching, err := a.store.CountMatching(ctx, keyword, address)
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"keyword": keyword,
		"results": len(results),
		"elapsed": time.Since(start),
	}).Info("Search complete")

	return &Report{
		Keyword:              keyword,
		UserSearch:           userSearch,
		LocationSearchTerm:   locationTerm,
		Location:             location,
		Results:              results,
		Breakdown:            breakdown,
		Average:              average,
		Statistics:           statistics,
		HistoricalBreakdown:  historicalBreakdown,
		HistoricalAverage:    historicalAverage,
		PredominantSentiment: PredominantSentiment(historicalBreakdown),
		Overtime:             overtime,
		Matching:             matching,
		ElapsedSeconds:       time.Since(start).Seconds(),
	}, nil
}

// Trends returns the global top-positive and top-negative keyword rankings
// over the last 7 days.
func (a *Analyzer) Trends(ctx context.Context) (*TrendsReport, error) {
	positive, err := a.store.SentimentTrends(ctx, db.Descending, TrendsWindowDays)
	if err != nil {
		return nil, err
	}

	negative, err := a.store.SentimentTrends(ctx, db.Ascending, TrendsWindowDays)
	if err != nil {
		return nil, err
	}

	return &TrendsReport{Positive: positive, Negative: negative}, nil
}

// Overtime exposes the day-bucketed series for one keyword on its own.
func (a *Analyzer) Overtime(ctx context.Context, keyword string, location string) ([]models.DayAverage, error) {
	return a.store.SentimentOvertime(ctx, strings.ToLower(strings.TrimSpace(keyword)), location, OvertimeWindowDays)
}
