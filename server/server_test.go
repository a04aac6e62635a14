package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"postvibe/analysis"
	"postvibe/db"
	"postvibe/geo"
	"postvibe/models"
	"postvibe/search"
	"postvibe/sentiment"
	"postvibe/server"
)

// stubAnalyzer records the params it was called with and returns canned
// results or a fixed error.
type stubAnalyzer struct {
	lastParams analysis.Params
	report     *analysis.Report
	trends     *analysis.TrendsReport
	overtime   []models.DayAverage
	err        error
}

func (s *stubAnalyzer) Search(ctx context.Context, params analysis.Params) (*analysis.Report, error) {
	s.lastParams = params
	if s.err != nil {
		return nil, s.err
	}
	return s.report, nil
}

func (s *stubAnalyzer) Trends(ctx context.Context) (*analysis.TrendsReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.trends, nil
}

func (s *stubAnalyzer) Overtime(ctx context.Context, keyword string, location string) ([]models.DayAverage, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.overtime, nil
}

func request(t *testing.T, analyzer server.Analyzer, target string) *http.Response {
	t.Helper()

	app := server.Server(&server.ServerConfig{Analyzer: analyzer})
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil), -1)
	require.NoError(t, err)
	return resp
}

func TestHealth(t *testing.T) {
	resp := request(t, &stubAnalyzer{}, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestSearchRequiresKeyword(t *testing.T) {
	resp := request(t, &stubAnalyzer{}, "/api/search")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSearchReturnsReport(t *testing.T) {
	stub := &stubAnalyzer{report: &analysis.Report{Keyword: "coffee"}}

	resp := request(t, stub, "/api/search?keyword=coffee&count=5&location=oslo")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var report analysis.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, "coffee", report.Keyword)

	assert.Equal(t, analysis.Params{Keyword: "coffee", Count: 5, Location: "oslo"}, stub.lastParams)
}

func TestSearchCount(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedCount  int
	}{
		{
			name:           "missing count defaults",
			query:          "/api/search?keyword=coffee",
			expectedStatus: http.StatusOK,
			expectedCount:  server.CountDefault,
		},
		{
			name:           "count above the cap is clamped",
			query:          "/api/search?keyword=coffee&count=5000",
			expectedStatus: http.StatusOK,
			expectedCount:  server.CountMax,
		},
		{
			name:           "count at the cap passes through",
			query:          "/api/search?keyword=coffee&count=100",
			expectedStatus: http.StatusOK,
			expectedCount:  100,
		},
		{
			name:           "zero count is rejected",
			query:          "/api/search?keyword=coffee&count=0",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "negative count is rejected",
			query:          "/api/search?keyword=coffee&count=-3",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "non-numeric count is rejected",
			query:          "/api/search?keyword=coffee&count=lots",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubAnalyzer{report: &analysis.Report{}}

			resp := request(t, stub, tt.query)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, tt.expectedCount, stub.lastParams.Count)
			}
		})
	}
}

func TestSearchErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{
			name:           "no results",
			err:            search.ErrNoResults,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "unsupported language",
			err:            search.ErrUnsupportedLanguage,
			expectedStatus: http.StatusUnprocessableEntity,
		},
		{
			name:           "unknown location",
			err:            geo.ErrNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "classification failure",
			err:            sentiment.ErrClassification,
			expectedStatus: http.StatusBadGateway,
		},
		{
			name:           "database failure",
			err:            db.ErrDatabase,
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "no matching posts",
			err:            db.ErrNoPosts,
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "anything else",
			err:            context.DeadlineExceeded,
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := request(t, &stubAnalyzer{err: tt.err}, "/api/search?keyword=coffee")
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestTrends(t *testing.T) {
	stub := &stubAnalyzer{trends: &analysis.TrendsReport{
		Positive: []models.KeywordAverage{{Keyword: "coffee", Average: 85}},
		Negative: []models.KeywordAverage{{Keyword: "rain", Average: 40}},
	}}

	resp := request(t, stub, "/api/trends")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var trends analysis.TrendsReport
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&trends))
	assert.Equal(t, "coffee", trends.Positive[0].Keyword)
	assert.Equal(t, "rain", trends.Negative[0].Keyword)
}

func TestOvertime(t *testing.T) {
	stub := &stubAnalyzer{overtime: []models.DayAverage{{Day: "2026-08-30", Average: 72.5}}}

	resp := request(t, stub, "/api/overtime?keyword=coffee")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var series []models.DayAverage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&series))
	require.Len(t, series, 1)
	assert.Equal(t, 72.5, series[0].Average)
}

func TestOvertimeRequiresKeyword(t *testing.T) {
	resp := request(t, &stubAnalyzer{}, "/api/overtime")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
