package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	sqlbuilder "github.com/huandu/go-sqlbuilder"

	"postvibe/models"
)

// ErrNoPosts is returned by average queries over an empty match set. An
// average over nothing is undefined, not zero.
var ErrNoPosts = errors.New("no posts match the query")

// SortDirection orders trend rankings by average score.
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

// CountMatching returns the number of stored posts for the keyword (and
// location address, if given).
func (store *Store) CountMatching(ctx context.Context, keyword string, location string) (int64, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("count(*)").From("posts")
	sb.Where(sb.Equal("keyword_search_term", keyword))
	if location != "" {
		sb.Where(sb.Equal("location_address", location))
	}

	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	var count int64
	if err := store.db.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrDatabase, err)
	}
	return count, nil
}

// CollectionSize returns the total number of stored posts.
func (store *Store) CollectionSize(ctx context.Context) (int64, error) {
	var count int64
	if err := store.db.QueryRowContext(ctx, "SELECT count(*) FROM posts").Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: count: %v", ErrDatabase, err)
	}
	return count, nil
}

// SentimentBreakdown returns label counts for the keyword (and location, if
// given) in the fixed positive/neutral/negative order.
func (store *Store) SentimentBreakdown(ctx context.Context, keyword string, location string) (models.SentimentAggregate, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("sentiment_label", "count(*)").From("posts")
	sb.Where(sb.Equal("keyword_search_term", keyword))
	if location != "" {
		sb.Where(sb.Equal("location_address", location))
	}
	sb.GroupBy("sentiment_label")

	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	rows, err := store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return models.SentimentAggregate{}, fmt.Errorf("%w: query: %v", ErrDatabase, err)
	}
	defer rows.Close()

	var positive, neutral, negative int64
	for rows.Next() {
		var label string
		var count int64
		if err := rows.Scan(&label, &count); err != nil {
			return models.SentimentAggregate{}, fmt.Errorf("%w: scan: %v", ErrDatabase, err)
		}
		switch label {
		case models.SentimentPositive:
			positive = count
		case models.SentimentNegative:
			negative = count
		default:
			neutral = count
		}
	}

	return models.NewSentimentAggregate(positive, neutral, negative), rows.Err()
}

// AverageScore returns the mean sentiment score for the keyword (and
// location, if given), rounded to 2 decimals. Returns ErrNoPosts when
// nothing matches.
func (store *Store) AverageScore(ctx context.Context, keyword string, location string) (float64, error) {
	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("avg(sentiment_score)").From("posts")
	sb.Where(sb.Equal("keyword_search_term", keyword))
	if location != "" {
		sb.Where(sb.Equal("location_address", location))
	}

	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	var avg sql.NullFloat64
	if err := store.db.QueryRowContext(ctx, query, args...).Scan(&avg); err != nil {
		return 0, fmt.Errorf("%w: avg: %v", ErrDatabase, err)
	}
	if !avg.Valid {
		return 0, ErrNoPosts
	}
	return round2(avg.Float64), nil
}

// SentimentOvertime buckets the last windowDays of posts for the keyword by
// calendar day and returns the mean score per bucket, at most 10 pairs.
// Bucket order is whatever the grouping yields, not guaranteed chronological.
func (store *Store) SentimentOvertime(ctx context.Context, keyword string, location string, windowDays int) ([]models.DayAverage, error) {
	cutoff := time.Now().AddDate(0, 0, -windowDays).Unix()

	sb := sqlbuilder.NewSelectBuilder()
	sb.Select(`STRFTIME('%Y-%m-%d', created_at, 'unixepoch') AS day`, "avg(sentiment_score)")
	sb.From("posts")
	sb.Where(sb.Equal("keyword_search_term", keyword))
	if location != "" {
		sb.Where(sb.Equal("location_address", location))
	}
	sb.Where(sb.GreaterThan("created_at", cutoff))
	sb.GroupBy("day")
	sb.Limit(10)

	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	rows, err := store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrDatabase, err)
	}
	defer rows.Close()

	var series []models.DayAverage
	for rows.Next() {
		var bucket models.DayAverage
		if err := rows.Scan(&bucket.Day, &bucket.Average); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrDatabase, err)
		}
		bucket.Average = round2(bucket.Average)
		series = append(series, bucket)
	}

	return series, rows.Err()
}

// SentimentTrends groups all posts from the last windowDays by keyword,
// ignoring any keyword filter, and returns the top 10 keywords by mean score
// in the given direction.
func (store *Store) SentimentTrends(ctx context.Context, direction SortDirection, windowDays int) ([]models.KeywordAverage, error) {
	cutoff := time.Now().AddDate(0, 0, -windowDays).Unix()

	sb := sqlbuilder.NewSelectBuilder()
	sb.Select("keyword_search_term", "avg(sentiment_score) AS average").From("posts")
	sb.Where(sb.GreaterThan("created_at", cutoff))
	sb.GroupBy("keyword_search_term")
	if direction == Descending {
		sb.OrderBy("average").Desc()
	} else {
		sb.OrderBy("average").Asc()
	}
	sb.Limit(10)

	query, args := sb.BuildWithFlavor(sqlbuilder.SQLite)

	rows, err := store.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrDatabase, err)
	}
	defer rows.Close()

	var trends []models.KeywordAverage
	for rows.Next() {
		var trend models.KeywordAverage
		if err := rows.Scan(&trend.Keyword, &trend.Average); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrDatabase, err)
		}
		trend.Average = round2(trend.Average)
		trends = append(trends, trend)
	}

	return trends, rows.Err()
}

// KeywordCounts returns stored post counts per keyword, busiest first.
func (store *Store) KeywordCounts(ctx context.Context) ([]models.KeywordCount, error) {
	rows, err := store.db.QueryContext(ctx,
		"SELECT keyword_search_term, count(*) FROM posts GROUP BY keyword_search_term ORDER BY count(*) DESC")
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", ErrDatabase, err)
	}
	defer rows.Close()

	var counts []models.KeywordCount
	for rows.Next() {
		var entry models.KeywordCount
		if err := rows.Scan(&entry.Keyword, &entry.Count); err != nil {
			return nil, fmt.Errorf("%w: scan: %v", ErrDatabase, err)
		}
		counts = append(counts, entry)
	}

	return counts, rows.Err()
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
