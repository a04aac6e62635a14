package analysis

import (
	"errors"
	"math"

	"github.com/samber/lo"

	"postvibe/models"
)

// ErrEmptySet is returned by aggregations that are undefined on an empty
// result set. Never divide by zero instead.
var ErrEmptySet = errors.New("empty result set")

// AggregateSentiment counts labels over an in-memory result set, in the
// fixed positive/neutral/negative order.
func AggregateSentiment(posts []models.Post) models.SentimentAggregate {
	positive := lo.CountBy(posts, func(post models.Post) bool {
		return post.SentimentLabel == models.SentimentPositive
	})
	negative := lo.CountBy(posts, func(post models.Post) bool {
		return post.SentimentLabel == models.SentimentNegative
	})
	// Anything unlabeled counts as neutral, mirroring how classification
	// degrades malformed payloads.
	neutral := len(posts) - positive - negative

	return models.NewSentimentAggregate(int64(positive), int64(neutral), int64(negative))
}

// AverageScore returns the mean sentiment score of the set, rounded to 2
// decimals. Undefined on an empty set.
func AverageScore(posts []models.Post) (float64, error) {
	if len(posts) == 0 {
		return 0, ErrEmptySet
	}

	total := lo.SumBy(posts, func(post models.Post) float64 {
		return post.SentimentScore
	})

	return round2(total / float64(len(posts))), nil
}

// QueryStatistics turns a breakdown into percentages. Each percentage is
// computed by positional index against the fixed breakdown order; labels are
// not re-matched.
func QueryStatistics(breakdown models.SentimentAggregate) (models.QueryStatistics, error) {
	total := breakdown.Total()
	if total == 0 {
		return models.QueryStatistics{}, ErrEmptySet
	}

	percent := func(position int) float64 {
		return round2(float64(breakdown[position].Count) / float64(total) * 100)
	}

	return models.QueryStatistics{
		PercentPositive: percent(models.AggregatePositive),
		PercentNeutral:  percent(models.AggregateNeutral),
		PercentNegative: percent(models.AggregateNegative),
		Total:           total,
	}, nil
}

// PredominantSentiment returns the label with a strict count majority, or
// "mixed" when no label beats both others (ties at the maximum included).
func PredominantSentiment(breakdown models.SentimentAggregate) string {
	positive := breakdown[models.AggregatePositive].Count
	neutral := breakdown[models.AggregateNeutral].Count
	negative := breakdown[models.AggregateNegative].Count

	switch {
	case positive > neutral && positive > negative:
		return models.SentimentPositive
	case neutral > positive && neutral > negative:
		return models.SentimentNeutral
	case negative > positive && negative > neutral:
		return models.SentimentNegative
	default:
		return models.SentimentMixed
	}
}

func round2(value float64) float64 {
	return math.Round(value*100) / 100
}
