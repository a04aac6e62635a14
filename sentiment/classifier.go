package sentiment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"

	"postvibe/models"
)

// ErrClassification means the classification API call itself failed. This is
// fatal to the whole batch, unlike a malformed payload which degrades the
// single item to neutral.
var ErrClassification = errors.New("classification API error")

// TextClassifier labels a piece of text with a sentiment and a score.
type TextClassifier interface {
	Classify(ctx context.Context, text string) (label string, score float64, err error)
}

// Classifier calls the external text-classification API. The HTTP client has
// no timeout: a hung upstream call stalls its worker indefinitely. Known
// resilience gap, kept deliberate.
type Classifier struct {
	client  *http.Client
	baseURL string
	token   string
}

func NewClassifier(baseURL string, token string) *Classifier {
	return &Classifier{
		client:  &http.Client{},
		baseURL: baseURL,
		token:   token,
	}
}

type classifyRequest struct {
	Text string `json:"text"`
}

type classifyResponse struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classify labels one post text. A response that decodes but is missing the
// expected fields is treated as neutral with score 0 so the batch continues;
// transport or server errors return ErrClassification.
func (c *Classifier) Classify(ctx context.Context, text string) (string, float64, error) {
	body, err := json.Marshal(classifyRequest{Text: text})
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrClassification, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/classify", bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrClassification, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrClassification, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", 0, fmt.Errorf("%w: status %d", ErrClassification, resp.StatusCode)
	}

	var result classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrClassification, err)
	}

	switch result.Label {
	case models.SentimentPositive, models.SentimentNegative:
		return result.Label, round2(result.Confidence * 100), nil
	case models.SentimentNeutral:
		return models.SentimentNeutral, 0, nil
	default:
		// Missing or unknown label: degrade this item to neutral instead of
		// failing the batch.
		log.WithFields(log.Fields{
			"label": result.Label,
		}).Warn("Classification response missing expected fields, treating as neutral")
		return models.SentimentNeutral, 0, nil
	}
}

// Ready probes the classification API health endpoint. Used at boot only;
// the pipeline itself never retries.
func (c *Classifier) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("classification API not ready: status %d", resp.StatusCode)
	}
	return nil
}
