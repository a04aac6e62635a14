package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"postvibe/models"
)

// Search radius applied to location-restricted keyword searches.
const searchRadius = "10mi"

var (
	// ErrNoResults means the search API returned nothing new and nothing it
	// returned was already stored. All-duplicates is a successful no-op, not
	// this error.
	ErrNoResults = errors.New("no search results returned")

	// ErrUnsupportedLanguage means the account posts in a language the
	// classification API cannot analyze. Checked against the first timeline
	// item only, before any classification is attempted.
	ErrUnsupportedLanguage = errors.New("unsupported account language")
)

// PostChecker is the store-side dedup check the client needs.
type PostChecker interface {
	HasPost(ctx context.Context, id int64) (bool, error)
}

// Client queries the external search API by keyword or author handle and
// parses raw items into draft posts, skipping ids already in the store.
type Client struct {
	client   *http.Client
	baseURL  string
	token    string
	store    PostChecker
	detector *languageGate
}

func NewClient(baseURL string, token string, store PostChecker) *Client {
	return &Client{
		client:   &http.Client{Timeout: 30 * time.Second},
		baseURL:  baseURL,
		token:    token,
		store:    store,
		detector: newLanguageGate(),
	}
}

type searchUser struct {
	ScreenName      string `json:"screen_name"`
	Name            string `json:"name"`
	ProfileImageUrl string `json:"profile_image_url"`
	Lang            string `json:"lang"`
}

type searchItem struct {
	Id        int64      `json:"id"`
	Text      string     `json:"text"`
	CreatedAt string     `json:"created_at"`
	User      searchUser `json:"user"`
}

type searchResponse struct {
	Statuses []searchItem `json:"statuses"`
}

// KeywordSearch performs a keyword search, optionally restricted to a radius
// around the resolved location. Items already in the store are silently
// dropped; they count as "already have it", not as an error.
func (c *Client) KeywordSearch(ctx context.Context, keyword string, count int, location *models.Location) ([]models.DraftPost, error) {
	query := url.Values{}
	query.Set("q", keyword)
	query.Set("lang", "en")
	query.Set("count", fmt.Sprintf("%d", count))
	if location != nil {
		query.Set("geocode", fmt.Sprintf("%f,%f,%s", location.Latitude, location.Longitude, searchRadius))
	}

	var result searchResponse
	if err := c.get(ctx, "/search", query, &result); err != nil {
		return nil, err
	}

	drafts, foundExisting, err := c.parseItems(ctx, result.Statuses, location)
	if err != nil {
		return nil, err
	}

	if len(drafts) == 0 && !foundExisting {
		return nil, fmt.Errorf("%w: %q", ErrNoResults, keyword)
	}

	log.WithFields(log.Fields{
		"keyword":       keyword,
		"drafts":        len(drafts),
		"foundExisting": foundExisting,
	}).Info("Keyword search parsed")

	return drafts, nil
}

// UserTimeline fetches an author's recent posts. The language of the first
// returned item is inspected (and only the first); an unsupported language
// fails the request before any classification happens.
func (c *Client) UserTimeline(ctx context.Context, handle string, count int) ([]models.DraftPost, error) {
	screenName := strings.TrimPrefix(handle, "@")

	query := url.Values{}
	query.Set("handle", screenName)
	query.Set("count", fmt.Sprintf("%d", count))

	var items []searchItem
	if err := c.get(ctx, "/timeline", query, &items); err != nil {
		return nil, err
	}

	if len(items) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoResults, handle)
	}

	if !c.detector.supported(items[0].User.Lang, items[0].Text) {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, handle)
	}

	// Timeline items carry the author's handle from the request, not the
	// payload, matching how the search term is tagged downstream.
	for i := range items {
		items[i].User.ScreenName = screenName
	}

	drafts, foundExisting, err := c.parseItems(ctx, items, nil)
	if err != nil {
		return nil, err
	}

	if len(drafts) == 0 && !foundExisting {
		return nil, fmt.Errorf("%w: %q", ErrNoResults, handle)
	}

	return drafts, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoResults, err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoResults, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: search API status %d", ErrNoResults, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrNoResults, err)
	}

	return nil
}

// parseItems converts raw items into drafts, dropping ids the store already
// has. The second return reports whether any drop matched an existing record.
func (c *Client) parseItems(ctx context.Context, items []searchItem, location *models.Location) ([]models.DraftPost, bool, error) {
	var drafts []models.DraftPost
	foundExisting := false

	for _, item := range items {
		exists, err := c.store.HasPost(ctx, item.Id)
		if err != nil {
			return nil, false, err
		}
		if exists {
			foundExisting = true
			continue
		}

		createdAt, err := time.Parse(time.RubyDate, item.CreatedAt)
		if err != nil {
			log.WithFields(log.Fields{
				"id":        item.Id,
				"createdAt": item.CreatedAt,
			}).Warn("Skipping item with unparseable timestamp")
			continue
		}

		draft := models.DraftPost{
			Id:                item.Id,
			CreatedAt:         createdAt,
			AuthorHandle:      strings.TrimSpace(item.User.ScreenName),
			AuthorDisplayName: item.User.Name,
			AvatarUrl:         item.User.ProfileImageUrl,
			Text:              strings.TrimSpace(item.Text),
		}

		if location != nil {
			draft.Geo = &models.Geo{Latitude: location.Latitude, Longitude: location.Longitude}
			draft.Address = location.Address
		}

		drafts = append(drafts, draft)
	}

	return drafts, foundExisting, nil
}
