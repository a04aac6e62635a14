package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/labstack/gommon/log"

	"postvibe/models"
)

const DefaultBaseURL = "https://nominatim.openstreetmap.org"

// ErrNotFound is returned when the geocoder has no match for the place name
// or the lookup itself fails.
var ErrNotFound = errors.New("location not found")

// Resolver resolves free-text place names against a Nominatim-style
// geocoding API.
type Resolver struct {
	client    *http.Client
	baseURL   string
	userAgent string
}

func NewResolver(baseURL string, userAgent string) *Resolver {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = "postvibe"
	}
	return &Resolver{
		client:    &http.Client{Timeout: 15 * time.Second},
		baseURL:   baseURL,
		userAgent: userAgent,
	}
}

type geocodeResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Resolve geocodes a place name. Called at most once per request; the result
// is reused for both the search radius and persisted post tagging.
func (r *Resolver) Resolve(ctx context.Context, placeName string) (*models.Location, error) {
	endpoint := fmt.Sprintf("%s/search?q=%s&format=json&limit=1", r.baseURL, url.QueryEscape(placeName))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		log.Errorf("geocode request failed: %s", err)
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Errorf("geocode returned status %d for %q", resp.StatusCode, placeName)
		return nil, fmt.Errorf("%w: geocoder status %d", ErrNotFound, resp.StatusCode)
	}

	var results []geocodeResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, placeName)
	}

	latitude, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad latitude %q", ErrNotFound, results[0].Lat)
	}
	longitude, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: bad longitude %q", ErrNotFound, results[0].Lon)
	}

	return &models.Location{
		Latitude:  latitude,
		Longitude: longitude,
		Address:   results[0].DisplayName,
	}, nil
}
