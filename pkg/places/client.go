// Package places looks up nearby restaurants through the Google Places API.
// A nearby search produces the candidate list; per-place details (website,
// phone) are fetched concurrently with bounded parallelism.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/menuguard/menuguard-engine/pkg/config"
	"github.com/menuguard/menuguard-engine/pkg/models"
)

// Client finds restaurants near a coordinate.
type Client interface {
	// NearbyRestaurants returns up to the configured maximum of restaurants
	// around the given coordinate, enriched with per-place details. A place
	// whose detail lookup fails is logged and dropped from the result.
	NearbyRestaurants(ctx context.Context, lat, lng float64) ([]models.Restaurant, error)
}

type client struct {
	httpClient        *http.Client
	baseURL           string
	apiKey            string
	radiusMeters      int
	maxResults        int
	detailConcurrency int
	logger            *zap.Logger
}

// Compile-time check that client implements Client
var _ Client = (*client)(nil)

// NewClient creates a places Client from configuration.
func NewClient(cfg *config.PlacesConfig, logger *zap.Logger) *client {
	concurrency := cfg.DetailConcurrency
	if concurrency < 1 {
		concurrency = 8
	}
	return &client{
		httpClient:        &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		baseURL:           cfg.BaseURL,
		apiKey:            cfg.APIKey,
		radiusMeters:      cfg.RadiusMeters,
		maxResults:        cfg.MaxResults,
		detailConcurrency: concurrency,
		logger:            logger.Named("places"),
	}
}

// nearbyResponse is the subset of the nearby-search payload we consume.
type nearbyResponse struct {
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message"`
	Results      []nearbyPlace `json:"results"`
}

type nearbyPlace struct {
	PlaceID          string   `json:"place_id"`
	Name             string   `json:"name"`
	Vicinity         string   `json:"vicinity"`
	Rating           *float64 `json:"rating"`
	UserRatingsTotal *int     `json:"user_ratings_total"`
	OpeningHours     *struct {
		OpenNow bool `json:"open_now"`
	} `json:"opening_hours"`
	Photos []struct {
		PhotoReference string `json:"photo_reference"`
	} `json:"photos"`
}

type detailResponse struct {
	Status string `json:"status"`
	Result struct {
		Website string `json:"website"`
	} `json:"result"`
}

// NearbyRestaurants returns restaurants around the coordinate.
// A failed detail lookup drops that place; the rest of the list survives.
func (c *client) NearbyRestaurants(ctx context.Context, lat, lng float64) ([]models.Restaurant, error) {
	places, err := c.nearbySearch(ctx, lat, lng)
	if err != nil {
		return nil, err
	}

	if len(places) > c.maxResults {
		places = places[:c.maxResults]
	}

	restaurants := make([]models.Restaurant, len(places))
	for i, p := range places {
		restaurants[i] = models.Restaurant{
			PlaceID:     p.PlaceID,
			Name:        p.Name,
			Vicinity:    p.Vicinity,
			Rating:      p.Rating,
			ReviewCount: p.UserRatingsTotal,
		}
		if p.OpeningHours != nil {
			restaurants[i].OpenNow = p.OpeningHours.OpenNow
		}
		if len(p.Photos) > 0 && p.Photos[0].PhotoReference != "" {
			restaurants[i].PhotoURL = c.photoURL(p.Photos[0].PhotoReference)
		}
	}

	restaurants = c.enrichDetails(ctx, restaurants)

	c.logger.Info("nearby restaurant lookup completed",
		zap.Int("results", len(restaurants)))

	return restaurants, nil
}

func (c *client) nearbySearch(ctx context.Context, lat, lng float64) ([]nearbyPlace, error) {
	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("radius", fmt.Sprintf("%d", c.radiusMeters))
	params.Set("type", "restaurant")
	params.Set("key", c.apiKey)

	var payload nearbyResponse
	if err := c.getJSON(ctx, c.baseURL+"/nearbysearch/json?"+params.Encode(), &payload); err != nil {
		return nil, fmt.Errorf("nearby search failed: %w", err)
	}

	// ZERO_RESULTS is a successful empty lookup, not a failure.
	if payload.Status != "OK" && payload.Status != "ZERO_RESULTS" {
		if payload.ErrorMessage != "" {
			return nil, fmt.Errorf("places API error: %s (%s)", payload.Status, payload.ErrorMessage)
		}
		return nil, fmt.Errorf("places API error: %s", payload.Status)
	}

	return payload.Results, nil
}

// enrichDetails fans out one detail request per restaurant with bounded
// concurrency. Places whose lookup fails are logged and removed from the
// returned list; order of the survivors is preserved.
func (c *client) enrichDetails(ctx context.Context, restaurants []models.Restaurant) []models.Restaurant {
	if len(restaurants) == 0 {
		return restaurants
	}

	sem := make(chan struct{}, c.detailConcurrency)
	done := make(chan struct{})
	failed := make([]bool, len(restaurants))

	for i := range restaurants {
		go func(i int, r *models.Restaurant) {
			defer func() { done <- struct{}{} }()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				failed[i] = true
				return
			}

			website, err := c.placeWebsite(ctx, r.PlaceID)
			if err != nil {
				c.logger.Warn("dropping place after failed detail lookup",
					zap.String("place_id", r.PlaceID),
					zap.Error(err))
				failed[i] = true
				return
			}
			r.Website = website
		}(i, &restaurants[i])
	}

	for range restaurants {
		<-done
	}

	kept := restaurants[:0]
	for i := range restaurants {
		if !failed[i] {
			kept = append(kept, restaurants[i])
		}
	}
	return kept
}

func (c *client) placeWebsite(ctx context.Context, placeID string) (string, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", "website")
	params.Set("key", c.apiKey)

	var payload detailResponse
	if err := c.getJSON(ctx, c.baseURL+"/details/json?"+params.Encode(), &payload); err != nil {
		return "", err
	}
	if payload.Status != "OK" {
		return "", fmt.Errorf("places API error: %s", payload.Status)
	}
	return payload.Result.Website, nil
}

func (c *client) photoURL(photoReference string) string {
	params := url.Values{}
	params.Set("maxwidth", "400")
	params.Set("photo_reference", photoReference)
	params.Set("key", c.apiKey)
	return c.baseURL + "/photo?" + params.Encode()
}

func (c *client) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
