// Package geocoding resolves coordinates to a city name through the OpenCage
// reverse-geocoding API.
package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/funapp/internal/observability"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// UnknownCity is returned when the provider answers but names no city.
const UnknownCity = "unknown city"

// ErrGeocodingFailed covers transport errors, non-2xx answers and bodies that
// cannot be decoded.
var ErrGeocodingFailed = errors.New("geocoding failed")

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	prom       *observability.Prom
}

func NewClient(cfg Config, prom *observability.Prom) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		prom:       prom,
	}
}

type reverseResponse struct {
	Results []struct {
		Components struct {
			City string `json:"city"`
		} `json:"components"`
	} `json:"results"`
}

// ResolveCity returns the city of the first result, or UnknownCity.
func (c *Client) ResolveCity(ctx context.Context, lat, lon float64) (city string, err error) {
	ctx, span := observability.Tracer("funapp/geocoding").Start(ctx, "geocoding.resolve_city")
	defer span.End()

	start := time.Now()
	defer func() {
		result := "ok"
		switch {
		case err != nil:
			result = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, "geocoding failed")
		case city == UnknownCity:
			result = "unknown_city"
		}
		span.SetAttributes(attribute.String("geocoding.result", result))
		if c.prom != nil {
			c.prom.ObserveGeocode(result, time.Since(start))
		}
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(lat, lon), nil)
	if err != nil {
		return "", fmt.Errorf("%w: build request: %v", ErrGeocodingFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeocodingFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: provider returned %d: %s", ErrGeocodingFailed, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload reverseResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrGeocodingFailed, err)
	}

	if len(payload.Results) == 0 || payload.Results[0].Components.City == "" {
		return UnknownCity, nil
	}

	return payload.Results[0].Components.City, nil
}

func (c *Client) requestURL(lat, lon float64) string {
	q := url.Values{}
	q.Set("q", formatCoord(lat)+" "+formatCoord(lon))
	q.Set("key", c.apiKey)

	return c.baseURL + "?" + q.Encode()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
