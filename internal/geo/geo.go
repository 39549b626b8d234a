// Package geo obtains the one-shot geolocation sample for a session.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/ppiankov/saferstep/internal/model"
)

// Provider returns a single geolocation sample or model.ErrLocationDenied.
type Provider interface {
	Locate(ctx context.Context) (model.Location, error)
}

// Static always returns the same coordinates.
type Static struct {
	Location model.Location
}

// Locate implements Provider
func (s Static) Locate(context.Context) (model.Location, error) {
	if !s.Location.Valid() {
		return model.Location{}, fmt.Errorf("%w: invalid static coordinates", model.ErrLocationDenied)
	}
	return s.Location, nil
}

// Denied models a host that refuses location access.
type Denied struct{}

// Locate implements Provider
func (Denied) Locate(context.Context) (model.Location, error) {
	return model.Location{}, model.ErrLocationDenied
}

// HTTPProvider queries an IP-geolocation endpoint that answers with
// {"lat": .., "lon": ..} (ip-api.com style).
type HTTPProvider struct {
	url        string
	httpClient *http.Client
}

type ipLocation struct {
	Status  string   `json:"status,omitempty"`
	Message string   `json:"message,omitempty"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
}

// NewHTTPProvider creates an HTTP geolocation provider
func NewHTTPProvider(url string, client *http.Client) *HTTPProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProvider{url: url, httpClient: client}
}

// Locate fetches the sample. Every failure is reported as ErrLocationDenied.
func (p *HTTPProvider) Locate(ctx context.Context) (model.Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return model.Location{}, fmt.Errorf("%w: create request: %v", model.ErrLocationDenied, err)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return model.Location{}, fmt.Errorf("%w: %v", model.ErrLocationDenied, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return model.Location{}, fmt.Errorf("%w: HTTP %d", model.ErrLocationDenied, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return model.Location{}, fmt.Errorf("%w: read response: %v", model.ErrLocationDenied, err)
	}

	var payload ipLocation
	if err := json.Unmarshal(body, &payload); err != nil {
		return model.Location{}, fmt.Errorf("%w: unmarshal response: %v", model.ErrLocationDenied, err)
	}
	if payload.Status == "fail" {
		return model.Location{}, fmt.Errorf("%w: %s", model.ErrLocationDenied, payload.Message)
	}
	if payload.Lat == nil || payload.Lon == nil {
		return model.Location{}, fmt.Errorf("%w: response missing coordinates", model.ErrLocationDenied)
	}

	loc := model.Location{Latitude: *payload.Lat, Longitude: *payload.Lon}
	if !loc.Valid() {
		return model.Location{}, fmt.Errorf("%w: coordinates out of range", model.ErrLocationDenied)
	}
	return loc, nil
}

// FromConfig selects a provider from configuration.
func FromConfig(cfg model.LocationConfig, client *http.Client) (Provider, error) {
	switch cfg.Provider {
	case "", "none":
		return Denied{}, nil
	case "static":
		return Static{Location: model.Location{Latitude: cfg.Latitude, Longitude: cfg.Longitude}}, nil
	case "http":
		if cfg.URL == "" {
			return nil, fmt.Errorf("location.url is required for the http provider")
		}
		return NewHTTPProvider(cfg.URL, client), nil
	default:
		return nil, fmt.Errorf("unknown location provider: %s (supported: none, static, http)", cfg.Provider)
	}
}
