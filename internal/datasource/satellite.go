package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// pointClient fetches a single numeric value for a (lat, lon, date) point from
// a JSON endpoint shaped like {"<field>": 0.42, ...}.
type pointClient struct {
	name    string
	field   string
	baseURL string
	min     float64
	max     float64
	client  *http.Client
	cache   Cache
}

func (c *pointClient) value(ctx context.Context, loc Location, date time.Time) (float64, error) {
	if c.baseURL == "" {
		return 0, fmt.Errorf("%s: %w", c.name, ErrNotConfigured)
	}

	key := cacheKey(c.name, loc, date)
	if c.cache != nil {
		if body, ok, err := c.cache.Get(ctx, key); err != nil {
			slog.Debug("point cache read failed", "source", c.name, "error", err)
		} else if ok {
			if v, err := c.parse(body); err == nil {
				return v, nil
			}
		}
	}

	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.4f", loc.Lat))
	q.Set("lon", fmt.Sprintf("%.4f", loc.Lon))
	q.Set("date", date.Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("build %s request: %w", c.name, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s API call: %w", c.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("read %s response: %w", c.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%s API error %d: %s", c.name, resp.StatusCode, truncate(body, 200))
	}

	v, err := c.parse(body)
	if err != nil {
		return 0, err
	}
	if c.cache != nil {
		if err := c.cache.Put(ctx, key, body); err != nil {
			slog.Debug("point cache write failed", "source", c.name, "error", err)
		}
	}
	return v, nil
}

func (c *pointClient) parse(body []byte) (float64, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(body, &doc); err != nil {
		return 0, fmt.Errorf("parse %s: %w", c.name, err)
	}
	raw, ok := doc[c.field]
	if !ok {
		return 0, fmt.Errorf("%s: %w: missing %q", c.name, ErrPartialData, c.field)
	}
	var v *float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", c.name, c.field, err)
	}
	if v == nil {
		return 0, fmt.Errorf("%s: %w: %q is null", c.name, ErrPartialData, c.field)
	}
	if *v < c.min || *v > c.max {
		return 0, fmt.Errorf("%s: %w: %q=%g out of range", c.name, ErrPartialData, c.field, *v)
	}
	return *v, nil
}

// VegetationClient fetches NDVI per point.
type VegetationClient struct {
	pc pointClient
}

// NewVegetationClient creates a vegetation index client. An empty baseURL
// yields a client that always reports ErrNotConfigured. cache may be nil.
func NewVegetationClient(baseURL string, cache Cache) *VegetationClient {
	return &VegetationClient{pc: pointClient{
		name:    "ndvi",
		field:   "ndvi",
		baseURL: baseURL,
		min:     -1,
		max:     1,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
	}}
}

// NDVI implements VegetationSource.
func (c *VegetationClient) NDVI(ctx context.Context, loc Location, date time.Time) (float64, error) {
	return c.pc.value(ctx, loc, date)
}

// SoilMoistureClient fetches volumetric soil moisture per point.
type SoilMoistureClient struct {
	pc pointClient
}

// NewSoilMoistureClient creates a soil moisture client. An empty baseURL
// yields a client that always reports ErrNotConfigured. cache may be nil.
func NewSoilMoistureClient(baseURL string, cache Cache) *SoilMoistureClient {
	return &SoilMoistureClient{pc: pointClient{
		name:    "soil_moisture",
		field:   "soil_moisture",
		baseURL: baseURL,
		min:     0,
		max:     1,
		client:  &http.Client{Timeout: 10 * time.Second},
		cache:   cache,
	}}
}

// SoilMoisture implements SoilMoistureSource.
func (c *SoilMoistureClient) SoilMoisture(ctx context.Context, loc Location, date time.Time) (float64, error) {
	return c.pc.value(ctx, loc, date)
}
