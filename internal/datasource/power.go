package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"
)

// DefaultPowerURL is the NASA POWER daily point endpoint.
const DefaultPowerURL = "https://power.larc.nasa.gov/api/temporal/daily/point"

// POWER parameter names.
const (
	paramTemp     = "T2M"
	paramPrecip   = "PRECTOTCORR"
	paramHumidity = "RH2M"
	paramSolar    = "ALLSKY_SFC_SW_DWN"
	paramWind     = "WS2M"

	// powerFill marks a missing value in POWER responses.
	powerFill = -999.0
	// powerWindow is how many days back to search for a complete reading;
	// the most recent days are often not yet published.
	powerWindow = 7
)

// PowerClient fetches daily climate aggregates from NASA POWER.
type PowerClient struct {
	baseURL string
	client  *http.Client
	cache   Cache

	mu          sync.Mutex
	memo        map[string]memoEntry
	cacheTTL    time.Duration
	lastFailAt  time.Time
	failBackoff time.Duration
}

type memoEntry struct {
	climate Climate
	at      time.Time
}

// NewPowerClient creates a POWER client. An empty baseURL uses DefaultPowerURL.
// cache may be nil.
func NewPowerClient(baseURL string, cache Cache) *PowerClient {
	if baseURL == "" {
		baseURL = DefaultPowerURL
	}
	return &PowerClient{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: 10 * time.Second},
		cache:    cache,
		memo:     make(map[string]memoEntry),
		cacheTTL: 30 * time.Minute,
	}
}

// Climate returns the most recent complete daily reading at or before date.
func (c *PowerClient) Climate(ctx context.Context, loc Location, date time.Time) (Climate, error) {
	key := cacheKey("power", loc, date)

	c.mu.Lock()
	defer c.mu.Unlock()

	if m, ok := c.memo[key]; ok && time.Since(m.at) < c.cacheTTL {
		return m.climate, nil
	}

	// Backoff on repeated failures (up to 10 minutes).
	if c.failBackoff > 0 && time.Since(c.lastFailAt) < c.failBackoff {
		return Climate{}, fmt.Errorf("%w (%s remaining)", ErrBackoff, c.failBackoff-time.Since(c.lastFailAt))
	}

	if c.cache != nil {
		if body, ok, err := c.cache.Get(ctx, key); err != nil {
			slog.Debug("climate cache read failed", "key", key, "error", err)
		} else if ok {
			if climate, err := parsePower(body); err == nil {
				c.memo[key] = memoEntry{climate: climate, at: time.Now()}
				return climate, nil
			}
		}
	}

	body, err := c.fetch(ctx, loc, date)
	var climate Climate
	if err == nil {
		climate, err = parsePower(body)
	}
	if err != nil {
		c.lastFailAt = time.Now()
		if c.failBackoff == 0 {
			c.failBackoff = time.Minute
		} else if c.failBackoff < 10*time.Minute {
			c.failBackoff *= 2
		}
		return Climate{}, err
	}

	c.failBackoff = 0
	c.memo[key] = memoEntry{climate: climate, at: time.Now()}
	if c.cache != nil {
		if err := c.cache.Put(ctx, key, body); err != nil {
			slog.Debug("climate cache write failed", "key", key, "error", err)
		}
	}
	return climate, nil
}

func (c *PowerClient) fetch(ctx context.Context, loc Location, date time.Time) ([]byte, error) {
	q := url.Values{}
	q.Set("parameters", paramTemp+","+paramPrecip+","+paramHumidity+","+paramSolar+","+paramWind)
	q.Set("community", "AG")
	q.Set("latitude", fmt.Sprintf("%.4f", loc.Lat))
	q.Set("longitude", fmt.Sprintf("%.4f", loc.Lon))
	q.Set("start", date.AddDate(0, 0, -(powerWindow-1)).Format("20060102"))
	q.Set("end", date.Format("20060102"))
	q.Set("format", "JSON")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build climate request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("climate API call: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read climate response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("climate API error %d: %s", resp.StatusCode, truncate(body, 200))
	}
	return body, nil
}

// parsePower picks the latest day on which all five parameters are present.
func parsePower(body []byte) (Climate, error) {
	var power struct {
		Properties struct {
			Parameter map[string]map[string]float64 `json:"parameter"`
		} `json:"properties"`
	}
	if err := json.Unmarshal(body, &power); err != nil {
		return Climate{}, fmt.Errorf("parse climate: %w", err)
	}

	params := power.Properties.Parameter
	temps := params[paramTemp]
	days := make([]string, 0, len(temps))
	for day := range temps {
		days = append(days, day)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(days)))

	for _, day := range days {
		vals := make([]float64, 0, 5)
		for _, p := range []string{paramTemp, paramPrecip, paramHumidity, paramSolar, paramWind} {
			v, ok := params[p][day]
			if !ok || v == powerFill {
				break
			}
			vals = append(vals, v)
		}
		if len(vals) < 5 {
			continue
		}
		d, err := time.Parse("20060102", day)
		if err != nil {
			continue
		}
		return Climate{
			Date:            d,
			TemperatureC:    vals[0],
			PrecipitationMM: vals[1],
			Humidity:        vals[2],
			SolarRadiation:  vals[3],
			WindSpeed:       vals[4],
		}, nil
	}
	return Climate{}, fmt.Errorf("climate: %w: no complete day in response", ErrPartialData)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
