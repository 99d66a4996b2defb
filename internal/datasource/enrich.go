package datasource

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/talgya/farmsim/internal/crops"
	"github.com/talgya/farmsim/internal/weather"
)

// Origin of a reading.
const (
	OriginRemote    = "remote"
	OriginSynthetic = "synthetic"
)

// FieldReading is the enrichment result for one field.
type FieldReading struct {
	FieldID      crops.FieldID `json:"field_id"`
	NDVI         float64       `json:"ndvi"`
	Quality      string        `json:"quality"`
	Health       float64       `json:"health"`
	SoilFraction float64       `json:"soil_fraction"`
	Moisture     float64       `json:"moisture"`
	NDVIOrigin   string        `json:"ndvi_origin"`
	SoilOrigin   string        `json:"soil_origin"`
}

// Failure records one sub-fetch that fell back to synthetic data.
type Failure struct {
	Source  string        `json:"source"`
	FieldID crops.FieldID `json:"field_id,omitempty"`
	Error   string        `json:"error"`
}

// Result is a complete enrichment: every field has a reading and the weather
// sample is always populated, whatever failed along the way.
type Result struct {
	RunID         uuid.UUID      `json:"run_id"`
	Date          time.Time      `json:"date"`
	Location      Location       `json:"location"`
	Climate       Climate        `json:"climate"`
	ClimateOrigin string         `json:"climate_origin"`
	Weather       weather.Sample `json:"weather"`
	Fields        []FieldReading `json:"fields"`
	Failures      []Failure      `json:"failures,omitempty"`
}

// Enricher fetches external samples and substitutes synthetic values per
// sub-fetch when a source fails.
type Enricher struct {
	Climate    ClimateSource
	Vegetation VegetationSource
	Soil       SoilMoistureSource
	Fallback   *Synthetic // required
	Logger     *slog.Logger
	Timeout    time.Duration // per sub-fetch; 0 means 15s
}

func (e *Enricher) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

func (e *Enricher) timeout() time.Duration {
	if e.Timeout > 0 {
		return e.Timeout
	}
	return 15 * time.Second
}

// Enrich fetches climate for loc and vegetation/soil readings for every plot.
// It never fails as a whole.
func (e *Enricher) Enrich(ctx context.Context, plots []Plot, loc Location, date time.Time) Result {
	res := Result{
		RunID:    uuid.New(),
		Date:     date,
		Location: loc,
		Fields:   make([]FieldReading, len(plots)),
	}
	log := e.logger().With("run", res.RunID.String())

	var mu sync.Mutex
	fail := func(source string, field crops.FieldID, err error) {
		log.Warn("external fetch failed, using synthetic data",
			"source", source,
			"field", field,
			"error", err,
		)
		mu.Lock()
		res.Failures = append(res.Failures, Failure{Source: source, FieldID: field, Error: err.Error()})
		mu.Unlock()
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		c, origin := e.climate(ctx, loc, date, fail)
		res.Climate = c
		res.ClimateOrigin = origin
		res.Weather = c.Sample()
	}()

	for i, p := range plots {
		wg.Add(1)
		go func(i int, p Plot) {
			defer wg.Done()
			res.Fields[i] = e.field(ctx, p, loc.Offset(p.Row, p.Col), date, fail)
		}(i, p)
	}

	wg.Wait()

	log.Info("enrichment complete",
		"location", loc.String(),
		"date", date.Format("2006-01-02"),
		"fields", len(plots),
		"climate", res.ClimateOrigin,
		"failures", len(res.Failures),
	)
	return res
}

func (e *Enricher) climate(ctx context.Context, loc Location, date time.Time, fail func(string, crops.FieldID, error)) (Climate, string) {
	if e.Climate != nil {
		cctx, cancel := context.WithTimeout(ctx, e.timeout())
		c, err := e.Climate.Climate(cctx, loc, date)
		cancel()
		if err == nil {
			return c, OriginRemote
		}
		fail("climate", 0, err)
	}
	c, _ := e.Fallback.Climate(ctx, loc, date)
	return c, OriginSynthetic
}

func (e *Enricher) field(ctx context.Context, p Plot, loc Location, date time.Time, fail func(string, crops.FieldID, error)) FieldReading {
	r := FieldReading{FieldID: p.ID, NDVIOrigin: OriginSynthetic, SoilOrigin: OriginSynthetic}

	ndviOK := false
	if e.Vegetation != nil {
		cctx, cancel := context.WithTimeout(ctx, e.timeout())
		v, err := e.Vegetation.NDVI(cctx, loc, date)
		cancel()
		if err != nil {
			fail("ndvi", p.ID, err)
		} else {
			r.NDVI, r.NDVIOrigin, ndviOK = v, OriginRemote, true
		}
	}
	if !ndviOK {
		r.NDVI, _ = e.Fallback.NDVI(ctx, loc, date)
	}

	soilOK := false
	if e.Soil != nil {
		cctx, cancel := context.WithTimeout(ctx, e.timeout())
		v, err := e.Soil.SoilMoisture(cctx, loc, date)
		cancel()
		if err != nil {
			fail("soil_moisture", p.ID, err)
		} else {
			r.SoilFraction, r.SoilOrigin, soilOK = v, OriginRemote, true
		}
	}
	if !soilOK {
		r.SoilFraction, _ = e.Fallback.SoilMoisture(ctx, loc, date)
	}

	r.Quality = NDVIQuality(r.NDVI)
	r.Health = NDVIToHealth(r.NDVI)
	r.Moisture = MoistureToPercent(r.SoilFraction)
	return r
}
