package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/talgya/farmsim/internal/datasource"
)

// enrichTimeout bounds a background enrichment run.
const enrichTimeout = time.Minute

var (
	ErrNoEnricher = errors.New("no external data source configured")
	ErrEnriching  = errors.New("an enrichment is already running")
)

// ToggleRealDataSource switches weather between the generator and external
// samples. Enabling starts an enrichment; disabling discards any in flight.
func (s *Simulation) ToggleRealDataSource(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.realData == enabled {
		return
	}
	s.realData = enabled
	if !enabled {
		s.epoch++
		s.external = nil
		slog.Info("real data source disabled")
		return
	}
	slog.Info("real data source enabled", "location", s.location.String())
	s.startEnrichmentLocked()
}

// RealData reports whether external samples are enabled.
func (s *Simulation) RealData() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.realData
}

// startEnrichmentLocked launches a background enrichment unless one is
// already running. Caller holds s.mu.
func (s *Simulation) startEnrichmentLocked() bool {
	if s.enricher == nil || s.enriching {
		return false
	}
	s.enriching = true
	epoch, plots, date := s.epoch, s.plotsLocked(), s.clock.Now().UTC()

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), enrichTimeout)
		defer cancel()
		res := s.enricher.Enrich(ctx, plots, s.location, date)
		s.commit(epoch, res)
	}()
	return true
}

// Enrich runs an enrichment synchronously and commits it if nothing
// invalidated it meanwhile. The bool reports whether it was committed.
// Only one enrichment runs at a time; ErrEnriching is returned while
// another is in flight.
func (s *Simulation) Enrich(ctx context.Context) (datasource.Result, bool, error) {
	s.mu.Lock()
	if s.enricher == nil {
		s.mu.Unlock()
		return datasource.Result{}, false, ErrNoEnricher
	}
	if s.enriching {
		s.mu.Unlock()
		return datasource.Result{}, false, ErrEnriching
	}
	s.enriching = true
	epoch, plots, date := s.epoch, s.plotsLocked(), s.clock.Now().UTC()
	s.mu.Unlock()

	res := s.enricher.Enrich(ctx, plots, s.location, date)
	return res, s.commit(epoch, res), nil
}

// Wait blocks until background enrichments have finished.
func (s *Simulation) Wait() {
	s.inflight.Wait()
}

func (s *Simulation) plotsLocked() []datasource.Plot {
	plots := make([]datasource.Plot, len(s.fields))
	for i, f := range s.fields {
		plots[i] = datasource.Plot{ID: f.ID, Row: f.Row, Col: f.Col}
	}
	return plots
}

// commit replaces weather and field moisture/health with an enrichment
// result. Results from before a stop or toggle-off are dropped.
func (s *Simulation) commit(epoch uint64, res datasource.Result) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enriching = false
	if epoch != s.epoch || !s.realData {
		slog.Debug("discarding stale enrichment", "run", res.RunID)
		return false
	}

	w := res.Weather
	s.weather = w
	s.external = &w
	for _, r := range res.Fields {
		f, ok := s.fieldIndex[r.FieldID]
		if !ok {
			continue
		}
		f.Moisture = r.Moisture
		f.Health = r.Health
	}
	s.enrichment = &res
	s.updateStats()

	desc := fmt.Sprintf("External data applied for %s (%s)", res.Date.Format(time.DateOnly), res.ClimateOrigin)
	if n := len(res.Failures); n > 0 {
		desc += fmt.Sprintf(", %d source(s) fell back to synthetic data", n)
	}
	s.emit(s.lastTick, "enrichment", desc)
	return true
}
