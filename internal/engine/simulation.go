// Simulation owns all farm state and exposes the mutation entry points.
package engine

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/talgya/farmsim/internal/calendar"
	"github.com/talgya/farmsim/internal/crops"
	"github.com/talgya/farmsim/internal/datasource"
	"github.com/talgya/farmsim/internal/entropy"
	"github.com/talgya/farmsim/internal/ledger"
	"github.com/talgya/farmsim/internal/livestock"
	"github.com/talgya/farmsim/internal/mission"
	"github.com/talgya/farmsim/internal/weather"
)

// maxEvents bounds the recent-event list.
const maxEvents = 200

// Clock supplies wall-clock time for decision timestamps and enrichment dates.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Event is a notable occurrence on the farm.
type Event struct {
	Tick        uint64 `json:"tick"`
	Description string `json:"description"`
	Category    string `json:"category"` // "harvest", "production", "enrichment", "mission", "tool"
}

// SimStats tracks aggregate farm statistics.
type SimStats struct {
	AvgHealth       float64 `json:"avg_health"`
	AvgMoisture     float64 `json:"avg_moisture"`
	ReadyFields     int     `json:"ready_fields"`
	Harvests        int     `json:"harvests"`
	HarvestIncome   float64 `json:"harvest_income"`
	LivestockIncome float64 `json:"livestock_income"`
}

// Setup holds everything needed to construct a Simulation.
type Setup struct {
	Year      int
	Month     int // starting month, 1..12; anything else starts in month 1
	Fields    []*crops.Field
	Livestock []*livestock.Animal
	Resources ledger.Ledger
	Rand      *entropy.Source // nil = non-deterministic
	Location  datasource.Location
	Enricher  *datasource.Enricher // nil disables external enrichment
	Clock     Clock                // nil = wall clock
}

// Simulation is the single owner of farm state. Every entry point takes the
// lock, so ticks and player actions never interleave.
type Simulation struct {
	mu sync.Mutex

	calendar      calendar.Calendar
	weather       weather.Sample
	fields        []*crops.Field
	fieldIndex    map[crops.FieldID]*crops.Field
	animals       []*livestock.Animal
	animalIndex   map[livestock.AnimalID]*livestock.Animal
	resources     ledger.Ledger
	decisions     mission.Log
	missionIndex  int
	missionActive bool
	events        []Event
	lastTick      uint64
	stats         SimStats

	rng       *entropy.Source
	generator *weather.Generator
	provider  weather.Provider

	// External data.
	realData   bool
	location   datasource.Location
	enricher   *datasource.Enricher
	external   *weather.Sample // latest committed external weather
	enrichment *datasource.Result
	enriching  bool
	epoch      uint64 // bumped on stop and on toggle-off; stale enrichments are dropped
	inflight   sync.WaitGroup

	clock Clock
}

// NewSimulation creates a Simulation from a farm layout.
func NewSimulation(s Setup) *Simulation {
	rng := s.Rand
	if rng == nil {
		rng = entropy.New(0)
	}
	clock := s.Clock
	if clock == nil {
		clock = realClock{}
	}
	year := s.Year
	if year <= 0 {
		year = 1
	}

	sim := &Simulation{
		calendar:    calendar.NewAt(year, s.Month),
		weather:     weather.Default(),
		fields:      s.Fields,
		fieldIndex:  make(map[crops.FieldID]*crops.Field, len(s.Fields)),
		animals:     s.Livestock,
		animalIndex: make(map[livestock.AnimalID]*livestock.Animal, len(s.Livestock)),
		resources:   s.Resources,
		rng:         rng,
		generator:   weather.NewGenerator(rng),
		location:    s.Location,
		enricher:    s.Enricher,
		clock:       clock,
	}
	sim.provider = &latestWeather{sim: sim}
	for _, f := range s.Fields {
		sim.fieldIndex[f.ID] = f
	}
	for _, a := range s.Livestock {
		sim.animalIndex[a.ID] = a
	}
	sim.updateStats()
	return sim
}

// latestWeather serves the most recent external sample while real data is
// enabled and one has been committed, and generated weather otherwise.
type latestWeather struct {
	sim *Simulation
}

func (p *latestWeather) Next(prev weather.Sample) weather.Sample {
	if p.sim.realData && p.sim.external != nil {
		return *p.sim.external
	}
	return p.sim.generator.Next(prev)
}

// TickReport summarizes one tick.
type TickReport struct {
	Tick         uint64            `json:"tick"`
	Calendar     calendar.Calendar `json:"calendar"`
	Weather      weather.Sample    `json:"weather"`
	WeekBoundary bool              `json:"week_boundary"`
	Matured      []crops.FieldID   `json:"matured,omitempty"`
	Payouts      float64           `json:"payouts"`
}

// AdvanceTick runs one simulation step: calendar, then weather, then fields
// and livestock against the same weather sample.
func (s *Simulation) AdvanceTick() TickReport {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastTick++
	tick := s.lastTick

	adv := s.calendar.AdvanceDay()
	s.weather = s.provider.Next(s.weather)

	report := TickReport{
		Tick:         tick,
		WeekBoundary: adv.WeekBoundary,
		Weather:      s.weather,
	}

	for _, f := range s.fields {
		if crops.Advance(f, s.weather, adv, s.rng) {
			report.Matured = append(report.Matured, f.ID)
			s.emit(tick, "harvest", fmt.Sprintf("Field %d (%s) is ready to harvest, expected yield %.0f",
				f.ID, crops.CropName(f.Crop), f.Yield))
		}
	}

	for _, a := range s.animals {
		if payout := livestock.Advance(a, &s.resources); payout > 0 {
			report.Payouts += payout
			s.stats.LivestockIncome += payout
			s.emit(tick, "production", fmt.Sprintf("%s %d produced goods worth $%.0f",
				livestock.SpeciesName(a.Species), a.ID, payout))
		}
	}

	s.updateStats()
	report.Calendar = s.calendar

	if adv.WeekBoundary {
		s.weeklySummary(tick, adv.CompletedWeek)
		if s.realData {
			s.startEnrichmentLocked()
		}
	}
	return report
}

func (s *Simulation) weeklySummary(tick uint64, week int) {
	slog.Info("weekly summary",
		"tick", tick,
		"week", week,
		"calendar", s.calendar.String(),
		"money", "$"+humanize.Commaf(s.resources.Money),
		"water", humanize.Commaf(s.resources.Water),
		"feed", humanize.Commaf(s.resources.Feed),
		"avg_health", fmt.Sprintf("%.1f", s.stats.AvgHealth),
		"ready_fields", s.stats.ReadyFields,
		"harvests", s.stats.Harvests,
		"events", humanize.Comma(int64(len(s.events))),
	)
}

func (s *Simulation) updateStats() {
	s.stats.AvgHealth, s.stats.AvgMoisture, s.stats.ReadyFields = 0, 0, 0
	if len(s.fields) == 0 {
		return
	}
	for _, f := range s.fields {
		s.stats.AvgHealth += f.Health
		s.stats.AvgMoisture += f.Moisture
		if f.Ready() {
			s.stats.ReadyFields++
		}
	}
	n := float64(len(s.fields))
	s.stats.AvgHealth /= n
	s.stats.AvgMoisture /= n
}

// emit appends an event, keeping the list bounded.
func (s *Simulation) emit(tick uint64, category, description string) {
	s.events = append(s.events, Event{Tick: tick, Description: description, Category: category})
	if len(s.events) > maxEvents {
		s.events = s.events[len(s.events)-maxEvents:]
	}
}

// ApplyTool charges a tool to the ledger and applies it to a field. While a
// mission is active, applied tools are recorded in the decision log.
func (s *Simulation) ApplyTool(id crops.FieldID, tool crops.Tool) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.fieldIndex[id]
	if !ok {
		return UnknownTarget
	}
	if _, ok := crops.Spec(tool); !ok {
		return UnknownTarget
	}
	if !crops.ApplyTool(f, tool, &s.resources) {
		return Insufficient
	}

	name := crops.ToolName(tool)
	if s.missionActive {
		s.decisions.Append(name, id, s.clock.Now())
	}
	s.updateStats()
	slog.Debug("tool applied", "field", id, "tool", name)
	return Applied
}

// Harvest collects a mature field. Returns the money credited.
func (s *Simulation) Harvest(id crops.FieldID) (Outcome, float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.fieldIndex[id]
	if !ok {
		return UnknownTarget, 0
	}
	yield := f.Yield
	payout, ok := crops.Harvest(f, &s.resources)
	if !ok {
		return NotReady, 0
	}

	if s.missionActive {
		s.decisions.Append(mission.ActionHarvest, id, s.clock.Now())
	}
	s.stats.Harvests++
	s.stats.HarvestIncome += payout
	s.updateStats()
	s.emit(s.lastTick, "harvest", fmt.Sprintf("Harvested field %d: %.0f units for $%s",
		id, yield, humanize.Commaf(payout)))
	slog.Info("harvest", "field", id, "yield", yield, "payout", payout)
	return Applied, payout
}

// FeedLivestock feeds one animal from the feed balance.
func (s *Simulation) FeedLivestock(id livestock.AnimalID) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.animalIndex[id]
	if !ok {
		return UnknownTarget
	}
	if !livestock.Feed(a, &s.resources) {
		return Insufficient
	}
	return Applied
}

// StartMission activates the current mission with an empty decision log.
func (s *Simulation) StartMission() mission.Mission {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.decisions.Clear()
	s.missionActive = true
	m := mission.Get(s.missionIndex)
	s.emit(s.lastTick, "mission", fmt.Sprintf("Mission started: %s", m.Title))
	return m
}

// NextMission moves to the next mission in the list and deactivates it.
func (s *Simulation) NextMission() mission.Mission {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.missionIndex = (s.missionIndex + 1) % mission.Count()
	s.missionActive = false
	s.decisions.Clear()
	return mission.Get(s.missionIndex)
}

// LogDecision appends an action to the decision log.
func (s *Simulation) LogDecision(action string, id crops.FieldID) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.fieldIndex[id]; !ok {
		return UnknownTarget
	}
	s.decisions.Append(action, id, s.clock.Now())
	return Applied
}

// EvaluateMission scores the decision log against the current mission.
func (s *Simulation) EvaluateMission() mission.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return mission.Score(s.decisions.Entries(), s.fields, s.missionIndex)
}

// SetRunning is wired to the engine's state changes. Stopping invalidates
// any enrichment still in flight.
func (s *Simulation) SetRunning(running bool) {
	if running {
		return
	}
	s.mu.Lock()
	s.epoch++
	s.mu.Unlock()
}
