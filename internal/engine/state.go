package engine

import (
	"github.com/talgya/farmsim/internal/calendar"
	"github.com/talgya/farmsim/internal/crops"
	"github.com/talgya/farmsim/internal/datasource"
	"github.com/talgya/farmsim/internal/ledger"
	"github.com/talgya/farmsim/internal/livestock"
	"github.com/talgya/farmsim/internal/mission"
	"github.com/talgya/farmsim/internal/weather"
)

// MissionStatus is the current mission and whether it is being played.
type MissionStatus struct {
	mission.Mission
	Active    bool `json:"active"`
	Decisions int  `json:"decisions"`
}

// State is a point-in-time copy of the simulation, safe to read without
// holding any lock.
type State struct {
	Tick       uint64             `json:"tick"`
	Calendar   calendar.Calendar  `json:"calendar"`
	Season     calendar.Season    `json:"season"`
	Weather    weather.Sample     `json:"weather"`
	Fields     []*crops.Field     `json:"fields"`
	Livestock  []livestock.Animal `json:"livestock"`
	Resources  ledger.Ledger      `json:"resources"`
	Mission    MissionStatus      `json:"mission"`
	Decisions  []mission.Decision `json:"decisions"`
	Events     []Event            `json:"events"`
	Stats      SimStats           `json:"stats"`
	RealData   bool               `json:"real_data"`
	Enriching  bool               `json:"enriching"`
	Enrichment *datasource.Result `json:"enrichment,omitempty"`
}

// Snapshot copies the current state.
func (s *Simulation) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := State{
		Tick:      s.lastTick,
		Calendar:  s.calendar,
		Season:    s.calendar.Season(),
		Weather:   s.weather,
		Fields:    make([]*crops.Field, len(s.fields)),
		Livestock: make([]livestock.Animal, len(s.animals)),
		Resources: s.resources,
		Mission: MissionStatus{
			Mission:   mission.Get(s.missionIndex),
			Active:    s.missionActive,
			Decisions: s.decisions.Len(),
		},
		Decisions: s.decisions.Entries(),
		Events:    append([]Event(nil), s.events...),
		Stats:     s.stats,
		RealData:  s.realData,
		Enriching: s.enriching,
	}
	for i, f := range s.fields {
		st.Fields[i] = f.Clone()
	}
	for i, a := range s.animals {
		st.Livestock[i] = *a
	}
	if s.enrichment != nil {
		e := *s.enrichment
		st.Enrichment = &e
	}
	return st
}

// Field returns a copy of one field.
func (s *Simulation) Field(id crops.FieldID) (*crops.Field, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.fieldIndex[id]
	if !ok {
		return nil, false
	}
	return f.Clone(), true
}

// Animal returns a copy of one animal.
func (s *Simulation) Animal(id livestock.AnimalID) (livestock.Animal, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.animalIndex[id]
	if !ok {
		return livestock.Animal{}, false
	}
	return *a, true
}
