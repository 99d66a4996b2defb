package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/talgya/farmsim/internal/crops"
	"github.com/talgya/farmsim/internal/engine"
	"github.com/talgya/farmsim/internal/ledger"
	"github.com/talgya/farmsim/internal/livestock"
	"github.com/talgya/farmsim/internal/mission"
)

type fieldView struct {
	*crops.Field
	CropName string `json:"crop_name"`
	Ready    bool   `json:"ready"`
}

func viewField(f *crops.Field) fieldView {
	return fieldView{Field: f, CropName: crops.CropName(f.Crop), Ready: f.Ready()}
}

type animalView struct {
	livestock.Animal
	SpeciesName string `json:"species_name"`
}

func viewAnimal(a livestock.Animal) animalView {
	return animalView{Animal: a, SpeciesName: livestock.SpeciesName(a.Species)}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st := s.Sim.Snapshot()
	status := map[string]any{
		"name":      "farmsim",
		"tick":      st.Tick,
		"calendar":  st.Calendar,
		"season":    st.Season,
		"weather":   st.Weather,
		"speed":     s.Eng.Speed().String(),
		"running":   s.Eng.Running(),
		"real_data": st.RealData,
		"enriching": st.Enriching,
		"resources": st.Resources,
		"stats":     st.Stats,
		"mission":   st.Mission,
	}
	writeJSON(w, status)
}

func (s *Server) handleFields(w http.ResponseWriter, r *http.Request) {
	st := s.Sim.Snapshot()
	result := make([]fieldView, 0, len(st.Fields))
	for _, f := range st.Fields {
		result = append(result, viewField(f))
	}
	writeJSON(w, result)
}

// handleFieldRoutes serves GET /api/v1/field/:id and
// POST /api/v1/field/:id/{irrigate,fertilize,harvest}.
func (s *Server) handleFieldRoutes(w http.ResponseWriter, r *http.Request) {
	raw, parts, err := pathID(r, 3)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id := crops.FieldID(raw)

	if len(parts) < 5 {
		f, ok := s.Sim.Field(id)
		if !ok {
			http.Error(w, "field not found", http.StatusNotFound)
			return
		}
		writeJSON(w, viewField(f))
		return
	}
	if !requirePost(w, r) {
		return
	}

	action := parts[4]
	resp := map[string]any{}
	var outcome engine.Outcome
	if action == mission.ActionHarvest {
		var payout float64
		outcome, payout = s.Sim.Harvest(id)
		resp["payout"] = payout
	} else {
		tool, ok := crops.ParseTool(action)
		if !ok {
			http.Error(w, "unknown action "+strconv.Quote(action), http.StatusNotFound)
			return
		}
		outcome = s.Sim.ApplyTool(id, tool)
	}

	resp["outcome"] = outcome
	if f, ok := s.Sim.Field(id); ok {
		resp["field"] = viewField(f)
	}
	resp["resources"] = s.Sim.Snapshot().Resources
	writeJSONStatus(w, outcomeStatus(outcome), resp)
}

func (s *Server) handleLivestock(w http.ResponseWriter, r *http.Request) {
	st := s.Sim.Snapshot()
	result := make([]animalView, 0, len(st.Livestock))
	for _, a := range st.Livestock {
		result = append(result, viewAnimal(a))
	}
	writeJSON(w, result)
}

// handleAnimalRoutes serves GET /api/v1/animal/:id and POST /api/v1/animal/:id/feed.
func (s *Server) handleAnimalRoutes(w http.ResponseWriter, r *http.Request) {
	raw, parts, err := pathID(r, 3)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	id := livestock.AnimalID(raw)

	if len(parts) < 5 {
		a, ok := s.Sim.Animal(id)
		if !ok {
			http.Error(w, "animal not found", http.StatusNotFound)
			return
		}
		writeJSON(w, viewAnimal(a))
		return
	}
	if parts[4] != "feed" {
		http.Error(w, "unknown action", http.StatusNotFound)
		return
	}
	if !requirePost(w, r) {
		return
	}

	outcome := s.Sim.FeedLivestock(id)
	resp := map[string]any{"outcome": outcome}
	if a, ok := s.Sim.Animal(id); ok {
		resp["animal"] = viewAnimal(a)
	}
	resp["resources"] = s.Sim.Snapshot().Resources
	writeJSONStatus(w, outcomeStatus(outcome), resp)
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	st := s.Sim.Snapshot()
	caps := map[string]float64{}
	for _, res := range []ledger.Resource{ledger.Water, ledger.Fertilizer, ledger.Feed} {
		caps[ledger.ResourceName(res)] = ledger.Cap(res)
	}
	writeJSON(w, map[string]any{
		"balances": st.Resources,
		"caps":     caps,
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	events := s.Sim.Snapshot().Events

	if category := r.URL.Query().Get("category"); category != "" {
		var filtered []engine.Event
		for _, e := range events {
			if e.Category == category {
				filtered = append(filtered, e)
			}
		}
		events = filtered
	}

	start := 0
	if len(events) > limit {
		start = len(events) - limit
	}
	if events == nil {
		events = []engine.Event{}
	}
	writeJSON(w, events[start:])
}

func (s *Server) handleMissions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, mission.All())
}

// handleMission serves GET /api/v1/mission (status and current score) and
// POST /api/v1/mission/{start,next}.
func (s *Server) handleMission(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/mission", "/api/v1/mission/":
		st := s.Sim.Snapshot()
		writeJSON(w, map[string]any{
			"mission": st.Mission,
			"result":  s.Sim.EvaluateMission(),
		})
	case "/api/v1/mission/start":
		if requirePost(w, r) {
			writeJSON(w, s.Sim.StartMission())
		}
	case "/api/v1/mission/next":
		if requirePost(w, r) {
			writeJSON(w, s.Sim.NextMission())
		}
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) handleDecisions(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Action  string        `json:"action"`
			FieldID crops.FieldID `json:"field_id"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		if req.Action == "" {
			http.Error(w, "action required", http.StatusBadRequest)
			return
		}
		outcome := s.Sim.LogDecision(req.Action, req.FieldID)
		writeJSONStatus(w, outcomeStatus(outcome), map[string]any{"outcome": outcome})
		return
	}

	decisions := s.Sim.Snapshot().Decisions
	if decisions == nil {
		decisions = []mission.Decision{}
	}
	writeJSON(w, decisions)
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	writeJSON(w, s.Sim.AdvanceTick())
}

// handleSimulation serves POST /api/v1/simulation/{start,stop}.
func (s *Server) handleSimulation(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	var changed bool
	switch r.URL.Path {
	case "/api/v1/simulation/start":
		changed = s.Eng.Start()
	case "/api/v1/simulation/stop":
		changed = s.Eng.Stop()
	default:
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]any{
		"running": s.Eng.Running(),
		"changed": changed,
		"tick":    s.Sim.Snapshot().Tick,
	})
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Speed string `json:"speed"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		speed, err := engine.ParseSpeed(req.Speed)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.Eng.SetSpeed(speed)
	}

	speed := s.Eng.Speed()
	writeJSON(w, map[string]any{
		"speed":       speed.String(),
		"interval_ms": speed.Interval().Milliseconds(),
	})
}

func (s *Server) handleDataSource(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		var req struct {
			Enabled bool `json:"enabled"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		s.Sim.ToggleRealDataSource(req.Enabled)
	}

	st := s.Sim.Snapshot()
	writeJSON(w, map[string]any{
		"enabled":    st.RealData,
		"enriching":  st.Enriching,
		"enrichment": st.Enrichment,
	})
}

// handleRefresh runs an enrichment within the request and reports whether it
// was committed.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !requirePost(w, r) {
		return
	}
	if !s.Sim.RealData() {
		http.Error(w, "real data source is disabled", http.StatusConflict)
		return
	}
	res, committed, err := s.Sim.Enrich(r.Context())
	switch {
	case errors.Is(err, engine.ErrEnriching):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, map[string]any{
		"committed":  committed,
		"enrichment": res,
	})
}
