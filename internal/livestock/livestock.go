// Package livestock models farm animals and their per-tick needs and production.
package livestock

import (
	"fmt"
	"math"
	"strings"

	"github.com/talgya/farmsim/internal/ledger"
)

// AnimalID identifies an animal.
type AnimalID uint32

// Species enumerates the fixed set of animals.
type Species uint8

const (
	SpeciesCow Species = iota
	SpeciesChicken
	SpeciesPig
)

// SpeciesParams are the fixed per-species parameters.
type SpeciesParams struct {
	FeedNeed       float64 // hunger gained per tick
	ProductionRate float64 // production gained per tick while thriving
	HealthDecay    float64 // health lost per tick while starving
	FeedCost       float64 // feed spent per feeding
	Payout         float64 // money credited per completed production cycle
}

var speciesTable = map[Species]SpeciesParams{
	SpeciesCow:     {FeedNeed: 2, ProductionRate: 5, HealthDecay: 0.5, FeedCost: 20, Payout: 50},
	SpeciesChicken: {FeedNeed: 0.5, ProductionRate: 8, HealthDecay: 0.3, FeedCost: 5, Payout: 20},
	SpeciesPig:     {FeedNeed: 1.5, ProductionRate: 3, HealthDecay: 0.4, FeedCost: 15, Payout: 80},
}

var speciesNames = map[Species]string{
	SpeciesCow:     "Cow",
	SpeciesChicken: "Chicken",
	SpeciesPig:     "Pig",
}

// Params returns the parameters for s.
func Params(s Species) SpeciesParams {
	return speciesTable[s]
}

// SpeciesName returns a human-readable species name.
func SpeciesName(s Species) string {
	if n, ok := speciesNames[s]; ok {
		return n
	}
	return "Unknown"
}

// ParseSpecies resolves a species by name, ignoring case.
func ParseSpecies(name string) (Species, error) {
	for s, n := range speciesNames {
		if strings.EqualFold(name, n) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown species %q", name)
}

// Thresholds for the health and production rules.
const (
	MaxPercent       = 100.0
	StarvingHunger   = 70.0 // above: health decays
	SatedHunger      = 30.0 // below: health recovers
	RecoveryRate     = 0.3
	ThrivingHealth   = 70.0 // production requires health above this
	ThrivingHunger   = 50.0 // and hunger below this
	ProductionTarget = 100.0
	FeedRelief       = 40.0
)

// Animal is one head of livestock. Animals are never removed.
type Animal struct {
	ID         AnimalID `json:"id"`
	Species    Species  `json:"species"`
	Health     float64  `json:"health"`     // [0, 100]
	Hunger     float64  `json:"hunger"`     // [0, 100]
	Age        int      `json:"age"`        // ticks
	Production float64  `json:"production"` // resets to 0 at payout
}

func clamp(v float64) float64 {
	return math.Max(0, math.Min(MaxPercent, v))
}

// Advance moves an animal forward one tick. A completed production cycle is
// credited to l; the credited amount is returned (0 when none).
func Advance(a *Animal, l *ledger.Ledger) float64 {
	p := Params(a.Species)

	a.Hunger = math.Min(MaxPercent, a.Hunger+p.FeedNeed)

	switch {
	case a.Hunger > StarvingHunger:
		a.Health -= p.HealthDecay
	case a.Hunger < SatedHunger:
		a.Health += RecoveryRate
	}
	a.Health = clamp(a.Health)

	var payout float64
	if a.Health > ThrivingHealth && a.Hunger < ThrivingHunger {
		a.Production += p.ProductionRate
		if a.Production >= ProductionTarget {
			payout = p.Payout
			l.Credit(ledger.Money, payout)
			a.Production = 0
		}
	}

	a.Age++
	return payout
}

// Feed spends the species' feed cost from l and relieves hunger.
// Returns false, with nothing modified, when l cannot cover the cost.
func Feed(a *Animal, l *ledger.Ledger) bool {
	p := Params(a.Species)
	if !l.Spend(ledger.Feed, p.FeedCost) {
		return false
	}
	a.Hunger = math.Max(0, a.Hunger-FeedRelief)
	return true
}
