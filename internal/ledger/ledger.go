// Package ledger holds the shared resource balances mutated by tool actions,
// feed purchases, harvests and livestock production.
package ledger

// Resource names a balance in the ledger.
type Resource uint8

const (
	Water Resource = iota
	Fertilizer
	Money
	Feed
)

// ResourceName returns a human-readable resource name.
func ResourceName(r Resource) string {
	switch r {
	case Water:
		return "water"
	case Fertilizer:
		return "fertilizer"
	case Money:
		return "money"
	case Feed:
		return "feed"
	default:
		return "unknown"
	}
}

// Advisory caps, used for display only. Money is unbounded.
const (
	WaterCap      = 1000
	FertilizerCap = 500
	FeedCap       = 500
)

// Ledger holds four independent non-negative balances.
type Ledger struct {
	Water      float64 `json:"water" yaml:"water"`
	Fertilizer float64 `json:"fertilizer" yaml:"fertilizer"`
	Money      float64 `json:"money" yaml:"money"`
	Feed       float64 `json:"feed" yaml:"feed"`
}

func (l *Ledger) balance(r Resource) *float64 {
	switch r {
	case Water:
		return &l.Water
	case Fertilizer:
		return &l.Fertilizer
	case Money:
		return &l.Money
	case Feed:
		return &l.Feed
	}
	return nil
}

// Balance returns the current amount of r.
func (l *Ledger) Balance(r Resource) float64 {
	if b := l.balance(r); b != nil {
		return *b
	}
	return 0
}

// CanAfford reports whether the balance of r covers amount.
func (l *Ledger) CanAfford(r Resource, amount float64) bool {
	return l.Balance(r) >= amount
}

// Spend deducts amount from r. Returns false, leaving the ledger untouched,
// when the balance is insufficient.
func (l *Ledger) Spend(r Resource, amount float64) bool {
	b := l.balance(r)
	if b == nil || amount < 0 || *b < amount {
		return false
	}
	*b -= amount
	return true
}

// Credit adds a non-negative amount to r.
func (l *Ledger) Credit(r Resource, amount float64) {
	b := l.balance(r)
	if b == nil || amount <= 0 {
		return
	}
	*b += amount
}

// Cap returns the advisory display cap for r, or 0 when r is unbounded.
func Cap(r Resource) float64 {
	switch r {
	case Water:
		return WaterCap
	case Fertilizer:
		return FertilizerCap
	case Feed:
		return FeedCap
	default:
		return 0
	}
}

// Default returns the starting balances.
func Default() Ledger {
	return Ledger{
		Water:      1000,
		Fertilizer: 500,
		Money:      10000,
		Feed:       300,
	}
}
