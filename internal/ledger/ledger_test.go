package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSpend(t *testing.T) {
	l := Ledger{Water: 60, Feed: 4}

	assert.True(t, l.Spend(Water, 50))
	assert.Equal(t, 10.0, l.Water)

	assert.False(t, l.Spend(Water, 50), "insufficient balance declines")
	assert.Equal(t, 10.0, l.Water)

	assert.False(t, l.Spend(Feed, 5))
	assert.Equal(t, 4.0, l.Feed)

	assert.False(t, l.Spend(Water, -1), "negative spend is rejected")
}

func TestCredit(t *testing.T) {
	l := Ledger{}
	l.Credit(Money, 20)
	l.Credit(Money, -5)
	assert.Equal(t, 20.0, l.Money)
	assert.Equal(t, 20.0, l.Balance(Money))
}

func TestCap(t *testing.T) {
	assert.Equal(t, 1000.0, Cap(Water))
	assert.Zero(t, Cap(Money))
	assert.Equal(t, "fertilizer", ResourceName(Fertilizer))
}

func TestDefault(t *testing.T) {
	assert.Equal(t, Ledger{Water: 1000, Fertilizer: 500, Money: 10000, Feed: 300}, Default())
}
