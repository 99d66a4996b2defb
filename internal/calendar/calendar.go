// Package calendar tracks simulated day/week/month/year counters.
package calendar

import "fmt"

// Carry thresholds.
const (
	DaysPerWeek   = 7
	WeeksPerMonth = 4
	MonthsPerYear = 12
)

// Calendar holds four nested counters. Day, Week and Month are 1-based.
type Calendar struct {
	Day   int `json:"day" yaml:"day"`
	Week  int `json:"week" yaml:"week"`
	Month int `json:"month" yaml:"month"`
	Year  int `json:"year" yaml:"year"`
}

// New returns a calendar at day 1, week 1, month 1 of the given year.
func New(year int) Calendar {
	return NewAt(year, 1)
}

// NewAt returns a calendar at day 1, week 1 of the given month and year.
// Months outside 1..12 fall back to 1.
func NewAt(year, month int) Calendar {
	if month < 1 || month > MonthsPerYear {
		month = 1
	}
	return Calendar{Day: 1, Week: 1, Month: month, Year: year}
}

// Advance is the result of advancing one day.
type Advance struct {
	// WeekBoundary is true when the day before rollover was the 7th.
	WeekBoundary bool
	// CompletedWeek is the week counter before rollover.
	CompletedWeek int
}

// AdvanceDay increments the day and carries into week, month and year.
func (c *Calendar) AdvanceDay() Advance {
	adv := Advance{
		WeekBoundary:  c.Day == DaysPerWeek,
		CompletedWeek: c.Week,
	}

	c.Day++
	if c.Day > DaysPerWeek {
		c.Day = 1
		c.Week++
	}
	if c.Week > WeeksPerMonth {
		c.Week = 1
		c.Month++
	}
	if c.Month > MonthsPerYear {
		c.Month = 1
		c.Year++
	}
	return adv
}

// String renders the calendar for logs.
func (c Calendar) String() string {
	return fmt.Sprintf("Y%d M%d W%d D%d", c.Year, c.Month, c.Week, c.Day)
}

// Season is derived from the month using northern meteorological seasons.
type Season uint8

const (
	Spring Season = iota
	Summer
	Autumn
	Winter
)

// Season returns the season the calendar month falls in.
func (c Calendar) Season() Season {
	switch c.Month {
	case 3, 4, 5:
		return Spring
	case 6, 7, 8:
		return Summer
	case 9, 10, 11:
		return Autumn
	default:
		return Winter
	}
}

func (s Season) String() string {
	switch s {
	case Spring:
		return "Spring"
	case Summer:
		return "Summer"
	case Autumn:
		return "Autumn"
	case Winter:
		return "Winter"
	default:
		return "Unknown"
	}
}

// MarshalText renders the season by name.
func (s Season) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
