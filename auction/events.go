package auction

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"casa_subastas/models"
)

var ErrInvalidMonth = errors.New("month must be between 1 and 12")

const (
	maxEventsPerState = 3

	offsetDay        = 1000
	offsetCity       = 2000
	offsetType       = 3000
	offsetTime       = 4000
	offsetProperties = 5000
)

var (
	auctionTypes = []models.AuctionType{models.AuctionForeclosure, models.AuctionBankruptcy, models.AuctionTax}
	timeSlots    = []string{"09:00", "10:00", "11:00", "14:00", "15:00", "16:00"}
)

// EventGenerator builds the monthly auction calendar from a seed. now decides
// which days are already in the past.
type EventGenerator struct {
	now func() time.Time
}

func NewEventGenerator() *EventGenerator {
	return &EventGenerator{now: time.Now}
}

// NewEventGeneratorAt returns a generator with a fixed clock
func NewEventGeneratorAt(now func() time.Time) *EventGenerator {
	return &EventGenerator{now: now}
}

// MonthSeed derives the calendar seed for a month.
func MonthSeed(year, month int) int64 {
	return int64(year)*100 + int64(month)
}

// Generate returns the events of (year, month) sorted by date. The full set is
// always generated first and the state filter is applied afterwards, so ids and
// draws never depend on the filter.
func (g *EventGenerator) Generate(state string, year, month int) ([]models.AuctionEvent, error) {
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("generate events for %d-%d: %w", year, month, ErrInvalidMonth)
	}

	all := g.generateAll(year, month)
	if state == "" {
		return all, nil
	}

	filtered := make([]models.AuctionEvent, 0, len(all)/len(States)+1)
	for _, ev := range all {
		if ev.State == state {
			filtered = append(filtered, ev)
		}
	}
	return filtered, nil
}

func (g *EventGenerator) generateAll(year, month int) []models.AuctionEvent {
	seed := MonthSeed(year, month)
	days := DaysInMonth(year, month)

	now := g.now()
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	events := make([]models.AuctionEvent, 0, len(States)*2)
	for stateIdx, state := range States {
		count := EventCount(seed, stateIdx)
		cities := CitiesFor(state)

		for i := 0; i < count; i++ {
			eventIdx := int64(stateIdx*10 + i)

			day := int(math.Floor(SeededRandom(seed, eventIdx+offsetDay)*float64(days))) + 1
			if i > 0 {
				day = min(day+i*3, days)
			}

			date := time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc)
			if date.Before(today) {
				continue
			}

			events = append(events, models.AuctionEvent{
				ID:              int(eventIdx),
				Date:            date.Format("2006-01-02"),
				State:           state,
				City:            cities[pick(SeededRandom(seed, eventIdx+offsetCity), len(cities))],
				AuctionType:     auctionTypes[pick(SeededRandom(seed, eventIdx+offsetType), len(auctionTypes))],
				Time:            timeSlots[pick(SeededRandom(seed, eventIdx+offsetTime), len(timeSlots))],
				PropertiesCount: int(math.Floor(SeededRandom(seed, eventIdx+offsetProperties)*15)) + 5,
			})
		}
	}

	// Stable so same-day events keep state order
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date < events[j].Date
	})
	return events
}

// EventCount is the number of events a state gets in a month: 1 to 3.
func EventCount(seed int64, stateIdx int) int {
	n := int(math.Floor(SeededRandom(seed, int64(stateIdx))*3)) + 1
	return min(n, maxEventsPerState)
}

func DaysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
