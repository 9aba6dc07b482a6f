// Package meds groups raw medication administration and home-medication
// rows into merged orders keyed by (drug name, route).
package meds

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/semr/etl/internal/domain/chart"
)

// DoseText is a dose/frequency string split into value and unit halves.
type DoseText struct {
	Value string `json:"value"`
	Unit  string `json:"unit"`
}

// Order is one merged medication order: every event sharing the order's
// (name, route) key, spanning [FirstT, LastT].
type Order struct {
	ID        int            `json:"id"`
	OrderedAs string         `json:"ordered_as_name"`
	Canonical string         `json:"canonical_name"`
	Route     string         `json:"route"`
	FirstT    int64          `json:"first_time"`
	LastT     int64          `json:"last_time"`
	Doses     []chart.Point  `json:"dose_points"`
	DoseTexts []DoseText     `json:"dose_text_points"`
	DoseRange chart.Interval `json:"dose_range"`
}

// Panel is the assembled medications section: orders keyed by synthetic
// order id, plus the route index the viewer uses to group them.
type Panel struct {
	Orders map[string]*Order `json:"orders"`
	Routes map[string][]int  `json:"routes"`
}

type orderKey struct {
	name  string
	route string
}

type pendingEvent struct {
	t        int64
	dose     float64
	doseText string
}

type pendingOrder struct {
	orderedAs string
	canonical string
	route     string
	events    []pendingEvent
}

// Collector accumulates raw medication events across sources. Merge keys
// fold case and surrounding space so the active-order and home-med tables'
// route vocabularies merge; a folded match whose raw routes still differ is
// a data-quality inconsistency, logged but never split into two orders.
type Collector struct {
	log    zerolog.Logger
	keys   map[orderKey]int
	orders []*pendingOrder
}

func NewCollector(log zerolog.Logger) *Collector {
	return &Collector{log: log, keys: map[orderKey]int{}}
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Add records one raw event. The first event for a key creates the order
// and fixes its display names and route; later events only append doses.
func (c *Collector) Add(t time.Time, orderedAs, route, canonical string, dose float64, doseText string) {
	key := orderKey{name: fold(orderedAs), route: fold(route)}
	id, ok := c.keys[key]
	if !ok {
		id = len(c.orders)
		c.keys[key] = id
		c.orders = append(c.orders, &pendingOrder{
			orderedAs: orderedAs,
			canonical: canonical,
			route:     route,
		})
	}
	ord := c.orders[id]
	if route != ord.route {
		c.log.Warn().
			Str("ordered_as", orderedAs).
			Str("route", route).
			Str("order_route", ord.route).
			Msg("medication routes differ within merged order")
	}
	ord.events = append(ord.events, pendingEvent{
		t:        chart.Millis(t),
		dose:     dose,
		doseText: doseText,
	})
}

// Finalize applies the time cutoff after the full pass (merge-key discovery
// needs every event first; the sources are not time-sorted) and builds the
// panel. Orders with no event before the cutoff are dropped entirely.
func (c *Collector) Finalize(cutoff time.Time) *Panel {
	cut := chart.Millis(cutoff)
	panel := &Panel{Orders: map[string]*Order{}, Routes: map[string][]int{}}

	for id, pend := range c.orders {
		var kept []pendingEvent
		for _, ev := range pend.events {
			if ev.t < cut {
				kept = append(kept, ev)
			}
		}
		if len(kept) == 0 {
			continue
		}

		out := &Order{
			ID:        id,
			OrderedAs: pend.orderedAs,
			Canonical: pend.canonical,
			Route:     pend.route,
			FirstT:    kept[0].t,
			LastT:     kept[0].t,
			DoseRange: chart.Interval{Min: kept[0].dose, Max: kept[0].dose},
		}
		for _, ev := range kept {
			if ev.t < out.FirstT {
				out.FirstT = ev.t
			}
			if ev.t > out.LastT {
				out.LastT = ev.t
			}
			if ev.dose < out.DoseRange.Min {
				out.DoseRange.Min = ev.dose
			}
			if ev.dose > out.DoseRange.Max {
				out.DoseRange.Max = ev.dose
			}
			out.Doses = append(out.Doses, chart.Point{T: ev.t, V: ev.dose})
			value, unit := SplitValueUnit(ev.doseText)
			out.DoseTexts = append(out.DoseTexts, DoseText{Value: value, Unit: unit})
		}

		panel.Orders[strconv.Itoa(id)] = out
		panel.Routes[pend.route] = append(panel.Routes[pend.route], id)
	}

	for route := range panel.Routes {
		sort.Ints(panel.Routes[route])
	}
	return panel
}
