// Package catalog is the read-only list of events the storefront sells.
package catalog

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"eventhorizon/internal/status"
	"eventhorizon/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var seedYAML []byte

const DefaultFeatured = 3

// Seed is the on-disk shape of a catalog document.
type Seed struct {
	Events       []models.Event       `yaml:"events"`
	Transactions []models.Transaction `yaml:"transactions"`
}

type Catalog struct {
	events []models.Event
	byID   map[string]int
}

// TierGroup is the tiers of one event sharing a tier category, in first-seen
// order.
type TierGroup struct {
	Category string              `json:"category"`
	Tiers    []models.TicketType `json:"tiers"`
}

// DefaultSeed decodes the embedded catalog document.
func DefaultSeed() (*Seed, error) {
	return decodeSeed(strings.NewReader(string(seedYAML)))
}

// LoadSeedFile decodes a catalog document from path.
func LoadSeedFile(path string) (*Seed, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer f.Close()
	return decodeSeed(f)
}

func decodeSeed(r io.Reader) (*Seed, error) {
	var seed Seed
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return &seed, nil
}

// New validates events and builds a catalog over a private copy of them.
func New(events []models.Event) (*Catalog, error) {
	c := &Catalog{
		events: make([]models.Event, 0, len(events)),
		byID:   make(map[string]int, len(events)),
	}
	for _, ev := range events {
		if err := validate(ev); err != nil {
			return nil, err
		}
		if _, dup := c.byID[ev.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate event id %q", ev.ID)
		}
		c.byID[ev.ID] = len(c.events)
		c.events = append(c.events, cloneEvent(ev))
	}
	return c, nil
}

func validate(ev models.Event) error {
	if ev.ID == "" {
		return fmt.Errorf("catalog: event %q has no id", ev.Title)
	}
	if !ev.Category.Valid() {
		return fmt.Errorf("catalog: event %s has unknown category %q", ev.ID, ev.Category)
	}
	if len(ev.TicketTypes) == 0 {
		return fmt.Errorf("catalog: event %s has no ticket types", ev.ID)
	}
	seen := make(map[string]struct{}, len(ev.TicketTypes))
	for _, tt := range ev.TicketTypes {
		if tt.ID == "" {
			return fmt.Errorf("catalog: event %s has a ticket type without id", ev.ID)
		}
		if _, dup := seen[tt.ID]; dup {
			return fmt.Errorf("catalog: event %s has duplicate ticket type %q", ev.ID, tt.ID)
		}
		seen[tt.ID] = struct{}{}
		if tt.Price.IsNegative() {
			return fmt.Errorf("catalog: ticket type %s/%s has negative price", ev.ID, tt.ID)
		}
	}
	return nil
}

func cloneEvent(ev models.Event) models.Event {
	ev.TicketTypes = append([]models.TicketType(nil), ev.TicketTypes...)
	return ev
}

func (c *Catalog) Len() int { return len(c.events) }

func (c *Catalog) Events() []models.Event {
	out := make([]models.Event, len(c.events))
	for i, ev := range c.events {
		out[i] = cloneEvent(ev)
	}
	return out
}

func (c *Catalog) Find(id string) (models.Event, error) {
	i, ok := c.byID[id]
	if !ok {
		return models.Event{}, fmt.Errorf("%w: %s", status.ErrEventNotFound, id)
	}
	return cloneEvent(c.events[i]), nil
}

// Filter matches query case-insensitively against title or location, and
// category exactly. An empty query or CategoryAll/empty category matches all.
func (c *Catalog) Filter(query string, category models.EventCategory) []models.Event {
	q := strings.ToLower(strings.TrimSpace(query))
	out := []models.Event{}
	for _, ev := range c.events {
		if category != "" && category != models.CategoryAll && ev.Category != category {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(ev.Title), q) &&
			!strings.Contains(strings.ToLower(ev.Location), q) {
			continue
		}
		out = append(out, cloneEvent(ev))
	}
	return out
}

// Featured returns the first n events.
func (c *Catalog) Featured(n int) []models.Event {
	if n <= 0 || n > len(c.events) {
		n = len(c.events)
	}
	return c.Events()[:n]
}

func MinPrice(ev models.Event) decimal.Decimal {
	if len(ev.TicketTypes) == 0 {
		return decimal.Zero
	}
	lowest := ev.TicketTypes[0].Price
	for _, tt := range ev.TicketTypes[1:] {
		if tt.Price.LessThan(lowest) {
			lowest = tt.Price
		}
	}
	return lowest
}

func GroupedTiers(ev models.Event) []TierGroup {
	groups := []TierGroup{}
	index := make(map[string]int)
	for _, tt := range ev.TicketTypes {
		i, ok := index[tt.Category]
		if !ok {
			i = len(groups)
			index[tt.Category] = i
			groups = append(groups, TierGroup{Category: tt.Category})
		}
		groups[i].Tiers = append(groups[i].Tiers, tt)
	}
	return groups
}

// Categories returns the filter choices, CategoryAll first.
func (c *Catalog) Categories() []models.EventCategory {
	return append([]models.EventCategory{models.CategoryAll}, models.Categories...)
}
