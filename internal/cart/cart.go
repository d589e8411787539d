package cart

import (
	"fmt"

	"eventhorizon/internal/pricing"
	"eventhorizon/internal/status"
	"eventhorizon/models"
)

const DefaultMaxPerTier = 10

// Cart is the in-progress selection for one event detail session. A tier is
// either absent or held with a quantity in [1, MaxPerTier]; zero is never stored.
type Cart struct {
	event      models.Event
	maxPerTier int
	items      map[string]int
}

func New(event models.Event, maxPerTier int) *Cart {
	if maxPerTier <= 0 {
		maxPerTier = DefaultMaxPerTier
	}
	return &Cart{
		event:      event,
		maxPerTier: maxPerTier,
		items:      make(map[string]int),
	}
}

func (c *Cart) Event() models.Event { return c.event }

func (c *Cart) MaxPerTier() int { return c.maxPerTier }

// Increment adds one unit of the tier. At the cap it is a no-op and returns
// the unchanged quantity.
func (c *Cart) Increment(tierID string) (int, error) {
	if _, ok := c.event.TicketType(tierID); !ok {
		return 0, fmt.Errorf("%w: %s", status.ErrTicketTypeNotFound, tierID)
	}
	qty := c.items[tierID]
	if qty >= c.maxPerTier {
		return qty, nil
	}
	c.items[tierID] = qty + 1
	return qty + 1, nil
}

// Decrement removes one unit; the entry is dropped when it reaches zero.
// Absent tiers are left alone.
func (c *Cart) Decrement(tierID string) int {
	qty, ok := c.items[tierID]
	if !ok {
		return 0
	}
	if qty <= 1 {
		delete(c.items, tierID)
		return 0
	}
	c.items[tierID] = qty - 1
	return qty - 1
}

func (c *Cart) Quantity(tierID string) int {
	return c.items[tierID]
}

func (c *Cart) Items() map[string]int {
	out := make(map[string]int, len(c.items))
	for k, v := range c.items {
		out[k] = v
	}
	return out
}

func (c *Cart) Empty() bool { return len(c.items) == 0 }

func (c *Cart) Units() int {
	units := 0
	for _, qty := range c.items {
		units += qty
	}
	return units
}

func (c *Cart) Clear() {
	c.items = make(map[string]int)
}

// Selections lists the chosen tiers in the event's tier order.
func (c *Cart) Selections() []pricing.Selection {
	out := make([]pricing.Selection, 0, len(c.items))
	for _, tt := range c.event.TicketTypes {
		if qty := c.items[tt.ID]; qty > 0 {
			out = append(out, pricing.Selection{TicketType: tt, Quantity: qty})
		}
	}
	return out
}
