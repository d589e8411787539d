package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type EventCategory string

const (
	CategoryMusic      EventCategory = "Música"
	CategoryTheater    EventCategory = "Teatro"
	CategorySports     EventCategory = "Esportes"
	CategoryConference EventCategory = "Conferência"
	CategoryNightlife  EventCategory = "Vida Noturna"

	// CategoryAll is the filter value that matches every category.
	CategoryAll EventCategory = "Todos"
)

// Categories lists the event categories in display order.
var Categories = []EventCategory{
	CategoryMusic,
	CategoryTheater,
	CategorySports,
	CategoryConference,
	CategoryNightlife,
}

func (c EventCategory) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

type Event struct {
	ID          string        `json:"id" yaml:"id"`
	Title       string        `json:"title" yaml:"title"`
	Date        time.Time     `json:"date" yaml:"date"`
	Location    string        `json:"location" yaml:"location"`
	Image       string        `json:"image,omitempty" yaml:"image"`
	Category    EventCategory `json:"category" yaml:"category"`
	Description string        `json:"description" yaml:"description"`
	TicketTypes []TicketType  `json:"ticket_types" yaml:"ticket_types"`
}

// TicketType returns the tier with the given id, if the event sells it.
func (e Event) TicketType(id string) (TicketType, bool) {
	for _, tt := range e.TicketTypes {
		if tt.ID == id {
			return tt, true
		}
	}
	return TicketType{}, false
}

type TicketType struct {
	ID          string          `json:"id" yaml:"id"`
	Category    string          `json:"category" yaml:"category"` // tier group, e.g. "Pista Comum"
	Name        string          `json:"name" yaml:"name"`
	Price       decimal.Decimal `json:"price" yaml:"price"`
	Description string          `json:"description,omitempty" yaml:"description"`
	Features    []string        `json:"features,omitempty" yaml:"features"`
}

// Label is the denormalized name stamped on issued tickets.
func (t TicketType) Label() string {
	return t.Category + " - " + t.Name
}
