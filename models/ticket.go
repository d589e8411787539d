package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type TicketStatus string

const (
	TicketValid   TicketStatus = "valid"
	TicketUsed    TicketStatus = "used"
	TicketExpired TicketStatus = "expired"
)

type IssuedTicket struct {
	ID             string          `json:"id"`
	EventID        string          `json:"event_id"`
	TicketTypeID   string          `json:"ticket_type_id"`
	TicketTypeName string          `json:"ticket_type_name"`
	PricePaid      decimal.Decimal `json:"price_paid"` // base price, tax excluded
	PurchaseDate   time.Time       `json:"purchase_date"`
	QRCodeData     string          `json:"qr_code_data"`
	Status         TicketStatus    `json:"status"`
}
