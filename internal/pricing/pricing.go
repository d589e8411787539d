// Package pricing holds the one tax and total computation shared by the cart
// quote and the purchase debit.
package pricing

import (
	"eventhorizon/models"

	"github.com/shopspring/decimal"
)

// DefaultTaxRate is the flat service tax applied on top of every tier price.
var DefaultTaxRate = decimal.RequireFromString("0.10")

type Selection struct {
	TicketType models.TicketType `json:"ticket_type"`
	Quantity   int               `json:"quantity"`
}

type Line struct {
	TicketType models.TicketType `json:"ticket_type"`
	Quantity   int               `json:"quantity"`
	UnitPrice  decimal.Decimal   `json:"unit_price"`
	UnitTax    decimal.Decimal   `json:"unit_tax"`
	LineTotal  decimal.Decimal   `json:"line_total"`
}

type Quote struct {
	Lines []Line          `json:"lines"`
	Units int             `json:"units"`
	Total decimal.Decimal `json:"total"`
}

type Calculator struct {
	TaxRate decimal.Decimal
}

func NewCalculator(taxRate decimal.Decimal) *Calculator {
	return &Calculator{TaxRate: taxRate}
}

func (c *Calculator) UnitTax(price decimal.Decimal) decimal.Decimal {
	return price.Mul(c.TaxRate)
}

// UnitTotal is price * (1 + TaxRate).
func (c *Calculator) UnitTotal(price decimal.Decimal) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(1).Add(c.TaxRate))
}

// LineTotal is zero for non-positive quantities.
func (c *Calculator) LineTotal(sel Selection) decimal.Decimal {
	if sel.Quantity <= 0 {
		return decimal.Zero
	}
	return c.UnitTotal(sel.TicketType.Price).Mul(decimal.NewFromInt(int64(sel.Quantity)))
}

func (c *Calculator) Total(selections []Selection) decimal.Decimal {
	total := decimal.Zero
	for _, sel := range selections {
		total = total.Add(c.LineTotal(sel))
	}
	return total
}

// Units counts purchasable units, ignoring non-positive quantities.
func Units(selections []Selection) int {
	units := 0
	for _, sel := range selections {
		if sel.Quantity > 0 {
			units += sel.Quantity
		}
	}
	return units
}

func (c *Calculator) Quote(selections []Selection) Quote {
	q := Quote{Lines: make([]Line, 0, len(selections)), Total: decimal.Zero}
	for _, sel := range selections {
		if sel.Quantity <= 0 {
			continue
		}
		line := Line{
			TicketType: sel.TicketType,
			Quantity:   sel.Quantity,
			UnitPrice:  sel.TicketType.Price,
			UnitTax:    c.UnitTax(sel.TicketType.Price),
			LineTotal:  c.LineTotal(sel),
		}
		q.Lines = append(q.Lines, line)
		q.Units += sel.Quantity
		q.Total = q.Total.Add(line.LineTotal)
	}
	return q
}
