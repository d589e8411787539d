package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestEventCategory_Valid(t *testing.T) {
	for _, c := range Categories {
		assert.True(t, c.Valid(), c)
	}
	assert.False(t, CategoryAll.Valid())
	assert.False(t, EventCategory("musica").Valid())
}

func TestTicketType_Label(t *testing.T) {
	tt := TicketType{Category: "VIP Experience", Name: "Meia Social"}

	assert.Equal(t, "VIP Experience - Meia Social", tt.Label())
}

func TestEvent_TicketType(t *testing.T) {
	ev := Event{
		ID: "e1",
		TicketTypes: []TicketType{
			{ID: "a", Price: decimal.NewFromInt(10)},
			{ID: "b", Price: decimal.NewFromInt(20)},
		},
	}

	tt, ok := ev.TicketType("b")
	assert.True(t, ok)
	assert.True(t, decimal.NewFromInt(20).Equal(tt.Price))

	_, ok = ev.TicketType("c")
	assert.False(t, ok)
}

func TestTransaction_SignValid(t *testing.T) {
	tests := []struct {
		name   string
		typ    TransactionType
		amount string
		want   bool
	}{
		{"deposit positive", TransactionDeposit, "100", true},
		{"deposit negative", TransactionDeposit, "-100", false},
		{"deposit zero", TransactionDeposit, "0", false},
		{"purchase negative", TransactionPurchase, "-165", true},
		{"purchase positive", TransactionPurchase, "165", false},
		{"refund positive", TransactionRefund, "10", true},
		{"unknown type", TransactionType("fee"), "-1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := Transaction{Type: tt.typ, Amount: decimal.RequireFromString(tt.amount)}
			assert.Equal(t, tt.want, tx.SignValid())
		})
	}
}
