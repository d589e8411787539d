package status

import "errors"

var (
	ErrInsufficientFunds  = errors.New("ledger: insufficient funds")
	ErrInvalidAmount      = errors.New("ledger: amount must be positive")
	ErrInvalidTransaction = errors.New("ledger: transaction sign does not match its type")
	ErrLedgerDrift        = errors.New("ledger: balance does not reconcile with transactions")

	ErrEmptySelection     = errors.New("cart: no tickets selected")
	ErrInvalidQuantity    = errors.New("cart: quantity must be positive")
	ErrTicketTypeNotFound = errors.New("cart: ticket type not found")
	ErrNoDetailSession    = errors.New("cart: no event detail session open")

	ErrEventNotFound  = errors.New("catalog: event not found")
	ErrTicketNotFound = errors.New("tickets: ticket not found")
	ErrInvalidQRCode  = errors.New("tickets: qr code does not verify")

	ErrAssistantUnavailable = errors.New("assistant: recommender unavailable")
	ErrAssistantBusy        = errors.New("assistant: a request is already in flight")
	ErrEmptyQuery           = errors.New("assistant: query is empty")
)
