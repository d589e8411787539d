// Package ledger owns the wallet balance, its transaction log and the issued
// ticket set. The three only ever change together, under one lock.
package ledger

import (
	"fmt"
	"sync"
	"time"

	"eventhorizon/internal/ids"
	"eventhorizon/internal/pricing"
	"eventhorizon/internal/status"
	"eventhorizon/internal/tickets"
	"eventhorizon/models"

	"github.com/shopspring/decimal"
)

const DepositDescription = "Recarga de Carteira"

type PurchaseResult struct {
	Tickets     []models.IssuedTicket `json:"tickets"`
	Transaction models.Transaction    `json:"transaction"`
	Wallet      models.UserWallet     `json:"wallet"`
	Total       decimal.Decimal       `json:"total"`
}

type DepositResult struct {
	Transaction models.Transaction `json:"transaction"`
	Wallet      models.UserWallet  `json:"wallet"`
}

type Ledger struct {
	pricing *pricing.Calculator
	issuer  *tickets.Issuer
	ids     ids.Generator
	now     func() time.Time

	mu      sync.Mutex
	opening decimal.Decimal
	wallet  models.UserWallet
	// most recent first
	transactions []models.Transaction
	tickets      []models.IssuedTicket
}

type Option func(*Ledger)

func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

func WithIDs(gen ids.Generator) Option {
	return func(l *Ledger) { l.ids = gen }
}

func New(owner string, opening decimal.Decimal, calc *pricing.Calculator, issuer *tickets.Issuer, opts ...Option) *Ledger {
	l := &Ledger{
		pricing: calc,
		issuer:  issuer,
		ids:     ids.Random{},
		now:     time.Now,
		opening: opening,
		wallet:  models.UserWallet{Name: owner, Balance: opening},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Replay applies historical transactions, oldest first, as if they had been
// recorded through the ledger.
func (l *Ledger) Replay(history ...models.Transaction) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, tx := range history {
		if !tx.SignValid() {
			return fmt.Errorf("%w: %s %s %s", status.ErrInvalidTransaction, tx.ID, tx.Type, tx.Amount)
		}
	}
	for _, tx := range history {
		l.record(tx)
	}
	return nil
}

// Purchase debits the wallet for selections of event and issues one ticket per
// unit. On any error the wallet, log and ticket set are left untouched.
func (l *Ledger) Purchase(event models.Event, selections []pricing.Selection) (*PurchaseResult, error) {
	// Tiers are re-resolved from the event so prices come from the catalog
	// copy, never from the caller.
	priced := make([]pricing.Selection, 0, len(selections))
	for _, sel := range selections {
		if sel.Quantity <= 0 {
			return nil, fmt.Errorf("%w: %s has %d", status.ErrInvalidQuantity, sel.TicketType.ID, sel.Quantity)
		}
		tier, ok := event.TicketType(sel.TicketType.ID)
		if !ok {
			return nil, fmt.Errorf("%w: %s not sold for %s", status.ErrTicketTypeNotFound, sel.TicketType.ID, event.ID)
		}
		priced = append(priced, pricing.Selection{TicketType: tier, Quantity: sel.Quantity})
	}
	units := pricing.Units(priced)
	if units == 0 {
		return nil, status.ErrEmptySelection
	}
	total := l.pricing.Total(priced)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.wallet.Balance.LessThan(total) {
		return nil, fmt.Errorf("%w: balance %s, total %s", status.ErrInsufficientFunds, l.wallet.Balance.StringFixed(2), total.StringFixed(2))
	}

	now := l.now()
	issued, err := l.issuer.Issue(event, priced, now)
	if err != nil {
		return nil, fmt.Errorf("issue tickets: %w", err)
	}
	txID, err := l.ids.NewID()
	if err != nil {
		return nil, err
	}
	tx := models.Transaction{
		ID:          txID,
		Type:        models.TransactionPurchase,
		Amount:      total.Neg(),
		Date:        now,
		Description: fmt.Sprintf("Ingressos (%dx): %s", units, event.Title),
	}

	l.record(tx)
	l.tickets = append(l.tickets, issued...)

	return &PurchaseResult{
		Tickets:     append([]models.IssuedTicket(nil), issued...),
		Transaction: tx,
		Wallet:      l.wallet,
		Total:       total,
	}, nil
}

// Deposit credits amount, which must be positive. There is no upper bound.
func (l *Ledger) Deposit(amount decimal.Decimal) (*DepositResult, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: %s", status.ErrInvalidAmount, amount)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	txID, err := l.ids.NewID()
	if err != nil {
		return nil, err
	}
	tx := models.Transaction{
		ID:          txID,
		Type:        models.TransactionDeposit,
		Amount:      amount,
		Date:        l.now(),
		Description: DepositDescription,
	}
	l.record(tx)

	return &DepositResult{Transaction: tx, Wallet: l.wallet}, nil
}

// record must be called with mu held.
func (l *Ledger) record(tx models.Transaction) {
	l.wallet.Balance = l.wallet.Balance.Add(tx.Amount)
	l.transactions = append([]models.Transaction{tx}, l.transactions...)
}

func (l *Ledger) Wallet() models.UserWallet {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.wallet
}

// Transactions returns the log, most recent first.
func (l *Ledger) Transactions() []models.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.Transaction(nil), l.transactions...)
}

// Tickets returns issued tickets in issuance order.
func (l *Ledger) Tickets() []models.IssuedTicket {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]models.IssuedTicket(nil), l.tickets...)
}

func (l *Ledger) Ticket(id string) (models.IssuedTicket, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, t := range l.tickets {
		if t.ID == id {
			return t, nil
		}
	}
	return models.IssuedTicket{}, fmt.Errorf("%w: %s", status.ErrTicketNotFound, id)
}

// Reconcile checks balance == opening + sum(transaction amounts).
func (l *Ledger) Reconcile() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	expected := l.opening
	for _, tx := range l.transactions {
		expected = expected.Add(tx.Amount)
	}
	if !expected.Equal(l.wallet.Balance) {
		return fmt.Errorf("%w: balance %s, expected %s", status.ErrLedgerDrift, l.wallet.Balance, expected)
	}
	return nil
}

// OpeningFor returns the opening balance from which history ends at balance.
func OpeningFor(balance decimal.Decimal, history []models.Transaction) decimal.Decimal {
	opening := balance
	for _, tx := range history {
		opening = opening.Sub(tx.Amount)
	}
	return opening
}
