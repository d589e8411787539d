package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"eventhorizon/internal/assistant"
	"eventhorizon/internal/cart"
	"eventhorizon/internal/catalog"
	"eventhorizon/internal/ledger"
	"eventhorizon/internal/pricing"
	"eventhorizon/internal/status"
	"eventhorizon/internal/tickets"
	"eventhorizon/models"
	"eventhorizon/monitoring"

	"github.com/shopspring/decimal"
)

// DefaultDepositAmount is the fixed top-up used when a deposit names no amount.
var DefaultDepositAmount = decimal.NewFromInt(100)

type EventSummary struct {
	models.Event
	MinPrice decimal.Decimal `json:"min_price"`
}

type TierView struct {
	models.TicketType
	Label     string          `json:"label"`
	UnitTax   decimal.Decimal `json:"unit_tax"`
	UnitTotal decimal.Decimal `json:"unit_total"`
}

type TierGroupView struct {
	Category string     `json:"category"`
	Tiers    []TierView `json:"tiers"`
}

type EventDetail struct {
	EventSummary
	Groups     []TierGroupView `json:"groups"`
	TaxRate    decimal.Decimal `json:"tax_rate"`
	MaxPerTier int             `json:"max_per_tier"`
}

type CartView struct {
	EventID    string        `json:"event_id"`
	Quote      pricing.Quote `json:"quote"`
	MaxPerTier int           `json:"max_per_tier"`
}

type WalletView struct {
	Wallet       models.UserWallet    `json:"wallet"`
	Transactions []models.Transaction `json:"transactions"`
}

type TicketView struct {
	models.IssuedTicket
	Event EventSummary `json:"event"`
}

type StorefrontConfig struct {
	MaxPerTier    int
	DepositAmount decimal.Decimal
	SessionID     string
}

// StorefrontService composes the catalog, the single detail-screen cart, the
// wallet ledger and the assistant into the storefront's operations.
type StorefrontService struct {
	catalog  *catalog.Catalog
	ledger   *ledger.Ledger
	pricing  *pricing.Calculator
	issuer   *tickets.Issuer
	bridge   *assistant.Bridge
	notifier Notifier
	monitor  *monitoring.Monitor
	logger   *slog.Logger
	cfg      StorefrontConfig

	mu   sync.Mutex
	cart *cart.Cart
}

func NewStorefrontService(
	cat *catalog.Catalog,
	led *ledger.Ledger,
	calc *pricing.Calculator,
	issuer *tickets.Issuer,
	bridge *assistant.Bridge,
	notifier Notifier,
	monitor *monitoring.Monitor,
	cfg StorefrontConfig,
) *StorefrontService {
	if cfg.MaxPerTier <= 0 {
		cfg.MaxPerTier = cart.DefaultMaxPerTier
	}
	if !cfg.DepositAmount.IsPositive() {
		cfg.DepositAmount = DefaultDepositAmount
	}
	if cfg.SessionID == "" {
		cfg.SessionID = "default"
	}
	if notifier == nil {
		notifier = NoopNotifier{}
	}
	if monitor == nil {
		monitor = monitoring.NewMonitor(nil)
	}

	s := &StorefrontService{
		catalog:  cat,
		ledger:   led,
		pricing:  calc,
		issuer:   issuer,
		bridge:   bridge,
		notifier: notifier,
		monitor:  monitor,
		logger:   slog.Default(),
		cfg:      cfg,
	}
	s.monitor.SetBalance(led.Wallet().Balance)
	return s
}

func (s *StorefrontService) summary(ev models.Event) EventSummary {
	return EventSummary{Event: ev, MinPrice: catalog.MinPrice(ev)}
}

func (s *StorefrontService) summaries(events []models.Event) []EventSummary {
	out := make([]EventSummary, 0, len(events))
	for _, ev := range events {
		out = append(out, s.summary(ev))
	}
	return out
}

func (s *StorefrontService) ListEvents(query string, category models.EventCategory) []EventSummary {
	return s.summaries(s.catalog.Filter(query, category))
}

func (s *StorefrontService) FeaturedEvents() []EventSummary {
	return s.summaries(s.catalog.Featured(catalog.DefaultFeatured))
}

func (s *StorefrontService) Categories() []models.EventCategory {
	return s.catalog.Categories()
}

func (s *StorefrontService) EventDetail(eventID string) (*EventDetail, error) {
	ev, err := s.catalog.Find(eventID)
	if err != nil {
		return nil, err
	}

	groups := catalog.GroupedTiers(ev)
	views := make([]TierGroupView, 0, len(groups))
	for _, g := range groups {
		gv := TierGroupView{Category: g.Category, Tiers: make([]TierView, 0, len(g.Tiers))}
		for _, tt := range g.Tiers {
			gv.Tiers = append(gv.Tiers, TierView{
				TicketType: tt,
				Label:      tt.Label(),
				UnitTax:    s.pricing.UnitTax(tt.Price),
				UnitTotal:  s.pricing.UnitTotal(tt.Price),
			})
		}
		views = append(views, gv)
	}

	return &EventDetail{
		EventSummary: s.summary(ev),
		Groups:       views,
		TaxRate:      s.pricing.TaxRate,
		MaxPerTier:   s.cfg.MaxPerTier,
	}, nil
}

// OpenSession enters the detail screen of an event with a fresh cart,
// discarding any previous selection.
func (s *StorefrontService) OpenSession(eventID string) (*CartView, error) {
	ev, err := s.catalog.Find(eventID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart = cart.New(ev, s.cfg.MaxPerTier)
	return s.cartView(), nil
}

// CloseSession leaves the detail screen; the selection is discarded.
func (s *StorefrontService) CloseSession() {
	s.mu.Lock()
	s.cart = nil
	s.mu.Unlock()
}

func (s *StorefrontService) Cart() (*CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart == nil {
		return nil, status.ErrNoDetailSession
	}
	return s.cartView(), nil
}

func (s *StorefrontService) Increment(tierID string) (*CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart == nil {
		return nil, status.ErrNoDetailSession
	}
	if _, err := s.cart.Increment(tierID); err != nil {
		return nil, err
	}
	return s.cartView(), nil
}

func (s *StorefrontService) Decrement(tierID string) (*CartView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart == nil {
		return nil, status.ErrNoDetailSession
	}
	s.cart.Decrement(tierID)
	return s.cartView(), nil
}

// cartView must be called with mu held and a cart open.
func (s *StorefrontService) cartView() *CartView {
	return &CartView{
		EventID:    s.cart.Event().ID,
		Quote:      s.pricing.Quote(s.cart.Selections()),
		MaxPerTier: s.cart.MaxPerTier(),
	}
}

// Checkout purchases the open cart. On success the cart is emptied; on any
// failure it is left as it was.
func (s *StorefrontService) Checkout(ctx context.Context) (*ledger.PurchaseResult, error) {
	result, payload, err := s.purchaseCart()
	if err != nil {
		return nil, err
	}
	s.notify(ctx, payload)
	return result, nil
}

// purchaseCart runs the purchase under mu and returns the notification to
// publish once mu is released.
func (s *StorefrontService) purchaseCart() (*ledger.PurchaseResult, map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cart == nil {
		return nil, nil, status.ErrNoDetailSession
	}

	ev := s.cart.Event()
	result, err := s.ledger.Purchase(ev, s.cart.Selections())
	if err != nil {
		s.monitor.TrackPurchase(ev.ID, purchaseResult(err), 0)
		return nil, nil, err
	}
	s.cart.Clear()

	s.monitor.TrackPurchase(ev.ID, "success", len(result.Tickets))
	s.monitor.SetBalance(result.Wallet.Balance)
	s.logger.Info("tickets purchased",
		"eventID", ev.ID,
		"tickets", len(result.Tickets),
		"total", result.Total.StringFixed(2),
		"balance", result.Wallet.Balance.StringFixed(2),
	)

	return result, map[string]any{
		"type":           NotifyTicketsIssued,
		"event_id":       ev.ID,
		"transaction_id": result.Transaction.ID,
		"tickets":        len(result.Tickets),
		"total":          result.Total.StringFixed(2),
		"balance":        result.Wallet.Balance.StringFixed(2),
	}, nil
}

func purchaseResult(err error) string {
	switch {
	case errors.Is(err, status.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, status.ErrEmptySelection):
		return "empty_selection"
	default:
		return "error"
	}
}

func (s *StorefrontService) Wallet() WalletView {
	return WalletView{
		Wallet:       s.ledger.Wallet(),
		Transactions: s.ledger.Transactions(),
	}
}

// Deposit credits amount, or the configured fixed top-up when amount is nil.
func (s *StorefrontService) Deposit(ctx context.Context, amount *decimal.Decimal) (*ledger.DepositResult, error) {
	value := s.cfg.DepositAmount
	if amount != nil {
		value = *amount
	}

	result, err := s.ledger.Deposit(value)
	if err != nil {
		s.monitor.TrackDeposit("invalid")
		return nil, err
	}

	s.monitor.TrackDeposit("success")
	s.monitor.SetBalance(result.Wallet.Balance)
	s.logger.Info("wallet deposit", "amount", value.StringFixed(2), "balance", result.Wallet.Balance.StringFixed(2))

	s.notify(ctx, map[string]any{
		"type":           NotifyFundsAdded,
		"transaction_id": result.Transaction.ID,
		"amount":         value.StringFixed(2),
		"balance":        result.Wallet.Balance.StringFixed(2),
	})
	return result, nil
}

// Tickets lists issued tickets with their event. Tickets whose event is no
// longer in the catalog are skipped.
func (s *StorefrontService) Tickets() []TicketView {
	issued := s.ledger.Tickets()
	out := make([]TicketView, 0, len(issued))
	for _, t := range issued {
		ev, err := s.catalog.Find(t.EventID)
		if err != nil {
			continue
		}
		out = append(out, TicketView{IssuedTicket: t, Event: s.summary(ev)})
	}
	return out
}

// TicketQR renders the QR image of an issued ticket after verifying its
// payload.
func (s *StorefrontService) TicketQR(ticketID string) ([]byte, error) {
	t, err := s.ledger.Ticket(ticketID)
	if err != nil {
		return nil, err
	}
	if err := s.issuer.Verify(t); err != nil {
		return nil, err
	}
	img, err := tickets.RenderQR(t.QRCodeData)
	if err != nil {
		return nil, fmt.Errorf("render qr for %s: %w", ticketID, err)
	}
	return img, nil
}

func (s *StorefrontService) Ask(ctx context.Context, query string) (string, error) {
	return s.bridge.Ask(ctx, query)
}

func (s *StorefrontService) Conversation() []models.ChatMessage {
	return s.bridge.History()
}

func (s *StorefrontService) notify(ctx context.Context, payload map[string]any) {
	channel := WalletChannel(s.cfg.SessionID)
	if err := s.notifier.Notify(ctx, channel, payload); err != nil {
		s.logger.Error("failed to publish wallet notification", "channel", channel, "error", err)
	}
}

// Reconcile verifies the wallet balance against its transaction log.
func (s *StorefrontService) Reconcile() error {
	return s.ledger.Reconcile()
}

func (s *StorefrontService) SessionID() string { return s.cfg.SessionID }
