package services

import (
	"context"
	"fmt"
	"log/slog"

	pubnub "github.com/pubnub/go/v7"
)

// Notification types published on the wallet channel.
const (
	NotifyTicketsIssued = "tickets_issued"
	NotifyFundsAdded    = "funds_added"
)

type Notifier interface {
	Notify(ctx context.Context, channel string, payload map[string]any) error
}

func WalletChannel(sessionID string) string {
	return fmt.Sprintf("wallet-%s", sessionID)
}

type PubNubConfig struct {
	PublishKey   string
	SubscribeKey string
	SecretKey    string
	UserID       string
}

type PubNubNotifier struct {
	pn *pubnub.PubNub
}

// NewNotifier returns a PubNub notifier, or a no-op one when no publish key
// is configured.
func NewNotifier(cfg PubNubConfig) Notifier {
	if cfg.PublishKey == "" || cfg.SubscribeKey == "" {
		slog.Info("pubnub keys not configured, wallet notifications disabled")
		return NoopNotifier{}
	}

	pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.UserID))
	pnCfg.PublishKey = cfg.PublishKey
	pnCfg.SubscribeKey = cfg.SubscribeKey
	pnCfg.SecretKey = cfg.SecretKey

	return &PubNubNotifier{pn: pubnub.NewPubNub(pnCfg)}
}

func (n *PubNubNotifier) Notify(_ context.Context, channel string, payload map[string]any) error {
	_, _, err := n.pn.Publish().
		Channel(channel).
		Message(payload).
		Execute()
	if err != nil {
		return fmt.Errorf("pubnub publish to %s: %w", channel, err)
	}
	return nil
}

type NoopNotifier struct{}

func (NoopNotifier) Notify(context.Context, string, map[string]any) error { return nil }
