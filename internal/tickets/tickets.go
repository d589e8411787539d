// Package tickets materializes purchased units into issued tickets and signs
// their QR payloads so a door scanner can tell a real code from a made-up one.
package tickets

import (
	"bytes"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"eventhorizon/internal/ids"
	"eventhorizon/internal/pricing"
	"eventhorizon/internal/status"
	"eventhorizon/models"
	"eventhorizon/utils"

	"github.com/yeqown/go-qrcode"
	"golang.org/x/crypto/blake2b"
)

const (
	qrPrefix  = "TICKET"
	macSize   = 16
	nonceSize = 8
)

type Issuer struct {
	ids   ids.Generator
	key   []byte
	nonce func() (string, error)
}

// NewIssuer signs QR payloads with key; an empty key gets a random one that
// lives as long as the issuer.
func NewIssuer(gen ids.Generator, key []byte) (*Issuer, error) {
	if len(key) == 0 {
		k, err := utils.GenerateKey(32)
		if err != nil {
			return nil, fmt.Errorf("generate qr key: %w", err)
		}
		key = k
	}
	if len(key) > blake2b.Size {
		return nil, fmt.Errorf("qr key longer than %d bytes", blake2b.Size)
	}
	return &Issuer{
		ids:   gen,
		key:   key,
		nonce: func() (string, error) { return utils.GenerateCode(nonceSize) },
	}, nil
}

// Issue produces one valid ticket per unit across selections, each stamped
// with its own tier's base price.
func (i *Issuer) Issue(event models.Event, selections []pricing.Selection, at time.Time) ([]models.IssuedTicket, error) {
	out := make([]models.IssuedTicket, 0, pricing.Units(selections))
	for _, sel := range selections {
		for n := 0; n < sel.Quantity; n++ {
			id, err := i.ids.NewID()
			if err != nil {
				return nil, err
			}
			qr, err := i.sign(event.ID, sel.TicketType.ID, id)
			if err != nil {
				return nil, err
			}
			out = append(out, models.IssuedTicket{
				ID:             id,
				EventID:        event.ID,
				TicketTypeID:   sel.TicketType.ID,
				TicketTypeName: sel.TicketType.Label(),
				PricePaid:      sel.TicketType.Price,
				PurchaseDate:   at,
				QRCodeData:     qr,
				Status:         models.TicketValid,
			})
		}
	}
	return out, nil
}

// Verify checks that the ticket's QR payload was produced by this issuer for
// this ticket.
func (i *Issuer) Verify(t models.IssuedTicket) error {
	prefix := payloadPrefix(t.EventID, t.TicketTypeID)
	rest, ok := strings.CutPrefix(t.QRCodeData, prefix)
	if !ok {
		return status.ErrInvalidQRCode
	}
	nonce, mac, ok := strings.Cut(rest, ".")
	if !ok || nonce == "" {
		return status.ErrInvalidQRCode
	}
	got, err := hex.DecodeString(mac)
	if err != nil {
		return status.ErrInvalidQRCode
	}
	want, err := i.mac(t.EventID, t.TicketTypeID, t.ID, nonce)
	if err != nil {
		return err
	}
	if subtle.ConstantTimeCompare(got, want) != 1 {
		return status.ErrInvalidQRCode
	}
	return nil
}

func (i *Issuer) sign(eventID, tierID, ticketID string) (string, error) {
	nonce, err := i.nonce()
	if err != nil {
		return "", fmt.Errorf("generate qr nonce: %w", err)
	}
	mac, err := i.mac(eventID, tierID, ticketID, nonce)
	if err != nil {
		return "", err
	}
	return payloadPrefix(eventID, tierID) + nonce + "." + hex.EncodeToString(mac), nil
}

func (i *Issuer) mac(parts ...string) ([]byte, error) {
	h, err := blake2b.New(macSize, i.key)
	if err != nil {
		return nil, fmt.Errorf("init qr mac: %w", err)
	}
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return h.Sum(nil), nil
}

func payloadPrefix(eventID, tierID string) string {
	return qrPrefix + "-" + eventID + "-" + tierID + "-"
}

// RenderQR encodes data as a JPEG QR code.
func RenderQR(data string) ([]byte, error) {
	qrc, err := qrcode.New(data)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	var buf bytes.Buffer
	if err := qrc.SaveTo(&buf); err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}
	return buf.Bytes(), nil
}
